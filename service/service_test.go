package service

import (
	"strconv"
	"testing"
	"time"

	"gatherly-backend/database"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func setupTestDB(t *testing.T) {
	t.Helper()
	if err := database.InitDB(":memory:"); err != nil {
		t.Fatalf("init db: %v", err)
	}
	// One connection so every statement sees the same in-memory database.
	database.DB.SetMaxOpenConns(1)
	t.Cleanup(func() { database.DB.Close() })
}

func createUser(t *testing.T, username string) int64 {
	t.Helper()
	res, err := database.DB.Exec(
		"INSERT INTO users (username, email, password, created_at) VALUES (?, ?, 'x', ?)",
		username, username+"@example.com", time.Now(),
	)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	id, _ := res.LastInsertId()
	return id
}

func createEvent(t *testing.T, creatorID int64, date time.Time, status string) int64 {
	t.Helper()
	res, err := database.DB.Exec(
		"INSERT INTO events (title, date, description, location, creator_id, status, created_at) VALUES ('Picnic', ?, '', '', ?, ?, ?)",
		date, creatorID, status, time.Now(),
	)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := database.DB.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query %q: %v", query, err)
	}
	return n
}
