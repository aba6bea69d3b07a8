package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"gatherly-backend/database"
	"gatherly-backend/middleware"
	"gatherly-backend/util"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// newTestMux wires the handlers under test the same way main does.
func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /events", middleware.AuthMiddleware(http.HandlerFunc(ListEventsHandler)))
	mux.Handle("POST /events", middleware.AuthMiddleware(http.HandlerFunc(CreateEventHandler)))
	mux.Handle("GET /events/{eventID}", middleware.AuthMiddleware(http.HandlerFunc(GetEventHandler)))
	mux.Handle("PUT /events/{eventID}", middleware.AuthMiddleware(http.HandlerFunc(UpdateEventHandler)))
	mux.Handle("DELETE /events/{eventID}", middleware.AuthMiddleware(http.HandlerFunc(DeleteEventHandler)))
	mux.Handle("POST /events/{eventID}/invite", middleware.AuthMiddleware(http.HandlerFunc(InviteToEventHandler)))
	mux.Handle("POST /events/{eventID}/rsvp", middleware.AuthMiddleware(http.HandlerFunc(RSVPEventHandler)))
	mux.Handle("GET /rsvps", middleware.AuthMiddleware(http.HandlerFunc(ListRSVPsHandler)))
	mux.Handle("GET /events/{eventID}/tasks", middleware.AuthMiddleware(http.HandlerFunc(ListTasksHandler)))
	mux.Handle("POST /events/{eventID}/tasks", middleware.AuthMiddleware(http.HandlerFunc(CreateTaskHandler)))
	mux.Handle("GET /events/{eventID}/assignable-users", middleware.AuthMiddleware(http.HandlerFunc(AssignableUsersHandler)))
	mux.Handle("PUT /tasks/{taskID}", middleware.AuthMiddleware(http.HandlerFunc(UpdateTaskHandler)))
	mux.Handle("POST /tasks/{taskID}/toggle", middleware.AuthMiddleware(http.HandlerFunc(ToggleTaskHandler)))
	mux.Handle("DELETE /tasks/{taskID}", middleware.AuthMiddleware(http.HandlerFunc(DeleteTaskHandler)))
	mux.Handle("GET /api/chats", middleware.AuthMiddleware(http.HandlerFunc(GetChatsHandler)))
	mux.Handle("GET /api/chats/{chatID}/messages", middleware.AuthMiddleware(http.HandlerFunc(ListMessagesHandler)))
	mux.Handle("POST /api/chats/{chatID}/messages", middleware.AuthMiddleware(http.HandlerFunc(AddMessageHandler)))
	return mux
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

// doRequest performs an authenticated JSON request against the mux.
func doRequest(t *testing.T, mux *http.ServeMux, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	token, err := util.CreateSession(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: util.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// createEventVia posts an event as the given user and returns its ID.
func createEventVia(t *testing.T, mux *http.ServeMux, userID int64, date time.Time) int64 {
	t.Helper()
	rec := doRequest(t, mux, userID, http.MethodPost, "/events", map[string]string{
		"title": "Picnic",
		"date":  date.Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		EventID int64 `json:"event_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.EventID
}

func countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := database.DB.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query %q: %v", query, err)
	}
	return n
}
