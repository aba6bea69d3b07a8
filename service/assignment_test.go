package service

import (
	"testing"
	"time"

	"gatherly-backend/database"
)

func TestAssignableUserIDs(t *testing.T) {
	setupTestDB(t)
	creator := createUser(t, "alice")
	attendee := createUser(t, "bob")
	decliner := createUser(t, "carol")
	bystander := createUser(t, "dave")
	eventID := createEvent(t, creator, time.Now().Add(24*time.Hour), "ACTIVE")

	for _, rsvp := range []struct {
		userID int64
		status string
	}{
		{attendee, "YES"},
		{decliner, "NO"},
	} {
		if _, err := database.DB.Exec(
			"INSERT INTO rsvps (user_id, event_id, status, responded_at) VALUES (?, ?, ?, ?)",
			rsvp.userID, eventID, rsvp.status, time.Now(),
		); err != nil {
			t.Fatalf("insert rsvp: %v", err)
		}
	}

	ids, err := AssignableUserIDs(database.DB, eventID)
	if err != nil {
		t.Fatalf("assignable users: %v", err)
	}
	got := make(map[int64]bool, len(ids))
	for _, id := range ids {
		got[id] = true
	}
	if len(got) != 2 || !got[creator] || !got[attendee] {
		t.Fatalf("expected creator and YES attendee only, got %v", ids)
	}

	for _, tc := range []struct {
		userID int64
		want   bool
	}{
		{creator, true},
		{attendee, true},
		{decliner, false},
		{bystander, false},
	} {
		ok, err := CanAssign(database.DB, eventID, tc.userID)
		if err != nil {
			t.Fatalf("can assign: %v", err)
		}
		if ok != tc.want {
			t.Fatalf("CanAssign(%d) = %v, want %v", tc.userID, ok, tc.want)
		}
	}
}

func TestAssignableSetFollowsRSVPChanges(t *testing.T) {
	setupTestDB(t)
	creator := createUser(t, "alice")
	guest := createUser(t, "bob")
	eventID := createEvent(t, creator, time.Now().Add(24*time.Hour), "ACTIVE")

	ok, err := CanAssign(database.DB, eventID, guest)
	if err != nil {
		t.Fatalf("can assign: %v", err)
	}
	if ok {
		t.Fatalf("guest without RSVP should not be assignable")
	}

	if _, err := database.DB.Exec(
		"INSERT INTO rsvps (user_id, event_id, status, responded_at) VALUES (?, ?, 'YES', ?)",
		guest, eventID, time.Now(),
	); err != nil {
		t.Fatalf("insert rsvp: %v", err)
	}

	ok, err = CanAssign(database.DB, eventID, guest)
	if err != nil {
		t.Fatalf("can assign after YES: %v", err)
	}
	if !ok {
		t.Fatalf("guest with YES RSVP should be assignable")
	}
}
