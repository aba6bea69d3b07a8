package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"gatherly-backend/database"
	"gatherly-backend/models"
)

func TestAddMessageRequiresParticipation(t *testing.T) {
	setupTestDB(t)
	mux := newTestMux()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	eventID := createEventVia(t, mux, alice, time.Now().Add(24*time.Hour))

	var chatID int64
	if err := database.DB.QueryRow("SELECT id FROM chats WHERE event_id = ?", eventID).Scan(&chatID); err != nil {
		t.Fatalf("chat lookup: %v", err)
	}

	// Bob has not RSVP'd YES, so he may not post.
	rec := doRequest(t, mux, bob, http.MethodPost, "/api/chats/"+itoa(chatID)+"/messages", map[string]string{"message": "hi"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-participant, got %d", rec.Code)
	}

	doRequest(t, mux, bob, http.MethodPost, "/events/"+itoa(eventID)+"/rsvp", map[string]string{"status": "YES"})

	rec = doRequest(t, mux, bob, http.MethodPost, "/api/chats/"+itoa(chatID)+"/messages", map[string]string{"message": "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected participant to post, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "success" {
		t.Fatalf("expected success status, got %v", resp)
	}

	rec = doRequest(t, mux, bob, http.MethodPost, "/api/chats/"+itoa(chatID)+"/messages", map[string]string{"message": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestListMessagesOrderedWithWarning(t *testing.T) {
	setupTestDB(t)
	mux := newTestMux()
	alice := createUser(t, "alice")
	eventID := createEventVia(t, mux, alice, time.Now().Add(24*time.Hour))

	var chatID int64
	if err := database.DB.QueryRow("SELECT id FROM chats WHERE event_id = ?", eventID).Scan(&chatID); err != nil {
		t.Fatalf("chat lookup: %v", err)
	}

	base := time.Now()
	for i, text := range []string{"first", "second", "third"} {
		if _, err := database.DB.Exec(
			"INSERT INTO messages (chat_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
			chatID, alice, text, base.Add(time.Duration(i)*time.Minute),
		); err != nil {
			t.Fatalf("insert message: %v", err)
		}
	}

	rec := doRequest(t, mux, alice, http.MethodGet, "/api/chats/"+itoa(chatID)+"/messages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list messages: status %d", rec.Code)
	}
	var resp models.MessageListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Warning != nil {
		t.Fatalf("expected no warning for upcoming event, got %q", *resp.Warning)
	}
	if len(resp.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(resp.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if resp.Messages[i].Message != want {
			t.Fatalf("message %d = %q, want %q", i, resp.Messages[i].Message, want)
		}
		if resp.Messages[i].User != "alice" {
			t.Fatalf("message %d user = %q, want alice", i, resp.Messages[i].User)
		}
	}

	// Once the event date passes, the warning appears.
	if _, err := database.DB.Exec("UPDATE events SET date = ? WHERE id = ?", time.Now().Add(-1*time.Hour), eventID); err != nil {
		t.Fatalf("backdate event: %v", err)
	}
	rec = doRequest(t, mux, alice, http.MethodGet, "/api/chats/"+itoa(chatID)+"/messages", nil)
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Warning == nil || *resp.Warning != "This chat will be deleted soon." {
		t.Fatalf("expected deletion warning, got %v", resp.Warning)
	}
}

func TestGetChatsListsOnlyParticipantChats(t *testing.T) {
	setupTestDB(t)
	mux := newTestMux()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	aliceEvent := createEventVia(t, mux, alice, time.Now().Add(24*time.Hour))
	createEventVia(t, mux, bob, time.Now().Add(24*time.Hour))

	rec := doRequest(t, mux, alice, http.MethodGet, "/api/chats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get chats: status %d", rec.Code)
	}
	var chats []models.ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&chats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("expected 1 chat for alice, got %d", len(chats))
	}
	if chats[0].EventID != aliceEvent {
		t.Fatalf("expected alice's event chat, got event %d", chats[0].EventID)
	}
	if chats[0].Name != "Picnic" {
		t.Fatalf("expected chat named after event, got %q", chats[0].Name)
	}
}
