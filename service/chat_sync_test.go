package service

import (
	"errors"
	"testing"
	"time"

	"gatherly-backend/database"
)

func TestEnsureEventChatCreatesChatAndCreator(t *testing.T) {
	setupTestDB(t)
	creator := createUser(t, "alice")
	eventID := createEvent(t, creator, time.Now().Add(24*time.Hour), "ACTIVE")

	chatID, err := EnsureEventChat(database.DB, eventID, creator)
	if err != nil {
		t.Fatalf("ensure chat: %v", err)
	}
	if chatID == 0 {
		t.Fatalf("expected chat id")
	}
	if n := countRows(t, "SELECT COUNT(*) FROM chats WHERE event_id = ?", eventID); n != 1 {
		t.Fatalf("expected 1 chat, got %d", n)
	}
	if n := countRows(t, "SELECT COUNT(*) FROM chat_participants WHERE chat_id = ?", chatID); n != 1 {
		t.Fatalf("expected creator as sole participant, got %d", n)
	}
}

func TestEnsureEventChatIsIdempotent(t *testing.T) {
	setupTestDB(t)
	creator := createUser(t, "alice")
	eventID := createEvent(t, creator, time.Now().Add(24*time.Hour), "ACTIVE")

	first, err := EnsureEventChat(database.DB, eventID, creator)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := EnsureEventChat(database.DB, eventID, creator)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if first != second {
		t.Fatalf("expected same chat id, got %d and %d", first, second)
	}
	if n := countRows(t, "SELECT COUNT(*) FROM chats WHERE event_id = ?", eventID); n != 1 {
		t.Fatalf("expected 1 chat after retry, got %d", n)
	}
	if n := countRows(t, "SELECT COUNT(*) FROM chat_participants WHERE chat_id = ?", first); n != 1 {
		t.Fatalf("expected 1 participant after retry, got %d", n)
	}
}

func TestAddParticipantReportsDuplicate(t *testing.T) {
	setupTestDB(t)
	creator := createUser(t, "alice")
	eventID := createEvent(t, creator, time.Now().Add(24*time.Hour), "ACTIVE")
	chatID, err := EnsureEventChat(database.DB, eventID, creator)
	if err != nil {
		t.Fatalf("ensure chat: %v", err)
	}

	err = AddParticipant(database.DB, chatID, creator)
	if !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("expected ErrAlreadyParticipant, got %v", err)
	}
}

func TestSyncChatMembership(t *testing.T) {
	setupTestDB(t)
	creator := createUser(t, "alice")
	guest := createUser(t, "bob")
	eventID := createEvent(t, creator, time.Now().Add(24*time.Hour), "ACTIVE")
	chatID, err := EnsureEventChat(database.DB, eventID, creator)
	if err != nil {
		t.Fatalf("ensure chat: %v", err)
	}

	// YES adds the guest.
	if err := SyncChatMembership(database.DB, eventID, guest, "YES"); err != nil {
		t.Fatalf("sync YES: %v", err)
	}
	if n := countRows(t, "SELECT COUNT(*) FROM chat_participants WHERE chat_id = ? AND user_id = ?", chatID, guest); n != 1 {
		t.Fatalf("expected guest enrolled, got %d rows", n)
	}

	// Repeating YES does not duplicate.
	if err := SyncChatMembership(database.DB, eventID, guest, "YES"); err != nil {
		t.Fatalf("repeat YES: %v", err)
	}
	if n := countRows(t, "SELECT COUNT(*) FROM chat_participants WHERE chat_id = ? AND user_id = ?", chatID, guest); n != 1 {
		t.Fatalf("expected 1 row after repeat YES, got %d", n)
	}

	// NO removes the guest.
	if err := SyncChatMembership(database.DB, eventID, guest, "NO"); err != nil {
		t.Fatalf("sync NO: %v", err)
	}
	if n := countRows(t, "SELECT COUNT(*) FROM chat_participants WHERE chat_id = ? AND user_id = ?", chatID, guest); n != 0 {
		t.Fatalf("expected guest removed, got %d rows", n)
	}

	// Removing an absent guest is a no-op.
	if err := SyncChatMembership(database.DB, eventID, guest, "MAYBE"); err != nil {
		t.Fatalf("repeat non-YES: %v", err)
	}

	// The creator is untouched throughout.
	if n := countRows(t, "SELECT COUNT(*) FROM chat_participants WHERE chat_id = ? AND user_id = ?", chatID, creator); n != 1 {
		t.Fatalf("expected creator still enrolled, got %d rows", n)
	}
}

func TestSyncChatMembershipMissingChatIsNoOp(t *testing.T) {
	setupTestDB(t)
	creator := createUser(t, "alice")
	eventID := createEvent(t, creator, time.Now().Add(24*time.Hour), "ACTIVE")

	// No chat was created for this event; the sync must not fail.
	if err := SyncChatMembership(database.DB, eventID, creator, "YES"); err != nil {
		t.Fatalf("expected no-op for missing chat, got %v", err)
	}
}
