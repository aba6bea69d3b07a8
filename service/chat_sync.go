// Package service holds the rules that keep event status, RSVPs, chat
// membership and cleanup mutually consistent. Handlers call these inside the
// same transaction as the triggering write so the effects are visible to any
// read that follows in the request.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the sync rules can run
// inside the caller's transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// ErrAlreadyParticipant is returned by AddParticipant when the user is already
// a member of the chat. Get-or-create callers treat it as success.
var ErrAlreadyParticipant = errors.New("user is already a participant of this chat")

// EnsureEventChat creates the chat for an event and enrolls the creator.
// Both steps are get-or-create so a retried event creation cannot produce
// duplicates. Returns the chat ID.
func EnsureEventChat(db DBTX, eventID, creatorID int64) (int64, error) {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO chats (event_id, created_at) VALUES (?, ?)",
		eventID, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create chat for event %d: %w", eventID, err)
	}

	var chatID int64
	err = db.QueryRow("SELECT id FROM chats WHERE event_id = ?", eventID).Scan(&chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up chat for event %d: %w", eventID, err)
	}

	if err := AddParticipant(db, chatID, creatorID); err != nil && !errors.Is(err, ErrAlreadyParticipant) {
		return 0, err
	}
	return chatID, nil
}

// AddParticipant adds a user to a chat. Unlike the sync paths it is not
// idempotent: adding a user who is already a member returns
// ErrAlreadyParticipant so callers can tell "added" from "was already there".
func AddParticipant(db DBTX, chatID, userID int64) error {
	var exists bool
	err := db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id = ? AND user_id = ?)",
		chatID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check chat participant: %w", err)
	}
	if exists {
		return ErrAlreadyParticipant
	}

	_, err = db.Exec(
		"INSERT INTO chat_participants (chat_id, user_id, joined_at) VALUES (?, ?, ?)",
		chatID, userID, time.Now(),
	)
	if err != nil {
		// A concurrent insert can still hit the UNIQUE(chat_id, user_id)
		// constraint; report it the same way as the pre-check.
		var stillExists bool
		checkErr := db.QueryRow(
			"SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id = ? AND user_id = ?)",
			chatID, userID,
		).Scan(&stillExists)
		if checkErr == nil && stillExists {
			return ErrAlreadyParticipant
		}
		return fmt.Errorf("failed to add chat participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes a user's membership row. Removing an absent user
// is a no-op.
func RemoveParticipant(db DBTX, chatID, userID int64) error {
	_, err := db.Exec("DELETE FROM chat_participants WHERE chat_id = ? AND user_id = ?", chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove chat participant: %w", err)
	}
	return nil
}

// SyncChatMembership mirrors an RSVP change into the event's chat: YES adds
// the user, anything else removes them. A missing chat is not an error (the
// event may be mid-deletion) and leaves the RSVP untouched.
func SyncChatMembership(db DBTX, eventID, userID int64, rsvpStatus string) error {
	var chatID int64
	err := db.QueryRow("SELECT id FROM chats WHERE event_id = ?", eventID).Scan(&chatID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up chat for event %d: %w", eventID, err)
	}

	if rsvpStatus == "YES" {
		if err := AddParticipant(db, chatID, userID); err != nil && !errors.Is(err, ErrAlreadyParticipant) {
			return err
		}
		return nil
	}
	return RemoveParticipant(db, chatID, userID)
}
