package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"gatherly-backend/database"
	"gatherly-backend/middleware"
	"gatherly-backend/models"
	"gatherly-backend/service"
)

// POST /events/{eventID}/rsvp - set the caller's RSVP to YES/NO/MAYBE.
// The upsert and the chat-membership sync commit in one transaction, so the
// RSVP row and the participant row can never disagree.
func RSVPEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	var title, status string
	err := database.DB.QueryRow("SELECT title, status FROM events WHERE id = ?", eventID).Scan(&title, &status)
	if err == sql.ErrNoRows {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if status == models.EventStatusInactive {
		http.Error(w, "Sorry, the event '"+title+"' has already happened.", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !models.ValidRSVPStatus(req.Status) {
		http.Error(w, "Invalid RSVP status", http.StatusBadRequest)
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	// Upsert keyed on UNIQUE(user_id, event_id): a concurrent double submit
	// collapses into a single row either way.
	_, err = tx.Exec(`
        INSERT INTO rsvps (user_id, event_id, status, responded_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(user_id, event_id) DO UPDATE SET status = excluded.status, responded_at = excluded.responded_at
    `, userID, eventID, req.Status, time.Now())
	if err != nil {
		http.Error(w, "Failed to save RSVP", http.StatusInternalServerError)
		return
	}

	if err := service.SyncChatMembership(tx, eventID, userID, req.Status); err != nil {
		log.Printf("Failed to sync chat membership for event %d, user %d: %v", eventID, userID, err)
		http.Error(w, "Failed to update chat membership", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, "Failed to save RSVP", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "RSVP for \"" + title + "\" updated to \"" + req.Status + "\".",
		"status":  req.Status,
	})
}

// GET /rsvps - the caller's RSVPs on active events, plus how many are still
// MAYBE.
func ListRSVPsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rows, err := database.DB.Query(`
        SELECT e.id, e.title, e.date, e.location, e.status, r.status
        FROM rsvps r
        JOIN events e ON r.event_id = e.id
        WHERE r.user_id = ? AND e.status = 'ACTIVE'
        ORDER BY e.date ASC
    `, userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	type EventRSVPStatus struct {
		EventID    int64     `json:"event_id"`
		Title      string    `json:"title"`
		Date       time.Time `json:"date"`
		Location   string    `json:"location"`
		RSVPStatus string    `json:"rsvp_status"`
	}

	entries := []EventRSVPStatus{}
	maybeCount := 0
	for rows.Next() {
		var e EventRSVPStatus
		var eventStatus string
		if err := rows.Scan(&e.EventID, &e.Title, &e.Date, &e.Location, &eventStatus, &e.RSVPStatus); err != nil {
			continue
		}
		if e.RSVPStatus == models.RSVPMaybe {
			maybeCount++
		}
		entries = append(entries, e)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rsvps":       entries,
		"maybe_count": maybeCount,
	})
}
