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

// scanEventResponse reads one joined event row (event + creator name).
func scanEventResponse(rows *sql.Rows) (models.EventResponse, error) {
	var e models.EventResponse
	err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.Description, &e.Location,
		&e.CreatorID, &e.CreatorName, &e.Status, &e.AttendeesCount)
	return e, err
}

const eventSelect = `
    SELECT e.id, e.title, e.date, e.description, e.location,
           e.creator_id, u.username, e.status,
           (SELECT COUNT(*) FROM rsvps r2 WHERE r2.event_id = e.id AND r2.status = 'YES') AS attendees_count
    FROM events e
    JOIN users u ON e.creator_id = u.id
`

// GET /dashboard - up to 5 upcoming events the user is involved in, plus the
// user's open tasks for those events.
func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	rows, err := database.DB.Query(eventSelect+`
        WHERE e.date >= ?
          AND (e.creator_id = ? OR EXISTS(
              SELECT 1 FROM rsvps r WHERE r.event_id = e.id AND r.user_id = ? AND r.status = 'YES'))
        ORDER BY e.date ASC
        LIMIT 5
    `, now, userID, userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var upcoming []models.EventResponse
	for rows.Next() {
		e, err := scanEventResponse(rows)
		if err != nil {
			continue
		}
		upcoming = append(upcoming, e)
	}
	if upcoming == nil {
		upcoming = []models.EventResponse{}
	}

	taskRows, err := database.DB.Query(`
        SELECT t.id, t.event_id, t.assigned_to, t.description, t.is_completed
        FROM tasks t
        JOIN events e ON t.event_id = e.id
        WHERE t.assigned_to = ? AND t.is_completed = 0 AND e.date >= ?
        ORDER BY e.date ASC
    `, userID, now)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer taskRows.Close()

	var tasks []models.Task
	for taskRows.Next() {
		var t models.Task
		if err := taskRows.Scan(&t.ID, &t.EventID, &t.AssignedTo, &t.Description, &t.IsCompleted); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"upcoming_events": upcoming,
		"tasks":           tasks,
	})
}

// GET /events - events the user created or RSVP'd YES to, split into upcoming
// and past.
func ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	query := eventSelect + `
        WHERE e.creator_id = ? OR EXISTS(
            SELECT 1 FROM rsvps r WHERE r.event_id = e.id AND r.user_id = ? AND r.status = 'YES')
        ORDER BY e.date ASC
    `
	rows, err := database.DB.Query(query, userID, userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	upcoming := []models.EventResponse{}
	past := []models.EventResponse{}
	for rows.Next() {
		e, err := scanEventResponse(rows)
		if err != nil {
			continue
		}
		if e.Date.After(now) {
			upcoming = append(upcoming, e)
		} else {
			past = append(past, e)
		}
	}
	// Past events newest first, mirroring the upcoming sort direction flipped.
	for i, j := 0, len(past)-1; i < j; i, j = i+1, j-1 {
		past[i], past[j] = past[j], past[i]
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"upcoming": upcoming,
		"past":     past,
	})
}

// GET /events/{eventID} - event detail with the RSVP roster.
func GetEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	rows, err := database.DB.Query(eventSelect+" WHERE e.id = ?", eventID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()
	if !rows.Next() {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	event, err := scanEventResponse(rows)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	rows.Close()

	rsvpRows, err := database.DB.Query(`
        SELECT r.user_id, u.username, r.status, r.responded_at
        FROM rsvps r
        JOIN users u ON r.user_id = u.id
        WHERE r.event_id = ?
        ORDER BY r.responded_at ASC
    `, eventID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rsvpRows.Close()

	rsvps := []models.RSVPEntry{}
	isAttendee := false
	for rsvpRows.Next() {
		var entry models.RSVPEntry
		if err := rsvpRows.Scan(&entry.UserID, &entry.Username, &entry.Status, &entry.RespondedAt); err != nil {
			continue
		}
		if entry.UserID == userID && entry.Status == models.RSVPYes {
			isAttendee = true
		}
		rsvps = append(rsvps, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"event":       event,
		"is_creator":  event.CreatorID == userID,
		"is_active":   event.Status == models.EventStatusActive,
		"is_attendee": isAttendee,
		"rsvps":       rsvps,
	})
}

// POST /events - create an event. The creator comes from the session; a past
// date is rejected, the maintenance job alone retires events over time.
func CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Date == "" {
		http.Error(w, "Title and date are required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		http.Error(w, "Invalid date format", http.StatusBadRequest)
		return
	}
	if date.Before(time.Now()) {
		http.Error(w, "Event date must be in the future", http.StatusBadRequest)
		return
	}

	// The event insert and the chat bootstrap commit together; a failure in
	// either leaves no half-created event behind.
	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO events (title, date, description, location, creator_id, status, created_at) VALUES (?, ?, ?, ?, ?, 'ACTIVE', ?)",
		req.Title, date, req.Description, req.Location, userID, time.Now(),
	)
	if err != nil {
		http.Error(w, "Failed to create event", http.StatusInternalServerError)
		return
	}
	eventID, _ := res.LastInsertId()

	if _, err := service.EnsureEventChat(tx, eventID, userID); err != nil {
		log.Printf("Failed to create chat for event %d: %v", eventID, err)
		http.Error(w, "Failed to create event chat", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, "Failed to create event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"event_id": eventID})
}

// PUT /events/{eventID} - edit an event, creator only.
func UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	var creatorID int64
	err := database.DB.QueryRow("SELECT creator_id FROM events WHERE id = ?", eventID).Scan(&creatorID)
	if err == sql.ErrNoRows {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if creatorID != userID {
		http.Error(w, "You do not have permission to edit this event.", http.StatusForbidden)
		return
	}

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Date == "" {
		http.Error(w, "Title and date are required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		http.Error(w, "Invalid date format", http.StatusBadRequest)
		return
	}
	if date.Before(time.Now()) {
		http.Error(w, "Event date must be in the future", http.StatusBadRequest)
		return
	}

	_, err = database.DB.Exec(
		"UPDATE events SET title = ?, date = ?, description = ?, location = ?, status = 'ACTIVE' WHERE id = ?",
		req.Title, date, req.Description, req.Location, eventID,
	)
	if err != nil {
		http.Error(w, "Failed to update event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DELETE /events/{eventID} - delete an event, creator only. Cascades to
// rsvps, tasks, the chat and its messages.
func DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	var creatorID int64
	err := database.DB.QueryRow("SELECT creator_id FROM events WHERE id = ?", eventID).Scan(&creatorID)
	if err == sql.ErrNoRows {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if creatorID != userID {
		http.Error(w, "You do not have permission to delete this event.", http.StatusForbidden)
		return
	}

	_, err = database.DB.Exec("DELETE FROM events WHERE id = ?", eventID)
	if err != nil {
		http.Error(w, "Failed to delete event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /events/{eventID}/invite - bulk-invite users as MAYBE RSVPs. Users who
// already responded keep their existing RSVP.
func InviteToEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	var exists bool
	if err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)", eventID).Scan(&exists); err != nil || !exists {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	var req struct {
		UserIDs []int64 `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.UserIDs) == 0 {
		http.Error(w, "No users provided", http.StatusBadRequest)
		return
	}

	now := time.Now()
	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	var processed []int64
	for _, inviteeID := range req.UserIDs {
		var userExists bool
		if err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", inviteeID).Scan(&userExists); err != nil || !userExists {
			continue
		}
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO rsvps (user_id, event_id, status, responded_at) VALUES (?, ?, 'MAYBE', ?)",
			inviteeID, eventID, now,
		)
		if err != nil {
			http.Error(w, "Failed to send invitations", http.StatusInternalServerError)
			return
		}
		processed = append(processed, inviteeID)
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, "Failed to send invitations", http.StatusInternalServerError)
		return
	}
	log.Printf("User %d invited %d user(s) to event %d", userID, len(processed), eventID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":         "Invitations sent successfully",
		"processed_users": processed,
	})
}
