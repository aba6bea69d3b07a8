package models

import "time"

// Event status values. An event is ACTIVE until its date passes; the
// maintenance job flips it to INACTIVE afterwards.
const (
	EventStatusActive   = "ACTIVE"
	EventStatusInactive = "INACTIVE"
)

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	CreatorID   int64     `json:"creator_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// RSVP response values.
const (
	RSVPYes   = "YES"
	RSVPNo    = "NO"
	RSVPMaybe = "MAYBE"
)

// ValidRSVPStatus reports whether s is an accepted RSVP status.
func ValidRSVPStatus(s string) bool {
	return s == RSVPYes || s == RSVPNo || s == RSVPMaybe
}

type RSVP struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	EventID     int64     `json:"event_id"`
	Status      string    `json:"status"`
	RespondedAt time.Time `json:"responded_at"`
}

// EventRequest is the create/edit request body.
type EventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"` // RFC3339
	Description string `json:"description"`
	Location    string `json:"location"`
}

// EventResponse is an event enriched with viewer-specific RSVP info.
type EventResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	CreatorID      int64     `json:"creator_id"`
	CreatorName    string    `json:"creator_name"`
	Status         string    `json:"status"`
	AttendeesCount int       `json:"attendees_count"`
}

// RSVPEntry is one row of an event's RSVP roster.
type RSVPEntry struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Status      string    `json:"status"`
	RespondedAt time.Time `json:"responded_at"`
}
