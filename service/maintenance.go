package service

import (
	"fmt"
	"time"
)

// OldEventRetention is how long past an event's date it is kept around,
// together with its chat, before the cleanup job removes it.
const OldEventRetention = 48 * time.Hour

// UpdateEventStatuses transitions every ACTIVE event whose date has passed to
// INACTIVE. Pure set operation, safe to re-run at any cadence.
func UpdateEventStatuses(db DBTX) (int64, error) {
	res, err := db.Exec(
		"UPDATE events SET status = 'INACTIVE' WHERE status = 'ACTIVE' AND date <= ?",
		time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update event statuses: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteOldEvents removes every event whose date is more than OldEventRetention
// in the past. Foreign keys cascade the delete to rsvps, tasks, the chat and
// its participants and messages. Deleting an already-deleted event is a no-op,
// so overlapping runs are safe.
func DeleteOldEvents(db DBTX) (int64, error) {
	threshold := time.Now().Add(-OldEventRetention)
	res, err := db.Exec("DELETE FROM events WHERE date < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ChatDeletable reports whether a chat's event is old enough for the cleanup
// job to remove it.
func ChatDeletable(eventDate time.Time) bool {
	return eventDate.Before(time.Now().Add(-OldEventRetention))
}
