package service

import (
	"fmt"
)

// AssignableUserIDs returns the users a task for this event may be assigned
// to: the event creator plus everyone who RSVP'd YES. The set is recomputed on
// every call; later RSVP changes affect future edits but never invalidate an
// existing assignment.
func AssignableUserIDs(db DBTX, eventID int64) ([]int64, error) {
	rows, err := db.Query(`
        SELECT creator_id FROM events WHERE id = ?
        UNION
        SELECT user_id FROM rsvps WHERE event_id = ? AND status = 'YES'
    `, eventID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignable users for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CanAssign reports whether userID is in the event's assignable set.
func CanAssign(db DBTX, eventID, userID int64) (bool, error) {
	ids, err := AssignableUserIDs(db, eventID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}
