// Package scheduler runs the periodic maintenance jobs. Both jobs are
// idempotent, so the cadence only affects how quickly stale events are
// transitioned and purged.
package scheduler

import (
	"log"
	"time"

	"gatherly-backend/database"
	"gatherly-backend/service"
)

// RunOnce executes both maintenance jobs once.
func RunOnce() {
	updated, err := service.UpdateEventStatuses(database.DB)
	if err != nil {
		log.Printf("Maintenance: failed to update event statuses: %v", err)
	} else if updated > 0 {
		log.Printf("Maintenance: marked %d event(s) INACTIVE", updated)
	}

	deleted, err := service.DeleteOldEvents(database.DB)
	if err != nil {
		log.Printf("Maintenance: failed to delete old events: %v", err)
	} else if deleted > 0 {
		log.Printf("Maintenance: deleted %d old event(s)", deleted)
	}
}

// Start runs the maintenance jobs on the given interval until stop is closed.
func Start(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				RunOnce()
			case <-stop:
				return
			}
		}
	}()
}
