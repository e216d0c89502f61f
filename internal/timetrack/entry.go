package timetrack

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one labor interval of a user against a job. A nil EndTime marks the
// user's single running entry.
type Entry struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	JobReference string
	Username     string
	StartTime    time.Time
	EndTime      *time.Time
	Notes        string
	CreatedAt    time.Time
}

func (e *Entry) Active() bool {
	return e.EndTime == nil
}

// Duration is end-start for closed entries and now-start for running ones.
func (e *Entry) Duration(now time.Time) time.Duration {
	switch {
	case e.StartTime.IsZero():
		return 0
	case e.EndTime != nil:
		return e.EndTime.Sub(e.StartTime)
	default:
		return now.Sub(e.StartTime)
	}
}
