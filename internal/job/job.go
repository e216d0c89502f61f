package job

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("job not found")
	ErrNoActiveJob = errors.New("no active job")
	ErrDuplicate   = errors.New("job id already exists")
	ErrInvalid     = errors.New("invalid job")
)

// Priority ranks jobs on the shop floor.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

const (
	StatusQuote      = "Quote"
	StatusInProgress = "In Progress"
)

// PersonalType is the job type recorded for auto-created personal jobs.
const PersonalType = "PER"

// Job is the unit every ledger, usage and time record is attributed to.
type Job struct {
	ID              uuid.UUID
	JobID           string
	ProjectName     string
	JobType         string
	Status          string
	PercentComplete int
	Priority        Priority
	IsPersonal      bool
	OwnerName       string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
