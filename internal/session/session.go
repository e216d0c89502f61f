package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
)

// ErrSettingsMissing is returned by repositories when a user has no staff settings row yet.
var ErrSettingsMissing = errors.New("staff settings missing")

// NoJobReference is recorded on audit rows written without a job.
const NoJobReference = "N/A"

// Settings is the persisted per-user slot behind a Session.
type Settings struct {
	Username      string
	ActiveJobID   *uuid.UUID
	PersonalJobID *uuid.UUID
	ActiveSince   *time.Time
	UpdatedAt     time.Time
}

// Session is the caller's resolved work context. It is loaded once per request
// and handed to every ledger, machine and time tracking operation.
type Session struct {
	User        identity.User
	ActiveJob   *job.Job
	PersonalJob *job.Job
	ActiveSince *time.Time
}

func (s *Session) RequireActiveJob() (*job.Job, error) {
	if s == nil || s.ActiveJob == nil {
		return nil, job.ErrNoActiveJob
	}

	return s.ActiveJob, nil
}

// JobReference is the denormalized job id for audit rows, or N/A.
func (s *Session) JobReference() string {
	if s == nil || s.ActiveJob == nil {
		return NoJobReference
	}

	return s.ActiveJob.JobID
}

func (s *Session) OperatorName() string {
	if s == nil {
		return ""
	}

	return s.User.DisplayName()
}

// ClearPolicy picks the job that stays active after the user clears their
// active job. A nil result leaves the slot empty.
type ClearPolicy func(st *Settings) *uuid.UUID

// FallbackToPersonalJob keeps the personal job active once one exists, so a
// user with a personal job is never without an active job.
func FallbackToPersonalJob(st *Settings) *uuid.UUID {
	return st.PersonalJobID
}
