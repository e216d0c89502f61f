package timetrack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=timetrack
type Repository interface {
	GetActiveEntry(ctx context.Context, username string) (*Entry, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Entry, error)

	// Begin serializes all time tracking writes of one user until commit.
	Begin(ctx context.Context, username string) (Tx, error)
}

type Tx interface {
	ActiveEntry(ctx context.Context, username string) (*Entry, error)
	CreateEntry(ctx context.Context, e *Entry) error
	CloseEntry(ctx context.Context, e *Entry) error
	LogActivity(ctx context.Context, e *activity.Entry) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Active returns the user's running entry or nil.
func (s *Service) Active(ctx context.Context, username string) (*Entry, error) {
	return s.repo.GetActiveEntry(ctx, username)
}

func (s *Service) ForJob(ctx context.Context, jobID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByJob(ctx, jobID)
}

// Start begins tracking j for the user. A running entry for another job is
// closed first; a running entry for j itself is returned unchanged.
func (s *Service) Start(ctx context.Context, u identity.User, j *job.Job, notes string) (*Entry, error) {
	if j == nil {
		return nil, job.ErrNoActiveJob
	}

	tx, err := s.repo.Begin(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("begin time tracking: %w", err)
	}
	defer tx.Rollback()

	current, err := tx.ActiveEntry(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("get active entry: %w", err)
	}

	if current != nil && current.JobID == j.ID {
		return current, nil
	}

	now := s.now()

	if current != nil {
		if err := s.close(ctx, tx, u, current, now); err != nil {
			return nil, err
		}
	}

	entry := &Entry{
		JobID:        j.ID,
		JobReference: j.JobID,
		Username:     u.Username,
		StartTime:    now,
		Notes:        notes,
	}
	if err := tx.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	err = tx.LogActivity(ctx, &activity.Entry{
		JobID:       j.ID,
		Type:        activity.TypeLaborTracking,
		Description: fmt.Sprintf("%s started working on %s", u.DisplayName(), j.JobID),
		PerformedBy: u.DisplayName(),
		RelatedType: "time_entry",
		RelatedID:   entry.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit time tracking: %w", err)
	}

	slog.Info("time tracking started", "user", u.Username, "job", j.JobID)

	return entry, nil
}

// Stop closes the user's running entry. Non-nil notes replace the entry's notes.
// It returns nil without error when nothing is running.
func (s *Service) Stop(ctx context.Context, u identity.User, notes *string) (*Entry, error) {
	tx, err := s.repo.Begin(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("begin time tracking: %w", err)
	}
	defer tx.Rollback()

	current, err := tx.ActiveEntry(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("get active entry: %w", err)
	}

	if current == nil {
		return nil, nil
	}

	if notes != nil {
		current.Notes = *notes
	}

	if err := s.close(ctx, tx, u, current, s.now()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit time tracking: %w", err)
	}

	slog.Info("time tracking stopped", "user", u.Username, "job", current.JobReference)

	return current, nil
}

func (s *Service) close(ctx context.Context, tx Tx, u identity.User, e *Entry, now time.Time) error {
	e.EndTime = &now

	if err := tx.CloseEntry(ctx, e); err != nil {
		return fmt.Errorf("close entry: %w", err)
	}

	err := tx.LogActivity(ctx, &activity.Entry{
		JobID:       e.JobID,
		Type:        activity.TypeLaborTracking,
		Description: fmt.Sprintf("%s stopped working on %s", u.DisplayName(), e.JobReference),
		PerformedBy: u.DisplayName(),
		Metadata:    map[string]any{"minutes": int(e.Duration(now).Minutes())},
		RelatedType: "time_entry",
		RelatedID:   e.ID.String(),
	})
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}

	return nil
}
