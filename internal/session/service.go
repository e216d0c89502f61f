package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	"github.com/NanayasWorkshop/MakerManager/internal/timetrack"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=session
type Repository interface {
	GetSettings(ctx context.Context, username string) (*Settings, error)

	// Begin locks the user's settings row, creating it when missing.
	Begin(ctx context.Context, username string) (Tx, error)
}

type Tx interface {
	Settings() *Settings
	SaveSettings(ctx context.Context, st *Settings) error
	Commit() error
	Rollback() error
}

type Jobs interface {
	Get(ctx context.Context, jobID string) (*job.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*job.Job, error)
	EnsurePersonal(ctx context.Context, u identity.User) (*job.Job, error)
}

type Tracker interface {
	Stop(ctx context.Context, u identity.User, notes *string) (*timetrack.Entry, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e *activity.Entry) error
}

type Service struct {
	repo     Repository
	jobs     Jobs
	tracker  Tracker
	activity ActivityRecorder
	clear    ClearPolicy
	now      func() time.Time
}

func NewService(repo Repository, jobs Jobs, tracker Tracker, activity ActivityRecorder) *Service {
	return &Service{
		repo:     repo,
		jobs:     jobs,
		tracker:  tracker,
		activity: activity,
		clear:    FallbackToPersonalJob,
		now:      time.Now,
	}
}

func (s *Service) WithClearPolicy(p ClearPolicy) *Service {
	s.clear = p
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Load resolves the user's session. Users without settings get an empty session.
func (s *Service) Load(ctx context.Context, u identity.User) (*Session, error) {
	st, err := s.repo.GetSettings(ctx, u.Username)
	if errors.Is(err, ErrSettingsMissing) {
		return &Session{User: u}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	return s.hydrate(ctx, u, st)
}

// FromContext loads the session of the authenticated user in ctx.
func (s *Service) FromContext(ctx context.Context) (*Session, error) {
	u, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	return s.Load(ctx, u)
}

// SetActiveJob makes j the user's active job. Any existing job may become active.
func (s *Service) SetActiveJob(ctx context.Context, u identity.User, j *job.Job) (*Session, error) {
	if j == nil {
		return nil, job.ErrNotFound
	}

	st, err := s.update(ctx, u, func(st *Settings) {
		st.ActiveJobID = &j.ID
		st.ActiveSince = new(s.now())
	})
	if err != nil {
		return nil, err
	}

	err = s.activity.Record(ctx, &activity.Entry{
		JobID:       j.ID,
		Type:        activity.TypeStatusChange,
		Description: fmt.Sprintf("%s set %s as active job", u.DisplayName(), j.JobID),
		PerformedBy: u.DisplayName(),
		RelatedType: "staff_settings",
		RelatedID:   u.Username,
	})
	if err != nil {
		slog.Error("failed to record job activation", "job", j.JobID, "error", err)
	}

	return s.hydrate(ctx, u, st)
}

// ActivateJobByID activates the job whose job_id matches exactly.
func (s *Service) ActivateJobByID(ctx context.Context, u identity.User, jobID string) (*Session, error) {
	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("activate job %s: %w", jobID, err)
	}

	return s.SetActiveJob(ctx, u, j)
}

// ClearActiveJob stops running time tracking and applies the clear policy.
// The stop commits in its own transaction before the settings change. If the
// settings save then fails the timer stays stopped and the job stays active;
// Stop is a no-op when nothing runs, so calling ClearActiveJob again finishes
// the clear.
func (s *Service) ClearActiveJob(ctx context.Context, u identity.User) (*Session, error) {
	if _, err := s.tracker.Stop(ctx, u, nil); err != nil {
		return nil, fmt.Errorf("stop time tracking: %w", err)
	}

	st, err := s.update(ctx, u, func(st *Settings) {
		next := s.clear(st)
		st.ActiveJobID = next

		st.ActiveSince = nil
		if next != nil {
			st.ActiveSince = new(s.now())
		}
	})
	if err != nil {
		return nil, err
	}

	return s.hydrate(ctx, u, st)
}

// Bootstrap makes sure the user has a personal job and, when nothing is
// active, activates it. The dashboard calls it on every refresh.
func (s *Service) Bootstrap(ctx context.Context, u identity.User) (*Session, error) {
	personal, err := s.jobs.EnsurePersonal(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("ensure personal job: %w", err)
	}

	st, err := s.update(ctx, u, func(st *Settings) {
		if st.PersonalJobID == nil {
			st.PersonalJobID = &personal.ID
		}

		if st.ActiveJobID == nil {
			st.ActiveJobID = st.PersonalJobID
			st.ActiveSince = new(s.now())
		}
	})
	if err != nil {
		return nil, err
	}

	return s.hydrate(ctx, u, st)
}

func (s *Service) update(ctx context.Context, u identity.User, mutate func(st *Settings)) (*Settings, error) {
	tx, err := s.repo.Begin(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("begin settings update: %w", err)
	}
	defer tx.Rollback()

	st := tx.Settings()
	mutate(st)

	if err := tx.SaveSettings(ctx, st); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settings: %w", err)
	}

	return st, nil
}

func (s *Service) hydrate(ctx context.Context, u identity.User, st *Settings) (*Session, error) {
	sess := &Session{User: u, ActiveSince: st.ActiveSince}

	if st.ActiveJobID != nil {
		j, err := s.jobs.GetByID(ctx, *st.ActiveJobID)
		if err != nil {
			return nil, fmt.Errorf("get active job: %w", err)
		}

		sess.ActiveJob = j
	}

	if st.PersonalJobID != nil {
		if sess.ActiveJob != nil && sess.ActiveJob.ID == *st.PersonalJobID {
			sess.PersonalJob = sess.ActiveJob
			return sess, nil
		}

		j, err := s.jobs.GetByID(ctx, *st.PersonalJobID)
		if err != nil {
			return nil, fmt.Errorf("get personal job: %w", err)
		}

		sess.PersonalJob = j
	}

	return sess, nil
}
