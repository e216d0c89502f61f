package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
	"github.com/NanayasWorkshop/MakerManager/internal/timetrack"
)

var alice = identity.User{Username: "alice", FullName: "Alice"}

type mocks struct {
	repo     *session.MockRepository
	tx       *session.MockTx
	jobs     *session.MockJobs
	tracker  *session.MockTracker
	activity *session.MockActivityRecorder
}

func newService(t *testing.T) (*session.Service, mocks, time.Time) {
	ctrl := gomock.NewController(t)

	m := mocks{
		repo:     session.NewMockRepository(ctrl),
		tx:       session.NewMockTx(ctrl),
		jobs:     session.NewMockJobs(ctrl),
		tracker:  session.NewMockTracker(ctrl),
		activity: session.NewMockActivityRecorder(ctrl),
	}

	now := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)
	svc := session.NewService(m.repo, m.jobs, m.tracker, m.activity).WithClock(func() time.Time { return now })

	return svc, m, now
}

// expectUpdate wires a successful settings transaction around st.
func (m mocks) expectUpdate(st *session.Settings) {
	m.repo.EXPECT().Begin(gomock.Any(), st.Username).Return(m.tx, nil)
	m.tx.EXPECT().Settings().Return(st)
	m.tx.EXPECT().SaveSettings(gomock.Any(), st).Return(nil)
	m.tx.EXPECT().Commit().Return(nil)
	m.tx.EXPECT().Rollback().Return(nil)
}

func TestService_Load(t *testing.T) {
	t.Run("MissingSettingsMeansNoActiveJob", func(t *testing.T) {
		svc, m, _ := newService(t)

		m.repo.EXPECT().GetSettings(gomock.Any(), "alice").Return(nil, session.ErrSettingsMissing)

		sess, err := svc.Load(context.Background(), alice)
		require.NoError(t, err)
		assert.Nil(t, sess.ActiveJob)
		assert.Equal(t, "N/A", sess.JobReference())

		_, err = sess.RequireActiveJob()
		assert.ErrorIs(t, err, job.ErrNoActiveJob)
	})

	t.Run("ActiveIsPersonal", func(t *testing.T) {
		svc, m, _ := newService(t)
		personal := &job.Job{ID: uuid.New(), JobID: "PER-alice", IsPersonal: true}

		m.repo.EXPECT().GetSettings(gomock.Any(), "alice").Return(&session.Settings{
			Username:      "alice",
			ActiveJobID:   &personal.ID,
			PersonalJobID: &personal.ID,
		}, nil)
		m.jobs.EXPECT().GetByID(gomock.Any(), personal.ID).Return(personal, nil)

		sess, err := svc.Load(context.Background(), alice)
		require.NoError(t, err)
		assert.Same(t, personal, sess.ActiveJob)
		assert.Same(t, personal, sess.PersonalJob)
		assert.Equal(t, "PER-alice", sess.JobReference())
	})

	t.Run("RepoError", func(t *testing.T) {
		svc, m, _ := newService(t)

		m.repo.EXPECT().GetSettings(gomock.Any(), "alice").Return(nil, errors.New("db down"))

		_, err := svc.Load(context.Background(), alice)
		assert.Error(t, err)
	})
}

func TestService_FromContext_Unauthenticated(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.FromContext(context.Background())
	assert.ErrorIs(t, err, identity.ErrUnauthenticated)
}

func TestService_ActivateJobByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, m, now := newService(t)
		j := &job.Job{ID: uuid.New(), JobID: "J-PROJ-000126"}
		st := &session.Settings{Username: "alice"}

		m.jobs.EXPECT().Get(gomock.Any(), "J-PROJ-000126").Return(j, nil)
		m.expectUpdate(st)
		m.activity.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
		m.jobs.EXPECT().GetByID(gomock.Any(), j.ID).Return(j, nil)

		sess, err := svc.ActivateJobByID(context.Background(), alice, "J-PROJ-000126")
		require.NoError(t, err)
		assert.Same(t, j, sess.ActiveJob)
		require.NotNil(t, sess.ActiveSince)
		assert.Equal(t, now, *sess.ActiveSince)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, m, _ := newService(t)

		m.jobs.EXPECT().Get(gomock.Any(), "J-NOPE-000126").Return(nil, job.ErrNotFound)

		_, err := svc.ActivateJobByID(context.Background(), alice, "J-NOPE-000126")
		assert.ErrorIs(t, err, job.ErrNotFound)
	})

	t.Run("ActivityFailureIsNotFatal", func(t *testing.T) {
		svc, m, _ := newService(t)
		j := &job.Job{ID: uuid.New(), JobID: "J-PROJ-000126"}

		m.jobs.EXPECT().Get(gomock.Any(), "J-PROJ-000126").Return(j, nil)
		m.expectUpdate(&session.Settings{Username: "alice"})
		m.activity.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))
		m.jobs.EXPECT().GetByID(gomock.Any(), j.ID).Return(j, nil)

		sess, err := svc.ActivateJobByID(context.Background(), alice, "J-PROJ-000126")
		require.NoError(t, err)
		assert.Same(t, j, sess.ActiveJob)
	})
}

func TestService_ClearActiveJob(t *testing.T) {
	t.Run("FallsBackToPersonalJob", func(t *testing.T) {
		svc, m, _ := newService(t)
		personal := &job.Job{ID: uuid.New(), JobID: "PER-alice"}
		other := uuid.New()
		st := &session.Settings{Username: "alice", ActiveJobID: &other, PersonalJobID: &personal.ID}

		m.tracker.EXPECT().Stop(gomock.Any(), alice, nil).Return(nil, nil)
		m.expectUpdate(st)
		m.jobs.EXPECT().GetByID(gomock.Any(), personal.ID).Return(personal, nil)

		sess, err := svc.ClearActiveJob(context.Background(), alice)
		require.NoError(t, err)
		assert.Same(t, personal, sess.ActiveJob)
		assert.NotNil(t, sess.ActiveSince)
	})

	t.Run("NoPersonalJobEmptiesSlot", func(t *testing.T) {
		svc, m, _ := newService(t)
		other := uuid.New()
		st := &session.Settings{Username: "alice", ActiveJobID: &other}

		m.tracker.EXPECT().Stop(gomock.Any(), alice, nil).Return(nil, nil)
		m.expectUpdate(st)

		sess, err := svc.ClearActiveJob(context.Background(), alice)
		require.NoError(t, err)
		assert.Nil(t, sess.ActiveJob)
		assert.Nil(t, sess.ActiveSince)
	})

	t.Run("CustomPolicy", func(t *testing.T) {
		svc, m, _ := newService(t)
		svc.WithClearPolicy(func(*session.Settings) *uuid.UUID { return nil })

		personal := uuid.New()
		st := &session.Settings{Username: "alice", ActiveJobID: &personal, PersonalJobID: &personal}

		m.tracker.EXPECT().Stop(gomock.Any(), alice, nil).Return(nil, nil)
		m.expectUpdate(st)
		m.jobs.EXPECT().GetByID(gomock.Any(), personal).Return(&job.Job{ID: personal}, nil)

		sess, err := svc.ClearActiveJob(context.Background(), alice)
		require.NoError(t, err)
		assert.Nil(t, sess.ActiveJob)
		assert.NotNil(t, sess.PersonalJob)
	})

	t.Run("SaveErrorAfterStopIsRetryable", func(t *testing.T) {
		svc, m, _ := newService(t)
		other := uuid.New()
		st := &session.Settings{Username: "alice", ActiveJobID: &other}

		gomock.InOrder(
			m.tracker.EXPECT().Stop(gomock.Any(), alice, nil).Return(&timetrack.Entry{ID: uuid.New()}, nil),
			m.repo.EXPECT().Begin(gomock.Any(), "alice").Return(m.tx, nil),
		)
		m.tx.EXPECT().Settings().Return(st)
		m.tx.EXPECT().SaveSettings(gomock.Any(), st).Return(errors.New("fk violation"))
		m.tx.EXPECT().Rollback().Return(nil)

		_, err := svc.ClearActiveJob(context.Background(), alice)
		require.Error(t, err)

		m.tracker.EXPECT().Stop(gomock.Any(), alice, nil).Return(nil, nil)
		m.expectUpdate(st)

		sess, err := svc.ClearActiveJob(context.Background(), alice)
		require.NoError(t, err)
		assert.Nil(t, sess.ActiveJob)
		assert.Nil(t, st.ActiveJobID)
	})

	t.Run("TrackerError", func(t *testing.T) {
		svc, m, _ := newService(t)

		m.tracker.EXPECT().Stop(gomock.Any(), alice, nil).Return(nil, errors.New("db down"))

		_, err := svc.ClearActiveJob(context.Background(), alice)
		assert.Error(t, err)
	})
}

func TestService_Bootstrap(t *testing.T) {
	t.Run("CreatesAndActivatesPersonalJob", func(t *testing.T) {
		svc, m, now := newService(t)
		personal := &job.Job{ID: uuid.New(), JobID: "PER-alice", IsPersonal: true}
		st := &session.Settings{Username: "alice"}

		m.jobs.EXPECT().EnsurePersonal(gomock.Any(), alice).Return(personal, nil)
		m.expectUpdate(st)
		m.jobs.EXPECT().GetByID(gomock.Any(), personal.ID).Return(personal, nil)

		sess, err := svc.Bootstrap(context.Background(), alice)
		require.NoError(t, err)
		assert.Same(t, personal, sess.ActiveJob)
		assert.Same(t, personal, sess.PersonalJob)
		assert.Equal(t, now, *st.ActiveSince)
	})

	t.Run("KeepsExistingActiveJob", func(t *testing.T) {
		svc, m, _ := newService(t)
		personal := &job.Job{ID: uuid.New(), JobID: "PER-alice"}
		active := &job.Job{ID: uuid.New(), JobID: "J-PROJ-000126"}
		since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		st := &session.Settings{Username: "alice", ActiveJobID: &active.ID, ActiveSince: &since}

		m.jobs.EXPECT().EnsurePersonal(gomock.Any(), alice).Return(personal, nil)
		m.expectUpdate(st)
		m.jobs.EXPECT().GetByID(gomock.Any(), active.ID).Return(active, nil)
		m.jobs.EXPECT().GetByID(gomock.Any(), personal.ID).Return(personal, nil)

		sess, err := svc.Bootstrap(context.Background(), alice)
		require.NoError(t, err)
		assert.Same(t, active, sess.ActiveJob)
		assert.Same(t, personal, sess.PersonalJob)
		assert.Equal(t, since, *sess.ActiveSince)
	})
}

func TestService_SetActiveJob_SaveErrorRollsBack(t *testing.T) {
	svc, m, _ := newService(t)
	j := &job.Job{ID: uuid.New(), JobID: "J-PROJ-000126"}
	st := &session.Settings{Username: "alice"}

	m.repo.EXPECT().Begin(gomock.Any(), "alice").Return(m.tx, nil)
	m.tx.EXPECT().Settings().Return(st)
	m.tx.EXPECT().SaveSettings(gomock.Any(), st).Return(errors.New("fk violation"))
	m.tx.EXPECT().Rollback().Return(nil)

	_, err := svc.SetActiveJob(context.Background(), alice, j)
	assert.Error(t, err)
}
