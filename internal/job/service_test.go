package job_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
)

func TestService_Create(t *testing.T) {
	year := time.Now().Year()

	type testCase struct {
		name      string
		params    job.CreateParams
		setupMock func(repo *job.MockRepository, ids *job.MockIDGenerator)
		wantJobID string
		wantErr   bool
		wantErrIs error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: job.CreateParams{ProjectName: "Shelving", JobType: "proj"},
			setupMock: func(repo *job.MockRepository, ids *job.MockIDGenerator) {
				ids.EXPECT().Next(gomock.Any(), fmt.Sprintf("J-PROJ/%02d", year%100)).Return(int64(7), nil)
				repo.EXPECT().
					CreateJob(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, j *job.Job) error {
						j.ID = uuid.New()
						return nil
					})
			},
			wantJobID: fmt.Sprintf("J-PROJ-0007%02d", year%100),
		},
		{
			name:    "MissingName",
			params:    job.CreateParams{JobType: "proj"},
			wantErr:   true,
			wantErrIs: job.ErrInvalid,
		},
		{
			name:    "MissingType",
			params:    job.CreateParams{ProjectName: "Shelving", JobType: "--"},
			wantErr:   true,
			wantErrIs: job.ErrInvalid,
		},
		{
			name:   "CounterError",
			params: job.CreateParams{ProjectName: "Shelving", JobType: "proj"},
			setupMock: func(_ *job.MockRepository, ids *job.MockIDGenerator) {
				ids.EXPECT().Next(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := job.NewMockRepository(ctrl)
			ids := job.NewMockIDGenerator(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, ids)
			}

			got, err := job.NewService(repo, ids).Create(context.Background(), tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantJobID, got.JobID)
			assert.Equal(t, job.PriorityMedium, got.Priority)
			assert.Equal(t, job.StatusQuote, got.Status)
		})
	}
}

func TestService_EnsurePersonal(t *testing.T) {
	alice := identity.User{Username: "alice", FullName: "Alice Smith"}
	existing := &job.Job{ID: uuid.New(), JobID: "PER-alice", IsPersonal: true}

	t.Run("Existing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := job.NewMockRepository(ctrl)

		repo.EXPECT().GetJobByJobID(gomock.Any(), "PER-alice").Return(existing, nil)

		got, err := job.NewService(repo, nil).EnsurePersonal(context.Background(), alice)
		require.NoError(t, err)
		assert.Same(t, existing, got)
	})

	t.Run("Created", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := job.NewMockRepository(ctrl)

		repo.EXPECT().GetJobByJobID(gomock.Any(), "PER-alice").Return(nil, job.ErrNotFound)
		repo.EXPECT().CreateJob(gomock.Any(), gomock.Any()).Return(nil)

		got, err := job.NewService(repo, nil).EnsurePersonal(context.Background(), alice)
		require.NoError(t, err)
		assert.Equal(t, "PER-alice", got.JobID)
		assert.True(t, got.IsPersonal)
		assert.Equal(t, "Personal - Alice Smith", got.ProjectName)
	})

	t.Run("ConcurrentCreate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := job.NewMockRepository(ctrl)

		gomock.InOrder(
			repo.EXPECT().GetJobByJobID(gomock.Any(), "PER-alice").Return(nil, job.ErrNotFound),
			repo.EXPECT().CreateJob(gomock.Any(), gomock.Any()).Return(job.ErrDuplicate),
			repo.EXPECT().GetJobByJobID(gomock.Any(), "PER-alice").Return(existing, nil),
		)

		got, err := job.NewService(repo, nil).EnsurePersonal(context.Background(), alice)
		require.NoError(t, err)
		assert.Same(t, existing, got)
	})

	t.Run("LookupError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := job.NewMockRepository(ctrl)

		repo.EXPECT().GetJobByJobID(gomock.Any(), "PER-alice").Return(nil, errors.New("boom"))

		_, err := job.NewService(repo, nil).EnsurePersonal(context.Background(), alice)
		assert.Error(t, err)
	})
}

func TestService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := job.NewMockRepository(ctrl)

	repo.EXPECT().GetJobByJobID(gomock.Any(), "J-NOPE-000126").Return(nil, job.ErrNotFound)

	_, err := job.NewService(repo, nil).Get(context.Background(), " J-NOPE-000126 ")
	assert.ErrorIs(t, err, job.ErrNotFound)
}
