package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/idgen"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=job
type Repository interface {
	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	GetJobByJobID(ctx context.Context, jobID string) (*Job, error)
}

type IDGenerator interface {
	Next(ctx context.Context, prefix string) (int64, error)
}

type Service struct {
	repo Repository
	ids  IDGenerator
	now  func() time.Time
}

func NewService(repo Repository, ids IDGenerator) *Service {
	return &Service{repo: repo, ids: ids, now: time.Now}
}

type CreateParams struct {
	ProjectName string
	JobType     string
	Priority    Priority
	OwnerName   string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Job, error) {
	if strings.TrimSpace(params.ProjectName) == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalid)
	}

	jobType := idgen.Code(params.JobType)
	if jobType == "" {
		return nil, fmt.Errorf("%w: job type is required", ErrInvalid)
	}

	year := s.now().Year()

	seq, err := s.ids.Next(ctx, idgen.JobPrefix(jobType, year))
	if err != nil {
		return nil, fmt.Errorf("next job sequence: %w", err)
	}

	priority := params.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	j := &Job{
		JobID:       idgen.JobID(jobType, seq, year),
		ProjectName: strings.TrimSpace(params.ProjectName),
		JobType:     jobType,
		Status:      StatusQuote,
		Priority:    priority,
		OwnerName:   params.OwnerName,
	}
	if err := s.repo.CreateJob(ctx, j); err != nil {
		return nil, err
	}

	return j, nil
}

// Get looks a job up by its exact job_id.
func (s *Service) Get(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByJobID(ctx, strings.TrimSpace(jobID))
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

// EnsurePersonal returns the user's PER-{username} job, creating it on first use.
func (s *Service) EnsurePersonal(ctx context.Context, u identity.User) (*Job, error) {
	jobID := idgen.PersonalJobID(u.Username)

	j, err := s.repo.GetJobByJobID(ctx, jobID)
	if err == nil {
		return j, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get personal job: %w", err)
	}

	j = &Job{
		JobID:       jobID,
		ProjectName: fmt.Sprintf("Personal - %s", u.DisplayName()),
		JobType:     PersonalType,
		Status:      StatusInProgress,
		Priority:    PriorityLow,
		IsPersonal:  true,
		OwnerName:   u.DisplayName(),
	}

	err = s.repo.CreateJob(ctx, j)
	if errors.Is(err, ErrDuplicate) {
		// Lost a race with a concurrent request for the same user.
		return s.repo.GetJobByJobID(ctx, jobID)
	}

	if err != nil {
		return nil, fmt.Errorf("create personal job: %w", err)
	}

	return j, nil
}
