package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies entries in a job's activity feed.
type Type string

const (
	TypeMaterialUsage Type = "material_usage"
	TypeMachineUsage  Type = "machine_usage"
	TypeLaborTracking Type = "labor_tracking"
	TypeStatusChange  Type = "status_change"
	TypeNote          Type = "note"
)

// Entry is an append-only line in a job's activity feed.
type Entry struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	Type        Type
	Description string
	PerformedBy string
	Metadata    map[string]any
	RelatedType string
	RelatedID   string
	CreatedAt   time.Time
}

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByJob(ctx context.Context, jobID uuid.UUID, limit int) ([]*Entry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, e *Entry) error {
	return s.repo.Append(ctx, e)
}

// AddNote appends a free-text note to a job's feed.
func (s *Service) AddNote(ctx context.Context, jobID uuid.UUID, author, text string) (*Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("note text is required")
	}

	e := &Entry{
		JobID:       jobID,
		Type:        TypeNote,
		Description: text,
		PerformedBy: author,
	}

	if err := s.repo.Append(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) List(ctx context.Context, jobID uuid.UUID, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	return s.repo.ListByJob(ctx, jobID, limit)
}
