package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NanayasWorkshop/MakerManager/internal/job"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectJobColumns = `
	id, job_id, project_name, job_type, status, percent_complete, priority,
	is_personal, owner_name, created_at, updated_at
`

func scanJob(s scanner) (*job.Job, error) {
	var (
		j        job.Job
		priority string
	)

	if err := s.Scan(
		&j.ID, &j.JobID, &j.ProjectName, &j.JobType, &j.Status, &j.PercentComplete, &priority,
		&j.IsPersonal, &j.OwnerName, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}

	j.Priority = job.Priority(priority)

	return &j, nil
}

func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	query := `
		INSERT INTO jobs (job_id, project_name, job_type, status, percent_complete, priority, is_personal, owner_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		j.JobID,
		j.ProjectName,
		j.JobType,
		j.Status,
		j.PercentComplete,
		j.Priority,
		j.IsPersonal,
		j.OwnerName,
	).Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("creating job %s: %w", j.JobID, job.ErrDuplicate)
		}

		return fmt.Errorf("creating job: %w", err)
	}

	return nil
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	query := `SELECT ` + selectJobColumns + ` FROM jobs WHERE id = $1`

	j, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, job.ErrNotFound
		}

		return nil, fmt.Errorf("getting job: %w", err)
	}

	return j, nil
}

func (s *Store) GetJobByJobID(ctx context.Context, jobID string) (*job.Job, error) {
	query := `SELECT ` + selectJobColumns + ` FROM jobs WHERE job_id = $1`

	j, err := scanJob(s.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", jobID, job.ErrNotFound)
		}

		return nil, fmt.Errorf("getting job %s: %w", jobID, err)
	}

	return j, nil
}
