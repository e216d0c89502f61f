package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	activityStore "github.com/NanayasWorkshop/MakerManager/internal/activity/store"
	"github.com/NanayasWorkshop/MakerManager/internal/timetrack"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectEntryColumns = `id, job_id, job_reference, username, start_time, end_time, notes, created_at`

func scanEntry(s scanner) (*timetrack.Entry, error) {
	var e timetrack.Entry

	if err := s.Scan(&e.ID, &e.JobID, &e.JobReference, &e.Username, &e.StartTime, &e.EndTime, &e.Notes, &e.CreatedAt); err != nil {
		return nil, err
	}

	return &e, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func activeEntry(ctx context.Context, q querier, username string) (*timetrack.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM job_time_entries
		WHERE username = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1`

	e, err := scanEntry(q.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting active entry: %w", err)
	}

	return e, nil
}

func (s *Store) GetActiveEntry(ctx context.Context, username string) (*timetrack.Entry, error) {
	return activeEntry(ctx, s.db, username)
}

func (s *Store) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*timetrack.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM job_time_entries
		WHERE job_id = $1
		ORDER BY start_time DESC`

	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	defer rows.Close()

	var entries []*timetrack.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning time entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time entries: %w", err)
	}

	return entries, nil
}

// userLockKey maps a username onto the advisory lock space.
func userLockKey(username string) int64 {
	h := fnv.New64a()
	h.Write([]byte("timetrack"))
	h.Write([]byte{0})
	h.Write([]byte(username))

	return int64(h.Sum64())
}

type trackTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context, username string) (timetrack.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning time tracking tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", userLockKey(username)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring time tracking lock: %w", err)
	}

	return &trackTx{tx: dbTx}, nil
}

func (t *trackTx) Commit() error   { return t.tx.Commit() }
func (t *trackTx) Rollback() error { return t.tx.Rollback() }

func (t *trackTx) ActiveEntry(ctx context.Context, username string) (*timetrack.Entry, error) {
	return activeEntry(ctx, t.tx, username)
}

func (t *trackTx) CreateEntry(ctx context.Context, e *timetrack.Entry) error {
	query := `
		INSERT INTO job_time_entries (job_id, job_reference, username, start_time, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query, e.JobID, e.JobReference, e.Username, e.StartTime, e.Notes).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating time entry: %w", err)
	}

	return nil
}

func (t *trackTx) CloseEntry(ctx context.Context, e *timetrack.Entry) error {
	query := `
		UPDATE job_time_entries
		SET end_time = $1, notes = $2
		WHERE id = $3 AND end_time IS NULL
	`

	res, err := t.tx.ExecContext(ctx, query, e.EndTime, e.Notes, e.ID)
	if err != nil {
		return fmt.Errorf("closing time entry: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("closing time entry %s: already closed", e.ID)
	}

	return nil
}

func (t *trackTx) LogActivity(ctx context.Context, e *activity.Entry) error {
	return activityStore.Insert(ctx, t.tx, e)
}
