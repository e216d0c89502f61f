package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
)

// Querier is satisfied by *sql.DB and *sql.Tx so other stores can append
// activity inside their own transactions.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, e *activity.Entry) error {
	return Insert(ctx, s.db, e)
}

func Insert(ctx context.Context, q Querier, e *activity.Entry) error {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encoding activity metadata: %w", err)
	}

	query := `
		INSERT INTO job_activity_logs (job_id, activity_type, description, performed_by_name, metadata, related_object_type, related_object_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err = q.QueryRowContext(ctx, query,
		e.JobID,
		e.Type,
		e.Description,
		e.PerformedBy,
		string(raw),
		e.RelatedType,
		e.RelatedID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}

	return nil
}

func (s *Store) ListByJob(ctx context.Context, jobID uuid.UUID, limit int) ([]*activity.Entry, error) {
	query := `
		SELECT id, job_id, activity_type, description, performed_by_name, metadata, related_object_type, related_object_id, created_at
		FROM job_activity_logs
		WHERE job_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []*activity.Entry

	for rows.Next() {
		var (
			e       activity.Entry
			typeStr string
			raw     []byte
		)

		if err := rows.Scan(&e.ID, &e.JobID, &typeStr, &e.Description, &e.PerformedBy, &raw, &e.RelatedType, &e.RelatedID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}

		e.Type = activity.Type(typeStr)

		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decoding activity metadata: %w", err)
			}
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}

	return entries, nil
}
