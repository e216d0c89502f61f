package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NanayasWorkshop/MakerManager/internal/scan"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Canonical id lookups per entity type. Ids are compared case-insensitively
// so hand-typed codes still resolve.
var byIDQueries = map[scan.Type]string{
	scan.TypeMaterial: `SELECT material_id, name FROM materials WHERE UPPER(material_id) = UPPER($1)`,
	scan.TypeMachine:  `SELECT machine_id, name FROM machines WHERE UPPER(machine_id) = UPPER($1)`,
	scan.TypeJob:      `SELECT job_id, project_name FROM jobs WHERE UPPER(job_id) = UPPER($1)`,
}

func (s *Store) FindByID(ctx context.Context, t scan.Type, id string) (*scan.Match, error) {
	query, ok := byIDQueries[t]
	if !ok {
		return nil, nil
	}

	return s.findOne(ctx, t, query, id)
}

// FindBySecondary looks for a material serial number or supplier SKU, then a machine serial number.
func (s *Store) FindBySecondary(ctx context.Context, code string) (*scan.Match, error) {
	m, err := s.findOne(ctx, scan.TypeMaterial, `
		SELECT material_id, name
		FROM materials
		WHERE (serial_number <> '' AND UPPER(serial_number) = UPPER($1))
			OR (supplier_sku <> '' AND UPPER(supplier_sku) = UPPER($1))
		ORDER BY created_at
		LIMIT 1`, code)
	if err != nil || m != nil {
		return m, err
	}

	return s.findOne(ctx, scan.TypeMachine, `
		SELECT machine_id, name
		FROM machines
		WHERE serial_number <> '' AND UPPER(serial_number) = UPPER($1)
		ORDER BY created_at
		LIMIT 1`, code)
}

func (s *Store) findOne(ctx context.Context, t scan.Type, query, arg string) (*scan.Match, error) {
	m := scan.Match{Type: t}

	err := s.db.QueryRowContext(ctx, query, arg).Scan(&m.ID, &m.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding %s: %w", t, err)
	}

	return &m, nil
}

func (s *Store) FindAlias(ctx context.Context, code string) (*scan.Match, error) {
	var t scan.Type

	err := s.db.QueryRowContext(ctx, `SELECT entity_type FROM code_aliases WHERE code = $1`, code).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding alias: %w", err)
	}

	query := `
		SELECT a.entity_id, COALESCE(m.name, mc.name, j.project_name, '')
		FROM code_aliases a
		LEFT JOIN materials m ON a.entity_type = 'material' AND m.material_id = a.entity_id
		LEFT JOIN machines mc ON a.entity_type = 'machine' AND mc.machine_id = a.entity_id
		LEFT JOIN jobs j ON a.entity_type = 'job' AND j.job_id = a.entity_id
		WHERE a.code = $1
	`

	return s.findOne(ctx, t, query, code)
}

// SaveAlias stores code for m, replacing an earlier mapping of the same code.
func (s *Store) SaveAlias(ctx context.Context, code string, m *scan.Match, createdBy string) error {
	query := `
		INSERT INTO code_aliases (code, entity_type, entity_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (code) DO UPDATE
		SET entity_type = EXCLUDED.entity_type, entity_id = EXCLUDED.entity_id,
			created_by = EXCLUDED.created_by, created_at = EXCLUDED.created_at
	`

	if _, err := s.db.ExecContext(ctx, query, code, m.Type, m.ID, createdBy); err != nil {
		return fmt.Errorf("saving alias: %w", err)
	}

	return nil
}

func (s *Store) RecordScan(ctx context.Context, h *scan.HistoryEntry) error {
	query := `
		INSERT INTO scan_history (username, scan_type, scanned_code, resolved_id, resolved_name, scanned_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, scanned_at
	`

	err := s.db.QueryRowContext(ctx, query, h.Username, h.Type, h.ScannedCode, h.ResolvedID, h.ResolvedName).
		Scan(&h.ID, &h.ScannedAt)
	if err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}

	return nil
}

func (s *Store) ListHistory(ctx context.Context, username string, limit int) ([]*scan.HistoryEntry, error) {
	query := `
		SELECT id, username, scan_type, scanned_code, resolved_id, resolved_name, scanned_at
		FROM scan_history
		WHERE username = $1
		ORDER BY scanned_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scan history: %w", err)
	}
	defer rows.Close()

	var out []*scan.HistoryEntry

	for rows.Next() {
		var h scan.HistoryEntry
		if err := rows.Scan(&h.ID, &h.Username, &h.Type, &h.ScannedCode, &h.ResolvedID, &h.ResolvedName, &h.ScannedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}

		out = append(out, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan history: %w", err)
	}

	return out, nil
}
