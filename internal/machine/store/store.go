package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	activityStore "github.com/NanayasWorkshop/MakerManager/internal/activity/store"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
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

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectMachineColumns = `
	id, machine_id, name, type_code, serial_number, location, status,
	current_job_id, reserved_until, hourly_rate, setup_rate, cleanup_rate,
	created_at, updated_at
`

func scanMachine(s scanner) (*machine.Machine, error) {
	var m machine.Machine

	if err := s.Scan(
		&m.ID, &m.MachineID, &m.Name, &m.TypeCode, &m.SerialNumber, &m.Location, &m.Status,
		&m.CurrentJobID, &m.ReservedUntil, &m.HourlyRate, &m.SetupRate, &m.CleanupRate,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &m, nil
}

const selectUsageColumns = `
	id, machine_id, job_id, start_time, end_time, setup_minutes, cleanup_minutes,
	setup_cost, operation_cost, cleanup_cost, total_cost, job_reference, operator_name, notes, created_at
`

func scanUsage(s scanner) (*machine.Usage, error) {
	var u machine.Usage

	if err := s.Scan(
		&u.ID, &u.MachineID, &u.JobID, &u.StartTime, &u.EndTime, &u.SetupMinutes, &u.CleanupMinutes,
		&u.SetupCost, &u.OperationCost, &u.CleanupCost, &u.TotalCost, &u.JobReference, &u.OperatorName, &u.Notes, &u.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &u, nil
}

func getMachine(ctx context.Context, q querier, machineID string, lock bool) (*machine.Machine, error) {
	query := `SELECT ` + selectMachineColumns + ` FROM machines WHERE machine_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	m, err := scanMachine(q.QueryRowContext(ctx, query, machineID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", machineID, machine.ErrNotFound)
		}

		return nil, fmt.Errorf("getting machine: %w", err)
	}

	return m, nil
}

func (s *Store) GetMachine(ctx context.Context, machineID string) (*machine.Machine, error) {
	return getMachine(ctx, s.db, machineID, false)
}

func (s *Store) ListMachines(ctx context.Context, status machine.Status) ([]*machine.Machine, error) {
	query := `SELECT ` + selectMachineColumns + `
		FROM machines
		WHERE $1 = '' OR status = $1
		ORDER BY machine_id`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("listing machines: %w", err)
	}
	defer rows.Close()

	var out []*machine.Machine

	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning machine: %w", err)
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating machines: %w", err)
	}

	return out, nil
}

func (s *Store) ListUsages(ctx context.Context, machineID uuid.UUID, limit int) ([]*machine.Usage, error) {
	query := `SELECT ` + selectUsageColumns + `
		FROM machine_usages
		WHERE machine_id = $1
		ORDER BY start_time DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, machineID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing usages: %w", err)
	}
	defer rows.Close()

	var out []*machine.Usage

	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning usage: %w", err)
		}

		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usages: %w", err)
	}

	return out, nil
}

func findOperator(ctx context.Context, q querier, username string) (*machine.Operator, bool, error) {
	var op machine.Operator

	err := q.QueryRowContext(ctx, `SELECT id, username, operator_id, skill_level FROM operators WHERE username = $1`, username).
		Scan(&op.ID, &op.Username, &op.OperatorID, &op.SkillLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("getting operator: %w", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT machine_id FROM operator_certifications WHERE operator_id = $1`, op.ID)
	if err != nil {
		return nil, false, fmt.Errorf("listing certifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, false, fmt.Errorf("scanning certification: %w", err)
		}

		op.Certified = append(op.Certified, id)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating certifications: %w", err)
	}

	return &op, true, nil
}

func (s *Store) GetOperator(ctx context.Context, username string) (*machine.Operator, bool, error) {
	return findOperator(ctx, s.db, username)
}

func (s *Store) Certify(ctx context.Context, username string, machineID uuid.UUID) error {
	query := `
		WITH op AS (
			INSERT INTO operators (username)
			VALUES ($1)
			ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
			RETURNING id
		)
		INSERT INTO operator_certifications (operator_id, machine_id)
		SELECT id, $2 FROM op
		ON CONFLICT DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, username, machineID); err != nil {
		return fmt.Errorf("certifying operator: %w", err)
	}

	return nil
}

func (s *Store) Revoke(ctx context.Context, username string, machineID uuid.UUID) error {
	query := `
		DELETE FROM operator_certifications c
		USING operators o
		WHERE c.operator_id = o.id AND o.username = $1 AND c.machine_id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, username, machineID); err != nil {
		return fmt.Errorf("revoking certification: %w", err)
	}

	return nil
}

type machineTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (machine.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning machine tx: %w", err)
	}

	return &machineTx{tx: dbTx}, nil
}

func (m *machineTx) Commit() error   { return m.tx.Commit() }
func (m *machineTx) Rollback() error { return m.tx.Rollback() }

func (m *machineTx) LockMachine(ctx context.Context, machineID string) (*machine.Machine, error) {
	return getMachine(ctx, m.tx, machineID, true)
}

func (m *machineTx) CreateMachine(ctx context.Context, mc *machine.Machine) error {
	query := `
		INSERT INTO machines (machine_id, name, type_code, serial_number, location, status, hourly_rate, setup_rate, cleanup_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`

	err := m.tx.QueryRowContext(ctx, query,
		mc.MachineID, mc.Name, mc.TypeCode, mc.SerialNumber, mc.Location, mc.Status,
		mc.HourlyRate, mc.SetupRate, mc.CleanupRate,
	).Scan(&mc.ID, &mc.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating machine: %w", err)
	}

	return nil
}

func (m *machineTx) UpdateState(ctx context.Context, mc *machine.Machine) error {
	query := `
		UPDATE machines
		SET status = $1, current_job_id = $2, reserved_until = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	if err := m.tx.QueryRowContext(ctx, query, mc.Status, mc.CurrentJobID, mc.ReservedUntil, mc.ID).Scan(&mc.UpdatedAt); err != nil {
		return fmt.Errorf("updating machine state: %w", err)
	}

	return nil
}

func (m *machineTx) FindOperator(ctx context.Context, username string) (*machine.Operator, bool, error) {
	return findOperator(ctx, m.tx, username)
}

func (m *machineTx) OpenUsage(ctx context.Context, machineID uuid.UUID) (*machine.Usage, bool, error) {
	query := `SELECT ` + selectUsageColumns + `
		FROM machine_usages
		WHERE machine_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1`

	u, err := scanUsage(m.tx.QueryRowContext(ctx, query, machineID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("getting open usage: %w", err)
	}

	return u, true, nil
}

func (m *machineTx) CreateUsage(ctx context.Context, u *machine.Usage) error {
	query := `
		INSERT INTO machine_usages (machine_id, job_id, start_time, setup_minutes, setup_cost, job_reference, operator_name, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := m.tx.QueryRowContext(ctx, query,
		u.MachineID, u.JobID, u.StartTime, u.SetupMinutes, u.SetupCost, u.JobReference, u.OperatorName, u.Notes,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating usage: %w", err)
	}

	return nil
}

func (m *machineTx) CloseUsage(ctx context.Context, u *machine.Usage) error {
	query := `
		UPDATE machine_usages
		SET end_time = $1, cleanup_minutes = $2, operation_cost = $3, cleanup_cost = $4, total_cost = $5, notes = $6
		WHERE id = $7 AND end_time IS NULL
	`

	res, err := m.tx.ExecContext(ctx, query,
		u.EndTime, u.CleanupMinutes, u.OperationCost, u.CleanupCost, u.TotalCost, u.Notes, u.ID,
	)
	if err != nil {
		return fmt.Errorf("closing usage: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("closing usage: %w", err)
	}

	if n == 0 {
		return machine.ErrNoOpenUsage
	}

	return nil
}

func (m *machineTx) LogActivity(ctx context.Context, e *activity.Entry) error {
	return activityStore.Insert(ctx, m.tx, e)
}
