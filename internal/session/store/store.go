package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSettings(ctx context.Context, q querier, username string, forUpdate bool) (*session.Settings, error) {
	query := `
		SELECT username, active_job_id, personal_job_id, active_since, updated_at
		FROM staff_settings
		WHERE username = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var st session.Settings

	err := q.QueryRowContext(ctx, query, username).
		Scan(&st.Username, &st.ActiveJobID, &st.PersonalJobID, &st.ActiveSince, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSettingsMissing
		}

		return nil, fmt.Errorf("getting staff settings: %w", err)
	}

	return &st, nil
}

func (s *Store) GetSettings(ctx context.Context, username string) (*session.Settings, error) {
	return getSettings(ctx, s.db, username, false)
}

type settingsTx struct {
	tx       *sql.Tx
	settings *session.Settings
}

func (s *Store) Begin(ctx context.Context, username string) (session.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning settings tx: %w", err)
	}

	insert := `
		INSERT INTO staff_settings (username, updated_at)
		VALUES ($1, NOW())
		ON CONFLICT (username) DO NOTHING
	`
	if _, err := dbTx.ExecContext(ctx, insert, username); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("creating staff settings: %w", err)
	}

	st, err := getSettings(ctx, dbTx, username, true)
	if err != nil {
		dbTx.Rollback()
		return nil, err
	}

	return &settingsTx{tx: dbTx, settings: st}, nil
}

func (t *settingsTx) Settings() *session.Settings { return t.settings }
func (t *settingsTx) Commit() error               { return t.tx.Commit() }
func (t *settingsTx) Rollback() error             { return t.tx.Rollback() }

func (t *settingsTx) SaveSettings(ctx context.Context, st *session.Settings) error {
	query := `
		UPDATE staff_settings
		SET active_job_id = $1, personal_job_id = $2, active_since = $3, updated_at = NOW()
		WHERE username = $4
		RETURNING updated_at
	`

	if err := t.tx.QueryRowContext(ctx, query, st.ActiveJobID, st.PersonalJobID, st.ActiveSince, st.Username).Scan(&st.UpdatedAt); err != nil {
		return fmt.Errorf("saving staff settings: %w", err)
	}

	return nil
}
