package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	activityStore "github.com/NanayasWorkshop/MakerManager/internal/activity/store"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order matches selectMaterialColumns.
func scanMaterial(s scanner) (*ledger.Material, error) {
	var m ledger.Material

	if err := s.Scan(
		&m.ID, &m.MaterialID, &m.Name, &m.CategoryCode, &m.TypeCode, &m.Unit,
		&m.CurrentStock, &m.MinimumStockLevel, &m.MinimumStockAlert, &m.PricePerUnit,
		&m.SupplierName, &m.SupplierSKU, &m.SerialNumber, &m.Location, &m.PurchaseDate,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &m, nil
}

const selectMaterialColumns = `
	id, material_id, name, category_code, type_code, unit,
	current_stock, minimum_stock_level, minimum_stock_alert, price_per_unit,
	supplier_name, supplier_sku, serial_number, location_in_workshop, purchase_date,
	created_at, updated_at
`

func (s *Store) GetMaterial(ctx context.Context, materialID string) (*ledger.Material, error) {
	query := `SELECT ` + selectMaterialColumns + ` FROM materials WHERE material_id = $1`

	m, err := scanMaterial(s.db.QueryRowContext(ctx, query, materialID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", materialID, ledger.ErrMaterialNotFound)
		}

		return nil, fmt.Errorf("getting material: %w", err)
	}

	return m, nil
}

func (s *Store) ListLowStock(ctx context.Context) ([]*ledger.Material, error) {
	query := `SELECT ` + selectMaterialColumns + `
		FROM materials
		WHERE minimum_stock_alert
		ORDER BY current_stock - minimum_stock_level ASC, material_id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing low stock: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Material

	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning material: %w", err)
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating materials: %w", err)
	}

	return out, nil
}

func (s *Store) ListTransactions(ctx context.Context, materialID uuid.UUID, limit int) ([]*ledger.Transaction, error) {
	query := `
		SELECT t.id, t.material_id, t.quantity, t.transaction_type, t.transaction_date,
			t.job_reference, t.operator_name, t.notes, t.invoice_id, i.url, t.created_at
		FROM material_transactions t
		LEFT JOIN invoices i ON t.invoice_id = i.id
		WHERE t.material_id = $1
		ORDER BY t.transaction_date DESC, t.created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, materialID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Transaction

	for rows.Next() {
		var (
			t          ledger.Transaction
			typeStr    string
			invoiceID  *uuid.UUID
			invoiceURL sql.NullString
		)

		if err := rows.Scan(
			&t.ID, &t.MaterialID, &t.Quantity, &typeStr, &t.Date,
			&t.JobReference, &t.OperatorName, &t.Notes, &invoiceID, &invoiceURL, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		t.Type = ledger.TransactionType(typeStr)

		if invoiceID != nil && invoiceURL.Valid {
			t.Invoice = &ledger.Invoice{ID: *invoiceID, URL: invoiceURL.String}
		}

		out = append(out, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return out, nil
}

func (s *Store) ListJobMaterials(ctx context.Context, jobID uuid.UUID) ([]*ledger.JobMaterial, error) {
	query := `
		SELECT id, job_id, material_id, quantity, unit_price, result, added_by, notes, created_at
		FROM job_materials
		WHERE job_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing job materials: %w", err)
	}
	defer rows.Close()

	var out []*ledger.JobMaterial

	for rows.Next() {
		var (
			jm     ledger.JobMaterial
			result string
		)

		if err := rows.Scan(&jm.ID, &jm.JobID, &jm.MaterialID, &jm.Quantity, &jm.UnitPrice, &result, &jm.AddedBy, &jm.Notes, &jm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning job material: %w", err)
		}

		jm.Result = ledger.Result(result)
		out = append(out, &jm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job materials: %w", err)
	}

	return out, nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (ledger.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", err)
	}

	return &ledgerTx{tx: dbTx}, nil
}

func (l *ledgerTx) Commit() error   { return l.tx.Commit() }
func (l *ledgerTx) Rollback() error { return l.tx.Rollback() }

// LockMaterial reads the material under a row lock so concurrent operations
// on the same material queue behind this transaction.
func (l *ledgerTx) LockMaterial(ctx context.Context, materialID string) (*ledger.Material, error) {
	query := `SELECT ` + selectMaterialColumns + ` FROM materials WHERE material_id = $1 FOR UPDATE`

	m, err := scanMaterial(l.tx.QueryRowContext(ctx, query, materialID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", materialID, ledger.ErrMaterialNotFound)
		}

		return nil, fmt.Errorf("locking material: %w", err)
	}

	return m, nil
}

func (l *ledgerTx) CreateMaterial(ctx context.Context, m *ledger.Material) error {
	query := `
		INSERT INTO materials (
			material_id, name, category_code, type_code, unit,
			current_stock, minimum_stock_level, minimum_stock_alert, price_per_unit,
			supplier_name, supplier_sku, serial_number, location_in_workshop, purchase_date, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		RETURNING id, created_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		m.MaterialID, m.Name, m.CategoryCode, m.TypeCode, m.Unit,
		m.CurrentStock, m.MinimumStockLevel, m.MinimumStockAlert, m.PricePerUnit,
		m.SupplierName, m.SupplierSKU, m.SerialNumber, m.Location, m.PurchaseDate,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating material: %w", err)
	}

	return nil
}

func (l *ledgerTx) UpdateMaterial(ctx context.Context, m *ledger.Material) error {
	query := `
		UPDATE materials
		SET current_stock = $1, minimum_stock_level = $2, minimum_stock_alert = $3, price_per_unit = $4,
			supplier_name = $5, location_in_workshop = $6, purchase_date = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		m.CurrentStock, m.MinimumStockLevel, m.MinimumStockAlert, m.PricePerUnit,
		m.SupplierName, m.Location, m.PurchaseDate, m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating material: %w", err)
	}

	return nil
}

func (l *ledgerTx) CreateTransaction(ctx context.Context, t *ledger.Transaction) error {
	var invoiceID *uuid.UUID

	if t.Invoice != nil {
		// Invoices are shared between transactions by URL.
		upsert := `
			INSERT INTO invoices (url)
			VALUES ($1)
			ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
			RETURNING id
		`
		if err := l.tx.QueryRowContext(ctx, upsert, t.Invoice.URL).Scan(&t.Invoice.ID); err != nil {
			return fmt.Errorf("upserting invoice: %w", err)
		}

		invoiceID = &t.Invoice.ID
	}

	query := `
		INSERT INTO material_transactions (material_id, quantity, transaction_type, transaction_date, job_reference, operator_name, notes, invoice_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		t.MaterialID, t.Quantity, t.Type, t.Date, t.JobReference, t.OperatorName, t.Notes, invoiceID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (l *ledgerTx) CreateJobMaterial(ctx context.Context, jm *ledger.JobMaterial) error {
	query := `
		INSERT INTO job_materials (job_id, material_id, quantity, unit_price, result, added_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		jm.JobID, jm.MaterialID, jm.Quantity, jm.UnitPrice, jm.Result, jm.AddedBy, jm.Notes,
	).Scan(&jm.ID, &jm.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating job material: %w", err)
	}

	return nil
}

func (l *ledgerTx) LogActivity(ctx context.Context, e *activity.Entry) error {
	return activityStore.Insert(ctx, l.tx, e)
}
