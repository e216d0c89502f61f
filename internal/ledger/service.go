package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/idgen"
	"github.com/NanayasWorkshop/MakerManager/internal/metrics"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	GetMaterial(ctx context.Context, materialID string) (*Material, error)
	ListTransactions(ctx context.Context, materialID uuid.UUID, limit int) ([]*Transaction, error)
	ListJobMaterials(ctx context.Context, jobID uuid.UUID) ([]*JobMaterial, error)
	ListLowStock(ctx context.Context) ([]*Material, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic ledger operation. LockMaterial holds the material row
// until Commit or Rollback.
type Tx interface {
	LockMaterial(ctx context.Context, materialID string) (*Material, error)
	CreateMaterial(ctx context.Context, material *Material) error
	UpdateMaterial(ctx context.Context, material *Material) error
	CreateTransaction(ctx context.Context, t *Transaction) error
	CreateJobMaterial(ctx context.Context, jm *JobMaterial) error
	LogActivity(ctx context.Context, e *activity.Entry) error
	Commit() error
	Rollback() error
}

type IDGenerator interface {
	Next(ctx context.Context, prefix string) (int64, error)
}

type Service struct {
	repo    Repository
	ids     IDGenerator
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, ids IDGenerator, m *metrics.Metrics) *Service {
	return &Service{repo: repo, ids: ids, metrics: m, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Get(ctx context.Context, materialID string) (*Material, error) {
	return s.repo.GetMaterial(ctx, materialID)
}

// Transactions lists a material's ledger rows, newest first.
func (s *Service) Transactions(ctx context.Context, materialID string, limit int) ([]*Transaction, error) {
	m, err := s.repo.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}

	return s.repo.ListTransactions(ctx, m.ID, limit)
}

func (s *Service) JobMaterials(ctx context.Context, jobID uuid.UUID) ([]*JobMaterial, error) {
	return s.repo.ListJobMaterials(ctx, jobID)
}

func (s *Service) LowStock(ctx context.Context) ([]*Material, error) {
	return s.repo.ListLowStock(ctx)
}

type RegisterParams struct {
	Name              string
	CategoryCode      string
	TypeCode          string
	Unit              string
	InitialStock      decimal.Decimal
	MinimumStockLevel decimal.NullDecimal
	PricePerUnit      decimal.NullDecimal
	SupplierName      string
	SupplierSKU       string
	SerialNumber      string
	Location          string
}

// reservedCategories collide with the machine and job id prefixes that
// scanning recognizes, so materials under them could not be resolved by id.
var reservedCategories = []string{"J", "JOB", "MC", "MACH", "MAT", "PER"}

// Register creates a material with a generated id. Initial stock is booked as a purchase.
func (s *Service) Register(ctx context.Context, sess *session.Session, p RegisterParams) (*Movement, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMaterial)
	}

	category := idgen.Code(p.CategoryCode)
	if category == "" || idgen.Code(p.TypeCode) == "" {
		return nil, fmt.Errorf("%w: category and type codes are required", ErrInvalidMaterial)
	}

	if slices.Contains(reservedCategories, category) {
		return nil, fmt.Errorf("%w: %s", ErrReservedCategory, category)
	}

	if p.InitialStock.IsNegative() {
		return nil, fmt.Errorf("%w: initial stock %s", ErrInvalidQuantity, p.InitialStock)
	}

	for _, v := range []decimal.NullDecimal{p.MinimumStockLevel, p.PricePerUnit} {
		if v.Valid && v.Decimal.IsNegative() {
			return nil, fmt.Errorf("%w: negative value %s", ErrInvalidMaterial, v.Decimal)
		}
	}

	seq, err := s.ids.Next(ctx, idgen.MaterialPrefix(p.CategoryCode, p.TypeCode))
	if err != nil {
		return nil, fmt.Errorf("next material sequence: %w", err)
	}

	unit := p.Unit
	if unit == "" {
		unit = "pcs"
	}

	m := &Material{
		MaterialID:        idgen.MaterialID(p.CategoryCode, p.TypeCode, seq),
		Name:              strings.TrimSpace(p.Name),
		CategoryCode:      idgen.Code(p.CategoryCode),
		TypeCode:          idgen.Code(p.TypeCode),
		Unit:              unit,
		CurrentStock:      p.InitialStock,
		MinimumStockLevel: p.MinimumStockLevel,
		PricePerUnit:      p.PricePerUnit,
		SupplierName:      p.SupplierName,
		SupplierSKU:       p.SupplierSKU,
		SerialNumber:      p.SerialNumber,
		Location:          p.Location,
	}
	m.recomputeAlert()

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.CreateMaterial(ctx, m); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}

	mv := &Movement{Material: m}

	if m.CurrentStock.IsPositive() {
		mv.Transaction = &Transaction{
			MaterialID:   m.ID,
			Quantity:     m.CurrentStock,
			Type:         TypePurchase,
			Date:         s.now(),
			JobReference: ReferenceInitialStock,
			OperatorName: sess.OperatorName(),
			Notes:        "Initial stock on creation",
		}
		if err := tx.CreateTransaction(ctx, mv.Transaction); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}

	s.metrics.LedgerOperation(string(TypePurchase))

	return mv, nil
}

// Withdraw takes quantity out of stock for the session's active job.
func (s *Service) Withdraw(ctx context.Context, sess *session.Session, materialID string, quantity decimal.Decimal, notes string) (*Movement, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, quantity)
	}

	j, err := sess.RequireActiveJob()
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	m, err := tx.LockMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("lock material: %w", err)
	}

	if quantity.GreaterThan(m.CurrentStock) {
		return nil, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientStock, quantity, m.CurrentStock)
	}

	alerted := m.MinimumStockAlert
	m.CurrentStock = m.CurrentStock.Sub(quantity)
	m.recomputeAlert()

	mv := &Movement{
		Material: m,
		Transaction: &Transaction{
			MaterialID:   m.ID,
			Quantity:     quantity,
			Type:         TypeWithdrawal,
			Date:         s.now(),
			JobReference: j.JobID,
			OperatorName: sess.OperatorName(),
			Notes:        notes,
		},
		JobMaterial: &JobMaterial{
			JobID:      j.ID,
			MaterialID: m.ID,
			Quantity:   quantity,
			UnitPrice:  m.PricePerUnit,
			Result:     ResultActive,
			AddedBy:    sess.OperatorName(),
			Notes:      notes,
		},
	}

	if err := s.apply(ctx, tx, mv, &activity.Entry{
		JobID:       j.ID,
		Type:        activity.TypeMaterialUsage,
		Description: fmt.Sprintf("Withdrew %s %s of %s", quantity, m.Unit, m.MaterialID),
		PerformedBy: sess.OperatorName(),
		Metadata:    map[string]any{"material_id": m.MaterialID, "quantity": quantity.String()},
		RelatedType: "material",
		RelatedID:   m.MaterialID,
	}); err != nil {
		return nil, err
	}

	s.observe(TypeWithdrawal, m, alerted)

	return mv, nil
}

// Return puts quantity back into stock. The session's active job is optional.
func (s *Service) Return(ctx context.Context, sess *session.Session, materialID string, quantity decimal.Decimal, notes string) (*Movement, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, quantity)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	m, err := tx.LockMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("lock material: %w", err)
	}

	alerted := m.MinimumStockAlert
	m.CurrentStock = m.CurrentStock.Add(quantity)
	m.recomputeAlert()

	mv := &Movement{
		Material: m,
		Transaction: &Transaction{
			MaterialID:   m.ID,
			Quantity:     quantity,
			Type:         TypeReturn,
			Date:         s.now(),
			JobReference: sess.JobReference(),
			OperatorName: sess.OperatorName(),
			Notes:        notes,
		},
	}

	var logEntry *activity.Entry

	if j, err := sess.RequireActiveJob(); err == nil {
		mv.JobMaterial = &JobMaterial{
			JobID:      j.ID,
			MaterialID: m.ID,
			Quantity:   quantity.Neg(),
			UnitPrice:  m.PricePerUnit,
			Result:     ResultReturned,
			AddedBy:    sess.OperatorName(),
			Notes:      notes,
		}
		logEntry = &activity.Entry{
			JobID:       j.ID,
			Type:        activity.TypeMaterialUsage,
			Description: fmt.Sprintf("Returned %s %s of %s", quantity, m.Unit, m.MaterialID),
			PerformedBy: sess.OperatorName(),
			Metadata:    map[string]any{"material_id": m.MaterialID, "quantity": quantity.Neg().String()},
			RelatedType: "material",
			RelatedID:   m.MaterialID,
		}
	}

	if err := s.apply(ctx, tx, mv, logEntry); err != nil {
		return nil, err
	}

	s.observe(TypeReturn, m, alerted)

	return mv, nil
}

type RestockParams struct {
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Supplier     string
	PurchaseDate time.Time
	Notes        string

	// Location replaces the material's workshop location when non-empty.
	Location string
	// MinimumStockLevel replaces the alert threshold when set.
	MinimumStockLevel *decimal.Decimal
	// InvoiceURL links a purchase document to the restock transaction.
	InvoiceURL string
}

// Restock books a purchase and re-prices the material with the weighted average.
func (s *Service) Restock(ctx context.Context, sess *session.Session, materialID string, p RestockParams) (*Movement, error) {
	if !p.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, p.Quantity)
	}

	if !p.UnitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: unit price must be positive", ErrInvalidRestock)
	}

	supplier := strings.TrimSpace(p.Supplier)
	if supplier == "" {
		return nil, fmt.Errorf("%w: supplier is required", ErrInvalidRestock)
	}

	if p.MinimumStockLevel != nil && p.MinimumStockLevel.IsNegative() {
		return nil, fmt.Errorf("%w: minimum stock level %s", ErrInvalidQuantity, p.MinimumStockLevel)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	m, err := tx.LockMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("lock material: %w", err)
	}

	alerted := m.MinimumStockAlert
	m.PricePerUnit = decimal.NewNullDecimal(weightedAverage(m.CurrentStock, m.PricePerUnit, p.Quantity, p.UnitPrice))
	m.CurrentStock = m.CurrentStock.Add(p.Quantity)
	m.SupplierName = supplier

	if !p.PurchaseDate.IsZero() {
		m.PurchaseDate = &p.PurchaseDate
	}

	if loc := strings.TrimSpace(p.Location); loc != "" {
		m.Location = loc
	}

	if p.MinimumStockLevel != nil {
		m.MinimumStockLevel = decimal.NewNullDecimal(*p.MinimumStockLevel)
	}

	m.recomputeAlert()

	notes := fmt.Sprintf("Restock from %s at %s per %s", supplier, p.UnitPrice.StringFixed(priceScale), m.Unit)
	if p.Notes != "" {
		notes += ": " + p.Notes
	}

	mv := &Movement{
		Material: m,
		Transaction: &Transaction{
			MaterialID:   m.ID,
			Quantity:     p.Quantity,
			Type:         TypeRestock,
			Date:         s.now(),
			JobReference: session.NoJobReference,
			OperatorName: sess.OperatorName(),
			Notes:        notes,
		},
	}

	if url := strings.TrimSpace(p.InvoiceURL); url != "" {
		mv.Transaction.Invoice = &Invoice{URL: url}
	}

	if err := s.apply(ctx, tx, mv, nil); err != nil {
		return nil, err
	}

	s.observe(TypeRestock, m, alerted)

	return mv, nil
}

// Adjust sets the stock to a counted value. Nothing is recorded when the count matches.
func (s *Service) Adjust(ctx context.Context, sess *session.Session, materialID string, newStock decimal.Decimal) (*Movement, error) {
	if newStock.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, newStock)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	m, err := tx.LockMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("lock material: %w", err)
	}

	old := m.CurrentStock
	if old.Equal(newStock) {
		return &Movement{Material: m}, nil
	}

	alerted := m.MinimumStockAlert
	m.CurrentStock = newStock
	m.recomputeAlert()

	mv := &Movement{
		Material: m,
		Transaction: &Transaction{
			MaterialID:   m.ID,
			Quantity:     newStock.Sub(old).Abs(),
			Type:         TypeAdjustment,
			Date:         s.now(),
			JobReference: ReferenceAdjustment,
			OperatorName: sess.OperatorName(),
			Notes:        fmt.Sprintf("Manual stock adjustment from %s to %s", old, newStock),
		},
	}

	if err := s.apply(ctx, tx, mv, nil); err != nil {
		return nil, err
	}

	s.observe(TypeAdjustment, m, alerted)

	return mv, nil
}

// apply persists a movement and commits. Nil parts are skipped.
func (s *Service) apply(ctx context.Context, tx Tx, mv *Movement, logEntry *activity.Entry) error {
	if err := tx.UpdateMaterial(ctx, mv.Material); err != nil {
		return fmt.Errorf("update material: %w", err)
	}

	if err := tx.CreateTransaction(ctx, mv.Transaction); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	if mv.JobMaterial != nil {
		if err := tx.CreateJobMaterial(ctx, mv.JobMaterial); err != nil {
			return fmt.Errorf("create job material: %w", err)
		}
	}

	if logEntry != nil {
		if err := tx.LogActivity(ctx, logEntry); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}

	return nil
}

func (s *Service) observe(kind TransactionType, m *Material, alerted bool) {
	s.metrics.LedgerOperation(string(kind))

	switch {
	case m.MinimumStockAlert && !alerted:
		slog.Warn("low stock alert raised", "material", m.MaterialID, "stock", m.CurrentStock.String(), "minimum", m.MinimumStockLevel.Decimal.String())
	case !m.MinimumStockAlert && alerted:
		slog.Info("low stock alert cleared", "material", m.MaterialID, "stock", m.CurrentStock.String())
	}
}
