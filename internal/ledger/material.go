package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMaterialNotFound  = errors.New("material not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidRestock    = errors.New("invalid restock")
	ErrInvalidMaterial   = errors.New("invalid material")
	ErrReservedCategory  = errors.New("category code is reserved")
)

// TransactionType is the kind of stock movement recorded in the ledger.
type TransactionType string

const (
	TypeWithdrawal TransactionType = "withdrawal"
	TypeReturn     TransactionType = "return"
	TypeAdjustment TransactionType = "adjustment"
	TypePurchase   TransactionType = "purchase"
	TypeRestock    TransactionType = "restock"
)

// Result tracks what happened to material attributed to a job.
type Result string

const (
	ResultActive    Result = "active"
	ResultCompleted Result = "completed"
	ResultReturned  Result = "returned"
	ResultScrapped  Result = "scrapped"
)

// Job references written on rows that are not attributed to a job.
const (
	ReferenceInitialStock = "Initial Stock"
	ReferenceAdjustment   = "Manual Adjustment"
)

// Material is a consumable stock item. CurrentStock, PricePerUnit and
// MinimumStockAlert are only changed by ledger operations.
type Material struct {
	ID                uuid.UUID
	MaterialID        string
	Name              string
	CategoryCode      string
	TypeCode          string
	Unit              string
	CurrentStock      decimal.Decimal
	MinimumStockLevel decimal.NullDecimal
	MinimumStockAlert bool
	PricePerUnit      decimal.NullDecimal
	SupplierName      string
	SupplierSKU       string
	SerialNumber      string
	Location          string
	PurchaseDate      *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// recomputeAlert sets the low-stock flag from the current stock and threshold.
func (m *Material) recomputeAlert() {
	m.MinimumStockAlert = m.MinimumStockLevel.Valid && m.CurrentStock.LessThanOrEqual(m.MinimumStockLevel.Decimal)
}

// Transaction is an immutable ledger row. Quantity is always a magnitude;
// the direction follows from Type.
type Transaction struct {
	ID           uuid.UUID
	MaterialID   uuid.UUID
	Quantity     decimal.Decimal
	Type         TransactionType
	Date         time.Time
	JobReference string
	OperatorName string
	Notes        string
	Invoice      *Invoice
	CreatedAt    time.Time
}

// Invoice is a purchase document linked to a restock.
type Invoice struct {
	ID  uuid.UUID
	URL string
}

// JobMaterial attributes a stock movement to a job. Quantity is positive for
// withdrawals and negative for returns.
type JobMaterial struct {
	ID         uuid.UUID
	JobID      uuid.UUID
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
	UnitPrice  decimal.NullDecimal
	Result     Result
	AddedBy    string
	Notes      string
	CreatedAt  time.Time
}

// Movement is the outcome of one ledger operation.
type Movement struct {
	Material    *Material
	Transaction *Transaction
	JobMaterial *JobMaterial
}

// priceScale is the number of decimal places prices are stored with.
const priceScale int32 = 2

// weightedAverage blends the value of the stock on hand with a purchase.
// Without a usable previous price the purchase price is taken as is.
func weightedAverage(stock decimal.Decimal, oldPrice decimal.NullDecimal, quantity, unitPrice decimal.Decimal) decimal.Decimal {
	if !oldPrice.Valid || oldPrice.Decimal.IsZero() {
		return unitPrice
	}

	total := stock.Add(quantity)
	if !total.IsPositive() {
		return unitPrice
	}

	value := stock.Mul(oldPrice.Decimal).Add(quantity.Mul(unitPrice))

	return value.Div(total).Round(priceScale)
}
