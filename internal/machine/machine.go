package machine

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

var (
	ErrNotFound       = errors.New("machine not found")
	ErrUnavailable    = errors.New("machine is not available")
	ErrNotInUse       = errors.New("machine is not in use")
	ErrNotCertified   = errors.New("operator is not certified for this machine")
	ErrNoOpenUsage    = errors.New("no open usage record for machine")
	ErrInvalidMinutes = errors.New("invalid minutes")
	ErrNoOperator     = errors.New("operator profile not found")
	ErrInvalid        = errors.New("invalid machine")
	ErrInvalidRate    = errors.New("invalid rate")
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
	StatusOutOfOrder  Status = "out_of_order"
)

// Machine is a shared workshop machine. Status, CurrentJobID and
// ReservedUntil are only changed by usage start and stop.
type Machine struct {
	ID            uuid.UUID
	MachineID     string
	Name          string
	TypeCode      string
	SerialNumber  string
	Location      string
	Status        Status
	CurrentJobID  *uuid.UUID
	ReservedUntil *time.Time
	HourlyRate    decimal.NullDecimal
	SetupRate     decimal.NullDecimal
	CleanupRate   decimal.NullDecimal
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Usage is one session on a machine. A nil EndTime means it is still running.
type Usage struct {
	ID             uuid.UUID
	MachineID      uuid.UUID
	JobID          *uuid.UUID
	StartTime      time.Time
	EndTime        *time.Time
	SetupMinutes   int
	CleanupMinutes int
	SetupCost      decimal.Decimal
	OperationCost  decimal.Decimal
	CleanupCost    decimal.Decimal
	TotalCost      decimal.Decimal
	JobReference   string
	OperatorName   string
	Notes          string
	CreatedAt      time.Time
}

func (u *Usage) Open() bool {
	return u.EndTime == nil
}

// OperationMinutes is the running time between start and end, or until now when open.
func (u *Usage) OperationMinutes(now time.Time) decimal.Decimal {
	end := now
	if u.EndTime != nil {
		end = *u.EndTime
	}

	return decimal.NewFromInt(int64(end.Sub(u.StartTime) / time.Second)).Div(decimal.NewFromInt(60))
}

// Operator is the machine-facing profile of a user.
type Operator struct {
	ID         uuid.UUID
	Username   string
	OperatorID string
	SkillLevel string
	Certified  []uuid.UUID
}

func (o *Operator) CanOperate(m *Machine) bool {
	return slices.Contains(o.Certified, m.ID)
}

// StopPolicy decides whether the session may stop the usage running on a machine.
type StopPolicy func(sess *session.Session, u *Usage) error

// AnyOperatorMayStop lets anyone stop a running machine, regardless of who started it.
func AnyOperatorMayStop(*session.Session, *Usage) error {
	return nil
}

// rateCost prices minutes at an hourly rate. Unset rates cost nothing.
func rateCost(minutes decimal.Decimal, rate decimal.NullDecimal) decimal.Decimal {
	if !rate.Valid {
		return decimal.Zero
	}

	return minutes.Mul(rate.Decimal).Div(decimal.NewFromInt(60)).Round(2)
}
