package machine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/idgen"
	"github.com/NanayasWorkshop/MakerManager/internal/metrics"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=machine
type Repository interface {
	GetMachine(ctx context.Context, machineID string) (*Machine, error)
	ListMachines(ctx context.Context, status Status) ([]*Machine, error)
	ListUsages(ctx context.Context, machineID uuid.UUID, limit int) ([]*Usage, error)
	GetOperator(ctx context.Context, username string) (*Operator, bool, error)
	Certify(ctx context.Context, username string, machineID uuid.UUID) error
	Revoke(ctx context.Context, username string, machineID uuid.UUID) error

	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic usage transition. LockMachine holds the machine row
// until Commit or Rollback.
type Tx interface {
	LockMachine(ctx context.Context, machineID string) (*Machine, error)
	CreateMachine(ctx context.Context, machine *Machine) error
	UpdateState(ctx context.Context, machine *Machine) error
	FindOperator(ctx context.Context, username string) (*Operator, bool, error)
	OpenUsage(ctx context.Context, machineID uuid.UUID) (*Usage, bool, error)
	CreateUsage(ctx context.Context, u *Usage) error
	CloseUsage(ctx context.Context, u *Usage) error
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
	stop    StopPolicy
	now     func() time.Time
}

func NewService(repo Repository, ids IDGenerator, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		ids:     ids,
		metrics: m,
		stop:    AnyOperatorMayStop,
		now:     time.Now,
	}
}

func (s *Service) WithStopPolicy(p StopPolicy) *Service {
	s.stop = p
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Get(ctx context.Context, machineID string) (*Machine, error) {
	return s.repo.GetMachine(ctx, strings.TrimSpace(machineID))
}

// List returns all machines, or only those in status when it is set.
func (s *Service) List(ctx context.Context, status Status) ([]*Machine, error) {
	return s.repo.ListMachines(ctx, status)
}

func (s *Service) Available(ctx context.Context) ([]*Machine, error) {
	return s.repo.ListMachines(ctx, StatusAvailable)
}

// Usages lists a machine's sessions, newest first.
func (s *Service) Usages(ctx context.Context, machineID string, limit int) ([]*Usage, error) {
	m, err := s.repo.GetMachine(ctx, machineID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	return s.repo.ListUsages(ctx, m.ID, limit)
}

func (s *Service) Operator(ctx context.Context, username string) (*Operator, error) {
	op, ok, err := s.repo.GetOperator(ctx, username)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrNoOperator
	}

	return op, nil
}

type RegisterParams struct {
	Name         string
	TypeCode     string
	SerialNumber string
	Location     string
	HourlyRate   decimal.NullDecimal
	SetupRate    decimal.NullDecimal
	CleanupRate  decimal.NullDecimal
}

func (s *Service) Register(ctx context.Context, p RegisterParams) (*Machine, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	if idgen.Code(p.TypeCode) == "" {
		return nil, fmt.Errorf("%w: type code is required", ErrInvalid)
	}

	for _, rate := range []decimal.NullDecimal{p.HourlyRate, p.SetupRate, p.CleanupRate} {
		if rate.Valid && rate.Decimal.IsNegative() {
			return nil, fmt.Errorf("%w: negative rate %s", ErrInvalidRate, rate.Decimal)
		}
	}

	seq, err := s.ids.Next(ctx, idgen.MachinePrefix(p.TypeCode))
	if err != nil {
		return nil, fmt.Errorf("next machine sequence: %w", err)
	}

	m := &Machine{
		MachineID:    idgen.MachineID(p.TypeCode, seq),
		Name:         strings.TrimSpace(p.Name),
		TypeCode:     idgen.Code(p.TypeCode),
		SerialNumber: p.SerialNumber,
		Location:     p.Location,
		Status:       StatusAvailable,
		HourlyRate:   p.HourlyRate,
		SetupRate:    p.SetupRate,
		CleanupRate:  p.CleanupRate,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin machine tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.CreateMachine(ctx, m); err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit machine tx: %w", err)
	}

	return m, nil
}

// Certify allows username to operate the machine, creating the operator profile if needed.
func (s *Service) Certify(ctx context.Context, username, machineID string) error {
	m, err := s.repo.GetMachine(ctx, machineID)
	if err != nil {
		return err
	}

	if err := s.repo.Certify(ctx, username, m.ID); err != nil {
		return fmt.Errorf("certify %s: %w", username, err)
	}

	slog.Info("operator certified", "user", username, "machine", m.MachineID)

	return nil
}

func (s *Service) Revoke(ctx context.Context, username, machineID string) error {
	m, err := s.repo.GetMachine(ctx, machineID)
	if err != nil {
		return err
	}

	if err := s.repo.Revoke(ctx, username, m.ID); err != nil {
		return fmt.Errorf("revoke %s: %w", username, err)
	}

	slog.Info("operator certification revoked", "user", username, "machine", m.MachineID)

	return nil
}

type StartParams struct {
	SetupMinutes     int
	EstimatedMinutes int
	Notes            string
}

// StartUsage puts an available machine in use for the session's active job.
// Gates are checked in order: availability, certification, active job.
func (s *Service) StartUsage(ctx context.Context, sess *session.Session, machineID string, p StartParams) (*Usage, error) {
	if p.SetupMinutes < 0 || p.EstimatedMinutes < 0 {
		return nil, fmt.Errorf("%w: setup %d, estimate %d", ErrInvalidMinutes, p.SetupMinutes, p.EstimatedMinutes)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin machine tx: %w", err)
	}
	defer tx.Rollback()

	m, err := tx.LockMachine(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("lock machine: %w", err)
	}

	if m.Status != StatusAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnavailable, m.MachineID, m.Status)
	}

	op, ok, err := tx.FindOperator(ctx, sess.User.Username)
	if err != nil {
		return nil, fmt.Errorf("find operator: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNotCertified, ErrNoOperator)
	}

	if !op.CanOperate(m) {
		return nil, fmt.Errorf("%w: %s", ErrNotCertified, m.MachineID)
	}

	j, err := sess.RequireActiveJob()
	if err != nil {
		return nil, err
	}

	now := s.now()

	u := &Usage{
		MachineID:    m.ID,
		JobID:        &j.ID,
		StartTime:    now,
		SetupMinutes: p.SetupMinutes,
		SetupCost:    rateCost(decimal.NewFromInt(int64(p.SetupMinutes)), m.SetupRate),
		JobReference: j.JobID,
		OperatorName: sess.OperatorName(),
		Notes:        p.Notes,
	}

	if err := tx.CreateUsage(ctx, u); err != nil {
		return nil, fmt.Errorf("create usage: %w", err)
	}

	m.Status = StatusInUse
	m.CurrentJobID = &j.ID
	m.ReservedUntil = new(now.Add(time.Duration(p.SetupMinutes+p.EstimatedMinutes) * time.Minute))

	if err := tx.UpdateState(ctx, m); err != nil {
		return nil, fmt.Errorf("update machine: %w", err)
	}

	err = tx.LogActivity(ctx, &activity.Entry{
		JobID:       j.ID,
		Type:        activity.TypeMachineUsage,
		Description: fmt.Sprintf("Started using %s", m.Name),
		PerformedBy: sess.OperatorName(),
		Metadata:    map[string]any{"machine_id": m.MachineID, "setup_minutes": p.SetupMinutes, "estimated_minutes": p.EstimatedMinutes},
		RelatedType: "machine",
		RelatedID:   m.MachineID,
	})
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit machine tx: %w", err)
	}

	s.metrics.MachineEvent("start")
	slog.Info("machine usage started", "machine", m.MachineID, "job", j.JobID, "user", sess.User.Username)

	return u, nil
}

type StopParams struct {
	CleanupMinutes int
	Notes          string
}

// StopUsage closes the open usage of an in-use machine, prices it and frees the machine.
func (s *Service) StopUsage(ctx context.Context, sess *session.Session, machineID string, p StopParams) (*Usage, error) {
	if p.CleanupMinutes < 0 {
		return nil, fmt.Errorf("%w: cleanup %d", ErrInvalidMinutes, p.CleanupMinutes)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin machine tx: %w", err)
	}
	defer tx.Rollback()

	m, err := tx.LockMachine(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("lock machine: %w", err)
	}

	if m.Status != StatusInUse {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotInUse, m.MachineID, m.Status)
	}

	u, ok, err := tx.OpenUsage(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("find open usage: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOpenUsage, m.MachineID)
	}

	if err := s.stop(sess, u); err != nil {
		return nil, err
	}

	now := s.now()

	u.EndTime = &now
	u.CleanupMinutes = p.CleanupMinutes

	if p.Notes != "" {
		u.Notes += "\n\nStop notes: " + p.Notes
	}

	u.OperationCost = rateCost(u.OperationMinutes(now), m.HourlyRate)
	u.CleanupCost = rateCost(decimal.NewFromInt(int64(p.CleanupMinutes)), m.CleanupRate)
	u.TotalCost = u.SetupCost.Add(u.OperationCost).Add(u.CleanupCost)

	if err := tx.CloseUsage(ctx, u); err != nil {
		return nil, fmt.Errorf("close usage: %w", err)
	}

	m.Status = StatusAvailable
	m.CurrentJobID = nil
	m.ReservedUntil = nil

	if err := tx.UpdateState(ctx, m); err != nil {
		return nil, fmt.Errorf("update machine: %w", err)
	}

	if u.JobID != nil {
		err = tx.LogActivity(ctx, &activity.Entry{
			JobID:       *u.JobID,
			Type:        activity.TypeMachineUsage,
			Description: fmt.Sprintf("Stopped using %s", m.Name),
			PerformedBy: sess.OperatorName(),
			Metadata: map[string]any{
				"machine_id":        m.MachineID,
				"operation_minutes": u.OperationMinutes(now).IntPart(),
				"cleanup_minutes":   p.CleanupMinutes,
				"total_cost":        u.TotalCost.StringFixed(2),
			},
			RelatedType: "machine",
			RelatedID:   m.MachineID,
		})
		if err != nil {
			return nil, fmt.Errorf("log activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit machine tx: %w", err)
	}

	s.metrics.MachineEvent("stop")
	slog.Info("machine usage stopped", "machine", m.MachineID, "job", u.JobReference, "total_cost", u.TotalCost.StringFixed(2))

	return u, nil
}
