package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/metrics"
)

// ErrUnresolved is a normal negative result: the caller should offer manual entry.
var ErrUnresolved = errors.New("code could not be resolved")

// Match is a resolved entity reference.
type Match struct {
	Type Type
	ID   string
	Name string
	// Via records which lookup produced the match.
	Via string
}

const (
	ViaID        = "id"
	ViaSecondary = "secondary"
	ViaAlias     = "alias"
)

type HistoryEntry struct {
	ID           uuid.UUID
	Username     string
	Type         Type
	ScannedCode  string
	ResolvedID   string
	ResolvedName string
	ScannedAt    time.Time
}

// Lookups return nil without error on a miss.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=scan
type Repository interface {
	FindByID(ctx context.Context, t Type, id string) (*Match, error)
	FindBySecondary(ctx context.Context, code string) (*Match, error)
	FindAlias(ctx context.Context, code string) (*Match, error)
	SaveAlias(ctx context.Context, code string, match *Match, createdBy string) error
	RecordScan(ctx context.Context, h *HistoryEntry) error
	ListHistory(ctx context.Context, username string, limit int) ([]*HistoryEntry, error)
}

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
}

func NewService(repo Repository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

// Resolve maps a scanned code to an entity. Classified ids are looked up
// directly; anything else, or a classified miss, falls back to serial
// number and SKU lookup and then to learned aliases.
func (s *Service) Resolve(ctx context.Context, u identity.User, code string) (*Match, error) {
	raw := strings.TrimSpace(code)
	if raw == "" {
		return nil, ErrUnresolved
	}

	id := ExtractID(raw)
	t := Classify(id)

	candidates := []Type{t}
	if t == TypeUnknown {
		// Material ids carry their category as prefix, so unknown codes may still be canonical.
		candidates = []Type{TypeMaterial, TypeMachine, TypeJob}
	}

	for _, ct := range candidates {
		m, err := s.repo.FindByID(ctx, ct, id)
		if err != nil {
			return nil, fmt.Errorf("find %s %s: %w", ct, id, err)
		}

		if m != nil {
			return s.found(ctx, u, raw, m, ViaID)
		}
	}

	m, err := s.fallback(ctx, id)
	if err != nil {
		return nil, err
	}

	if m == nil {
		s.metrics.ScanResolved(string(t), false)
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, raw)
	}

	return s.found(ctx, u, raw, m, m.Via)
}

// ResolveAs resolves a manually typed code whose type the user chose, skipping classification.
func (s *Service) ResolveAs(ctx context.Context, u identity.User, t Type, code string) (*Match, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown entity type %q", t)
	}

	raw := strings.TrimSpace(code)
	if raw == "" {
		return nil, ErrUnresolved
	}

	id := ExtractID(raw)

	m, err := s.repo.FindByID(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", t, id, err)
	}

	if m != nil {
		return s.found(ctx, u, raw, m, ViaID)
	}

	m, err = s.fallback(ctx, id)
	if err != nil {
		return nil, err
	}

	if m == nil || m.Type != t {
		s.metrics.ScanResolved(string(t), false)
		return nil, fmt.Errorf("%w: %s %s", ErrUnresolved, t, raw)
	}

	return s.found(ctx, u, raw, m, m.Via)
}

// Learn remembers that code refers to the given entity, so future scans of
// code resolve without manual entry.
func (s *Service) Learn(ctx context.Context, u identity.User, code string, t Type, id string) (*Match, error) {
	alias := Normalize(code)
	if alias == "" {
		return nil, errors.New("code is required")
	}

	if !t.Valid() {
		return nil, fmt.Errorf("unknown entity type %q", t)
	}

	m, err := s.repo.FindByID(ctx, t, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", t, id, err)
	}

	if m == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnresolved, t, id)
	}

	if err := s.repo.SaveAlias(ctx, alias, m, u.Username); err != nil {
		return nil, fmt.Errorf("save alias: %w", err)
	}

	slog.Info("scan alias learned", "code", alias, "type", m.Type, "id", m.ID, "user", u.Username)

	return s.found(ctx, u, code, m, ViaAlias)
}

// History lists the user's latest scans, newest first.
func (s *Service) History(ctx context.Context, username string, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	return s.repo.ListHistory(ctx, username, limit)
}

func (s *Service) fallback(ctx context.Context, code string) (*Match, error) {
	m, err := s.repo.FindBySecondary(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find by serial or sku: %w", err)
	}

	if m != nil {
		m.Via = ViaSecondary
		return m, nil
	}

	m, err = s.repo.FindAlias(ctx, Normalize(code))
	if err != nil {
		return nil, fmt.Errorf("find alias: %w", err)
	}

	if m != nil {
		m.Via = ViaAlias
	}

	return m, nil
}

func (s *Service) found(ctx context.Context, u identity.User, code string, m *Match, via string) (*Match, error) {
	m.Via = via

	err := s.repo.RecordScan(ctx, &HistoryEntry{
		Username:     u.Username,
		Type:         m.Type,
		ScannedCode:  code,
		ResolvedID:   m.ID,
		ResolvedName: m.Name,
	})
	if err != nil {
		slog.Error("failed to record scan", "error", err, "code", code)
	}

	s.metrics.ScanResolved(string(m.Type), true)

	return m, nil
}
