package machine_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
)

// memStore keeps machines and usages in memory; transaction writes become visible on Commit.
type memStore struct {
	mu        sync.Mutex
	machines  map[string]*machine.Machine
	usages    []*machine.Usage
	operators map[string]*machine.Operator
	activity  []*activity.Entry
}

func newMemStore(machines ...*machine.Machine) *memStore {
	s := &memStore{
		machines:  map[string]*machine.Machine{},
		operators: map[string]*machine.Operator{},
	}

	for _, m := range machines {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}

		s.machines[m.MachineID] = m
	}

	return s
}

func (s *memStore) certify(username string, m *machine.Machine) {
	op, ok := s.operators[username]
	if !ok {
		op = &machine.Operator{ID: uuid.New(), Username: username}
		s.operators[username] = op
	}

	op.Certified = append(op.Certified, m.ID)
}

func (s *memStore) openUsages(machineID uuid.UUID) int {
	n := 0

	for _, u := range s.usages {
		if u.MachineID == machineID && u.Open() {
			n++
		}
	}

	return n
}

func (s *memStore) GetMachine(_ context.Context, machineID string) (*machine.Machine, error) {
	m, ok := s.machines[machineID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", machineID, machine.ErrNotFound)
	}

	cp := *m

	return &cp, nil
}

func (s *memStore) ListMachines(_ context.Context, status machine.Status) ([]*machine.Machine, error) {
	var out []*machine.Machine

	for _, m := range s.machines {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}

	return out, nil
}

func (s *memStore) ListUsages(_ context.Context, machineID uuid.UUID, limit int) ([]*machine.Usage, error) {
	var out []*machine.Usage

	for i := len(s.usages) - 1; i >= 0 && len(out) < limit; i-- {
		if s.usages[i].MachineID == machineID {
			out = append(out, s.usages[i])
		}
	}

	return out, nil
}

func (s *memStore) GetOperator(_ context.Context, username string) (*machine.Operator, bool, error) {
	op, ok := s.operators[username]
	return op, ok, nil
}

func (s *memStore) Certify(_ context.Context, username string, machineID uuid.UUID) error {
	for _, m := range s.machines {
		if m.ID == machineID {
			s.certify(username, m)
		}
	}

	return nil
}

func (s *memStore) Revoke(_ context.Context, username string, machineID uuid.UUID) error {
	if op, ok := s.operators[username]; ok {
		op.Certified = slices.DeleteFunc(op.Certified, func(id uuid.UUID) bool { return id == machineID })
	}

	return nil
}

func (s *memStore) Begin(context.Context) (machine.Tx, error) {
	return &memTx{store: s, closed: map[uuid.UUID]*machine.Usage{}}, nil
}

type memTx struct {
	store    *memStore
	locked   bool
	machine  *machine.Machine
	created  []*machine.Usage
	closed   map[uuid.UUID]*machine.Usage
	activity []*activity.Entry
}

func (t *memTx) LockMachine(_ context.Context, machineID string) (*machine.Machine, error) {
	t.store.mu.Lock()
	t.locked = true

	m, ok := t.store.machines[machineID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", machineID, machine.ErrNotFound)
	}

	cp := *m

	return &cp, nil
}

func (t *memTx) CreateMachine(_ context.Context, m *machine.Machine) error {
	m.ID = uuid.New()
	t.machine = m

	return nil
}

func (t *memTx) UpdateState(_ context.Context, m *machine.Machine) error {
	cp := *m
	t.machine = &cp

	return nil
}

func (t *memTx) FindOperator(ctx context.Context, username string) (*machine.Operator, bool, error) {
	return t.store.GetOperator(ctx, username)
}

func (t *memTx) OpenUsage(_ context.Context, machineID uuid.UUID) (*machine.Usage, bool, error) {
	var open *machine.Usage

	for _, u := range t.store.usages {
		if u.MachineID == machineID && u.Open() && (open == nil || u.StartTime.After(open.StartTime)) {
			open = u
		}
	}

	if open == nil {
		return nil, false, nil
	}

	cp := *open

	return &cp, true, nil
}

func (t *memTx) CreateUsage(_ context.Context, u *machine.Usage) error {
	u.ID = uuid.New()
	t.created = append(t.created, u)

	return nil
}

func (t *memTx) CloseUsage(_ context.Context, u *machine.Usage) error {
	cp := *u
	t.closed[u.ID] = &cp

	return nil
}

func (t *memTx) LogActivity(_ context.Context, e *activity.Entry) error {
	t.activity = append(t.activity, e)
	return nil
}

func (t *memTx) Commit() error {
	if t.machine != nil {
		t.store.machines[t.machine.MachineID] = t.machine
	}

	for i, u := range t.store.usages {
		if closed, ok := t.closed[u.ID]; ok {
			t.store.usages[i] = closed
		}
	}

	t.store.usages = append(t.store.usages, t.created...)
	t.store.activity = append(t.store.activity, t.activity...)
	t.release()

	return nil
}

func (t *memTx) Rollback() error {
	t.release()
	return nil
}

func (t *memTx) release() {
	if t.locked {
		t.locked = false
		t.store.mu.Unlock()
	}
}
