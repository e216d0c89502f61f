package ledger_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
)

// memStore is an in-memory Repository whose transactions only become visible on Commit.
type memStore struct {
	mu           sync.Mutex
	materials    map[string]*ledger.Material
	transactions []*ledger.Transaction
	jobMaterials []*ledger.JobMaterial
	activity     []*activity.Entry

	failOn string
}

func newMemStore(materials ...*ledger.Material) *memStore {
	s := &memStore{materials: map[string]*ledger.Material{}}
	for _, m := range materials {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}

		s.materials[m.MaterialID] = m
	}

	return s
}

func (s *memStore) GetMaterial(_ context.Context, materialID string) (*ledger.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.materials[materialID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", materialID, ledger.ErrMaterialNotFound)
	}

	cp := *m

	return &cp, nil
}

func (s *memStore) ListTransactions(_ context.Context, materialID uuid.UUID, _ int) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction

	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].MaterialID == materialID {
			out = append(out, s.transactions[i])
		}
	}

	return out, nil
}

func (s *memStore) ListJobMaterials(_ context.Context, jobID uuid.UUID) ([]*ledger.JobMaterial, error) {
	var out []*ledger.JobMaterial

	for _, jm := range s.jobMaterials {
		if jm.JobID == jobID {
			out = append(out, jm)
		}
	}

	return out, nil
}

func (s *memStore) ListLowStock(context.Context) ([]*ledger.Material, error) {
	var out []*ledger.Material

	for _, m := range s.materials {
		if m.MinimumStockAlert {
			out = append(out, m)
		}
	}

	return out, nil
}

func (s *memStore) Begin(context.Context) (ledger.Tx, error) {
	return &memTx{store: s}, nil
}

func (s *memStore) transactionsFor(materialID string) []*ledger.Transaction {
	id := s.materials[materialID].ID

	var out []*ledger.Transaction

	for _, t := range s.transactions {
		if t.MaterialID == id {
			out = append(out, t)
		}
	}

	return out
}

type memTx struct {
	store        *memStore
	locked       bool
	material     *ledger.Material
	created      *ledger.Material
	transactions []*ledger.Transaction
	jobMaterials []*ledger.JobMaterial
	activity     []*activity.Entry
}

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return fmt.Errorf("%s failed", op)
	}

	return nil
}

func (t *memTx) LockMaterial(_ context.Context, materialID string) (*ledger.Material, error) {
	t.store.mu.Lock()
	t.locked = true

	m, ok := t.store.materials[materialID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", materialID, ledger.ErrMaterialNotFound)
	}

	cp := *m

	return &cp, nil
}

func (t *memTx) CreateMaterial(_ context.Context, m *ledger.Material) error {
	m.ID = uuid.New()
	t.created = m

	return t.fail("CreateMaterial")
}

func (t *memTx) UpdateMaterial(_ context.Context, m *ledger.Material) error {
	cp := *m
	t.material = &cp

	return t.fail("UpdateMaterial")
}

func (t *memTx) CreateTransaction(_ context.Context, tr *ledger.Transaction) error {
	tr.ID = uuid.New()
	t.transactions = append(t.transactions, tr)

	return t.fail("CreateTransaction")
}

func (t *memTx) CreateJobMaterial(_ context.Context, jm *ledger.JobMaterial) error {
	jm.ID = uuid.New()
	t.jobMaterials = append(t.jobMaterials, jm)

	return t.fail("CreateJobMaterial")
}

func (t *memTx) LogActivity(_ context.Context, e *activity.Entry) error {
	t.activity = append(t.activity, e)
	return t.fail("LogActivity")
}

func (t *memTx) Commit() error {
	if err := t.fail("Commit"); err != nil {
		return err
	}

	if t.created != nil {
		t.store.materials[t.created.MaterialID] = t.created
	}

	if t.material != nil {
		t.store.materials[t.material.MaterialID] = t.material
	}

	t.store.transactions = append(t.store.transactions, t.transactions...)
	t.store.jobMaterials = append(t.store.jobMaterials, t.jobMaterials...)
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
