package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"smsledger/internal/models"
)

// Memory is a mutex-guarded Ledger kept in process memory
type Memory struct {
	mu   sync.RWMutex
	txns map[string]models.Transaction
	now  func() time.Time
}

// NewMemory creates an empty in-memory ledger
func NewMemory() *Memory {
	return &Memory{txns: make(map[string]models.Transaction), now: time.Now}
}

func (m *Memory) Insert(ctx context.Context, txn models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.txns[txn.ID]; exists {
		return fmt.Errorf("insert transaction %s: duplicate id", txn.ID)
	}
	now := m.now()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	m.txns[txn.ID] = txn
	return nil
}

func (m *Memory) Update(ctx context.Context, txn models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(txn)
}

func (m *Memory) updateLocked(txn models.Transaction) error {
	existing, ok := m.txns[txn.ID]
	if !ok {
		return ErrNotFound
	}
	txn.CreatedAt = existing.CreatedAt
	txn.UpdatedAt = m.now()
	m.txns[txn.ID] = txn
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[id]; !ok {
		return ErrNotFound
	}
	delete(m.txns, id)
	return nil
}

func (m *Memory) All(ctx context.Context) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Transaction, 0, len(m.txns))
	for _, t := range m.txns {
		out = append(out, t)
	}
	SortNewestFirst(out)
	return out, nil
}

func (m *Memory) FindByReferenceNumber(ctx context.Context, ref string) (*models.Transaction, error) {
	if ref == "" {
		return nil, nil
	}
	all, _ := m.All(ctx)
	for i := range all {
		if all[i].ReferenceNumber == ref {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (m *Memory) ExistsByID(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.txns[id]
	return ok, nil
}

func (m *Memory) SetCategory(ctx context.Context, id, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	if !ok {
		return ErrNotFound
	}
	txn.Category = category
	txn.NeedsReview = false
	return m.updateLocked(txn)
}

func (m *Memory) Merge(ctx context.Context, keepID, sourceID string, drop bool) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep, ok := m.txns[keepID]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	source, ok := m.txns[sourceID]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}

	Absorb(&keep, source)
	keep.NeedsReview = false
	keep.UpdatedAt = m.now()
	m.txns[keepID] = keep
	if drop {
		delete(m.txns, sourceID)
	}
	return keep, nil
}

// Len returns the number of stored transactions
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txns)
}

// SortNewestFirst orders by timestamp descending, then ID for stability
func SortNewestFirst(txns []models.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].Timestamp.Equal(txns[j].Timestamp) {
			return txns[i].Timestamp.After(txns[j].Timestamp)
		}
		return txns[i].ID < txns[j].ID
	})
}
