package categorizer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"smsledger/internal/models"
)

// MappingStore persists learned merchant mappings
type MappingStore interface {
	ListMerchantMappings(ctx context.Context) ([]models.MerchantMapping, error)
	UpsertMerchantMapping(ctx context.Context, m models.MerchantMapping) error
}

// Learned holds user-taught mappings. It is safe for concurrent use and
// writes through to its store when one is set.
type Learned struct {
	mu      sync.RWMutex
	entries map[string]models.MerchantMapping
	cats    map[string]string
	keys    []string
	store   MappingStore
	now     func() time.Time
}

// NewLearned creates an empty learned mapping table backed by store (may be nil)
func NewLearned(store MappingStore) *Learned {
	return &Learned{
		entries: make(map[string]models.MerchantMapping),
		cats:    make(map[string]string),
		store:   store,
		now:     time.Now,
	}
}

// Load replaces the in-memory table with the store's contents
func (l *Learned) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	mappings, err := l.store.ListMerchantMappings(ctx)
	if err != nil {
		return fmt.Errorf("load merchant mappings: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]models.MerchantMapping, len(mappings))
	l.cats = make(map[string]string, len(mappings))
	for _, m := range mappings {
		key := Normalize(m.Keyword)
		l.entries[key] = m
		l.cats[key] = m.Category
	}
	l.rebuildKeys()
	return nil
}

// Learn records keyword -> category, bumping the usage count of an existing mapping
func (l *Learned) Learn(ctx context.Context, keyword, category string, confirmed bool) (models.MerchantMapping, error) {
	key := Normalize(keyword)
	if key == "" || category == "" {
		return models.MerchantMapping{}, fmt.Errorf("learn mapping: keyword and category are required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m, exists := l.entries[key]
	m.Keyword = key
	m.Category = category
	m.UsageCount++
	m.LastUsed = l.now()
	m.ConfirmedByUser = m.ConfirmedByUser || confirmed

	if l.store != nil {
		if err := l.store.UpsertMerchantMapping(ctx, m); err != nil {
			return models.MerchantMapping{}, fmt.Errorf("save merchant mapping: %w", err)
		}
	}

	l.entries[key] = m
	l.cats[key] = category
	if !exists {
		l.rebuildKeys()
	}
	return m, nil
}

// Lookup uses the same exact-then-substring rules as Registry
func (l *Learned) Lookup(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return "", false
	}
	return lookup(l.cats, l.keys, name)
}

// Mappings returns a copy of all learned mappings, most used first
func (l *Learned) Mappings() []models.MerchantMapping {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.MerchantMapping, 0, len(l.entries))
	for _, k := range l.keys {
		out = append(out, l.entries[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UsageCount > out[j].UsageCount
	})
	return out
}

func (l *Learned) rebuildKeys() {
	l.keys = l.keys[:0]
	for k := range l.entries {
		l.keys = append(l.keys, k)
	}
	sortKeywords(l.keys)
}

// Layered consults learned mappings before the seed registry
type Layered struct {
	Learned *Learned
	Seed    MerchantLookup
}

// Lookup checks the learned table, then the seed
func (l Layered) Lookup(name string) (string, bool) {
	if l.Learned != nil {
		if cat, ok := l.Learned.Lookup(name); ok {
			return cat, true
		}
	}
	if l.Seed != nil {
		return l.Seed.Lookup(name)
	}
	return "", false
}
