// Package notification keeps a short-lived cache of payment-app notifications
// and uses it to suggest merchant and category for SMS transactions.
package notification

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
)

const (
	DefaultRetention = 10 * time.Minute
	DefaultMaxSize   = 50
)

// AmountEpsilon is the tolerance for amount comparison against display-rounded values
var AmountEpsilon = decimal.RequireFromString("0.01")

// Cache holds recent notification signals, newest first. One mutex guards
// insertion, eviction and lookup since they all walk the same slice.
type Cache struct {
	mu        sync.Mutex
	entries   []models.NotificationSignal
	retention time.Duration
	maxSize   int
	now       func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithRetention sets how long entries are kept
func WithRetention(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithMaxSize sets the maximum number of entries
func WithMaxSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an empty cache
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		retention: DefaultRetention,
		maxSize:   DefaultMaxSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add inserts a signal at the front and evicts expired and overflow entries
func (c *Cache) Add(signal models.NotificationSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, models.NotificationSignal{})
	copy(c.entries[1:], c.entries)
	c.entries[0] = signal
	c.evictLocked()
}

// FindByAmount returns the most recent signal whose amount is within
// AmountEpsilon of amount and whose timestamp is within window of at.
func (c *Cache) FindByAmount(amount decimal.Decimal, at time.Time, window time.Duration) (models.NotificationSignal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked()
	for _, s := range c.entries {
		if s.Amount.Sub(amount).Abs().GreaterThan(AmountEpsilon) {
			continue
		}
		if absDuration(s.Timestamp.Sub(at)) > window {
			continue
		}
		return s, true
	}
	return models.NotificationSignal{}, false
}

// EvictExpiredAndOversize drops entries older than the retention window and
// truncates to the maximum size, oldest first.
func (c *Cache) EvictExpiredAndOversize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
}

// Len returns the number of cached signals
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of the cached signals, newest first
func (c *Cache) Snapshot() []models.NotificationSignal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.NotificationSignal(nil), c.entries...)
}

func (c *Cache) evictLocked() {
	cutoff := c.now().Add(-c.retention)
	kept := c.entries[:0]
	for _, s := range c.entries {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) > c.maxSize {
		kept = kept[:c.maxSize]
	}
	// clear the tail so dropped signals can be collected
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = models.NotificationSignal{}
	}
	c.entries = kept
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
