package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsledger/internal/categorizer"
	"smsledger/internal/models"
)

var base = time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func signal(amount string, ts time.Time, merchant string) models.NotificationSignal {
	return models.NotificationSignal{
		PackageName:  "com.phonepe.app",
		AppName:      "PHONEPE",
		Amount:       decimal.RequireFromString(amount),
		Timestamp:    ts,
		MerchantName: merchant,
	}
}

func TestCache_FindByAmount(t *testing.T) {
	clock := &fakeClock{now: base}
	c := NewCache(WithClock(clock.Now))
	c.Add(signal("500.00", base, "Zomato"))

	got, ok := c.FindByAmount(decimal.RequireFromString("500.009"), base.Add(2*time.Minute), DefaultWindow)
	require.True(t, ok)
	assert.Equal(t, "Zomato", got.MerchantName)

	_, ok = c.FindByAmount(decimal.RequireFromString("500.02"), base, DefaultWindow)
	assert.False(t, ok, "outside epsilon")

	_, ok = c.FindByAmount(decimal.RequireFromString("500"), base.Add(6*time.Minute), DefaultWindow)
	assert.False(t, ok, "outside window")

	_, ok = c.FindByAmount(decimal.RequireFromString("500"), base.Add(-4*time.Minute), DefaultWindow)
	assert.True(t, ok, "signal after transaction")
}

func TestCache_NewestFirst(t *testing.T) {
	clock := &fakeClock{now: base}
	c := NewCache(WithClock(clock.Now))
	c.Add(signal("250", base, "Older"))
	c.Add(signal("250", base.Add(time.Minute), "Newer"))

	got, ok := c.FindByAmount(decimal.NewFromInt(250), base, DefaultWindow)
	require.True(t, ok)
	assert.Equal(t, "Newer", got.MerchantName)
}

func TestCache_EvictsByAge(t *testing.T) {
	clock := &fakeClock{now: base}
	c := NewCache(WithClock(clock.Now), WithRetention(10*time.Minute))
	c.Add(signal("100", base, "A"))
	clock.Advance(5 * time.Minute)
	c.Add(signal("200", clock.Now(), "B"))

	clock.Advance(6 * time.Minute)
	c.EvictExpiredAndOversize()

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "B", snap[0].MerchantName)
}

func TestCache_EvictsOldestBeyondMaxSize(t *testing.T) {
	clock := &fakeClock{now: base}
	c := NewCache(WithClock(clock.Now), WithMaxSize(3))
	for i, m := range []string{"A", "B", "C", "D", "E"} {
		c.Add(signal("100", base.Add(time.Duration(i)*time.Second), m))
	}

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "E", snap[0].MerchantName)
	assert.Equal(t, "C", snap[2].MerchantName)
}

func TestCache_ConcurrentUse(t *testing.T) {
	c := NewCache(WithMaxSize(10))
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Add(signal("100", now, "M"))
				c.FindByAmount(decimal.NewFromInt(100), now, DefaultWindow)
				c.EvictExpiredAndOversize()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, c.Len())
}

func TestEnricher_EnrichWithContext(t *testing.T) {
	clock := &fakeClock{now: base}
	c := NewCache(WithClock(clock.Now))
	c.Add(signal("500", base, "Zomato"))
	e := NewEnricher(c, categorizer.NewRegistry(nil), DefaultWindow)

	txn := models.Transaction{Amount: decimal.NewFromInt(500), Timestamp: base}
	m := e.EnrichWithContext(txn)
	require.NotNil(t, m)
	assert.Equal(t, "Zomato", m.MerchantName)
	assert.Equal(t, models.CatFood, m.Category)
	assert.Equal(t, "PHONEPE", m.AppName)
	assert.InDelta(t, 1.0, m.Confidence, 1e-9)

	txn.Timestamp = base.Add(DefaultWindow)
	m = e.EnrichWithContext(txn)
	require.NotNil(t, m)
	assert.InDelta(t, 0.5, m.Confidence, 1e-9)

	txn.Amount = decimal.NewFromInt(501)
	assert.Nil(t, e.EnrichWithContext(txn))
}

func TestEnricher_NoMerchantHalvesConfidence(t *testing.T) {
	clock := &fakeClock{now: base}
	c := NewCache(WithClock(clock.Now))
	c.Add(signal("99", base, ""))
	e := NewEnricher(c, nil, DefaultWindow)

	m := e.EnrichWithContext(models.Transaction{Amount: decimal.NewFromInt(99), Timestamp: base})
	require.NotNil(t, m)
	assert.Empty(t, m.MerchantName)
	assert.Empty(t, m.Category)
	assert.InDelta(t, 0.5, m.Confidence, 1e-9)
}

func TestApply(t *testing.T) {
	m := &models.ContextMatch{MerchantName: "Zomato", Category: models.CatFood, Confidence: 0.9}

	txn := models.Transaction{NeedsReview: true}
	assert.True(t, Apply(&txn, m))
	assert.Equal(t, "Zomato", txn.MerchantName)
	assert.Equal(t, models.CatFood, txn.Category)
	assert.False(t, txn.NeedsReview)

	confirmed := models.Transaction{MerchantName: "Zomato", Category: models.CatShopping}
	assert.False(t, Apply(&confirmed, m))
	assert.Equal(t, models.CatShopping, confirmed.Category)

	weak := models.Transaction{NeedsReview: true}
	Apply(&weak, &models.ContextMatch{Category: models.CatFood, Confidence: 0.3})
	assert.Equal(t, models.CatFood, weak.Category)
	assert.True(t, weak.NeedsReview)

	assert.False(t, Apply(&txn, nil))
}
