package notification

import (
	"time"

	"smsledger/internal/categorizer"
	"smsledger/internal/models"
)

const DefaultWindow = 5 * time.Minute

// MinConfidence is the confidence at which a context category clears needs-review
const MinConfidence = 0.5

// Enricher matches transactions against cached notifications
type Enricher struct {
	cache     *Cache
	merchants categorizer.MerchantLookup
	window    time.Duration
}

// NewEnricher creates an enricher. merchants categorizes signals that carry a
// merchant but no suggested category; it may be nil.
func NewEnricher(cache *Cache, merchants categorizer.MerchantLookup, window time.Duration) *Enricher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Enricher{cache: cache, merchants: merchants, window: window}
}

// EnrichWithContext returns a suggestion from a notification with the same
// amount near the transaction's timestamp, or nil.
func (e *Enricher) EnrichWithContext(txn models.Transaction) *models.ContextMatch {
	signal, ok := e.cache.FindByAmount(txn.Amount, txn.Timestamp, e.window)
	if !ok {
		return nil
	}

	category := signal.SuggestedCategory
	if category == "" && signal.MerchantName != "" && e.merchants != nil {
		category, _ = e.merchants.Lookup(signal.MerchantName)
	}

	return &models.ContextMatch{
		MerchantName: signal.MerchantName,
		Category:     category,
		AppName:      signal.AppName,
		Confidence:   e.confidence(signal, txn.Timestamp),
	}
}

// confidence falls linearly from 1 to 0.5 across the window and is halved
// when the signal has no merchant.
func (e *Enricher) confidence(signal models.NotificationSignal, at time.Time) float64 {
	dt := absDuration(signal.Timestamp.Sub(at))
	c := 1 - 0.5*float64(dt)/float64(e.window)
	if signal.MerchantName == "" {
		c /= 2
	}
	return c
}

// Apply fills empty merchant and category fields from m. Fields that already
// hold a value, including user-confirmed categories, are never overwritten.
// It reports whether txn changed.
func Apply(txn *models.Transaction, m *models.ContextMatch) bool {
	if m == nil {
		return false
	}
	changed := false
	if txn.MerchantName == "" && m.MerchantName != "" {
		txn.MerchantName = m.MerchantName
		changed = true
	}
	if txn.Category == "" && m.Category != "" {
		txn.Category = m.Category
		if m.Confidence >= MinConfidence {
			txn.NeedsReview = false
		}
		changed = true
	}
	return changed
}
