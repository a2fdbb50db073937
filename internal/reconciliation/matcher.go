// Package reconciliation finds ledger records that describe the same payment
// (a bank SMS and a payment-app notification) and merges them.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"smsledger/internal/ledger"
	"smsledger/internal/logger"
	"smsledger/internal/models"
)

// ErrSweepInProgress is returned when Sweep is called while another sweep runs
var ErrSweepInProgress = errors.New("sweep already in progress")

const (
	// ReferenceDeleteWindow bounds the time gap for deleting the app-side
	// record of a reference-number match.
	ReferenceDeleteWindow = 10 * time.Minute

	// SimilarityWindow bounds the time gap for amount/time matches
	SimilarityWindow = 5 * time.Minute
)

var (
	bankKeywords = []string{"account", "a/c", "credited", "debited", "balance"}
	upiKeywords  = []string{"upi", "gpay", "phonepe", "paytm", "paid to", "received from"}
)

// SweepResult summarizes one sweep
type SweepResult struct {
	Scanned          int
	ReferenceMerges  int
	SimilarityMerges int
	Deleted          int
	Failures         int
}

// Matcher runs the two-pass duplicate sweep over a ledger
type Matcher struct {
	ledger ledger.Ledger
	mu     sync.Mutex
}

// NewMatcher creates a matcher for l
func NewMatcher(l ledger.Ledger) *Matcher {
	return &Matcher{ledger: l}
}

// Sweep reads the whole ledger once and runs reference-number matching, then
// amount/time matching on the result. Per-pair failures are counted and logged;
// only a failure to read the ledger returns an error.
func (m *Matcher) Sweep(ctx context.Context) (SweepResult, error) {
	if !m.mu.TryLock() {
		return SweepResult{}, ErrSweepInProgress
	}
	defer m.mu.Unlock()

	l := logger.FromContext(ctx)
	start := time.Now()

	txns, err := m.ledger.All(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("read ledger snapshot: %w", err)
	}

	s := newSnapshot(txns)
	res := SweepResult{Scanned: len(txns)}

	m.referencePass(ctx, s, &res)
	m.similarityPass(ctx, s, &res)

	l.Info("sweep_completed",
		"scanned", res.Scanned,
		"reference_merges", res.ReferenceMerges,
		"similarity_merges", res.SimilarityMerges,
		"deleted", res.Deleted,
		"failures", res.Failures,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// referencePass merges app-side records into bank-side records that share a
// reference number.
func (m *Matcher) referencePass(ctx context.Context, s *snapshot, res *SweepResult) {
	l := logger.FromContext(ctx)

	for _, group := range s.referenceGroups() {
		bank, upi, ok := pickReferencePair(group)
		if !ok {
			continue
		}

		// decide on the snapshot; the store re-reads both records when merging
		preview := *bank
		changed := ledger.Absorb(&preview, *upi) || preview.NeedsReview

		drop := bank.Amount.Equal(upi.Amount) &&
			bank.ReferenceNumber == upi.ReferenceNumber &&
			absDuration(bank.Timestamp.Sub(upi.Timestamp)) <= ReferenceDeleteWindow

		if !changed && !drop {
			continue
		}

		merged, err := m.ledger.Merge(ctx, bank.ID, upi.ID, drop)
		if err != nil {
			res.Failures++
			l.Warn("sweep_reference_merge_failed",
				"keep_id", bank.ID,
				"drop_id", upi.ID,
				"error", err.Error(),
			)
			continue
		}

		s.replace(merged)
		res.ReferenceMerges++
		if drop {
			s.remove(upi.ID)
			res.Deleted++
		}
		l.Debug("sweep_reference_merged", "keep_id", bank.ID, "drop_id", upi.ID, "deleted", drop)
	}
}

// similarityPass merges pairs with equal amounts close in time where one side
// is a bank message and the other an app message. The secondary record is
// always deleted.
func (m *Matcher) similarityPass(ctx context.Context, s *snapshot, res *SweepResult) {
	l := logger.FromContext(ctx)

	for i := 0; i < len(s.order); i++ {
		for j := i + 1; j < len(s.order); j++ {
			a, aok := s.get(s.order[i])
			if !aok {
				break
			}
			b, bok := s.get(s.order[j])
			if !bok {
				continue
			}
			if !similar(a, b) {
				continue
			}

			primary, secondary := a, b
			if informationScore(b) > informationScore(a) {
				primary, secondary = b, a
			}

			merged, err := m.ledger.Merge(ctx, primary.ID, secondary.ID, true)
			if err != nil {
				res.Failures++
				l.Warn("sweep_similarity_merge_failed",
					"keep_id", primary.ID,
					"drop_id", secondary.ID,
					"error", err.Error(),
				)
				continue
			}

			s.replace(merged)
			s.remove(secondary.ID)
			res.SimilarityMerges++
			res.Deleted++
			l.Debug("sweep_similarity_merged", "keep_id", primary.ID, "drop_id", secondary.ID)
		}
	}
}

// pickReferencePair finds a bank-style record and a different app-style record
// with a merchant name, scanning in snapshot order.
func pickReferencePair(group []*models.Transaction) (bank, upi *models.Transaction, ok bool) {
	for _, b := range group {
		if !isBankStyle(b) {
			continue
		}
		for _, u := range group {
			if u.ID == b.ID || !isUPIStyle(u) || u.MerchantName == "" {
				continue
			}
			return b, u, true
		}
	}
	return nil, nil, false
}

func similar(a, b *models.Transaction) bool {
	if !a.Amount.Equal(b.Amount) {
		return false
	}
	if absDuration(a.Timestamp.Sub(b.Timestamp)) > SimilarityWindow {
		return false
	}
	aBank, bBank := isBankStyle(a), isBankStyle(b)
	if aBank == bBank {
		return false
	}
	if aBank {
		return isUPIStyle(b)
	}
	return isUPIStyle(a)
}

func informationScore(t *models.Transaction) int {
	score := 0
	if t.MerchantName != "" {
		score += 3
	}
	if t.VPA != "" {
		score += 2
	}
	if t.Category != "" {
		score++
	}
	return score
}

func isBankStyle(t *models.Transaction) bool {
	return containsAny(strings.ToLower(t.Body), bankKeywords)
}

func isUPIStyle(t *models.Transaction) bool {
	return containsAny(strings.ToLower(t.Body), upiKeywords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
