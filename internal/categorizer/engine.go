package categorizer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
)

var (
	smallAmountMin    = decimal.NewFromInt(1)
	smallAmountMax    = decimal.NewFromInt(100)
	moderateAmountMin = decimal.NewFromInt(100)
	moderateAmountMax = decimal.NewFromInt(500)
	largeAmount       = decimal.NewFromInt(10000)
)

const (
	lunchStartHour = 12
	lunchEndHour   = 14 // inclusive, up to 14:59
)

// bodyKeywords are checked in order against the lowercased message body
var bodyKeywords = []struct {
	category string
	words    []string
}{
	{models.CatFuel, []string{"fuel", "petrol", "diesel"}},
	{models.CatUtilities, []string{"electricity", "power", "water bill"}},
	{models.CatHealth, []string{"hospital", "clinic", "pharmacy"}},
	{models.CatEducation, []string{"school", "college", "course"}},
}

// Engine runs the categorization cascade. It keeps no mutable state of its
// own; concurrent use is safe as long as the registry is.
type Engine struct {
	registry MerchantLookup
	loc      *time.Location
}

// NewEngine creates an engine. loc is the zone used for time-of-day rules;
// nil means time.Local.
func NewEngine(registry MerchantLookup, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{registry: registry, loc: loc}
}

// Categorize returns the first category produced by the cascade:
// merchant, VPA handle, amount heuristics, then body keywords.
func (e *Engine) Categorize(txn models.Transaction) (string, bool) {
	if cat, ok := e.byMerchant(txn); ok {
		return cat, true
	}
	if cat, ok := e.byVPA(txn); ok {
		return cat, true
	}
	if cat, ok := e.byAmount(txn); ok {
		return cat, true
	}
	return byBodyKeywords(txn.Body)
}

// CategorizeAll sets Category and NeedsReview on each transaction.
// Transactions that already carry a category are left alone.
func (e *Engine) CategorizeAll(txns []*models.Transaction) {
	for _, txn := range txns {
		if txn.Category != "" {
			continue
		}
		cat, ok := e.Categorize(*txn)
		txn.Category = cat
		txn.NeedsReview = !ok
	}
}

func (e *Engine) byMerchant(txn models.Transaction) (string, bool) {
	if e.registry == nil {
		return "", false
	}
	for _, name := range []string{txn.MerchantName, txn.MerchantRaw} {
		if name == "" {
			continue
		}
		if cat, ok := e.registry.Lookup(name); ok {
			return cat, true
		}
	}
	return "", false
}

func (e *Engine) byVPA(txn models.Transaction) (string, bool) {
	if e.registry == nil || txn.VPA == "" {
		return "", false
	}
	return e.registry.Lookup(txn.VPALocalPart())
}

func (e *Engine) byAmount(txn models.Transaction) (string, bool) {
	amt := txn.Amount
	merchant := strings.ToUpper(txn.MerchantName + " " + txn.MerchantRaw)

	if amt.GreaterThanOrEqual(smallAmountMin) && amt.LessThanOrEqual(smallAmountMax) && strings.Contains(merchant, "CAF") {
		return models.CatFood, true
	}

	if amt.GreaterThanOrEqual(moderateAmountMin) && amt.LessThanOrEqual(moderateAmountMax) && !txn.Timestamp.IsZero() {
		hour := txn.Timestamp.In(e.loc).Hour()
		if hour >= lunchStartHour && hour <= lunchEndHour {
			return models.CatFood, true
		}
	}

	if amt.GreaterThan(largeAmount) {
		return models.CatTransfer, true
	}
	return "", false
}

func byBodyKeywords(body string) (string, bool) {
	lower := strings.ToLower(body)
	for _, group := range bodyKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.category, true
			}
		}
	}
	return "", false
}
