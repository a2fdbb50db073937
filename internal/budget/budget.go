// Package budget computes spending against category budgets.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
)

// PeriodBounds returns the [start, end) window of period containing now,
// in now's location. Weeks start on Monday.
func PeriodBounds(period models.BudgetPeriod, now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch period {
	case models.PeriodDaily:
		return midnight, midnight.AddDate(0, 0, 1)
	case models.PeriodWeekly:
		offset := (int(midnight.Weekday()) + 6) % 7 // days since Monday
		start := midnight.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case models.PeriodYearly:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	default:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	}
}

// Summarize sums debits in the budget's category within the current period
func Summarize(b models.Budget, txns []models.Transaction, now time.Time) models.BudgetSummary {
	start, end := PeriodBounds(b.Period, now)

	spent := decimal.Zero
	for _, t := range txns {
		if t.Type != models.TypeDebit || t.Category != b.Category {
			continue
		}
		if t.Timestamp.Before(start) || !t.Timestamp.Before(end) {
			continue
		}
		spent = spent.Add(t.Amount)
	}

	s := models.BudgetSummary{
		Budget:      b,
		PeriodStart: start,
		PeriodEnd:   end,
		Spent:       spent,
		Remaining:   b.Limit.Sub(spent),
	}
	if b.Limit.IsPositive() {
		s.Progress = spent.Div(b.Limit).InexactFloat64()
	}
	s.OverBudget = spent.GreaterThan(b.Limit)
	s.AlertTriggered = b.AlertThreshold > 0 && s.Progress*100 >= float64(b.AlertThreshold)
	return s
}

// SummarizeAll summarizes every active budget
func SummarizeAll(budgets []models.Budget, txns []models.Transaction, now time.Time) []models.BudgetSummary {
	out := make([]models.BudgetSummary, 0, len(budgets))
	for _, b := range budgets {
		if !b.Active {
			continue
		}
		out = append(out, Summarize(b, txns, now))
	}
	return out
}
