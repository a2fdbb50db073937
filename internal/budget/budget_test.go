package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsledger/internal/models"
)

// Wednesday
var now = time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC)

func spend(amount string, cat string, ts time.Time) models.Transaction {
	return models.Transaction{
		Amount:    decimal.RequireFromString(amount),
		Type:      models.TypeDebit,
		Category:  cat,
		Timestamp: ts,
	}
}

func TestPeriodBounds(t *testing.T) {
	tests := []struct {
		period     models.BudgetPeriod
		start, end time.Time
	}{
		{models.PeriodDaily, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)},
		{models.PeriodWeekly, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{models.PeriodMonthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{models.PeriodYearly, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end := PeriodBounds(tt.period, now)
			assert.True(t, start.Equal(tt.start), "start %s", start)
			assert.True(t, end.Equal(tt.end), "end %s", end)
		})
	}
}

func TestPeriodBounds_SundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	start, _ := PeriodBounds(models.PeriodWeekly, sunday)
	assert.True(t, start.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))
}

func TestSummarize(t *testing.T) {
	b := models.Budget{
		ID:             "food",
		Category:       models.CatFood,
		Limit:          decimal.NewFromInt(1000),
		Period:         models.PeriodWeekly,
		AlertThreshold: 80,
		Active:         true,
	}
	credit := spend("5000", models.CatFood, now)
	credit.Type = models.TypeCredit

	txns := []models.Transaction{
		spend("500", models.CatFood, now.Add(-time.Hour)),
		spend("350.50", models.CatFood, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)),
		spend("900", models.CatFood, time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC)), // last week
		spend("200", models.CatFuel, now),
		credit,
	}

	s := Summarize(b, txns, now)
	assert.True(t, s.Spent.Equal(decimal.RequireFromString("850.50")), "spent %s", s.Spent)
	assert.True(t, s.Remaining.Equal(decimal.RequireFromString("149.50")))
	assert.InDelta(t, 0.8505, s.Progress, 1e-9)
	assert.False(t, s.OverBudget)
	assert.True(t, s.AlertTriggered)

	txns = append(txns, spend("200", models.CatFood, now))
	s = Summarize(b, txns, now)
	assert.True(t, s.OverBudget)
	assert.True(t, s.Remaining.IsNegative())
}

func TestSummarizeAll_SkipsInactive(t *testing.T) {
	budgets := []models.Budget{
		{ID: "a", Category: models.CatFood, Limit: decimal.NewFromInt(100), Period: models.PeriodDaily, Active: true},
		{ID: "b", Category: models.CatFuel, Limit: decimal.NewFromInt(100), Period: models.PeriodDaily},
	}
	out := SummarizeAll(budgets, nil, now)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Budget.ID)
	assert.True(t, out[0].Spent.IsZero())
	assert.False(t, out[0].AlertTriggered)
}
