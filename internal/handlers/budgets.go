package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smsledger/internal/budget"
	"smsledger/internal/database"
	"smsledger/internal/logger"
	"smsledger/internal/models"
)

type budgetJSON struct {
	ID             string              `json:"id"`
	Category       string              `json:"category"`
	Limit          decimal.Decimal     `json:"limit"`
	Period         models.BudgetPeriod `json:"period"`
	AlertThreshold int                 `json:"alert_threshold"`
	Active         bool                `json:"active"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toBudgetJSON(b models.Budget) budgetJSON {
	return budgetJSON{
		ID:             b.ID,
		Category:       b.Category,
		Limit:          b.Limit,
		Period:         b.Period,
		AlertThreshold: b.AlertThreshold,
		Active:         b.Active,
		CreatedAt:      b.CreatedAt,
	}
}

func (h *Handler) BudgetsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	budgets, err := h.db.ListBudgets(ctx, false)
	if err != nil {
		logger.FromContext(ctx).Error("budgets_list_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}

	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetJSON(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}

// BudgetsSave creates a budget, or replaces it when id is given
func (h *Handler) BudgetsSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ID             string              `json:"id"`
		Category       string              `json:"category"`
		Limit          decimal.Decimal     `json:"limit"`
		Period         models.BudgetPeriod `json:"period"`
		AlertThreshold *int                `json:"alert_threshold"`
		Active         *bool               `json:"active"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	switch {
	case !slices.Contains(models.Categories, req.Category):
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	case !req.Limit.IsPositive():
		writeError(w, http.StatusBadRequest, "limit must be positive")
		return
	}
	if req.Period == "" {
		req.Period = models.PeriodMonthly
	}
	if !req.Period.Valid() {
		writeError(w, http.StatusBadRequest, "period must be daily, weekly, monthly or yearly")
		return
	}

	b := models.Budget{
		ID:             req.ID,
		Category:       req.Category,
		Limit:          req.Limit,
		Period:         req.Period,
		AlertThreshold: 80,
		Active:         true,
		CreatedAt:      h.now(),
	}
	if req.AlertThreshold != nil {
		if *req.AlertThreshold < 0 || *req.AlertThreshold > 100 {
			writeError(w, http.StatusBadRequest, "alert_threshold must be 0-100")
			return
		}
		b.AlertThreshold = *req.AlertThreshold
	}
	if req.Active != nil {
		b.Active = *req.Active
	}

	status := http.StatusOK
	if b.ID == "" {
		b.ID = uuid.NewString()
		status = http.StatusCreated
	} else if existing, err := h.db.GetBudget(ctx, b.ID); err == nil {
		b.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, database.ErrBudgetNotFound) {
		logger.FromContext(ctx).Error("budget_load_error", "budget_id", b.ID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load budget")
		return
	}

	if err := h.db.SaveBudget(ctx, b); err != nil {
		logger.FromContext(ctx).Error("budget_save_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to save budget")
		return
	}
	writeJSON(w, status, toBudgetJSON(b))
}

func (h *Handler) BudgetsDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.db.DeleteBudget(ctx, r.PathValue("id"))
	if errors.Is(err, database.ErrBudgetNotFound) {
		writeError(w, http.StatusNotFound, "budget not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).Error("budget_delete_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BudgetsSummary reports spending against every active budget for its current period
func (h *Handler) BudgetsSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.FromContext(ctx)
	now := h.now().In(h.loc)

	budgets, err := h.db.ListBudgets(ctx, true)
	if err != nil {
		l.Error("budgets_list_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}

	summaries, err := summarize(ctx, h.db, budgets, now)
	if err != nil {
		l.Error("budget_summary_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	out := make([]map[string]any, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, map[string]any{
			"budget":          toBudgetJSON(s.Budget),
			"period_start":    s.PeriodStart,
			"period_end":      s.PeriodEnd,
			"spent":           s.Spent,
			"remaining":       s.Remaining,
			"progress":        s.Progress,
			"over_budget":     s.OverBudget,
			"alert_triggered": s.AlertTriggered,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": out})
}

// summarize loads only the transactions inside the widest active period
func summarize(ctx context.Context, db *database.DB, budgets []models.Budget, now time.Time) ([]models.BudgetSummary, error) {
	if len(budgets) == 0 {
		return nil, nil
	}
	earliest := now
	for _, b := range budgets {
		if start, _ := budget.PeriodBounds(b.Period, now); start.Before(earliest) {
			earliest = start
		}
	}
	txns, err := db.ListTransactions(ctx, models.TransactionFilter{Since: earliest})
	if err != nil {
		return nil, err
	}
	return budget.SummarizeAll(budgets, txns, now), nil
}
