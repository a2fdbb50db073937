package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smsledger/internal/models"
)

// ErrBudgetNotFound is returned when a budget ID does not exist
var ErrBudgetNotFound = errors.New("budget not found")

const budgetColumns = `id, category, limit_amount, period, alert_threshold, active, created_at`

func scanBudget(row rowScanner) (models.Budget, error) {
	var b models.Budget
	var createdAt int64
	err := row.Scan(&b.ID, &b.Category, &b.Limit, &b.Period, &b.AlertThreshold, &b.Active, &createdAt)
	b.CreatedAt = fromMillis(createdAt)
	return b, err
}

// ListBudgets returns budgets ordered by category
func (db *DB) ListBudgets(ctx context.Context, activeOnly bool) ([]models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY category, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// GetBudget returns a budget by ID
func (db *DB) GetBudget(ctx context.Context, id string) (models.Budget, error) {
	b, err := scanBudget(db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBudgetNotFound
	}
	if err != nil {
		return b, fmt.Errorf("query budget: %w", err)
	}
	return b, nil
}

// SaveBudget inserts or replaces a budget
func (db *DB) SaveBudget(ctx context.Context, b models.Budget) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			category = excluded.category,
			limit_amount = excluded.limit_amount,
			period = excluded.period,
			alert_threshold = excluded.alert_threshold,
			active = excluded.active
	`, b.ID, b.Category, b.Limit, string(b.Period), b.AlertThreshold, b.Active, toMillis(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

// DeleteBudget removes a budget
func (db *DB) DeleteBudget(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBudgetNotFound
	}
	return nil
}
