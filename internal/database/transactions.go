package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/ledger"
	"smsledger/internal/models"
)

const transactionColumns = `id, amount, txn_type, merchant_raw, merchant_name, category, ts, body, sender,
	reference_number, vpa, available_balance, needs_review, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	var ts, createdAt, updatedAt int64
	var balance decimal.NullDecimal
	err := row.Scan(&t.ID, &t.Amount, &t.Type, &t.MerchantRaw, &t.MerchantName, &t.Category, &ts,
		&t.Body, &t.Sender, &t.ReferenceNumber, &t.VPA, &balance, &t.NeedsReview, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}
	t.Timestamp = fromMillis(ts)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	if balance.Valid {
		b := balance.Decimal
		t.AvailableBalance = &b
	}
	return t, nil
}

func nullBalance(b *decimal.Decimal) decimal.NullDecimal {
	if b == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *b, Valid: true}
}

// Insert adds a new transaction
func (db *DB) Insert(ctx context.Context, txn models.Transaction) error {
	now := toMillis(time.Now())
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.Amount, string(txn.Type), txn.MerchantRaw, txn.MerchantName, txn.Category,
		toMillis(txn.Timestamp), txn.Body, txn.Sender, txn.ReferenceNumber, txn.VPA,
		nullBalance(txn.AvailableBalance), txn.NeedsReview, now, now)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Update overwrites all mutable fields of an existing transaction
func (db *DB) Update(ctx context.Context, txn models.Transaction) error {
	return updateTransaction(ctx, db.DB, txn)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateTransaction(ctx context.Context, ex execer, txn models.Transaction) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, txn_type = ?, merchant_raw = ?, merchant_name = ?, category = ?, ts = ?,
			body = ?, sender = ?, reference_number = ?, vpa = ?, available_balance = ?,
			needs_review = ?, updated_at = ?
		WHERE id = ?
	`, txn.Amount, string(txn.Type), txn.MerchantRaw, txn.MerchantName, txn.Category,
		toMillis(txn.Timestamp), txn.Body, txn.Sender, txn.ReferenceNumber, txn.VPA,
		nullBalance(txn.AvailableBalance), txn.NeedsReview, toMillis(time.Now()), txn.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a transaction by ID
func (db *DB) Delete(ctx context.Context, id string) error {
	return deleteTransaction(ctx, db.DB, id)
}

func deleteTransaction(ctx context.Context, ex execer, id string) error {
	result, err := ex.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// All returns every transaction, newest first
func (db *DB) All(ctx context.Context) ([]models.Transaction, error) {
	return db.ListTransactions(ctx, models.TransactionFilter{})
}

// ListTransactions returns transactions matching filter, newest first
func (db *DB) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var where []string
	var args []any

	if filter.NeedsReview != nil {
		where = append(where, "needs_review = ?")
		args = append(args, *filter.NeedsReview)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if !filter.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, toMillis(filter.Since))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// GetTransaction returns a single transaction by ID
func (db *DB) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := getTransaction(ctx, db.DB, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTransaction(ctx context.Context, q rowQuerier, id string) (models.Transaction, error) {
	row := q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ledger.ErrNotFound
	}
	if err != nil {
		return t, fmt.Errorf("query transaction: %w", err)
	}
	return t, nil
}

// FindByReferenceNumber returns the newest transaction with ref, or nil
func (db *DB) FindByReferenceNumber(ctx context.Context, ref string) (*models.Transaction, error) {
	if ref == "" {
		return nil, nil
	}
	row := db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE reference_number = ?
		ORDER BY ts DESC, id ASC
		LIMIT 1
	`, ref)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction by reference: %w", err)
	}
	return &t, nil
}

// ExistsByID reports whether a transaction with id is stored
func (db *DB) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check transaction: %w", err)
	}
	return exists, nil
}

// SetCategory records a category and clears needs-review
func (db *DB) SetCategory(ctx context.Context, id, category string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE transactions SET category = ?, needs_review = 0, updated_at = ? WHERE id = ?
	`, category, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	return requireAffected(result)
}

// Merge fills keep's empty merchant fields from source in one database
// transaction, optionally deleting source. Both rows are re-read inside the
// transaction so a category confirmed since the caller's snapshot survives.
func (db *DB) Merge(ctx context.Context, keepID, sourceID string, drop bool) (models.Transaction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	keep, err := getTransaction(ctx, tx, keepID)
	if err != nil {
		return models.Transaction{}, err
	}
	source, err := getTransaction(ctx, tx, sourceID)
	if err != nil {
		return models.Transaction{}, err
	}

	ledger.Absorb(&keep, source)
	keep.NeedsReview = false
	keep.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET merchant_raw = ?, merchant_name = ?, vpa = ?, category = ?, reference_number = ?,
			needs_review = 0, updated_at = ?
		WHERE id = ?
	`, keep.MerchantRaw, keep.MerchantName, keep.VPA, keep.Category, keep.ReferenceNumber,
		toMillis(keep.UpdatedAt), keep.ID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("merge transaction: %w", err)
	}
	if drop {
		if err := deleteTransaction(ctx, tx, sourceID); err != nil {
			return models.Transaction{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Transaction{}, fmt.Errorf("commit: %w", err)
	}
	return keep, nil
}

// CountTransactions returns the number of stored transactions
func (db *DB) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

var _ ledger.Ledger = (*DB)(nil)
