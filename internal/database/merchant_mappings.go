package database

import (
	"context"
	"fmt"

	"smsledger/internal/models"
)

// ListMerchantMappings returns all learned mappings, most used first
func (db *DB) ListMerchantMappings(ctx context.Context) ([]models.MerchantMapping, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT keyword, category, usage_count, last_used, confirmed_by_user
		FROM merchant_mappings
		ORDER BY usage_count DESC, keyword
	`)
	if err != nil {
		return nil, fmt.Errorf("query merchant mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.MerchantMapping
	for rows.Next() {
		var m models.MerchantMapping
		var lastUsed int64
		if err := rows.Scan(&m.Keyword, &m.Category, &m.UsageCount, &lastUsed, &m.ConfirmedByUser); err != nil {
			return nil, fmt.Errorf("scan merchant mapping: %w", err)
		}
		m.LastUsed = fromMillis(lastUsed)
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// UpsertMerchantMapping inserts or replaces the mapping for m.Keyword
func (db *DB) UpsertMerchantMapping(ctx context.Context, m models.MerchantMapping) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO merchant_mappings (keyword, category, usage_count, last_used, confirmed_by_user)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (keyword) DO UPDATE SET
			category = excluded.category,
			usage_count = excluded.usage_count,
			last_used = excluded.last_used,
			confirmed_by_user = excluded.confirmed_by_user
	`, m.Keyword, m.Category, m.UsageCount, toMillis(m.LastUsed), m.ConfirmedByUser)
	if err != nil {
		return fmt.Errorf("upsert merchant mapping: %w", err)
	}
	return nil
}

// DeleteMerchantMapping forgets a learned keyword
func (db *DB) DeleteMerchantMapping(ctx context.Context, keyword string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM merchant_mappings WHERE keyword = ?`, keyword)
	if err != nil {
		return fmt.Errorf("delete merchant mapping: %w", err)
	}
	return nil
}
