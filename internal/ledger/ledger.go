// Package ledger defines the transaction store used by the ingest pipeline and
// the matching engine, plus an in-memory implementation.
package ledger

import (
	"context"
	"errors"

	"smsledger/internal/models"
)

// ErrNotFound is returned when a transaction ID does not exist
var ErrNotFound = errors.New("transaction not found")

// Ledger is the durable transaction store. Every mutation is atomic.
type Ledger interface {
	Insert(ctx context.Context, txn models.Transaction) error
	Update(ctx context.Context, txn models.Transaction) error
	Delete(ctx context.Context, id string) error
	// All returns every transaction, most recent timestamp first
	All(ctx context.Context) ([]models.Transaction, error)
	FindByReferenceNumber(ctx context.Context, ref string) (*models.Transaction, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	// SetCategory records a category and clears needs-review
	SetCategory(ctx context.Context, id, category string) error
	// Merge copies merchant, VPA, category and reference from the stored
	// source record into the stored keep record where keep's field is empty,
	// clears keep's needs-review flag and, when drop is set, deletes source.
	// Both records are read inside the same unit of work, so fields written
	// after the caller last read them are never overwritten. It returns the
	// stored keep record.
	Merge(ctx context.Context, keepID, sourceID string, drop bool) (models.Transaction, error)
}

// Absorb fills merchant, VPA, category and reference fields of dst that are
// empty with the values from src. It reports whether dst changed.
func Absorb(dst *models.Transaction, src models.Transaction) bool {
	changed := false
	fill := func(field *string, v string) {
		if *field == "" && v != "" {
			*field = v
			changed = true
		}
	}
	fill(&dst.MerchantRaw, src.MerchantRaw)
	fill(&dst.MerchantName, src.MerchantName)
	fill(&dst.VPA, src.VPA)
	fill(&dst.Category, src.Category)
	fill(&dst.ReferenceNumber, src.ReferenceNumber)
	return changed
}
