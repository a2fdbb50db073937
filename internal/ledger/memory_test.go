package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsledger/internal/models"
)

var base = time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)

func txn(id string, offset time.Duration, ref string) models.Transaction {
	return models.Transaction{
		ID:              id,
		Amount:          decimal.NewFromInt(500),
		Type:            models.TypeDebit,
		Timestamp:       base.Add(offset),
		ReferenceNumber: ref,
		NeedsReview:     true,
	}
}

func TestMemory_InsertAndAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Insert(ctx, txn("a", 0, "")))
	require.NoError(t, m.Insert(ctx, txn("b", time.Minute, "")))
	require.NoError(t, m.Insert(ctx, txn("c", -time.Minute, "")))
	assert.Error(t, m.Insert(ctx, txn("a", 0, "")))

	all, err := m.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	ok, err := m.ExistsByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.ExistsByID(ctx, "zzz")
	assert.False(t, ok)
}

func TestMemory_FindByReferenceNumber(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, txn("a", 0, "123456789012")))

	got, err := m.FindByReferenceNumber(ctx, "123456789012")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	got, err = m.FindByReferenceNumber(ctx, "999")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, _ = m.FindByReferenceNumber(ctx, "")
	assert.Nil(t, got)
}

func TestMemory_SetCategory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, txn("a", 0, "")))

	require.NoError(t, m.SetCategory(ctx, "a", models.CatFood))
	all, _ := m.All(ctx)
	assert.Equal(t, models.CatFood, all[0].Category)
	assert.False(t, all[0].NeedsReview)

	assert.ErrorIs(t, m.SetCategory(ctx, "missing", models.CatFood), ErrNotFound)
}

func TestMemory_UpdateDeleteMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, txn("bank", 0, "")))
	require.NoError(t, m.Insert(ctx, txn("upi", time.Minute, "")))

	upi := txn("upi", time.Minute, "")
	upi.MerchantName = "Zomato"
	upi.Category = models.CatFood
	require.NoError(t, m.Update(ctx, upi))
	require.NoError(t, m.SetCategory(ctx, "bank", models.CatGroceries))

	merged, err := m.Merge(ctx, "bank", "upi", true)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "Zomato", merged.MerchantName)
	// fields already set on the kept record win
	assert.Equal(t, models.CatGroceries, merged.Category)
	assert.False(t, merged.NeedsReview)

	all, _ := m.All(ctx)
	assert.Equal(t, merged, all[0])

	// a failed merge leaves both sides untouched
	_, err = m.Merge(ctx, "ghost", "bank", true)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Merge(ctx, "bank", "ghost", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, m.Len())

	assert.ErrorIs(t, m.Update(ctx, txn("ghost", 0, "")), ErrNotFound)
	require.NoError(t, m.Delete(ctx, "bank"))
	assert.ErrorIs(t, m.Delete(ctx, "bank"), ErrNotFound)
}
