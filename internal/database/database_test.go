package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsledger/internal/ledger"
	"smsledger/internal/models"
)

var base = time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenAndInit(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTxn(id string, offset time.Duration) models.Transaction {
	bal := decimal.RequireFromString("5000.00")
	return models.Transaction{
		ID:               id,
		Amount:           decimal.RequireFromString("500.00"),
		Type:             models.TypeDebit,
		MerchantRaw:      "Zomato Online",
		MerchantName:     "Zomato Online",
		Timestamp:        base.Add(offset),
		Body:             "Rs.500.00 debited from your account for UPI to Zomato Online",
		Sender:           "VM-HDFCBK",
		ReferenceNumber:  "123456789012",
		AvailableBalance: &bal,
		NeedsReview:      true,
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	in := sampleTxn("t1", 0)
	require.NoError(t, db.Insert(ctx, in))

	got, err := db.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(in.Amount))
	assert.Equal(t, models.TypeDebit, got.Type)
	assert.Equal(t, "Zomato Online", got.MerchantName)
	assert.True(t, got.Timestamp.Equal(base))
	assert.Equal(t, "123456789012", got.ReferenceNumber)
	require.NotNil(t, got.AvailableBalance)
	assert.True(t, got.AvailableBalance.Equal(decimal.NewFromInt(5000)))
	assert.True(t, got.NeedsReview)
	assert.False(t, got.CreatedAt.IsZero())

	noBalance := sampleTxn("t2", time.Minute)
	noBalance.AvailableBalance = nil
	require.NoError(t, db.Insert(ctx, noBalance))
	got, err = db.GetTransaction(ctx, "t2")
	require.NoError(t, err)
	assert.Nil(t, got.AvailableBalance)

	assert.Error(t, db.Insert(ctx, in), "duplicate id")

	_, err = db.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestLedger_AllNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Insert(ctx, sampleTxn("old", -time.Hour)))
	require.NoError(t, db.Insert(ctx, sampleTxn("new", time.Hour)))
	require.NoError(t, db.Insert(ctx, sampleTxn("mid", 0)))

	all, err := db.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "mid", all[1].ID)
	assert.Equal(t, "old", all[2].ID)
}

func TestLedger_ListTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Insert(ctx, sampleTxn("a", 0)))
	require.NoError(t, db.Insert(ctx, sampleTxn("b", time.Minute)))
	require.NoError(t, db.SetCategory(ctx, "b", models.CatFood))

	review := true
	pending, err := db.ListTransactions(ctx, models.TransactionFilter{NeedsReview: &review})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].ID)

	food, err := db.ListTransactions(ctx, models.TransactionFilter{Category: models.CatFood})
	require.NoError(t, err)
	require.Len(t, food, 1)
	assert.Equal(t, "b", food[0].ID)
	assert.False(t, food[0].NeedsReview)

	limited, err := db.ListTransactions(ctx, models.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	since, err := db.ListTransactions(ctx, models.TransactionFilter{Since: base.Add(30 * time.Second)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "b", since[0].ID)
}

func TestLedger_LookupsAndMutations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Insert(ctx, sampleTxn("a", 0)))

	ok, err := db.ExistsByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.ExistsByID(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := db.FindByReferenceNumber(ctx, "123456789012")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a", found.ID)

	found, err = db.FindByReferenceNumber(ctx, "000")
	require.NoError(t, err)
	assert.Nil(t, found)

	upd := sampleTxn("a", 0)
	upd.Category = models.CatShopping
	upd.VPA = "zomato@hdfcbank"
	upd.NeedsReview = false
	require.NoError(t, db.Update(ctx, upd))
	got, err := db.GetTransaction(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.CatShopping, got.Category)
	assert.Equal(t, "zomato@hdfcbank", got.VPA)
	assert.False(t, got.NeedsReview)

	assert.ErrorIs(t, db.Update(ctx, sampleTxn("ghost", 0)), ledger.ErrNotFound)
	assert.ErrorIs(t, db.SetCategory(ctx, "ghost", models.CatFood), ledger.ErrNotFound)

	require.NoError(t, db.Delete(ctx, "a"))
	assert.ErrorIs(t, db.Delete(ctx, "a"), ledger.ErrNotFound)
}

func TestLedger_MergeIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	bank := sampleTxn("bank", 0)
	bank.MerchantRaw, bank.MerchantName = "", ""
	require.NoError(t, db.Insert(ctx, bank))
	app := sampleTxn("app", time.Minute)
	app.VPA = "zomato@hdfcbank"
	app.Category = models.CatFood
	require.NoError(t, db.Insert(ctx, app))

	// a missing source rolls back the whole merge
	_, err := db.Merge(ctx, "bank", "ghost", true)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	got, err := db.GetTransaction(ctx, "bank")
	require.NoError(t, err)
	assert.Empty(t, got.MerchantName)
	assert.True(t, got.NeedsReview)

	merged, err := db.Merge(ctx, "bank", "app", true)
	require.NoError(t, err)
	assert.Equal(t, "Zomato Online", merged.MerchantName)
	assert.Equal(t, "zomato@hdfcbank", merged.VPA)
	assert.Equal(t, models.CatFood, merged.Category)

	n, err := db.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = db.GetTransaction(ctx, "bank")
	require.NoError(t, err)
	assert.Equal(t, models.CatFood, got.Category)
	assert.Equal(t, "zomato@hdfcbank", got.VPA)
	assert.False(t, got.NeedsReview)
	assert.True(t, got.Amount.Equal(bank.Amount))
}

func TestLedger_MergeKeepsStoredCategory(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Insert(ctx, sampleTxn("bank", 0)))
	app := sampleTxn("app", 30*time.Minute)
	app.Category = models.CatFood
	require.NoError(t, db.Insert(ctx, app))

	// confirmed after any caller snapshot
	require.NoError(t, db.SetCategory(ctx, "bank", models.CatGroceries))

	merged, err := db.Merge(ctx, "bank", "app", false)
	require.NoError(t, err)
	assert.Equal(t, models.CatGroceries, merged.Category)

	got, err := db.GetTransaction(ctx, "bank")
	require.NoError(t, err)
	assert.Equal(t, models.CatGroceries, got.Category)
	ok, err := db.ExistsByID(ctx, "app")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMerchantMappings(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	m := models.MerchantMapping{Keyword: "RAHUL SHARMA", Category: models.CatTransfer, UsageCount: 1, LastUsed: base}
	require.NoError(t, db.UpsertMerchantMapping(ctx, m))
	m.UsageCount = 3
	m.ConfirmedByUser = true
	require.NoError(t, db.UpsertMerchantMapping(ctx, m))
	require.NoError(t, db.UpsertMerchantMapping(ctx, models.MerchantMapping{
		Keyword: "CHAI POINT", Category: models.CatFood, UsageCount: 1, LastUsed: base,
	}))

	mappings, err := db.ListMerchantMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "RAHUL SHARMA", mappings[0].Keyword)
	assert.Equal(t, 3, mappings[0].UsageCount)
	assert.True(t, mappings[0].ConfirmedByUser)
	assert.True(t, mappings[0].LastUsed.Equal(base))

	require.NoError(t, db.DeleteMerchantMapping(ctx, "CHAI POINT"))
	mappings, err = db.ListMerchantMappings(ctx)
	require.NoError(t, err)
	assert.Len(t, mappings, 1)
}

func TestBudgets(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	b := models.Budget{
		ID:             "food",
		Category:       models.CatFood,
		Limit:          decimal.NewFromInt(5000),
		Period:         models.PeriodMonthly,
		AlertThreshold: 80,
		Active:         true,
	}
	require.NoError(t, db.SaveBudget(ctx, b))
	require.NoError(t, db.SaveBudget(ctx, models.Budget{
		ID: "fuel", Category: models.CatFuel, Limit: decimal.NewFromInt(3000),
		Period: models.PeriodWeekly, AlertThreshold: 90,
	}))

	got, err := db.GetBudget(ctx, "food")
	require.NoError(t, err)
	assert.True(t, got.Limit.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, models.PeriodMonthly, got.Period)
	assert.True(t, got.Active)

	active, err := db.ListBudgets(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "food", active[0].ID)

	all, err := db.ListBudgets(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, db.DeleteBudget(ctx, "fuel"))
	assert.ErrorIs(t, db.DeleteBudget(ctx, "fuel"), ErrBudgetNotFound)
	_, err = db.GetBudget(ctx, "fuel")
	assert.ErrorIs(t, err, ErrBudgetNotFound)
}

func TestSweepRuns(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.StartSweepRun(ctx, base)
	require.NoError(t, err)
	require.NoError(t, db.FinishSweepRun(ctx, models.SweepRun{ID: id, ReferenceMerges: 2, Deleted: 1}))

	failed, err := db.StartSweepRun(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, db.FinishSweepRun(ctx, models.SweepRun{ID: failed, Error: "read ledger snapshot: disk I/O error"}))

	runs, err := db.ListSweepRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "failed", runs[0].Status)
	assert.Equal(t, "completed", runs[1].Status)
	assert.Equal(t, 2, runs[1].ReferenceMerges)
	require.NotNil(t, runs[1].FinishedAt)
}

func TestJobs_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	active, err := db.HasActiveJob(ctx, "sweep_duplicates")
	require.NoError(t, err)
	assert.False(t, active)

	id, err := db.CreateJob(ctx, "sweep_duplicates", map[string]string{"trigger": "test"})
	require.NoError(t, err)

	active, err = db.HasActiveJob(ctx, "sweep_duplicates")
	require.NoError(t, err)
	assert.True(t, active)

	job, err := db.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "running", job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.JSONEq(t, `{"trigger":"test"}`, job.Payload)

	next, err := db.ClaimNextJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)

	require.NoError(t, db.RetryJob(ctx, id))
	job, err = db.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, 2, job.Attempts)

	require.NoError(t, db.UpdateJobProgress(ctx, id, 40))
	require.NoError(t, db.CompleteJob(ctx, id, `{"ok":true}`))

	got, err := db.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.CompletedAt)

	active, err = db.HasActiveJob(ctx, "sweep_duplicates")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = db.GetJob(ctx, 999)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobs_RequeueRunning(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.CreateJob(ctx, "import_messages", map[string]string{"path": "x.xml"})
	require.NoError(t, err)
	_, err = db.ClaimNextJob(ctx)
	require.NoError(t, err)

	n, err := db.RequeueRunningJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	job, err := db.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
}
