package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/ledger"
	"smsledger/internal/logger"
	"smsledger/internal/models"
)

const defaultListLimit = 100

type transactionJSON struct {
	ID               string           `json:"id"`
	Amount           decimal.Decimal  `json:"amount"`
	Type             string           `json:"type"`
	MerchantName     string           `json:"merchant_name,omitempty"`
	MerchantRaw      string           `json:"merchant_raw,omitempty"`
	Category         string           `json:"category,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
	Sender           string           `json:"sender"`
	Body             string           `json:"body"`
	ReferenceNumber  string           `json:"reference_number,omitempty"`
	VPA              string           `json:"vpa,omitempty"`
	AvailableBalance *decimal.Decimal `json:"available_balance,omitempty"`
	NeedsReview      bool             `json:"needs_review"`
}

func toTransactionJSON(t models.Transaction) transactionJSON {
	return transactionJSON{
		ID:               t.ID,
		Amount:           t.Amount,
		Type:             string(t.Type),
		MerchantName:     t.MerchantName,
		MerchantRaw:      t.MerchantRaw,
		Category:         t.Category,
		Timestamp:        t.Timestamp,
		Sender:           t.Sender,
		Body:             t.Body,
		ReferenceNumber:  t.ReferenceNumber,
		VPA:              t.VPA,
		AvailableBalance: t.AvailableBalance,
		NeedsReview:      t.NeedsReview,
	}
}

// TransactionsList lists ledger records newest first.
// Query: needs_review=true|false, category, since=YYYY-MM-DD, limit.
func (h *Handler) TransactionsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := models.TransactionFilter{
		Category: q.Get("category"),
		Limit:    defaultListLimit,
	}
	if v := q.Get("needs_review"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "needs_review must be true or false")
			return
		}
		filter.NeedsReview = &b
	}
	if v := q.Get("since"); v != "" {
		t, err := time.ParseInLocation(time.DateOnly, v, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		filter.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	txns, err := h.db.ListTransactions(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("transactions_list_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionJSON, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out, "count": len(out)})
}

// loadTransaction writes a 404/500 and returns nil when the path ID cannot be loaded
func (h *Handler) loadTransaction(w http.ResponseWriter, r *http.Request) *models.Transaction {
	ctx := r.Context()
	id := r.PathValue("id")

	txn, err := h.db.GetTransaction(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return nil
	}
	if err != nil {
		logger.FromContext(ctx).Error("transaction_load_error", "transaction_id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return nil
	}
	return txn
}

func (h *Handler) TransactionsShow(w http.ResponseWriter, r *http.Request) {
	txn := h.loadTransaction(w, r)
	if txn == nil {
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(*txn))
}

// TransactionsContext returns a merchant/category suggestion from a payment-app
// notification seen around the time of the transaction, if any is still cached.
func (h *Handler) TransactionsContext(w http.ResponseWriter, r *http.Request) {
	txn := h.loadTransaction(w, r)
	if txn == nil {
		return
	}

	match := h.enricher.EnrichWithContext(*txn)
	if match == nil {
		writeJSON(w, http.StatusOK, map[string]any{"match": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"match": map[string]any{
		"merchant_name": match.MerchantName,
		"category":      match.Category,
		"app_name":      match.AppName,
		"confidence":    match.Confidence,
	}})
}

// TransactionsCategorize sets a category from manual review. With remember,
// the merchant is taught to the learned registry so future messages match.
func (h *Handler) TransactionsCategorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.FromContext(ctx)

	var req struct {
		Category string `json:"category"`
		Remember bool   `json:"remember"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !slices.Contains(models.Categories, req.Category) {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	txn := h.loadTransaction(w, r)
	if txn == nil {
		return
	}
	ctx = logger.WithTransactionID(ctx, txn.ID)
	l = logger.FromContext(ctx)

	keyword := txn.MerchantName
	if keyword == "" {
		keyword = txn.MerchantRaw
	}
	if req.Remember && keyword == "" {
		writeError(w, http.StatusUnprocessableEntity, "transaction has no merchant to remember")
		return
	}

	if err := h.db.SetCategory(ctx, txn.ID, req.Category); err != nil {
		l.Error("transaction_categorize_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to set category")
		return
	}
	txn.Category = req.Category
	txn.NeedsReview = false

	resp := map[string]any{"transaction": toTransactionJSON(*txn)}
	if req.Remember {
		m, err := h.learned.Learn(ctx, keyword, req.Category, true)
		if err != nil {
			l.Error("merchant_learn_error", "keyword", keyword, "error", err.Error())
			writeError(w, http.StatusInternalServerError, "failed to remember merchant")
			return
		}
		l.Info("merchant_learned", "keyword", m.Keyword, "category", m.Category, "usage_count", m.UsageCount)
		resp["learned"] = mappingJSON(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CategoriesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": models.Categories})
}

func mappingJSON(m models.MerchantMapping) map[string]any {
	return map[string]any{
		"keyword":           m.Keyword,
		"category":          m.Category,
		"usage_count":       m.UsageCount,
		"last_used":         m.LastUsed,
		"confirmed_by_user": m.ConfirmedByUser,
	}
}

// MerchantsList returns the learned merchant mappings
func (h *Handler) MerchantsList(w http.ResponseWriter, r *http.Request) {
	mappings := h.learned.Mappings()
	out := make([]map[string]any, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, mappingJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"merchants": out})
}
