package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"smsledger/internal/auth"
	"smsledger/internal/categorizer"
	"smsledger/internal/database"
	"smsledger/internal/filestore"
	"smsledger/internal/ingest"
	"smsledger/internal/logger"
	"smsledger/internal/notification"
	"smsledger/internal/version"
)

// maxJSONBody caps request bodies for the JSON endpoints
const maxJSONBody = 1 << 20

// Deps are the services the API is built on
type Deps struct {
	DB       *database.DB
	Auth     *auth.Auth
	Backups  *filestore.Store
	Pipeline *ingest.Pipeline
	Enricher *notification.Enricher
	Learned  *categorizer.Learned
	Location *time.Location
}

type Handler struct {
	db       *database.DB
	auth     *auth.Auth
	backups  *filestore.Store
	pipeline *ingest.Pipeline
	enricher *notification.Enricher
	learned  *categorizer.Learned
	loc      *time.Location
	now      func() time.Time
}

func New(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		db:       d.DB,
		auth:     d.Auth,
		backups:  d.Backups,
		pipeline: d.Pipeline,
		enricher: d.Enricher,
		learned:  d.Learned,
		loc:      loc,
		now:      time.Now,
	}
}

// Register adds every API route to mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)

	// Ingest
	mux.HandleFunc("POST /api/messages", h.MessagesCreate)
	mux.HandleFunc("POST /api/notifications", h.NotificationsCreate)
	mux.HandleFunc("POST /api/imports", h.ImportsCreate)

	// Ledger
	mux.HandleFunc("GET /api/transactions", h.TransactionsList)
	mux.HandleFunc("GET /api/transactions/{id}", h.TransactionsShow)
	mux.HandleFunc("GET /api/transactions/{id}/context", h.TransactionsContext)
	mux.HandleFunc("POST /api/transactions/{id}/category", h.TransactionsCategorize)
	mux.HandleFunc("GET /api/categories", h.CategoriesList)
	mux.HandleFunc("GET /api/merchants", h.MerchantsList)

	// Matching sweeps
	mux.HandleFunc("POST /api/sweeps", h.SweepsCreate)
	mux.HandleFunc("GET /api/sweeps", h.SweepsList)

	// Budgets
	mux.HandleFunc("GET /api/budgets", h.BudgetsList)
	mux.HandleFunc("POST /api/budgets", h.BudgetsSave)
	mux.HandleFunc("GET /api/budgets/summary", h.BudgetsSummary)
	mux.HandleFunc("DELETE /api/budgets/{id}", h.BudgetsDelete)

	mux.HandleFunc("GET /api/jobs/{id}", h.JobStatus)
	mux.HandleFunc("GET /api/version", h.APIVersion)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// Login exchanges the shared password for a session token, returned both as
// a cookie and in the body for non-browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if !h.auth.CheckPassword(ctx, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, err := h.auth.CreateSession(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.auth.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.auth.DeleteSession(r.Context(), token)
	}
	h.auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// JobStatus returns progress and result for a background job
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	job, err := h.db.GetJob(r.Context(), id)
	if errors.Is(err, database.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("job_status_error", "job_id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	// Completed jobs carry a JSON result; failures carry a plain message
	var result any = job.Result
	if json.Valid([]byte(job.Result)) {
		result = json.RawMessage(job.Result)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       job.ID,
		"type":     job.JobType,
		"status":   job.Status,
		"progress": job.Progress,
		"attempts": job.Attempts,
		"result":   result,
	})
}

func (h *Handler) APIVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}
