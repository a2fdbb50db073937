package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"smsledger/internal/filestore"
	"smsledger/internal/ingest"
	"smsledger/internal/jobs"
	"smsledger/internal/logger"
	"smsledger/internal/models"
)

// maxBackupSize caps uploaded SMS backup files
const maxBackupSize = 32 << 20

type ingestResponse struct {
	Outcome     ingest.Outcome   `json:"outcome"`
	Transaction *transactionJSON `json:"transaction,omitempty"`
}

func newIngestResponse(res ingest.Result) ingestResponse {
	out := ingestResponse{Outcome: res.Outcome}
	if res.Transaction != nil {
		t := toTransactionJSON(*res.Transaction)
		out.Transaction = &t
	}
	return out
}

// ingestStatus is 201 for a new record and 200 for every other outcome
func ingestStatus(o ingest.Outcome) int {
	if o == ingest.OutcomeInserted {
		return http.StatusCreated
	}
	return http.StatusOK
}

// MessagesCreate accepts one SMS forwarded by the phone
func (h *Handler) MessagesCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Body      string    `json:"body"`
		Sender    string    `json:"sender"`
		Timestamp time.Time `json:"timestamp"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Body) == "" || strings.TrimSpace(req.Sender) == "" {
		writeError(w, http.StatusBadRequest, "body and sender are required")
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = h.now()
	}

	res, err := h.pipeline.Process(ctx, models.RawMessage{
		Body:      req.Body,
		Sender:    req.Sender,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		logger.FromContext(ctx).Error("message_ingest_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to record message")
		return
	}
	writeJSON(w, ingestStatus(res.Outcome), newIngestResponse(res))
}

// NotificationsCreate accepts one payment-app notification
func (h *Handler) NotificationsCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		PackageName string    `json:"package_name"`
		Text        string    `json:"text"`
		Timestamp   time.Time `json:"timestamp"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PackageName == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "package_name and text are required")
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = h.now()
	}

	res, err := h.pipeline.ProcessNotification(ctx, models.RawNotification{
		PackageName: req.PackageName,
		Text:        req.Text,
		Timestamp:   req.Timestamp,
	})
	if err != nil {
		logger.FromContext(ctx).Error("notification_ingest_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to record notification")
		return
	}
	writeJSON(w, ingestStatus(res.Outcome), newIngestResponse(res))
}

// ImportsCreate stores an uploaded SMS backup and queues an import job
func (h *Handler) ImportsCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBackupSize)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		l.Warn("import_upload_parse_error", "error", err.Error())
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	payload := jobs.ImportMessagesPayload{Sender: r.FormValue("sender")}
	if since := r.FormValue("since"); since != "" {
		t, err := time.ParseInLocation(time.DateOnly, since, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		payload.Since = &t
	}

	file, header, err := r.FormFile("backup")
	if err != nil {
		writeError(w, http.StatusBadRequest, "backup file is required")
		return
	}
	defer file.Close()

	name, err := h.backups.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, filestore.ErrUnsupportedType) {
			writeError(w, http.StatusBadRequest, "backup must be an SMS backup XML file")
			return
		}
		l.Error("import_upload_save_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to store backup")
		return
	}
	payload.Backup = name

	jobID, err := h.db.CreateJob(ctx, jobs.TypeImportMessages, payload)
	if err != nil {
		l.Error("import_job_create_error", "error", err.Error())
		h.backups.Delete(name)
		writeError(w, http.StatusInternalServerError, "failed to queue import")
		return
	}

	l.Info("import_job_queued", "job_id", jobID, "backup", name, "size", header.Size)
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": jobID})
}
