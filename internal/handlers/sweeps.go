package handlers

import (
	"net/http"
	"strconv"

	"smsledger/internal/jobs"
	"smsledger/internal/logger"
)

// SweepsCreate queues a duplicate sweep unless one is already pending or running
func (h *Handler) SweepsCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, created, err := jobs.EnqueueSweep(ctx, h.db)
	if err != nil {
		logger.FromContext(ctx).Error("sweep_enqueue_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to queue sweep")
		return
	}
	if !created {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "sweep already queued"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": id})
}

// SweepsList returns recent sweep runs, newest first
func (h *Handler) SweepsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.db.ListSweepRuns(ctx, limit)
	if err != nil {
		logger.FromContext(ctx).Error("sweeps_list_error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to list sweeps")
		return
	}

	out := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		out = append(out, map[string]any{
			"id":                run.ID,
			"started_at":        run.StartedAt,
			"finished_at":       run.FinishedAt,
			"status":            run.Status,
			"reference_merges":  run.ReferenceMerges,
			"similarity_merges": run.SimilarityMerges,
			"deleted":           run.Deleted,
			"failures":          run.Failures,
			"error":             run.Error,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sweeps": out})
}
