package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/stintstats/internal/backfill"
)

// BackfillService queues batch jobs and reports on them.
type BackfillService interface {
	Enqueue(ctx context.Context, req backfill.Request) (*backfill.Job, error)
	GetStatus(ctx context.Context) (*backfill.StatusSummary, error)
	GetJob(ctx context.Context, jobID string) (*backfill.JobDetail, error)
}

// BackfillHandler proxies API calls to the backfill service.
type BackfillHandler struct {
	service BackfillService
}

// NewBackfillHandler wires the REST layer to the backfill service.
func NewBackfillHandler(service BackfillService) *BackfillHandler {
	return &BackfillHandler{service: service}
}

type apiBackfillRequest struct {
	GameID  string             `json:"game_id"`
	Round   int                `json:"round"`
	GameIDs []string           `json:"game_ids"`
	Games   []backfill.GameRef `json:"games"`
	Reload  bool               `json:"reload"`
}

// HandleBackfillRequest handles POST /api/v1/backfill. Games may be given as
// {"games":[{"game_id","round"}]}, a bare "game_ids" list (round 0) or a
// single "game_id" with "round".
func (h *BackfillHandler) HandleBackfillRequest(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill requires a database", nil)
		return
	}

	var req apiBackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	backfillReq := backfill.Request{Reload: req.Reload}
	backfillReq.Games = append(backfillReq.Games, req.Games...)
	for _, id := range req.GameIDs {
		backfillReq.Games = append(backfillReq.Games, backfill.GameRef{GameID: id})
	}
	if req.GameID != "" {
		backfillReq.Games = append(backfillReq.Games, backfill.GameRef{GameID: req.GameID, Round: req.Round})
	}

	job, err := h.service.Enqueue(r.Context(), backfillReq)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue backfill job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleBackfillStatus handles GET /api/v1/backfill/status
func (h *BackfillHandler) HandleBackfillStatus(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill requires a database", nil)
		return
	}

	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	payload := buildStatusPayload(summary)
	respondJSON(w, http.StatusOK, payload)
}

// HandleBackfillJob handles GET /api/v1/backfill/jobs/{jobID}
func (h *BackfillHandler) HandleBackfillJob(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill requires a database", nil)
		return
	}

	detail, err := h.service.GetJob(r.Context(), mux.Vars(r)["jobID"])
	if err != nil {
		respondLookupError(w, "Job not found", err)
		return
	}

	events := make([]map[string]interface{}, 0, len(detail.Events))
	for _, e := range detail.Events {
		event := map[string]interface{}{
			"kind":       e.Kind,
			"message":    e.Message,
			"created_at": e.CreatedAt,
		}
		if e.ProgressCurrent.Valid && e.ProgressTotal.Valid {
			event["progress_current"] = e.ProgressCurrent.Int64
			event["progress_total"] = e.ProgressTotal.Int64
		}
		events = append(events, event)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":    jobPayload(detail.Job),
		"events": events,
	})
}

func buildStatusPayload(summary *backfill.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": []map[string]interface{}{},
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}

	response["history"] = history
	return response
}

func jobPayload(job *backfill.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"status":           job.Status,
		"reload":           job.Reload,
		"games":            job.Games(),
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"processed":        job.Processed,
		"not_ready":        job.NotReady,
		"failed":           job.Failed,
		"retry_count":      job.RetryCount,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
