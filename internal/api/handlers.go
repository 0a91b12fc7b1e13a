package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hoopcast/hoopcast/internal/db"
	"github.com/hoopcast/hoopcast/internal/models"
	"github.com/hoopcast/hoopcast/internal/queue"
)

type Handler struct {
	db    *db.DB
	queue *queue.Queue
}

func NewHandler(database *db.DB, q *queue.Queue) *Handler {
	return &Handler{
		db:    database,
		queue: q,
	}
}

// EnqueueBatch handles POST /v1/batch — the daily run. An empty date means
// tomorrow, matching the overnight schedule that renders the next day's
// games.
func (h *Handler) EnqueueBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	limit := 0
	if req.Limit != nil {
		if *req.Limit <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be positive")
			return
		}
		limit = *req.Limit
	}

	job := &models.Job{
		ID:     uuid.New(),
		Type:   "batch",
		Status: models.JobStatusQueued,
	}
	if err := h.db.CreateJob(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := h.queue.EnqueueBatch(r.Context(), job.ID, date, limit); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, models.EnqueueResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// EnqueueRender handles POST /v1/renders — an ad-hoc render of one record.
func (h *Handler) EnqueueRender(w http.ResponseWriter, r *http.Request) {
	var req models.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Record.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	gameID := req.Record.GameID
	job := &models.Job{
		ID:     uuid.New(),
		GameID: &gameID,
		Type:   "render",
		Status: models.JobStatusQueued,
	}
	if err := h.db.CreateJob(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := h.queue.EnqueueRender(r.Context(), job.ID, &req.Record); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, models.EnqueueResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// ListRenders handles GET /v1/renders
// Query params:
//   - limit:  max results per page (default 20, max 100)
//   - offset: number of results to skip (default 0)
func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		offset = n
	}

	renders, err := h.db.ListContentLog(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list renders")
		return
	}
	total, err := h.db.CountContentLog(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count renders")
		return
	}

	if renders == nil {
		renders = []models.ContentLog{}
	}
	respondJSON(w, http.StatusOK, models.ListRendersResponse{
		Renders: renders,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// GetJob handles GET /v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.db.GetJob(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	respondJSON(w, http.StatusOK, job)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
