package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"captionclash/internal/domain"
	"captionclash/internal/service"
	"captionclash/pkg/logger"
)

// ContestHandler exposes the moderator endpoints for opening and cancelling
// rounds.
type ContestHandler struct {
	contests *service.ContestService
	log      *logger.Logger
}

func NewContestHandler(contests *service.ContestService, log *logger.Logger) *ContestHandler {
	return &ContestHandler{
		contests: contests,
		log:      log,
	}
}

// CreateContest handles POST /admin/contests
func (h *ContestHandler) CreateContest(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var duration time.Duration
	if req.Duration != "" {
		parsed, err := time.ParseDuration(req.Duration)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid duration")
			return
		}
		duration = parsed
	}

	contest, err := h.contests.CreateContest(r.Context(), req.ImageRef, duration)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"contest": contest})
}

// CancelContest handles DELETE /admin/contests/{id}
func (h *ContestHandler) CancelContest(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "id")
	if contestID == "" {
		respondError(w, http.StatusBadRequest, "contest id is required")
		return
	}

	if err := h.contests.Cancel(r.Context(), contestID); err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
