package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"captionclash/internal/domain"
	"captionclash/internal/middleware"
	"captionclash/internal/service"
	"captionclash/pkg/logger"
)

// CaptionHandler exposes the user-facing contest endpoints.
type CaptionHandler struct {
	captions *service.CaptionService
	log      *logger.Logger
}

func NewCaptionHandler(captions *service.CaptionService, log *logger.Logger) *CaptionHandler {
	return &CaptionHandler{
		captions: captions,
		log:      log,
	}
}

// GetUsername handles GET /username
func (h *CaptionHandler) GetUsername(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil || identity.Username == "" {
		respondError(w, http.StatusNotFound, "no username found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"username": identity.Username})
}

// CreateCaption handles POST /captions/create
func (h *CaptionHandler) CreateCaption(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload domain.CaptionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.captions.CreateCaption(r.Context(), identity.UserID, payload)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"caption": entry})
}

// GetMyCaption handles GET /captions/mine
func (h *CaptionHandler) GetMyCaption(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	entry, err := h.captions.MyCaption(r.Context(), identity.UserID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"caption": entry})
}

// ToggleUpvote handles POST /captions/{id}/upvote
func (h *CaptionHandler) ToggleUpvote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		respondError(w, http.StatusBadRequest, "caption id is required")
		return
	}

	upvoted, err := h.captions.ToggleUpvote(r.Context(), identity.UserID, entryID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"userUpvoted": upvoted})
}

// ListCaptions handles GET /captions
func (h *CaptionHandler) ListCaptions(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if identity := middleware.IdentityFromContext(r.Context()); identity != nil {
		userID = identity.UserID
	}

	captions, err := h.captions.ListCaptions(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"captions": captions})
}

// GetPostImage handles GET /post/image
func (h *CaptionHandler) GetPostImage(w http.ResponseWriter, r *http.Request) {
	imageURL, err := h.captions.ImageURL(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"imageUrl": imageURL})
}
