package handler

import (
	"encoding/json"
	"net/http"

	apperrors "captionclash/pkg/errors"
)

// errorResponse is the wire shape of every error the API returns.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Status: "error", Message: message})
}

// respondAppError maps a service error onto its HTTP status; anything that
// is not an AppError becomes a 500 with a generic message.
func respondAppError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		respondError(w, appErr.StatusCode, appErr.Message)
		return
	}
	respondError(w, http.StatusInternalServerError, "unexpected error")
}
