package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/contractguard/contractguard/internal/approval"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/pipeline"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// serviceError maps service-layer errors onto HTTP status codes. Unknown
// errors are reported as a generic 500 so internals never leak to clients.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case pipeline.IsValidation(err):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pipeline.ErrNotFound),
		errors.Is(err, approval.ErrApprovalNotFound),
		errors.Is(err, negotiation.ErrSessionNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, pipeline.ErrAccessDenied):
		jsonError(w, "access denied", http.StatusForbidden)
	case errors.Is(err, negotiation.ErrStateConflict),
		errors.Is(err, approval.ErrAlreadyDecided):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
