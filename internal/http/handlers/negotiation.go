package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/contractguard/contractguard/internal/http/middleware"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/pkg/logging"
)

type negotiationService interface {
	PlanNegotiation(ctx context.Context, in pipeline.PlanInput) (*negotiation.Session, error)
	GetSession(ctx context.Context, sessionID, userID string) (*negotiation.Session, error)
	ProcessCounterpartyResponse(ctx context.Context, sessionID, responseText string) (negotiation.ResponseOutcome, error)
}

// NegotiationHandler exposes strategy planning, session inspection, and
// counterparty response processing.
type NegotiationHandler struct {
	service negotiationService
	logger  *logging.Logger
}

// NewNegotiationHandler creates the negotiation handler.
func NewNegotiationHandler(service negotiationService, logger *logging.Logger) *NegotiationHandler {
	if service == nil {
		panic("handlers: negotiation service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NegotiationHandler{service: service, logger: logger}
}

type planRequest struct {
	Priorities        negotiation.Priorities `json:"priorities"`
	CounterpartyEmail string                 `json:"counterparty_email"`
	Tone              string                 `json:"tone,omitempty"`
}

// Plan creates the negotiation strategy and opens round one for a contract
// that finished analysis.
// POST /contracts/{contractID}/negotiation
func (h *NegotiationHandler) Plan(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	if userID == "" {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	contractID := chi.URLParam(r, "contractID")
	if contractID == "" {
		jsonError(w, "missing contractID", http.StatusBadRequest)
		return
	}

	var payload planRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	session, err := h.service.PlanNegotiation(r.Context(), pipeline.PlanInput{
		ContractID:        contractID,
		UserID:            userID,
		Priorities:        payload.Priorities,
		CounterpartyEmail: payload.CounterpartyEmail,
		Tone:              payload.Tone,
	})
	if err != nil {
		h.logger.Error("negotiation planning failed", "contract_id", contractID, "error", err)
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession returns a negotiation session owned by the caller.
// GET /sessions/{sessionID}
func (h *NegotiationHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		jsonError(w, "missing sessionID", http.StatusBadRequest)
		return
	}
	session, err := h.service.GetSession(r.Context(), sessionID, userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type responseRequest struct {
	ResponseText string `json:"response_text"`
}

// ProcessResponse records a counterparty reply against the session's current
// round and returns the resulting decision.
// POST /sessions/{sessionID}/response
func (h *NegotiationHandler) ProcessResponse(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		jsonError(w, "missing sessionID", http.StatusBadRequest)
		return
	}

	var payload responseRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.ResponseText) == "" {
		jsonError(w, "response_text is required", http.StatusBadRequest)
		return
	}

	// Ownership check before mutating the session.
	if _, err := h.service.GetSession(r.Context(), sessionID, userID); err != nil {
		serviceError(w, err)
		return
	}

	outcome, err := h.service.ProcessCounterpartyResponse(r.Context(), sessionID, payload.ResponseText)
	if err != nil {
		h.logger.Error("response processing failed", "session_id", sessionID, "error", err)
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
