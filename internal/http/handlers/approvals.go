package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/contractguard/contractguard/internal/approval"
	httpmiddleware "github.com/contractguard/contractguard/internal/http/middleware"
	"github.com/contractguard/contractguard/pkg/logging"
)

type approvalService interface {
	Approve(ctx context.Context, approvalID, decidedBy string) (*approval.Approval, error)
	Reject(ctx context.Context, approvalID, decidedBy, reason string) (*approval.Approval, error)
}

type approvalGetter interface {
	Get(ctx context.Context, approvalID string) (*approval.Approval, error)
}

// ApprovalsHandler exposes the human review gate for outbound drafts.
type ApprovalsHandler struct {
	service approvalService
	store   approvalGetter
	logger  *logging.Logger
}

// NewApprovalsHandler creates the approvals handler.
func NewApprovalsHandler(service approvalService, store approvalGetter, logger *logging.Logger) *ApprovalsHandler {
	if service == nil {
		panic("handlers: approval service cannot be nil")
	}
	if store == nil {
		panic("handlers: approval store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ApprovalsHandler{service: service, store: store, logger: logger}
}

// Get returns one pending or decided approval.
// GET /approvals/{approvalID}
func (h *ApprovalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	approvalID := chi.URLParam(r, "approvalID")
	if approvalID == "" {
		jsonError(w, "missing approvalID", http.StatusBadRequest)
		return
	}
	a, err := h.store.Get(r.Context(), approvalID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Approve grants the approval, releasing the draft for sending.
// POST /approvals/{approvalID}/approve
func (h *ApprovalsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	approvalID := chi.URLParam(r, "approvalID")
	if approvalID == "" {
		jsonError(w, "missing approvalID", http.StatusBadRequest)
		return
	}
	decidedBy := httpmiddleware.UserIDFromContext(r.Context())
	a, err := h.service.Approve(r.Context(), approvalID, decidedBy)
	if err != nil {
		h.logger.Error("approval decision failed", "approval_id", approvalID, "error", err)
		serviceError(w, err)
		return
	}
	h.logger.Info("draft approved", "approval_id", approvalID, "decided_by", decidedBy)
	writeJSON(w, http.StatusOK, a)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject denies the approval. A reason is required so the decision is
// auditable.
// POST /approvals/{approvalID}/reject
func (h *ApprovalsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	approvalID := chi.URLParam(r, "approvalID")
	if approvalID == "" {
		jsonError(w, "missing approvalID", http.StatusBadRequest)
		return
	}

	var payload rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Reason) == "" {
		jsonError(w, "reason is required", http.StatusBadRequest)
		return
	}

	decidedBy := httpmiddleware.UserIDFromContext(r.Context())
	a, err := h.service.Reject(r.Context(), approvalID, decidedBy, payload.Reason)
	if err != nil {
		h.logger.Error("approval decision failed", "approval_id", approvalID, "error", err)
		serviceError(w, err)
		return
	}
	h.logger.Info("draft rejected", "approval_id", approvalID, "decided_by", decidedBy)
	writeJSON(w, http.StatusOK, a)
}
