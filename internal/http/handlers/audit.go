package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/contractguard/contractguard/internal/compliance"
	httpmiddleware "github.com/contractguard/contractguard/internal/http/middleware"
	"github.com/contractguard/contractguard/pkg/logging"
)

type auditQuerier interface {
	QueryEvents(ctx context.Context, filter compliance.AuditFilter) ([]compliance.AuditEvent, error)
}

// AuditHandler exposes the audit trail, scoped to the caller's own events.
type AuditHandler struct {
	service auditQuerier
	logger  *logging.Logger
}

// NewAuditHandler creates the audit handler.
func NewAuditHandler(service auditQuerier, logger *logging.Logger) *AuditHandler {
	if service == nil {
		panic("handlers: audit service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditHandler{service: service, logger: logger}
}

// ListEvents returns audit events for the authenticated user, newest first.
// GET /audit/events?contract_id=&session_id=&event_type=&from=&to=&limit=&offset=
func (h *AuditHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	if userID == "" {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := compliance.AuditFilter{
		UserID:     userID,
		ContractID: q.Get("contract_id"),
		SessionID:  q.Get("session_id"),
		EventType:  compliance.AuditEventType(q.Get("event_type")),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			jsonError(w, "invalid from timestamp, want RFC3339", http.StatusBadRequest)
			return
		}
		filter.StartTime = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			jsonError(w, "invalid to timestamp, want RFC3339", http.StatusBadRequest)
			return
		}
		filter.EndTime = t
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 500 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	events, err := h.service.QueryEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("audit query failed", "user_id", userID, "error", err)
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
