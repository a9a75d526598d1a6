// Package compliance records an immutable audit trail of negotiation actions.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType represents the type of audited action.
type AuditEventType string

const (
	// EventContractAnalyzed is logged when a contract analysis completes.
	EventContractAnalyzed AuditEventType = "contract.analyzed"
	// EventAnalysisFailed is logged when a contract analysis ends in error.
	EventAnalysisFailed AuditEventType = "contract.analysis_failed"
	// EventStrategyPlanned is logged when a negotiation strategy is generated.
	EventStrategyPlanned AuditEventType = "negotiation.strategy_planned"
	// EventDraftCreated is logged when a negotiation email draft is produced.
	EventDraftCreated AuditEventType = "negotiation.draft_created"
	// EventApprovalGranted is logged when a human approves an outbound draft.
	EventApprovalGranted AuditEventType = "approval.granted"
	// EventApprovalRejected is logged when a human rejects an outbound draft.
	EventApprovalRejected AuditEventType = "approval.rejected"
	// EventResponseProcessed is logged when a counterparty response is classified.
	EventResponseProcessed AuditEventType = "negotiation.response_processed"
	// EventSessionClosed is logged when a negotiation session reaches a terminal state.
	EventSessionClosed AuditEventType = "negotiation.session_closed"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID         string          `json:"id"`
	EventType  AuditEventType  `json:"event_type"`
	UserID     string          `json:"user_id"`
	ContractID string          `json:"contract_id,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditDetails contains event-specific details.
type AuditDetails struct {
	// For contract analysis
	OverallRisk float64 `json:"overall_risk,omitempty"`
	ClauseCount int     `json:"clause_count,omitempty"`
	RiskLevel   string  `json:"risk_level,omitempty"`
	Error       string  `json:"error,omitempty"`

	// For strategy and drafts
	RoundNumber int    `json:"round_number,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	Subject     string `json:"subject,omitempty"`

	// For approvals
	ApprovalID string `json:"approval_id,omitempty"`
	Reason     string `json:"reason,omitempty"`

	// For response processing
	AcceptedCount int    `json:"accepted_count,omitempty"`
	RejectedCount int    `json:"rejected_count,omitempty"`
	NextAction    string `json:"next_action,omitempty"`
	FinalStatus   string `json:"final_status,omitempty"`
}

// AuditService handles audit trail logging.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO negotiation_audit_events (
			id, event_type, user_id, contract_id, session_id,
			actor, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.UserID,
		nullString(event.ContractID),
		nullString(event.SessionID),
		nullString(event.Actor),
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}

	return nil
}

// LogContractAnalyzed logs a completed contract analysis.
func (s *AuditService) LogContractAnalyzed(ctx context.Context, userID, contractID string, overallRisk float64, riskLevel string, clauseCount int) error {
	details := AuditDetails{
		OverallRisk: overallRisk,
		RiskLevel:   riskLevel,
		ClauseCount: clauseCount,
	}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventContractAnalyzed,
		UserID:     userID,
		ContractID: contractID,
		Details:    detailsJSON,
	})
}

// LogAnalysisFailed logs a contract analysis that ended in error.
func (s *AuditService) LogAnalysisFailed(ctx context.Context, userID, contractID, reason string) error {
	details := AuditDetails{Error: reason}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventAnalysisFailed,
		UserID:     userID,
		ContractID: contractID,
		Details:    detailsJSON,
	})
}

// LogStrategyPlanned logs generation of a negotiation strategy.
func (s *AuditService) LogStrategyPlanned(ctx context.Context, userID, contractID, sessionID string, roundNumber int) error {
	details := AuditDetails{RoundNumber: roundNumber}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventStrategyPlanned,
		UserID:     userID,
		ContractID: contractID,
		SessionID:  sessionID,
		Details:    detailsJSON,
	})
}

// LogDraftCreated logs an outbound email draft awaiting approval.
func (s *AuditService) LogDraftCreated(ctx context.Context, userID, contractID, sessionID string, roundNumber int, recipient, subject string) error {
	details := AuditDetails{
		RoundNumber: roundNumber,
		Recipient:   recipient,
		Subject:     subject,
	}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventDraftCreated,
		UserID:     userID,
		ContractID: contractID,
		SessionID:  sessionID,
		Details:    detailsJSON,
	})
}

// LogApprovalDecision logs a human approve or reject decision on a draft.
func (s *AuditService) LogApprovalDecision(ctx context.Context, userID, contractID, sessionID, approvalID, decidedBy, reason string, approved bool) error {
	eventType := EventApprovalGranted
	if !approved {
		eventType = EventApprovalRejected
	}
	details := AuditDetails{
		ApprovalID: approvalID,
		Reason:     reason,
	}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:  eventType,
		UserID:     userID,
		ContractID: contractID,
		SessionID:  sessionID,
		Actor:      decidedBy,
		Details:    detailsJSON,
	})
}

// LogResponseProcessed logs the outcome of classifying a counterparty response.
func (s *AuditService) LogResponseProcessed(ctx context.Context, userID, contractID, sessionID string, roundNumber, accepted, rejected int, nextAction string) error {
	details := AuditDetails{
		RoundNumber:   roundNumber,
		AcceptedCount: accepted,
		RejectedCount: rejected,
		NextAction:    nextAction,
	}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventResponseProcessed,
		UserID:     userID,
		ContractID: contractID,
		SessionID:  sessionID,
		Details:    detailsJSON,
	})
}

// LogSessionClosed logs a negotiation session reaching a terminal state.
func (s *AuditService) LogSessionClosed(ctx context.Context, userID, contractID, sessionID, finalStatus string) error {
	details := AuditDetails{FinalStatus: finalStatus}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventSessionClosed,
		UserID:     userID,
		ContractID: contractID,
		SessionID:  sessionID,
		Details:    detailsJSON,
	})
}

// QueryEvents retrieves audit events with filters.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event_type, user_id, contract_id, session_id,
			   actor, details, created_at
		FROM negotiation_audit_events
		WHERE user_id = $1
	`
	args := []interface{}{filter.UserID}
	argIdx := 2

	if filter.ContractID != "" {
		query += fmt.Sprintf(" AND contract_id = $%d", argIdx)
		args = append(args, filter.ContractID)
		argIdx++
	}
	if filter.SessionID != "" {
		query += fmt.Sprintf(" AND session_id = $%d", argIdx)
		args = append(args, filter.SessionID)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var contractID, sessionID, actor sql.NullString
		err := rows.Scan(
			&e.ID, &e.EventType, &e.UserID, &contractID, &sessionID,
			&actor, &e.Details, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.ContractID = contractID.String
		e.SessionID = sessionID.String
		e.Actor = actor.String
		events = append(events, e)
	}

	return events, nil
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	UserID     string
	ContractID string
	SessionID  string
	EventType  AuditEventType
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
