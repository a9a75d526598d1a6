package approval

import (
	"context"
	"fmt"

	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/notify"
	"github.com/contractguard/contractguard/pkg/logging"
)

// Storer is the narrow persistence interface the service needs.
type Storer interface {
	Put(ctx context.Context, a *Approval) error
	Get(ctx context.Context, approvalID string) (*Approval, error)
	Decide(ctx context.Context, approvalID string, status Status, decidedBy, reason string) error
}

// Auditor records approval decisions on the compliance trail.
type Auditor interface {
	LogApprovalDecision(ctx context.Context, userID, contractID, sessionID, approvalID, decidedBy, reason string, approved bool) error
}

// Service stores drafts pending approval and notifies the reviewer.
type Service struct {
	store  Storer
	sender notify.EmailSender
	audit  Auditor
	logger *logging.Logger
}

// NewService builds the approval service. sender and audit may be nil; the
// draft is still stored and surfaced through the API.
func NewService(store Storer, sender notify.EmailSender, audit Auditor, logger *logging.Logger) *Service {
	if store == nil {
		panic("approval: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, sender: sender, audit: audit, logger: logger}
}

// Submit stores the draft as a pending approval and emails the reviewer.
// Notification failures are logged, not returned: the approval is already
// persisted and reachable through the dashboard.
func (s *Service) Submit(ctx context.Context, userID, contractID, sessionID, reviewerEmail string, draft negotiation.EmailDraft) (*Approval, error) {
	a := &Approval{
		UserID:     userID,
		ContractID: contractID,
		SessionID:  sessionID,
		Recipient:  draft.Recipient,
		Draft:      draft,
	}
	if err := s.store.Put(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("draft stored pending approval",
		"approval_id", a.ID, "contract_id", contractID, "recipient", draft.Recipient)

	if s.sender != nil && reviewerEmail != "" {
		msg := notify.EmailMessage{
			To:      reviewerEmail,
			Subject: "ContractGuard: Email Approval Required",
			Body:    reviewBody(a),
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error("reviewer notification failed", "approval_id", a.ID, "error", err)
		}
	}
	return a, nil
}

// Approve marks the approval granted.
func (s *Service) Approve(ctx context.Context, approvalID, decidedBy string) (*Approval, error) {
	if err := s.store.Decide(ctx, approvalID, StatusApproved, decidedBy, ""); err != nil {
		return nil, err
	}
	a, err := s.store.Get(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	s.auditDecision(ctx, a, decidedBy, "", true)
	return a, nil
}

// Reject marks the approval denied with a reason.
func (s *Service) Reject(ctx context.Context, approvalID, decidedBy, reason string) (*Approval, error) {
	if err := s.store.Decide(ctx, approvalID, StatusRejected, decidedBy, reason); err != nil {
		return nil, err
	}
	a, err := s.store.Get(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	s.auditDecision(ctx, a, decidedBy, reason, false)
	return a, nil
}

// auditDecision records the decision on the compliance trail. The decision is
// already persisted, so audit failures are logged rather than returned.
func (s *Service) auditDecision(ctx context.Context, a *Approval, decidedBy, reason string, approved bool) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogApprovalDecision(ctx, a.UserID, a.ContractID, a.SessionID, a.ID, decidedBy, reason, approved); err != nil {
		s.logger.Warn("failed to audit approval decision", "approval_id", a.ID, "error", err)
	}
}

func reviewBody(a *Approval) string {
	preview := a.Draft.Body
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return fmt.Sprintf(`A negotiation email is ready for your review and approval.

Contract ID: %s
Recipient: %s
Approval ID: %s

Please review the email in your ContractGuard dashboard and approve or edit before sending.

---
Preview:
Subject: %s

%s
`, a.ContractID, a.Recipient, a.ID, a.Draft.Subject, preview)
}
