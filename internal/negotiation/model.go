// Package negotiation plans multi-round contract negotiations and tracks
// session state as counterparty responses arrive.
package negotiation

import (
	"errors"
	"fmt"
	"time"

	"github.com/contractguard/contractguard/internal/contract"
)

// ErrStateConflict indicates a round-ordering violation: planning or
// advancing while the current round is still awaiting a response, or
// appending a round whose number is not exactly current+1.
var ErrStateConflict = errors.New("negotiation: session round state conflict")

// SessionStatus is the lifecycle state of a negotiation session.
type SessionStatus string

const (
	SessionPending          SessionStatus = "PENDING"
	SessionInProgress       SessionStatus = "IN_PROGRESS"
	SessionAwaitingResponse SessionStatus = "AWAITING_RESPONSE"
	SessionCompleted        SessionStatus = "COMPLETED"
	SessionAccepted         SessionStatus = "ACCEPTED"
	SessionRejected         SessionStatus = "REJECTED"
	SessionStalled          SessionStatus = "STALLED"
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionAccepted, SessionRejected, SessionStalled:
		return true
	}
	return false
}

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionPending:          {SessionInProgress},
	SessionInProgress:       {SessionAwaitingResponse},
	SessionAwaitingResponse: {SessionInProgress, SessionCompleted, SessionAccepted, SessionRejected, SessionStalled},
	SessionCompleted:        {SessionAccepted, SessionRejected, SessionStalled},
}

// RequestStatus is the per-request resolution state. Transitions are one-way:
// a resolved request never returns to PENDING.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestAccepted  RequestStatus = "ACCEPTED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCountered RequestStatus = "COUNTERED"
	RequestWithdrawn RequestStatus = "WITHDRAWN"
)

// Resolved reports whether the request has left PENDING.
func (s RequestStatus) Resolved() bool { return s != RequestPending && s != "" }

// Request is a single proposed contract change within a round.
type Request struct {
	ID                   string              `dynamodbav:"requestId" json:"request_id"`
	ClauseID             string              `dynamodbav:"clauseId" json:"clause_id"`
	ClauseType           contract.ClauseType `dynamodbav:"clauseType" json:"clause_type"`
	OriginalText         string              `dynamodbav:"originalText" json:"original_text"`
	ProposedText         string              `dynamodbav:"proposedText" json:"proposed_text"`
	Rationale            string              `dynamodbav:"rationale" json:"rationale"`
	Priority             int                 `dynamodbav:"priority" json:"priority"`
	Status               RequestStatus       `dynamodbav:"status" json:"status"`
	CounterpartyResponse string              `dynamodbav:"counterpartyResponse,omitempty" json:"counterparty_response,omitempty"`
	FinalText            string              `dynamodbav:"finalText,omitempty" json:"final_text,omitempty"`
}

// Resolve applies a one-way status update. Re-applying the same resolution is
// a no-op, and an already-resolved request is never re-resolved to a
// different outcome. Returns true when the status actually changed.
func (r *Request) Resolve(status RequestStatus, counterText string) bool {
	if !status.Resolved() {
		return false
	}
	if r.Status.Resolved() {
		return false
	}
	r.Status = status
	if counterText != "" {
		r.CounterpartyResponse = counterText
	}
	return true
}

// Round is one cycle of proposed changes and the counterparty's response.
// A round is open until its response has been processed.
type Round struct {
	ID        string    `dynamodbav:"roundId" json:"round_id"`
	SessionID string    `dynamodbav:"sessionId" json:"session_id"`
	Number    int       `dynamodbav:"roundNumber" json:"round_number"`
	Requests  []Request `dynamodbav:"requests" json:"requests"`

	Draft     *EmailDraft `dynamodbav:"draft,omitempty" json:"draft,omitempty"`
	DraftSent bool        `dynamodbav:"draftSent" json:"draft_sent"`
	SentAt    *time.Time  `dynamodbav:"sentAt,omitempty" json:"sent_at,omitempty"`

	CounterpartyResponse string     `dynamodbav:"counterpartyResponse,omitempty" json:"counterparty_response,omitempty"`
	ResponseReceivedAt   *time.Time `dynamodbav:"responseReceivedAt,omitempty" json:"response_received_at,omitempty"`

	AcceptedRequests  []string `dynamodbav:"acceptedRequests,omitempty" json:"accepted_requests,omitempty"`
	RejectedRequests  []string `dynamodbav:"rejectedRequests,omitempty" json:"rejected_requests,omitempty"`
	CounteredRequests []string `dynamodbav:"counteredRequests,omitempty" json:"countered_requests,omitempty"`

	NextAction string `dynamodbav:"nextAction,omitempty" json:"next_action,omitempty"`
	Analysis   string `dynamodbav:"analysis,omitempty" json:"analysis,omitempty"`

	CreatedAt   time.Time  `dynamodbav:"createdAt" json:"created_at"`
	CompletedAt *time.Time `dynamodbav:"completedAt,omitempty" json:"completed_at,omitempty"`
}

// Open reports whether the round still awaits a processed response.
func (r *Round) Open() bool { return r.CompletedAt == nil }

// Outstanding returns pointers to the round's unresolved requests.
func (r *Round) Outstanding() []*Request {
	var out []*Request
	for i := range r.Requests {
		if !r.Requests[i].Status.Resolved() {
			out = append(out, &r.Requests[i])
		}
	}
	return out
}

// Session is the complete negotiation history for one contract. Rounds are
// append-only; exactly one session is active per contract at a time.
type Session struct {
	ID                string `dynamodbav:"sessionId" json:"session_id"`
	ContractID        string `dynamodbav:"contractId" json:"contract_id"`
	UserID            string `dynamodbav:"userId" json:"user_id"`
	CounterpartyEmail string `dynamodbav:"counterpartyEmail,omitempty" json:"counterparty_email,omitempty"`

	Strategy Strategy `dynamodbav:"strategy" json:"strategy"`

	Rounds       []Round       `dynamodbav:"rounds" json:"rounds"`
	CurrentRound int           `dynamodbav:"currentRound" json:"current_round"`
	Status       SessionStatus `dynamodbav:"status" json:"status"`

	TotalRequests int     `dynamodbav:"totalRequests" json:"total_requests"`
	AcceptedCount int     `dynamodbav:"acceptedCount" json:"accepted_count"`
	RejectedCount int     `dynamodbav:"rejectedCount" json:"rejected_count"`
	SuccessRate   float64 `dynamodbav:"successRate" json:"success_rate"`

	FinalRecommendation string `dynamodbav:"finalRecommendation,omitempty" json:"final_recommendation,omitempty"`

	CreatedAt   time.Time  `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt   time.Time  `dynamodbav:"updatedAt" json:"updated_at"`
	CompletedAt *time.Time `dynamodbav:"completedAt,omitempty" json:"completed_at,omitempty"`
}

// Transition moves the session to the given status if the move is legal.
func (s *Session) Transition(to SessionStatus) error {
	if s.Status == to {
		return nil
	}
	for _, allowed := range sessionTransitions[s.Status] {
		if allowed == to {
			s.Status = to
			s.UpdatedAt = time.Now().UTC()
			if to.Terminal() || to == SessionCompleted {
				now := time.Now().UTC()
				s.CompletedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("negotiation: illegal transition %s -> %s: %w", s.Status, to, ErrStateConflict)
}

// ActiveRound returns the round currently awaiting a response, or nil.
func (s *Session) ActiveRound() *Round {
	for i := range s.Rounds {
		if s.Rounds[i].Number == s.CurrentRound {
			return &s.Rounds[i]
		}
	}
	return nil
}

// AppendRound attaches the next round. Round numbers must increase by exactly
// one, and a new round may not start while the current one is still open.
func (s *Session) AppendRound(round Round) error {
	if s.Status.Terminal() {
		return fmt.Errorf("negotiation: session %s is terminal: %w", s.ID, ErrStateConflict)
	}
	if round.Number != s.CurrentRound+1 {
		return fmt.Errorf("negotiation: expected round %d, got %d: %w", s.CurrentRound+1, round.Number, ErrStateConflict)
	}
	if active := s.ActiveRound(); active != nil && active.Open() {
		return fmt.Errorf("negotiation: round %d still awaiting response: %w", active.Number, ErrStateConflict)
	}

	if s.Status == SessionPending {
		if err := s.Transition(SessionInProgress); err != nil {
			return err
		}
	} else if s.Status == SessionAwaitingResponse {
		if err := s.Transition(SessionInProgress); err != nil {
			return err
		}
	}

	round.SessionID = s.ID
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}
	s.Rounds = append(s.Rounds, round)
	s.CurrentRound = round.Number
	s.TotalRequests += len(round.Requests)
	return s.Transition(SessionAwaitingResponse)
}

// recount refreshes the aggregate counters from request statuses.
func (s *Session) recount() {
	accepted, rejected := 0, 0
	for i := range s.Rounds {
		for j := range s.Rounds[i].Requests {
			switch s.Rounds[i].Requests[j].Status {
			case RequestAccepted:
				accepted++
			case RequestRejected:
				rejected++
			}
		}
	}
	s.AcceptedCount = accepted
	s.RejectedCount = rejected
	if s.TotalRequests > 0 {
		s.SuccessRate = float64(accepted) / float64(s.TotalRequests)
	}
}
