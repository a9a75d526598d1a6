package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/contractguard/contractguard/internal/approval"
	"github.com/contractguard/contractguard/pkg/logging"
)

type fakeApprovalService struct {
	approvals map[string]*approval.Approval
}

func (f *fakeApprovalService) Get(_ context.Context, approvalID string) (*approval.Approval, error) {
	a, ok := f.approvals[approvalID]
	if !ok {
		return nil, approval.ErrApprovalNotFound
	}
	return a, nil
}

func (f *fakeApprovalService) Approve(_ context.Context, approvalID, decidedBy string) (*approval.Approval, error) {
	a, ok := f.approvals[approvalID]
	if !ok {
		return nil, approval.ErrApprovalNotFound
	}
	if a.Status != approval.StatusPending {
		return nil, approval.ErrAlreadyDecided
	}
	a.Status = approval.StatusApproved
	a.DecidedBy = decidedBy
	return a, nil
}

func (f *fakeApprovalService) Reject(_ context.Context, approvalID, decidedBy, reason string) (*approval.Approval, error) {
	a, ok := f.approvals[approvalID]
	if !ok {
		return nil, approval.ErrApprovalNotFound
	}
	if a.Status != approval.StatusPending {
		return nil, approval.ErrAlreadyDecided
	}
	a.Status = approval.StatusRejected
	a.DecidedBy = decidedBy
	a.Reason = reason
	return a, nil
}

func newApprovalsRouter(svc *fakeApprovalService) http.Handler {
	h := NewApprovalsHandler(svc, svc, logging.New("error"))
	r := chi.NewRouter()
	r.Get("/approvals/{approvalID}", h.Get)
	r.Post("/approvals/{approvalID}/approve", h.Approve)
	r.Post("/approvals/{approvalID}/reject", h.Reject)
	return r
}

func TestApproveDraft(t *testing.T) {
	svc := &fakeApprovalService{approvals: map[string]*approval.Approval{
		"approval-1": {ID: "approval-1", Status: approval.StatusPending},
	}}
	router := newApprovalsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/approvals/approval-1/approve", nil), "reviewer-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var a approval.Approval
	decodeBody(t, rec, &a)
	if a.Status != approval.StatusApproved {
		t.Fatalf("unexpected status %q", a.Status)
	}
	if a.DecidedBy != "reviewer-1" {
		t.Fatalf("unexpected decider %q", a.DecidedBy)
	}
}

func TestApproveTwiceConflicts(t *testing.T) {
	svc := &fakeApprovalService{approvals: map[string]*approval.Approval{
		"approval-1": {ID: "approval-1", Status: approval.StatusApproved},
	}}
	router := newApprovalsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/approvals/approval-1/approve", nil), "reviewer-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	svc := &fakeApprovalService{approvals: map[string]*approval.Approval{
		"approval-1": {ID: "approval-1", Status: approval.StatusPending},
	}}
	router := newApprovalsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/approvals/approval-1/reject", strings.NewReader(`{}`)), "reviewer-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if svc.approvals["approval-1"].Status != approval.StatusPending {
		t.Fatalf("rejection without reason must not change state")
	}
}

func TestRejectDraft(t *testing.T) {
	svc := &fakeApprovalService{approvals: map[string]*approval.Approval{
		"approval-1": {ID: "approval-1", Status: approval.StatusPending},
	}}
	router := newApprovalsRouter(svc)

	body := `{"reason":"tone too aggressive for this counterparty"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/approvals/approval-1/reject", strings.NewReader(body)), "reviewer-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var a approval.Approval
	decodeBody(t, rec, &a)
	if a.Status != approval.StatusRejected {
		t.Fatalf("unexpected status %q", a.Status)
	}
	if a.Reason == "" {
		t.Fatalf("expected rejection reason to be recorded")
	}
}

func TestGetApprovalNotFound(t *testing.T) {
	svc := &fakeApprovalService{approvals: map[string]*approval.Approval{}}
	router := newApprovalsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/approvals/missing", nil), "reviewer-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
