package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/pkg/logging"
)

type stubPipeline struct {
	analyzeErr error
	lastTool   string
}

func (s *stubPipeline) SubmitContract(_ context.Context, in pipeline.SubmitInput) (*contract.Contract, error) {
	s.lastTool = "submit"
	return &contract.Contract{ID: "contract-1", UserID: in.UserID, Title: in.Title}, nil
}

func (s *stubPipeline) GetContract(context.Context, string, string) (*contract.Contract, error) {
	s.lastTool = "get"
	return &contract.Contract{ID: "contract-1"}, nil
}

func (s *stubPipeline) AnalyzeContract(_ context.Context, contractID string) (*contract.Contract, error) {
	s.lastTool = "analyze"
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return &contract.Contract{ID: contractID, Status: contract.StatusReviewed}, nil
}

func (s *stubPipeline) PlanNegotiation(_ context.Context, in pipeline.PlanInput) (*negotiation.Session, error) {
	s.lastTool = "plan"
	return &negotiation.Session{ID: "session-1", ContractID: in.ContractID}, nil
}

func (s *stubPipeline) GetSession(context.Context, string, string) (*negotiation.Session, error) {
	s.lastTool = "get_session"
	return &negotiation.Session{ID: "session-1"}, nil
}

func (s *stubPipeline) ProcessCounterpartyResponse(context.Context, string, string) (negotiation.ResponseOutcome, error) {
	s.lastTool = "process"
	return negotiation.ResponseOutcome{NextAction: negotiation.NextActionAdvance}, nil
}

func newTestHandler(stub *stubPipeline) *handler {
	return &handler{pipeline: stub, logger: logging.New("error")}
}

func TestHandleAnalyzeContract(t *testing.T) {
	stub := &stubPipeline{}
	h := newTestHandler(stub)

	resp, err := h.handle(context.Background(), ToolRequest{Tool: "analyze_contract", ContractID: "contract-1"})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok response, got error %q", resp.Error)
	}
	if stub.lastTool != "analyze" {
		t.Fatalf("expected analyze dispatch, got %q", stub.lastTool)
	}
	var c contract.Contract
	if err := json.Unmarshal(resp.Result, &c); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if c.Status != contract.StatusReviewed {
		t.Fatalf("unexpected status %q", c.Status)
	}
}

func TestHandleSubmitContract(t *testing.T) {
	stub := &stubPipeline{}
	h := newTestHandler(stub)

	resp, err := h.handle(context.Background(), ToolRequest{
		Tool:   "submit_contract",
		UserID: "user-1",
		Title:  "Vendor MSA",
		Text:   "1. Fees. Payment due in 30 days.",
	})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok response, got error %q", resp.Error)
	}
	if stub.lastTool != "submit" {
		t.Fatalf("expected submit dispatch, got %q", stub.lastTool)
	}
}

func TestHandleUnknownTool(t *testing.T) {
	h := newTestHandler(&stubPipeline{})

	resp, err := h.handle(context.Background(), ToolRequest{Tool: "mystery"})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if resp.OK {
		t.Fatalf("expected error response for unknown tool")
	}
	if resp.Error == "" {
		t.Fatalf("expected error message")
	}
}

func TestHandleToolFailure(t *testing.T) {
	stub := &stubPipeline{analyzeErr: errors.New("extraction failed")}
	h := newTestHandler(stub)

	resp, err := h.handle(context.Background(), ToolRequest{Tool: "analyze_contract", ContractID: "contract-1"})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if resp.OK {
		t.Fatalf("expected failed response")
	}
	if resp.Error != "extraction failed" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}
