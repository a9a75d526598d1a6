package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/pkg/logging"
)

type fakeContractService struct {
	submitted   *pipeline.SubmitInput
	contracts   map[string]*contract.Contract
	analyzeErr  error
	analyzedIDs []string
}

func (f *fakeContractService) SubmitContract(_ context.Context, in pipeline.SubmitInput) (*contract.Contract, error) {
	f.submitted = &in
	return &contract.Contract{ID: "contract-1", UserID: in.UserID, Title: in.Title, Status: contract.StatusPending}, nil
}

func (f *fakeContractService) GetContract(_ context.Context, contractID, userID string) (*contract.Contract, error) {
	c, ok := f.contracts[contractID]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	if userID != "" && c.UserID != userID {
		return nil, pipeline.ErrAccessDenied
	}
	return c, nil
}

func (f *fakeContractService) ListContracts(_ context.Context, userID string, status contract.Status) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range f.contracts {
		if c.UserID != userID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeContractService) AnalyzeContract(_ context.Context, contractID string) (*contract.Contract, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	f.analyzedIDs = append(f.analyzedIDs, contractID)
	c := f.contracts[contractID]
	c.Status = contract.StatusReviewed
	return c, nil
}

func newContractsRouter(svc *fakeContractService) http.Handler {
	h := NewContractsHandler(svc, logging.New("error"))
	r := chi.NewRouter()
	r.Post("/contracts", h.Submit)
	r.Get("/contracts", h.List)
	r.Get("/contracts/{contractID}", h.Get)
	r.Post("/contracts/{contractID}/analyze", h.Analyze)
	return r
}

func TestSubmitContractJSON(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{}}
	router := newContractsRouter(svc)

	body := `{"title":"MSA with Acme","text":"1. Fees. Payment due in 30 days.","user_context":{"industry":"SaaS"}}`
	req := authed(httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(body)), "user-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
	}
	if svc.submitted == nil {
		t.Fatalf("expected submission to reach the service")
	}
	if svc.submitted.UserID != "user-1" {
		t.Fatalf("unexpected user ID %q", svc.submitted.UserID)
	}
	if svc.submitted.Title != "MSA with Acme" {
		t.Fatalf("unexpected title %q", svc.submitted.Title)
	}
	if string(svc.submitted.Data) != "1. Fees. Payment due in 30 days." {
		t.Fatalf("unexpected contract text %q", svc.submitted.Data)
	}
	if svc.submitted.UserContext.Industry != "SaaS" {
		t.Fatalf("unexpected industry %q", svc.submitted.UserContext.Industry)
	}
}

func TestSubmitContractMultipart(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{}}
	router := newContractsRouter(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "msa.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake contract bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.WriteField("title", "Vendor MSA"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.WriteField("risk_tolerance", "Low"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := authed(httptest.NewRequest(http.MethodPost, "/contracts", &buf), "user-1")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
	}
	if svc.submitted.Filename != "msa.pdf" {
		t.Fatalf("unexpected filename %q", svc.submitted.Filename)
	}
	if svc.submitted.UserContext.RiskTolerance != "Low" {
		t.Fatalf("unexpected risk tolerance %q", svc.submitted.UserContext.RiskTolerance)
	}
}

func TestSubmitContractRequiresAuth(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{}}
	router := newContractsRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(`{"title":"x","text":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestGetContractNotFound(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{}}
	router := newContractsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/contracts/missing", nil), "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGetContractOwnership(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{
		"contract-1": {ID: "contract-1", UserID: "user-1", Status: contract.StatusReviewed},
	}}
	router := newContractsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/contracts/contract-1", nil), "user-2")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestListContractsFiltersByStatus(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{
		"contract-1": {ID: "contract-1", UserID: "user-1", Status: contract.StatusReviewed},
		"contract-2": {ID: "contract-2", UserID: "user-1", Status: contract.StatusNeedsNegotiation},
		"contract-3": {ID: "contract-3", UserID: "user-2", Status: contract.StatusReviewed},
	}}
	router := newContractsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/contracts?status=needs_negotiation", nil), "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body struct {
		Count     int                 `json:"count"`
		Contracts []contract.Contract `json:"contracts"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 1 {
		t.Fatalf("expected 1 contract, got %d", body.Count)
	}
	if body.Contracts[0].ID != "contract-2" {
		t.Fatalf("unexpected contract %q", body.Contracts[0].ID)
	}
}

func TestAnalyzeContractChecksOwnershipFirst(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{
		"contract-1": {ID: "contract-1", UserID: "user-1", Status: contract.StatusPending},
	}}
	router := newContractsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/contracts/contract-1/analyze", nil), "user-2")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	if len(svc.analyzedIDs) != 0 {
		t.Fatalf("analysis must not run for another user's contract")
	}
}

func TestAnalyzeContract(t *testing.T) {
	svc := &fakeContractService{contracts: map[string]*contract.Contract{
		"contract-1": {ID: "contract-1", UserID: "user-1", Status: contract.StatusPending},
	}}
	router := newContractsRouter(svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/contracts/contract-1/analyze", nil), "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var body contract.Contract
	decodeBody(t, rec, &body)
	if body.Status != contract.StatusReviewed {
		t.Fatalf("unexpected status %q", body.Status)
	}
}
