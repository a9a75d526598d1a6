package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/contractguard/contractguard/internal/contract"
	httpmiddleware "github.com/contractguard/contractguard/internal/http/middleware"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/pkg/logging"
)

// maxUploadBytes caps contract uploads at 10 MB.
const maxUploadBytes = 10 << 20

type contractService interface {
	SubmitContract(ctx context.Context, in pipeline.SubmitInput) (*contract.Contract, error)
	GetContract(ctx context.Context, contractID, userID string) (*contract.Contract, error)
	ListContracts(ctx context.Context, userID string, status contract.Status) ([]contract.Contract, error)
	AnalyzeContract(ctx context.Context, contractID string) (*contract.Contract, error)
}

// ContractsHandler exposes contract upload, retrieval, and analysis endpoints.
type ContractsHandler struct {
	service contractService
	logger  *logging.Logger
}

// NewContractsHandler creates the contracts handler.
func NewContractsHandler(service contractService, logger *logging.Logger) *ContractsHandler {
	if service == nil {
		panic("handlers: contract service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ContractsHandler{service: service, logger: logger}
}

type submitContractJSON struct {
	Title       string               `json:"title"`
	Text        string               `json:"text"`
	UserContext contract.UserContext `json:"user_context"`
}

// Submit accepts a contract either as a multipart upload (field "file") or as
// a JSON body carrying the contract text directly.
// POST /contracts
func (h *ContractsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	if userID == "" {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	in := pipeline.SubmitInput{UserID: userID}
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			jsonError(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read upload", http.StatusBadRequest)
			return
		}
		if len(data) > maxUploadBytes {
			jsonError(w, "upload exceeds 10MB limit", http.StatusRequestEntityTooLarge)
			return
		}
		in.Data = data
		in.Filename = header.Filename
		in.ContentType = header.Header.Get("Content-Type")
		in.Title = r.FormValue("title")
		in.UserContext = contract.UserContext{
			Industry:      r.FormValue("industry"),
			CompanySize:   r.FormValue("company_size"),
			RiskTolerance: r.FormValue("risk_tolerance"),
			Jurisdiction:  r.FormValue("jurisdiction"),
		}
	default:
		var payload submitContractJSON
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&payload); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		in.Data = []byte(payload.Text)
		in.Title = payload.Title
		in.ContentType = "text/plain"
		in.UserContext = payload.UserContext
	}

	c, err := h.service.SubmitContract(r.Context(), in)
	if err != nil {
		h.logger.Error("contract submission failed", "user_id", userID, "error", err)
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, c)
}

// Get returns one contract owned by the caller.
// GET /contracts/{contractID}
func (h *ContractsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	contractID := chi.URLParam(r, "contractID")
	if contractID == "" {
		jsonError(w, "missing contractID", http.StatusBadRequest)
		return
	}
	c, err := h.service.GetContract(r.Context(), contractID, userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// List returns the caller's contracts, optionally filtered by status.
// GET /contracts?status=NEEDS_NEGOTIATION
func (h *ContractsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	if userID == "" {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	status := contract.Status(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	contracts, err := h.service.ListContracts(r.Context(), userID, status)
	if err != nil {
		h.logger.Error("contract listing failed", "user_id", userID, "error", err)
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contracts": contracts,
		"count":     len(contracts),
	})
}

// Analyze runs the risk analysis synchronously and returns the scored
// contract. Queue-based submission is the normal path; this endpoint exists
// for reruns and for deployments without a worker.
// POST /contracts/{contractID}/analyze
func (h *ContractsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID := httpmiddleware.UserIDFromContext(r.Context())
	contractID := chi.URLParam(r, "contractID")
	if contractID == "" {
		jsonError(w, "missing contractID", http.StatusBadRequest)
		return
	}
	// Ownership check before the expensive analysis.
	if _, err := h.service.GetContract(r.Context(), contractID, userID); err != nil {
		serviceError(w, err)
		return
	}
	c, err := h.service.AnalyzeContract(r.Context(), contractID)
	if err != nil {
		h.logger.Error("contract analysis failed", "contract_id", contractID, "error", err)
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
