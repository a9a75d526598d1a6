package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/contractguard/contractguard/cmd/mainconfig"
	appbootstrap "github.com/contractguard/contractguard/internal/app/bootstrap"
	appconfig "github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/pkg/logging"
)

// ToolRequest is the direct-invocation event shape. Tool selects the
// operation; the remaining fields are its arguments.
type ToolRequest struct {
	Tool string `json:"tool"`

	UserID     string `json:"user_id,omitempty"`
	ContractID string `json:"contract_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`

	// submit_contract
	Title       string               `json:"title,omitempty"`
	Text        string               `json:"text,omitempty"`
	UserContext contract.UserContext `json:"user_context,omitempty"`

	// plan_negotiation
	Priorities        negotiation.Priorities `json:"priorities,omitempty"`
	CounterpartyEmail string                 `json:"counterparty_email,omitempty"`
	Tone              string                 `json:"tone,omitempty"`

	// process_response
	ResponseText string `json:"response_text,omitempty"`
}

// ToolResponse wraps every result so callers can branch on ok without
// inspecting provider-specific error types.
type ToolResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

type pipelineAPI interface {
	SubmitContract(ctx context.Context, in pipeline.SubmitInput) (*contract.Contract, error)
	GetContract(ctx context.Context, contractID, userID string) (*contract.Contract, error)
	AnalyzeContract(ctx context.Context, contractID string) (*contract.Contract, error)
	PlanNegotiation(ctx context.Context, in pipeline.PlanInput) (*negotiation.Session, error)
	GetSession(ctx context.Context, sessionID, userID string) (*negotiation.Session, error)
	ProcessCounterpartyResponse(ctx context.Context, sessionID, responseText string) (negotiation.ResponseOutcome, error)
}

type handler struct {
	pipeline pipelineAPI
	logger   *logging.Logger
}

func (h *handler) handle(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	var (
		result any
		err    error
	)
	switch strings.TrimSpace(req.Tool) {
	case "submit_contract":
		result, err = h.pipeline.SubmitContract(ctx, pipeline.SubmitInput{
			UserID:      req.UserID,
			Title:       req.Title,
			ContentType: "text/plain",
			Data:        []byte(req.Text),
			UserContext: req.UserContext,
		})
	case "get_contract":
		result, err = h.pipeline.GetContract(ctx, req.ContractID, req.UserID)
	case "analyze_contract":
		result, err = h.pipeline.AnalyzeContract(ctx, req.ContractID)
	case "plan_negotiation":
		result, err = h.pipeline.PlanNegotiation(ctx, pipeline.PlanInput{
			ContractID:        req.ContractID,
			UserID:            req.UserID,
			Priorities:        req.Priorities,
			CounterpartyEmail: req.CounterpartyEmail,
			Tone:              req.Tone,
		})
	case "get_session":
		result, err = h.pipeline.GetSession(ctx, req.SessionID, req.UserID)
	case "process_response":
		result, err = h.pipeline.ProcessCounterpartyResponse(ctx, req.SessionID, req.ResponseText)
	default:
		return ToolResponse{OK: false, Error: fmt.Sprintf("unknown tool %q", req.Tool)}, nil
	}

	if err != nil {
		h.logger.Error("tool invocation failed", "tool", req.Tool, "error", err)
		return ToolResponse{OK: false, Error: err.Error()}, nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return ToolResponse{OK: false, Error: "failed to encode result"}, nil
	}
	return ToolResponse{OK: true, Result: raw}, nil
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		panic(err)
	}

	db, err := appbootstrap.BuildSQLDB(ctx, cfg)
	if err != nil {
		logger.Warn("database unavailable; audit trail disabled", "error", err)
	}

	q := appbootstrap.BuildQueue(awsCfg, cfg, logger)
	svcs, err := appbootstrap.BuildServices(ctx, awsCfg, cfg, db, q, logger)
	if err != nil {
		panic(err)
	}

	h := &handler{pipeline: svcs.Pipeline, logger: logger.Named("tools-lambda")}
	lambda.Start(h.handle)
}
