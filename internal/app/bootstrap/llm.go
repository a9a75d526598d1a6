package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/internal/observability/metrics"
	"github.com/contractguard/contractguard/pkg/logging"
)

// BuildLLMClient composes the completion client: Bedrock primary with retry
// on throttling, Gemini as cross-provider fallback when configured. Each
// provider is instrumented so per-provider call counts land on pm.
func BuildLLMClient(ctx context.Context, awsCfg aws.Config, cfg *appconfig.Config, pm *metrics.PipelineMetrics, logger *logging.Logger) (llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var primary llm.Client
	if cfg.BedrockModelID != "" {
		bedrock := llm.NewInstrumentedClient(llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg)), "bedrock", pm)
		primary = llm.NewRetryingClient(bedrock, cfg.LLMMaxAttempts, cfg.LLMRetryBaseDelay)
	}

	var fallback llm.Client
	if cfg.GeminiAPIKey != "" && cfg.GeminiModelID != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			fallback = llm.NewInstrumentedClient(gemini, "gemini", pm)
		}
	}

	switch {
	case primary != nil:
		logger.Info("LLM client ready", "model", cfg.BedrockModelID, "fallback_available", fallback != nil)
		return llm.NewFallbackClient(primary, fallback, logger), nil
	case fallback != nil:
		logger.Info("LLM client ready", "model", cfg.GeminiModelID, "fallback_available", false)
		return fallback, nil
	default:
		return nil, fmt.Errorf("bootstrap: no LLM provider configured, set BEDROCK_MODEL_ID or GEMINI_API_KEY")
	}
}

// ModelID returns the model identifier prompts should be issued against.
func ModelID(cfg *appconfig.Config) string {
	if cfg.BedrockModelID != "" {
		return cfg.BedrockModelID
	}
	return cfg.GeminiModelID
}
