package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Queueing
	UseMemoryQueue   bool
	WorkerCount      int
	AnalysisQueueURL string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Stores
	ContractsTable  string
	SessionsTable   string
	ApprovalsTable  string
	DocumentsBucket string
	DatabaseURL     string

	// LLM
	BedrockModelID     string
	GeminiAPIKey       string
	GeminiModelID      string
	LLMTimeout         time.Duration
	LLMMaxAttempts     int
	LLMRetryBaseDelay  time.Duration
	ClauseConcurrency  int
	ExtractionTimeout  time.Duration
	ExtractionInterval time.Duration

	// Knowledge corpus
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Negotiation
	AdvanceThreshold float64
	MaxRounds        int

	// Approvals
	ApprovalFromEmail     string
	ApprovalFromName      string
	ApprovalReviewerEmail string
	SendGridAPIKey        string

	// Auth
	APIJWTSecret string

	// HTTP
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		UseMemoryQueue:   getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 2),
		AnalysisQueueURL: getEnv("ANALYSIS_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ContractsTable:  getEnv("CONTRACTS_TABLE", "contractguard_contracts"),
		SessionsTable:   getEnv("SESSIONS_TABLE", "contractguard_sessions"),
		ApprovalsTable:  getEnv("APPROVALS_TABLE", "contractguard_approvals"),
		DocumentsBucket: getEnv("DOCUMENTS_BUCKET", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),

		BedrockModelID:     getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:      getEnv("GEMINI_MODEL_ID", ""),
		LLMTimeout:         getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		LLMMaxAttempts:     getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
		LLMRetryBaseDelay:  getEnvAsDuration("LLM_RETRY_BASE_DELAY", 2*time.Second),
		ClauseConcurrency:  getEnvAsInt("CLAUSE_CONCURRENCY", 4),
		ExtractionTimeout:  getEnvAsDuration("EXTRACTION_TIMEOUT", 5*time.Minute),
		ExtractionInterval: getEnvAsDuration("EXTRACTION_POLL_INTERVAL", 5*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdvanceThreshold: getEnvAsFloat("NEGOTIATION_ADVANCE_THRESHOLD", 0.5),
		MaxRounds:        getEnvAsInt("NEGOTIATION_MAX_ROUNDS", 3),

		ApprovalFromEmail:     getEnv("APPROVAL_FROM_EMAIL", ""),
		ApprovalFromName:      getEnv("APPROVAL_FROM_NAME", "ContractGuard"),
		ApprovalReviewerEmail: getEnv("APPROVAL_REVIEWER_EMAIL", ""),
		SendGridAPIKey:        getEnv("SENDGRID_API_KEY", ""),

		APIJWTSecret: getEnv("API_JWT_SECRET", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
