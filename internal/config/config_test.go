package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "contractguard_contracts", cfg.ContractsTable)
	assert.Equal(t, "contractguard_sessions", cfg.SessionsTable)
	assert.Equal(t, 4, cfg.ClauseConcurrency)
	assert.Equal(t, 0.5, cfg.AdvanceThreshold)
	assert.Equal(t, 3, cfg.MaxRounds)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CLAUSE_CONCURRENCY", "8")
	t.Setenv("NEGOTIATION_ADVANCE_THRESHOLD", "0.75")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("LLM_TIMEOUT", "90s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 8, cfg.ClauseConcurrency)
	assert.Equal(t, 0.75, cfg.AdvanceThreshold)
	assert.True(t, cfg.UseMemoryQueue)
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("NEGOTIATION_ADVANCE_THRESHOLD", "half")

	cfg := Load()

	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 0.5, cfg.AdvanceThreshold)
}
