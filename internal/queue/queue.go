// Package queue provides the analysis job queue and its SQS and in-memory backends.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Client is the transport the analysis worker consumes jobs from.
type Client interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is a single queued job envelope.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// JobType identifies the kind of queued work.
type JobType string

const (
	// JobTypeAnalyze runs the full contract analysis pipeline.
	JobTypeAnalyze JobType = "analyze"
	// JobTypeProcessResponse classifies a counterparty reply against an open round.
	JobTypeProcessResponse JobType = "process_response"
)

// JobPayload is the wire format for queued pipeline work.
type JobPayload struct {
	ID           string  `json:"id"`
	Kind         JobType `json:"kind"`
	ContractID   string  `json:"contract_id,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
	SessionID    string  `json:"session_id,omitempty"`
	ResponseText string  `json:"response_text,omitempty"`
}

// EncodeJob assigns a job ID when missing and serializes the payload.
func EncodeJob(payload JobPayload) (JobPayload, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return JobPayload{}, "", fmt.Errorf("queue: failed to encode payload: %w", err)
	}

	return payload, string(body), nil
}

// DecodeJob parses a queued message body back into a payload.
func DecodeJob(body string) (JobPayload, error) {
	var payload JobPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return JobPayload{}, fmt.Errorf("queue: failed to decode payload: %w", err)
	}
	return payload, nil
}
