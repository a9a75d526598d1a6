// Package approval implements the human approval gate: every outbound
// negotiation draft is stored as a pending approval and a reviewer is
// notified. Nothing is sent to a counterparty without an explicit approval.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/pkg/logging"
	"github.com/google/uuid"
)

// ErrApprovalNotFound indicates the requested approval ID does not exist.
var ErrApprovalNotFound = errors.New("approval: approval not found")

// ErrAlreadyDecided indicates the approval was already approved or rejected.
var ErrAlreadyDecided = errors.New("approval: already decided")

// Status of a pending approval.
type Status string

const (
	StatusPending  Status = "PENDING_APPROVAL"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Approval is one outbound draft awaiting a human decision.
type Approval struct {
	ID         string                  `dynamodbav:"approvalId" json:"approval_id"`
	UserID     string                  `dynamodbav:"userId" json:"user_id"`
	ContractID string                  `dynamodbav:"contractId" json:"contract_id"`
	SessionID  string                  `dynamodbav:"sessionId" json:"session_id"`
	Recipient  string                  `dynamodbav:"recipient" json:"recipient"`
	Draft      negotiation.EmailDraft  `dynamodbav:"draft" json:"email_draft"`
	Status     Status                  `dynamodbav:"status" json:"status"`
	DecidedBy  string                  `dynamodbav:"decidedBy,omitempty" json:"decided_by,omitempty"`
	Reason     string                  `dynamodbav:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time               `dynamodbav:"createdAt" json:"created_at"`
	DecidedAt  *time.Time              `dynamodbav:"decidedAt,omitempty" json:"decided_at,omitempty"`
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store persists pending approvals to DynamoDB.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("approval: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("approval: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, tableName: tableName, logger: logger}
}

// Put inserts a new pending approval.
func (s *Store) Put(ctx context.Context, a *Approval) error {
	if a == nil {
		return errors.New("approval: approval cannot be nil")
	}
	if a.ID == "" {
		a.ID = "approval-" + uuid.NewString()
	}
	a.Status = StatusPending
	a.CreatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("approval: failed to marshal approval: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(approvalId)"),
	})
	if err != nil {
		return fmt.Errorf("approval: failed to persist approval: %w", err)
	}
	return nil
}

// Get fetches an approval by ID.
func (s *Store) Get(ctx context.Context, approvalID string) (*Approval, error) {
	if approvalID == "" {
		return nil, errors.New("approval: approval ID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"approvalId": &types.AttributeValueMemberS{Value: approvalID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("approval: failed to fetch approval: %w", err)
	}
	if out.Item == nil {
		return nil, ErrApprovalNotFound
	}
	var a Approval
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("approval: failed to decode approval: %w", err)
	}
	return &a, nil
}

// Decide records an approve/reject decision. The conditional write guarantees
// a decision is recorded at most once.
func (s *Store) Decide(ctx context.Context, approvalID string, status Status, decidedBy, reason string) error {
	if approvalID == "" {
		return errors.New("approval: approval ID required")
	}
	if status != StatusApproved && status != StatusRejected {
		return fmt.Errorf("approval: invalid decision %q", status)
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"approvalId": &types.AttributeValueMemberS{Value: approvalID},
		},
		UpdateExpression: aws.String("SET #status = :status, decidedBy = :by, reason = :reason, decidedAt = :at"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":by":      &types.AttributeValueMemberS{Value: decidedBy},
			":reason":  &types.AttributeValueMemberS{Value: reason},
			":at":      &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
			":pending": &types.AttributeValueMemberS{Value: string(StatusPending)},
		},
		ConditionExpression: aws.String("attribute_exists(approvalId) AND #status = :pending"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrAlreadyDecided
		}
		return fmt.Errorf("approval: failed to record decision on %s: %w", approvalID, err)
	}
	return nil
}
