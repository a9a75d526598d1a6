package negotiation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/contractguard/contractguard/pkg/logging"
)

// ErrSessionNotFound indicates the requested session ID does not exist.
var ErrSessionNotFound = errors.New("negotiation: session not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// SessionStore persists negotiation sessions to DynamoDB. Mutations are
// guarded by a conditional check on the stored round number, which serializes
// concurrent writers per session: the logical per-session mutex.
type SessionStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

func NewSessionStore(client dynamoAPI, tableName string, logger *logging.Logger) *SessionStore {
	if client == nil {
		panic("negotiation: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("negotiation: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionStore{client: client, tableName: tableName, logger: logger}
}

// CreateSession inserts a new session. Fails if the ID already exists.
func (s *SessionStore) CreateSession(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("negotiation: session cannot be nil")
	}
	if session.ID == "" {
		return errors.New("negotiation: session ID required")
	}
	now := time.Now().UTC()
	if session.Status == "" {
		session.Status = SessionPending
	}
	session.CreatedAt = now
	session.UpdatedAt = now

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		return fmt.Errorf("negotiation: failed to marshal session: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(sessionId)"),
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return fmt.Errorf("negotiation: session %s already exists: %w", session.ID, ErrStateConflict)
		}
		return fmt.Errorf("negotiation: failed to persist session: %w", err)
	}
	return nil
}

// GetSession fetches a session by ID.
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("negotiation: session ID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"sessionId": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("negotiation: failed to fetch session: %w", err)
	}
	if out.Item == nil {
		return nil, ErrSessionNotFound
	}

	var session Session
	if err := attributevalue.UnmarshalMap(out.Item, &session); err != nil {
		return nil, fmt.Errorf("negotiation: failed to decode session: %w", err)
	}
	return &session, nil
}

// SaveSession writes back a mutated session. expectedRound is the round
// number the caller read before mutating; a mismatch means another writer got
// there first and surfaces as ErrStateConflict.
func (s *SessionStore) SaveSession(ctx context.Context, session *Session, expectedRound int) error {
	if session == nil {
		return errors.New("negotiation: session cannot be nil")
	}
	session.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		return fmt.Errorf("negotiation: failed to marshal session: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(sessionId) AND currentRound = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedRound)},
		},
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return fmt.Errorf("negotiation: session %s was modified concurrently: %w", session.ID, ErrStateConflict)
		}
		return fmt.Errorf("negotiation: failed to update session %s: %w", session.ID, err)
	}
	return nil
}

// AppendRound attaches the round in memory and persists the session with the
// pre-append round number as the conditional guard.
func (s *SessionStore) AppendRound(ctx context.Context, session *Session, round Round) error {
	if session == nil {
		return errors.New("negotiation: session cannot be nil")
	}
	expected := session.CurrentRound
	if err := session.AppendRound(round); err != nil {
		return err
	}
	return s.SaveSession(ctx, session, expected)
}

func isConditionalCheckFailure(err error) bool {
	var cond *types.ConditionalCheckFailedException
	return errors.As(err, &cond)
}
