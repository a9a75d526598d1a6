// Package store persists contracts and their uploaded documents.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/pkg/logging"
)

// ErrContractNotFound indicates the requested contract ID does not exist.
var ErrContractNotFound = errors.New("store: contract not found")

const userIndexName = "userId-index"

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ContractStore persists contract entities to DynamoDB.
type ContractStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

func NewContractStore(client dynamoAPI, tableName string, logger *logging.Logger) *ContractStore {
	if client == nil {
		panic("store: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("store: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ContractStore{client: client, tableName: tableName, logger: logger}
}

// Put inserts a new contract. Fails if the ID already exists.
func (s *ContractStore) Put(ctx context.Context, c *contract.Contract) error {
	if c == nil {
		return errors.New("store: contract cannot be nil")
	}
	if c.ID == "" {
		return errors.New("store: contract ID required")
	}
	now := time.Now().UTC()
	if c.Status == "" {
		c.Status = contract.StatusPending
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("store: failed to marshal contract: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(contractId)"),
	})
	if err != nil {
		return fmt.Errorf("store: failed to persist contract: %w", err)
	}
	return nil
}

// Get fetches a contract by ID.
func (s *ContractStore) Get(ctx context.Context, contractID string) (*contract.Contract, error) {
	if contractID == "" {
		return nil, errors.New("store: contract ID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"contractId": &types.AttributeValueMemberS{Value: contractID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to fetch contract: %w", err)
	}
	if out.Item == nil {
		return nil, ErrContractNotFound
	}
	var c contract.Contract
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("store: failed to decode contract: %w", err)
	}
	return &c, nil
}

// Save writes back a mutated contract.
func (s *ContractStore) Save(ctx context.Context, c *contract.Contract) error {
	if c == nil {
		return errors.New("store: contract cannot be nil")
	}
	c.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("store: failed to marshal contract: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(contractId)"),
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return ErrContractNotFound
		}
		return fmt.Errorf("store: failed to update contract %s: %w", c.ID, err)
	}
	return nil
}

// SetStatus updates only the contract's lifecycle status and message.
func (s *ContractStore) SetStatus(ctx context.Context, contractID string, status contract.Status, message string) error {
	if contractID == "" {
		return errors.New("store: contract ID required")
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"contractId": &types.AttributeValueMemberS{Value: contractID},
		},
		UpdateExpression: aws.String("SET #status = :status, statusMsg = :msg, updatedAt = :updated"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":msg":     &types.AttributeValueMemberS{Value: message},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(contractId)"),
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return ErrContractNotFound
		}
		return fmt.Errorf("store: failed to set status on %s: %w", contractID, err)
	}
	return nil
}

// ListByUser queries the user GSI, optionally filtered by status.
func (s *ContractStore) ListByUser(ctx context.Context, userID string, status contract.Status) ([]contract.Contract, error) {
	if userID == "" {
		return nil, errors.New("store: user ID required")
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(userIndexName),
		KeyConditionExpression: aws.String("userId = :user"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		},
	}
	if status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: string(status)}
	}

	var contracts []contract.Contract
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("store: failed to list contracts for user %s: %w", userID, err)
		}
		var page []contract.Contract
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("store: failed to decode contracts: %w", err)
		}
		contracts = append(contracts, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return contracts, nil
}

func isConditionalCheckFailure(err error) bool {
	var cond *types.ConditionalCheckFailedException
	return errors.As(err, &cond)
}
