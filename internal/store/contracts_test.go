package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDynamo struct {
	putInput    *dynamodb.PutItemInput
	putErr      error
	getOutput   *dynamodb.GetItemOutput
	getErr      error
	updateInput *dynamodb.UpdateItemInput
	updateErr   error
	queryOutput []*dynamodb.QueryOutput
	queryCalls  int
	queryErr    error
}

func (m *mockDynamo) PutItem(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = input
	if m.putErr != nil {
		return nil, m.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOutput != nil {
		return m.getOutput, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(_ context.Context, input *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInput = input
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDynamo) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	out := m.queryOutput[m.queryCalls]
	m.queryCalls++
	return out, nil
}

func TestPutSetsLifecycleDefaults(t *testing.T) {
	client := &mockDynamo{}
	cs := NewContractStore(client, "contracts", logging.Default())

	c := &contract.Contract{ID: "contract-1", UserID: "user-1", S3Bucket: "b", S3Key: "k"}
	require.NoError(t, cs.Put(context.Background(), c))

	assert.Equal(t, contract.StatusPending, c.Status)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, "attribute_not_exists(contractId)", *client.putInput.ConditionExpression)
}

func TestGetNotFound(t *testing.T) {
	cs := NewContractStore(&mockDynamo{}, "contracts", logging.Default())

	_, err := cs.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrContractNotFound)
}

func TestGetRoundTrip(t *testing.T) {
	stored := contract.Contract{ID: "contract-1", UserID: "user-1", Status: contract.StatusReviewed}
	item, err := attributevalue.MarshalMap(stored)
	require.NoError(t, err)

	cs := NewContractStore(&mockDynamo{getOutput: &dynamodb.GetItemOutput{Item: item}}, "contracts", logging.Default())

	got, err := cs.Get(context.Background(), "contract-1")
	require.NoError(t, err)
	assert.Equal(t, contract.StatusReviewed, got.Status)
	assert.Equal(t, "user-1", got.UserID)
}

func TestSaveMissingContractIsNotFound(t *testing.T) {
	client := &mockDynamo{putErr: &types.ConditionalCheckFailedException{}}
	cs := NewContractStore(client, "contracts", logging.Default())

	err := cs.Save(context.Background(), &contract.Contract{ID: "contract-1"})
	require.ErrorIs(t, err, ErrContractNotFound)
}

func TestSetStatusBuildsUpdate(t *testing.T) {
	client := &mockDynamo{}
	cs := NewContractStore(client, "contracts", logging.Default())

	require.NoError(t, cs.SetStatus(context.Background(), "contract-1", contract.StatusAnalyzing, "analysis started"))

	require.NotNil(t, client.updateInput)
	status := client.updateInput.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS)
	assert.Equal(t, string(contract.StatusAnalyzing), status.Value)
}

func TestListByUserPaginatesAndFilters(t *testing.T) {
	first, err := attributevalue.MarshalMap(contract.Contract{ID: "c1", UserID: "user-1"})
	require.NoError(t, err)
	second, err := attributevalue.MarshalMap(contract.Contract{ID: "c2", UserID: "user-1"})
	require.NoError(t, err)

	client := &mockDynamo{queryOutput: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{first},
			LastEvaluatedKey: map[string]types.AttributeValue{"contractId": &types.AttributeValueMemberS{Value: "c1"}},
		},
		{Items: []map[string]types.AttributeValue{second}},
	}}
	cs := NewContractStore(client, "contracts", logging.Default())

	got, err := cs.ListByUser(context.Background(), "user-1", contract.StatusReviewed)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "c2", got[1].ID)
	assert.Equal(t, 2, client.queryCalls)
}

func TestListByUserError(t *testing.T) {
	client := &mockDynamo{queryErr: errors.New("throttled")}
	cs := NewContractStore(client, "contracts", logging.Default())

	_, err := cs.ListByUser(context.Background(), "user-1", "")
	require.Error(t, err)
}
