package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func mustNewDynamoStore(t *testing.T, db *fakeDynamo) *DynamoStore {
	t.Helper()
	d, err := NewDynamoStore(db, "orders-table")
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestNewDynamoStore_Validates(t *testing.T) {
	_, err := NewDynamoStore(nil, "t")
	require.Error(t, err)

	_, err = NewDynamoStore(&fakeDynamo{}, "")
	require.Error(t, err)
}

func TestDynamoStore_GetHappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":   &types.AttributeValueMemberS{Value: "orders/o-1.json"},
		"body": &types.AttributeValueMemberS{Value: `{"order_id":"o-1"}`},
	}}}
	d := mustNewDynamoStore(t, db)

	body, err := d.Get(context.Background(), "orders/o-1.json")
	require.NoError(t, err)
	require.Equal(t, `{"order_id":"o-1"}`, string(body))
	require.True(t, *db.lastGetInput.ConsistentRead)
	require.Equal(t, "orders-table", *db.lastGetInput.TableName)
}

func TestDynamoStore_GetMissingItem(t *testing.T) {
	d := mustNewDynamoStore(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	_, err := d.Get(context.Background(), "orders/o-1.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStore_GetMalformedItem(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":   &types.AttributeValueMemberS{Value: "orders/o-1.json"},
		"body": &types.AttributeValueMemberN{Value: "1"},
	}}}
	d := mustNewDynamoStore(t, db)
	_, err := d.Get(context.Background(), "orders/o-1.json")
	require.ErrorContains(t, err, "not a string")
}

func TestDynamoStore_GetError(t *testing.T) {
	d := mustNewDynamoStore(t, &fakeDynamo{getErr: errors.New("throttled")})
	_, err := d.Get(context.Background(), "orders/o-1.json")
	require.ErrorContains(t, err, "throttled")
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestDynamoStore_Put(t *testing.T) {
	db := &fakeDynamo{}
	d := mustNewDynamoStore(t, db)

	require.NoError(t, d.Put(context.Background(), "orders/o-1.json", []byte(`{"x":1}`)))
	item := db.lastPutInput.Item
	require.Equal(t, "orders/o-1.json", item["PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, `{"x":1}`, item["body"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "2025-03-01T12:00:00Z", item["updatedAt"].(*types.AttributeValueMemberS).Value)
	require.Nil(t, db.lastPutInput.ConditionExpression)
}
