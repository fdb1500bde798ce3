package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

type fakePutItem struct {
	items map[string]map[string]types.AttributeValue
	input *dynamodb.PutItemInput
	err   error
}

func (f *fakePutItem) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	id := params.Item["shipment_id"].(*types.AttributeValueMemberS).Value
	if _, ok := f.items[id]; ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	if f.items == nil {
		f.items = make(map[string]map[string]types.AttributeValue)
	}
	f.items[id] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoLedgerAppend(t *testing.T) {
	ctx := context.Background()
	fake := &fakePutItem{}
	at := time.Date(2024, 11, 7, 9, 0, 0, 0, time.UTC)
	l := NewDynamoLedger(fake, "shipments", nil, clock.Fixed(at))

	s := sample("a", "Мастер Строй", "7000", shipment.Procurement{Supplier: "Евробетон", SupplyCost: "5000"})
	require.NoError(t, l.Append(ctx, s))

	assert.Equal(t, "shipments", aws.ToString(fake.input.TableName))
	require.NotNil(t, fake.input.ConditionExpression)
	assert.Contains(t, *fake.input.ConditionExpression, "attribute_not_exists")
	assert.Contains(t, fake.input.ExpressionAttributeNames, "#0")

	var got dynamoItem
	require.NoError(t, attributevalue.UnmarshalMap(fake.items["a"], &got))
	assert.Equal(t, s, got.Shipment)
	assert.Equal(t, "2024-11-07T09:00:00Z", got.CreatedAt)
}

func TestDynamoLedgerErrors(t *testing.T) {
	ctx := context.Background()
	fake := &fakePutItem{}
	l := NewDynamoLedger(fake, "shipments", nil, nil)

	require.NoError(t, l.Append(ctx, sample("a", "C", "1")))

	err := l.Append(ctx, sample("a", "C", "1"))
	require.ErrorIs(t, err, ErrDuplicate)
	require.ErrorIs(t, err, ErrPersistence)

	require.ErrorIs(t, l.Append(ctx, shipment.Shipment{}), ErrNoID)

	fake.err = errors.New("throttled")
	err = l.Append(ctx, sample("b", "C", "1"))
	require.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrDuplicate)
}
