package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// PutItemAPI is the DynamoDB call the ledger needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// dynamoItem is the stored document: the shipment with procurements nested
// as a list.
type dynamoItem struct {
	shipment.Shipment
	CreatedAt string `dynamodbav:"created_at"`
}

// DynamoLedger writes each shipment as one item keyed by shipment_id.
type DynamoLedger struct {
	client PutItemAPI
	table  string
	clock  clock.Clock
	logger *zap.Logger
}

func NewDynamoLedger(client PutItemAPI, table string, logger *zap.Logger, clk clock.Clock) *DynamoLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &DynamoLedger{client: client, table: table, clock: clk, logger: logger.Named("storage.dynamodb")}
}

// NewDynamoLedgerFromConfig builds a client from the default AWS credential
// chain.
func NewDynamoLedgerFromConfig(ctx context.Context, cfg config.DynamoDBConfig, logger *zap.Logger, clk clock.Clock) (*DynamoLedger, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewDynamoLedger(client, cfg.Table, logger, clk), nil
}

func (d *DynamoLedger) Append(ctx context.Context, s shipment.Shipment) error {
	if err := checkID(s); err != nil {
		return d.fail("append", err)
	}

	item, err := attributevalue.MarshalMap(dynamoItem{Shipment: s, CreatedAt: clock.FormatRFC3339Nano(d.clock.Now())})
	if err != nil {
		return d.fail("marshal", err)
	}

	cond := expression.AttributeNotExists(expression.Name(idColumn))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return d.fail("build expression", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(d.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var cause *types.ConditionalCheckFailedException
		if errors.As(err, &cause) {
			return d.fail("put", fmt.Errorf("%s: %w", s.ID, ErrDuplicate))
		}
		return d.fail("put", err)
	}

	d.logger.Info("shipment stored", zap.String("shipment_id", s.ID), zap.String("table", d.table))
	return nil
}

func (d *DynamoLedger) fail(op string, err error) error {
	return &Error{Backend: "dynamodb", Op: op, Err: err}
}
