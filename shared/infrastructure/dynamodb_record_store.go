package infrastructure

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/pkg/errors"
)

var _ RecordStore = (*DynamoDBRecordStore)(nil)

// Attributes added to every item next to the record's own fields.
const (
	dynamoRecordIDAttr     = "recordId"
	dynamoRecordStatusAttr = "recordStatus"
	dynamoRecordedAtAttr   = "recordedAt"
	dynamoOrderIDAttr      = "orderId"
)

// DynamoDBAPI is the subset of the DynamoDB client the store needs
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBRecordStore writes each record as one item in its kind's table.
type DynamoDBRecordStore struct {
	client DynamoDBAPI
	tables Tables
}

func NewDynamoDBRecordStore(client DynamoDBAPI, tables Tables) *DynamoDBRecordStore {
	return &DynamoDBRecordStore{client: client, tables: tables}
}

func NewDynamoDBRecordStoreFromConfig(cfg aws.Config, tables Tables) *DynamoDBRecordStore {
	return NewDynamoDBRecordStore(dynamodb.NewFromConfig(cfg), tables)
}

func (s *DynamoDBRecordStore) Save(ctx context.Context, record models.Record) error {
	table, err := s.tables.lookup(record.RecordKind())
	if err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}

	item[dynamoRecordIDAttr] = &types.AttributeValueMemberS{Value: record.RecordID()}
	item[dynamoRecordStatusAttr] = &types.AttributeValueMemberS{Value: record.RecordStatus()}
	item[dynamoRecordedAtAttr] = &types.AttributeValueMemberS{Value: record.RecordTime().UTC().Format(time.RFC3339Nano)}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to put %s record", record.RecordKind())
	}

	return nil
}

type dynamoObservation struct {
	RecordID   string `dynamodbav:"recordId"`
	Status     string `dynamodbav:"recordStatus"`
	RecordedAt string `dynamodbav:"recordedAt"`
}

// ObservationsByOrderID scans every table. The tables are keyed by record id
// only, so there is no index on orderId to query.
func (s *DynamoDBRecordStore) ObservationsByOrderID(ctx context.Context, orderID string) ([]saga.Observation, error) {
	var out []saga.Observation

	for _, kind := range models.Kinds() {
		table, err := s.tables.lookup(kind)
		if err != nil {
			return nil, err
		}

		paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
			TableName:                aws.String(table),
			FilterExpression:         aws.String("#orderId = :orderId"),
			ProjectionExpression:     aws.String("#recordId, #recordStatus, #recordedAt"),
			ExpressionAttributeNames: map[string]string{
				"#orderId":      dynamoOrderIDAttr,
				"#recordId":     dynamoRecordIDAttr,
				"#recordStatus": dynamoRecordStatusAttr,
				"#recordedAt":   dynamoRecordedAtAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":orderId": &types.AttributeValueMemberS{Value: orderID},
			},
		})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to scan %s", table)
			}

			var items []dynamoObservation
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal records")
			}

			for _, item := range items {
				at, err := time.Parse(time.RFC3339Nano, item.RecordedAt)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid recordedAt on %s record %s", kind, item.RecordID)
				}
				out = append(out, saga.Observation{
					Kind:     kind.String(),
					RecordID: item.RecordID,
					Status:   item.Status,
					At:       at,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
