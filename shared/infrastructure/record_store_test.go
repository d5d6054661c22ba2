package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID         string    `json:"invoiceId" dynamodbav:"invoiceId"`
	OrderID    string    `json:"orderId" dynamodbav:"orderId"`
	CustomerID string    `json:"customerId" dynamodbav:"customerId"`
	Amount     float64   `json:"amount" dynamodbav:"amount"`
	Status     string    `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"createdAt"`
	kind       models.Kind
}

func (r *testRecord) RecordKind() models.Kind {
	if r.kind == "" {
		return models.KindInvoice
	}
	return r.kind
}
func (r *testRecord) RecordID() string         { return r.ID }
func (r *testRecord) RecordOrderID() string    { return r.OrderID }
func (r *testRecord) RecordCustomerID() string { return r.CustomerID }
func (r *testRecord) RecordStatus() string     { return r.Status }
func (r *testRecord) RecordTime() time.Time    { return r.CreatedAt }

var testTables = Tables{
	models.KindOrder:        "orders",
	models.KindInvoice:      "invoices",
	models.KindPayment:      "payments",
	models.KindShipment:     "shipments",
	models.KindNotification: "notification_logs",
}

type fakeDynamoDB struct {
	mu     sync.Mutex
	puts   []*dynamodb.PutItemInput
	pages  map[string][]map[string]types.AttributeValue
	putErr error
}

func (f *fakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.ScanOutput{Items: f.pages[aws.ToString(in.TableName)]}, nil
}

func TestDynamoDBRecordStore_Save(t *testing.T) {
	client := &fakeDynamoDB{}
	store := NewDynamoDBRecordStore(client, testTables)

	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	record := &testRecord{ID: "invoice_1", OrderID: "o1", CustomerID: "c1", Amount: 20, Status: "INVOICE_CREATED", CreatedAt: createdAt}

	require.NoError(t, store.Save(context.Background(), record))
	require.Len(t, client.puts, 1)

	put := client.puts[0]
	assert.Equal(t, "invoices", aws.ToString(put.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "invoice_1"}, put.Item["invoiceId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "o1"}, put.Item["orderId"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "20"}, put.Item["amount"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "invoice_1"}, put.Item["recordId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "INVOICE_CREATED"}, put.Item["recordStatus"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2024-05-01T10:00:00Z"}, put.Item["recordedAt"])
}

func TestDynamoDBRecordStore_SaveErrors(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		store := NewDynamoDBRecordStore(&fakeDynamoDB{}, Tables{})
		err := store.Save(context.Background(), &testRecord{ID: "x"})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("put failure", func(t *testing.T) {
		store := NewDynamoDBRecordStore(&fakeDynamoDB{putErr: errors.New("throttled")}, testTables)
		err := store.Save(context.Background(), &testRecord{ID: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put invoice record")
	})
}

func TestDynamoDBRecordStore_ObservationsByOrderID(t *testing.T) {
	item := func(id, status, at string) map[string]types.AttributeValue {
		return map[string]types.AttributeValue{
			"recordId":     &types.AttributeValueMemberS{Value: id},
			"recordStatus": &types.AttributeValueMemberS{Value: status},
			"recordedAt":   &types.AttributeValueMemberS{Value: at},
		}
	}

	client := &fakeDynamoDB{pages: map[string][]map[string]types.AttributeValue{
		"orders":            {item("order_1", "ORDER_CREATED", "2024-05-01T10:00:00Z")},
		"invoices":          {item("invoice_1", "INVOICE_CREATED", "2024-05-01T10:00:01Z")},
		"notification_logs": {item("notification_1", "PAYMENT_FAILED", "2024-05-01T10:00:03Z")},
	}}
	store := NewDynamoDBRecordStore(client, testTables)

	obs, err := store.ObservationsByOrderID(context.Background(), "order_1")
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, "order", obs[0].Kind)
	assert.Equal(t, "invoice_1", obs[1].RecordID)
	assert.Equal(t, "notification", obs[2].Kind)
	assert.Equal(t, "PAYMENT_FAILED", obs[2].Status)
}

func TestDynamoDBRecordStore_ObservationsByOrderID_InvalidRecordedAt(t *testing.T) {
	client := &fakeDynamoDB{pages: map[string][]map[string]types.AttributeValue{
		"invoices": {{
			"recordId":     &types.AttributeValueMemberS{Value: "invoice_1"},
			"recordStatus": &types.AttributeValueMemberS{Value: "INVOICE_CREATED"},
			"recordedAt":   &types.AttributeValueMemberS{Value: "yesterday"},
		}},
	}}
	store := NewDynamoDBRecordStore(client, testTables)

	obs, err := store.ObservationsByOrderID(context.Background(), "order_1")
	require.Error(t, err)
	assert.Nil(t, obs)
	assert.Contains(t, err.Error(), "invalid recordedAt on invoice record invoice_1")
}

func TestMemoryRecordStore(t *testing.T) {
	store := NewMemoryRecordStore()
	ctx := context.Background()

	t0 := time.Now()
	require.NoError(t, store.Save(ctx, &testRecord{ID: "order_1", OrderID: "order_1", Status: "ORDER_CREATED", CreatedAt: t0, kind: models.KindOrder}))
	require.NoError(t, store.Save(ctx, &testRecord{ID: "invoice_1", OrderID: "order_1", Status: "INVOICE_CREATED", CreatedAt: t0.Add(time.Second)}))
	require.NoError(t, store.Save(ctx, &testRecord{ID: "invoice_2", OrderID: "order_2", Status: "INVOICE_CREATED", CreatedAt: t0}))
	// same id overwrites
	require.NoError(t, store.Save(ctx, &testRecord{ID: "invoice_1", OrderID: "order_1", Status: "INVOICE_CREATED", CreatedAt: t0.Add(time.Second)}))

	obs, err := store.ObservationsByOrderID(ctx, "order_1")
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "ORDER_CREATED", obs[0].Status)
	assert.Equal(t, "INVOICE_CREATED", obs[1].Status)

	assert.Len(t, store.Records(models.KindInvoice), 2)
	assert.Empty(t, store.Records(models.KindShipment))
}

func TestRepository_Save(t *testing.T) {
	store := NewMemoryRecordStore()
	repo := NewRepository[*testRecord](store)

	require.NoError(t, repo.Save(context.Background(), &testRecord{ID: "invoice_9", OrderID: "o9"}))
	assert.Len(t, store.Records(models.KindInvoice), 1)
}
