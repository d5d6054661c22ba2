package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/draftea/order-fulfillment/order-service/application"
	"github.com/draftea/order-fulfillment/order-service/mocks"
	sharedmocks "github.com/draftea/order-fulfillment/shared/mocks"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo      *mocks.MockOrderRepository
	publisher *sharedmocks.MockPublisher
	reader    *mocks.MockProgressReader
	router    *chi.Mux
}

func newFixture(t *testing.T) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		repo:      mocks.NewMockOrderRepository(t),
		publisher: sharedmocks.NewMockPublisher(t),
		reader:    mocks.NewMockProgressReader(t),
		router:    chi.NewRouter(),
	}
	NewOrderHandlers(
		application.NewCreateOrder(f.repo, f.publisher, logger),
		application.NewGetOrderSaga(f.reader),
		logger,
	).RegisterRoutes(f.router)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestCreateOrder_Created(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
	f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	rec := f.do(http.MethodPost, "/orders",
		`{"customerId":"c1","items":[{"productId":"p1","quantity":2,"price":10}],"paymentMethod":"card"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, "ORDER_CREATED", body["status"])
	assert.Equal(t, float64(20), body["totalAmount"])
	assert.True(t, strings.HasPrefix(body["orderId"].(string), "order_"))
}

func TestCreateOrder_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "missing body", body: "", message: "Missing request body"},
		{name: "not json", body: "{not json", message: "Invalid request"},
		{name: "json array", body: `[]`, message: "Invalid request"},
		{name: "null", body: `null`, message: "Invalid request"},
		{name: "empty items", body: `{"customerId":"c1","items":[]}`, message: "Invalid request"},
		{name: "missing customer", body: `{"items":[{"productId":"p1","quantity":1,"price":1}]}`, message: "Invalid request"},
		{name: "bad quantity", body: `{"customerId":"c1","items":[{"productId":"p1","quantity":0,"price":1}]}`, message: "Invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// mocks fail the test on any unexpected store write or publish
			f := newFixture(t)

			rec := f.do(http.MethodPost, "/orders", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, body, "status")
		})
	}
}

func TestCreateOrder_ServerError(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Save(mock.Anything, mock.Anything).Return(errors.New("throttled")).Once()

	rec := f.do(http.MethodPost, "/orders", `{"customerId":"c1","items":[{"productId":"p1","quantity":1,"price":1}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.Equal(t, "ORDER_ERROR", body["status"])
}

func TestGetOrderSaga(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFixture(t)
		f.reader.EXPECT().ObservationsByOrderID(mock.Anything, "order_1").Return([]saga.Observation{
			{Kind: "order", RecordID: "order_1", Status: "ORDER_CREATED", At: time.Now()},
			{Kind: "invoice", RecordID: "invoice_1", Status: "INVOICE_ERROR", At: time.Now().Add(time.Second)},
		}, nil).Once()

		rec := f.do(http.MethodGet, "/orders/order_1/saga", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "order_1", body["orderId"])
		assert.Equal(t, "FAILED", body["state"])
		assert.Equal(t, "invoice", body["failedStage"])
		assert.Len(t, body["observations"], 2)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		f.reader.EXPECT().ObservationsByOrderID(mock.Anything, "order_x").Return(nil, nil).Once()

		rec := f.do(http.MethodGet, "/orders/order_x/saga", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("store error", func(t *testing.T) {
		f := newFixture(t)
		f.reader.EXPECT().ObservationsByOrderID(mock.Anything, "order_1").Return(nil, errors.New("boom")).Once()

		rec := f.do(http.MethodGet, "/orders/order_1/saga", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
