package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/draftea/order-fulfillment/order-service/application"
	"github.com/draftea/order-fulfillment/order-service/domain"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// ErrorResponse is the body of every failed intake request
type ErrorResponse struct {
	Message string      `json:"message"`
	Status  saga.Status `json:"status,omitempty"`
}

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder  *application.CreateOrder
	getOrderSaga *application.GetOrderSaga
	logger       *slog.Logger
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	getOrderSaga *application.GetOrderSaga,
	logger *slog.Logger,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder:  createOrder,
		getOrderSaga: getOrderSaga,
		logger:       logger,
	}
}

// CreateOrder handles order submissions
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Missing request body"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request"})
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request"})
			return
		}

		telemetry.LogWithTrace(r.Context(), h.logger).ErrorContext(r.Context(), "error processing order",
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Internal Server Error",
			Status:  saga.StatusOrderError,
		})
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// GetOrderSaga returns the derived saga state of one order
func (h *OrderHandlers) GetOrderSaga(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	response, err := h.getOrderSaga.Execute(r.Context(), &application.GetOrderSagaQuery{OrderID: orderID})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Order not found"})
			return
		}

		telemetry.LogWithTrace(r.Context(), h.logger).ErrorContext(r.Context(), "error loading saga",
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{orderId}/saga", h.GetOrderSaga)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
