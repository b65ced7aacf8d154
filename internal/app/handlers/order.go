package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kmalykh/webstore/internal/domain/models"
	"github.com/kmalykh/webstore/internal/service"
	"github.com/kmalykh/webstore/internal/storage"
	"github.com/kmalykh/webstore/internal/token/tokenmiddleware"
)

// CreateOrderRequest представляет тело запроса на оформление заказа
type CreateOrderRequest struct {
	Items []service.OrderItemInput `json:"items"`
}

// CreateOrderHandler обрабатывает запрос POST /api/orders
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		// Извлекаем личность пользователя из контекста (установлена middleware)
		identity, ok := tokenmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		order, err := orderService.Create(r.Context(), identity.UserID, req.Items)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyOrder):
				http.Error(w, "order must contain at least one item", http.StatusBadRequest)
			case errors.Is(err, service.ErrInvalidQuantity):
				http.Error(w, "quantity must be positive", http.StatusBadRequest)
			case errors.Is(err, service.ErrUnknownProduct):
				http.Error(w, "unknown product in order", http.StatusBadRequest)
			default:
				logger.Error("failed to create order", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// ListOrdersHandler обрабатывает запрос GET /api/orders.
// Возвращаются только заказы самого пользователя, новые первыми
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := tokenmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := orderService.ListForUser(r.Context(), identity.UserID)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// GetOrderHandler обрабатывает запрос GET /api/orders/{id}.
// Чужой заказ отдаётся как 404, чтобы не раскрывать сам факт его существования
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := tokenmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := orderService.Get(r.Context(), identity.UserID, id)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get order", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, http.StatusOK, order)
	}
}
