package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/urban-shop/internal/service"
)

// CreateOrderRequest — адрес доставки для оформления заказа из корзины.
type CreateOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress" validate:"required"`
}

// UpdateOrderStatusRequest — новый статус заказа (админ).
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CheckoutRequest — заказ, для которого создаётся платёжная сессия.
type CheckoutRequest struct {
	OrderID int64 `json:"orderId" validate:"required"`
}

// CheckoutResponse — URL платёжной сессии.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// CreateOrderHandler обрабатывает POST /api/orders: корзина превращается в заказ.
func CreateOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		order, err := orders.Create(r.Context(), identity.UserID, req.ShippingAddress)
		if err != nil {
			logger.Error("failed to create order", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// MyOrdersHandler обрабатывает GET /api/orders/my-orders.
func MyOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		list, err := orders.MyOrders(r.Context(), identity.UserID)
		if err != nil {
			logger.Error("failed to get orders", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}: владелец или админ.
func GetOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orders.GetByID(r.Context(), id, identity.UserID, identity.IsAdmin())
		if err != nil {
			logger.Error("failed to get order", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// CheckoutHandler обрабатывает POST /api/orders/checkout-session: создаёт
// платёжную сессию для своего заказа.
func CheckoutHandler(log *slog.Logger, orders service.OrderService, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		// проверка владения до обращения к платёжному шлюзу
		if _, err := orders.GetByID(r.Context(), req.OrderID, identity.UserID, identity.IsAdmin()); err != nil {
			logger.Error("order access check failed", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}

		url, err := checkout.CreateSession(r.Context(), req.OrderID)
		if err != nil {
			logger.Error("failed to create checkout session", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, CheckoutResponse{URL: url})
	}
}

// AdminListOrdersHandler обрабатывает GET /api/orders (только админ).
func AdminListOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminListOrdersHandler"
		logger := log.With(slog.String("op", op))

		page, limit := pageParams(r)
		result, err := orders.AdminList(r.Context(), r.URL.Query().Get("status"), page, limit)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// UpdateOrderStatusHandler обрабатывает PUT /api/orders/{id}/status (только админ).
func UpdateOrderStatusHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid order id")
			return
		}

		var req UpdateOrderStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		order, err := orders.UpdateStatus(r.Context(), id, req.Status)
		if err != nil {
			logger.Error("failed to update order status", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// StatsHandler обрабатывает GET /api/orders/stats (только админ).
func StatsHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StatsHandler"
		logger := log.With(slog.String("op", op))

		stats, err := orders.Stats(r.Context())
		if err != nil {
			logger.Error("failed to collect stats", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}
