package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/urban-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/urban-shop/internal/service"
)

// AddCartItemRequest — входной JSON добавления товара в корзину.
type AddCartItemRequest struct {
	ProductID int64  `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// UpdateCartItemRequest — новое количество позиции; ноль удаляет позицию.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCartHandler обрабатывает GET /api/cart.
func GetCartHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		cart, err := carts.Get(r.Context(), identity.UserID)
		if err != nil {
			logger.Error("failed to get cart", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// AddCartItemHandler обрабатывает POST /api/cart/add.
func AddCartItemHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddCartItemHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req AddCartItemRequest
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

		cart, err := carts.AddItem(r.Context(), identity.UserID, req.ProductID, req.Quantity, req.Size, req.Color)
		if err != nil {
			logger.Error("failed to add item", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// UpdateCartItemHandler обрабатывает PUT /api/cart/item/{itemId}.
func UpdateCartItemHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		itemID, err := idParam(r, "itemId")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid item id")
			return
		}

		var req UpdateCartItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		cart, err := carts.UpdateItemQuantity(r.Context(), identity.UserID, itemID, req.Quantity)
		if err != nil {
			logger.Error("failed to update item", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// RemoveCartItemHandler обрабатывает DELETE /api/cart/item/{itemId}.
func RemoveCartItemHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		itemID, err := idParam(r, "itemId")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid item id")
			return
		}

		cart, err := carts.RemoveItem(r.Context(), identity.UserID, itemID)
		if err != nil {
			logger.Error("failed to remove item", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// ClearCartHandler обрабатывает DELETE /api/cart/clear.
func ClearCartHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := carts.Clear(r.Context(), identity.UserID); err != nil {
			logger.Error("failed to clear cart", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"message": "cart cleared"})
	}
}
