package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/linemk/urban-shop/internal/service"
)

// StripeWebhookHandler обрабатывает POST /api/orders/webhook.
// Тело читается целиком до разбора: подпись считается от сырых байт.
// Успешная обработка и игнорируемые события отвечают 200, чтобы провайдер
// не ретраил доставку.
func StripeWebhookHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StripeWebhookHandler"
		logger := log.With(slog.String("op", op))

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error("failed to read webhook body", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if err := checkout.HandleEvent(r.Context(), payload, signature); err != nil {
			logger.Error("webhook processing failed", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, map[string]bool{"received": true})
	}
}
