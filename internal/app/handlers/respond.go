package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/urban-shop/internal/service"
	"github.com/linemk/urban-shop/internal/storage"
)

var validate = validator.New()

// errorResponse — единый формат ошибок API.
type errorResponse struct {
	Message string `json:"message"`
}

// writeJSON сериализует ответ; ошибки кодирования только логируются,
// потому что статус уже отправлен клиенту.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	writeJSON(w, log, status, errorResponse{Message: msg})
}

// writeServiceError переводит ошибки сервисного слоя в HTTP-статусы.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrProductNotFound),
		errors.Is(err, storage.ErrCategoryNotFound),
		errors.Is(err, storage.ErrCartNotFound),
		errors.Is(err, storage.ErrCartItemNotFound),
		errors.Is(err, storage.ErrOrderNotFound):
		writeError(w, log, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, log, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrNotOwned):
		writeError(w, log, http.StatusForbidden, "forbidden")
	case errors.Is(err, storage.ErrEmailTaken):
		writeError(w, log, http.StatusConflict, "email already registered")
	case errors.Is(err, storage.ErrSlugTaken):
		writeError(w, log, http.StatusConflict, "slug already in use")
	case errors.Is(err, service.ErrEmptyCart):
		writeError(w, log, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, service.ErrOutOfStock):
		writeError(w, log, http.StatusBadRequest, "not enough stock")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, log, http.StatusBadRequest, "invalid order status")
	case errors.Is(err, service.ErrInvalidSignature):
		writeError(w, log, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, service.ErrGateway):
		writeError(w, log, http.StatusBadGateway, "payment provider unavailable")
	default:
		writeError(w, log, http.StatusInternalServerError, "internal server error")
	}
}

// idParam извлекает числовой идентификатор из path-параметра.
func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// pageParams разбирает page/limit из query string; нули означают значения по умолчанию.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
