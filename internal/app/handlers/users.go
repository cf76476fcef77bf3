package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/service"
)

// ListUsersHandler обрабатывает GET /api/auth/users (только админ).
func ListUsersHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListUsersHandler"
		logger := log.With(slog.String("op", op))

		page, limit := pageParams(r)
		result, err := userService.ListUsers(r.Context(), page, limit)
		if err != nil {
			logger.Error("failed to list users", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// GetUserHandler обрабатывает GET /api/auth/users/{id} (только админ).
func GetUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetUserHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid user id")
			return
		}

		user, err := userService.GetProfile(r.Context(), id)
		if err != nil {
			logger.Error("failed to get user", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// UpdateUserHandler обрабатывает PUT /api/auth/users/{id} (только админ).
func UpdateUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateUserHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid user id")
			return
		}

		var req struct {
			Name    string          `json:"name"`
			Email   string          `json:"email" validate:"omitempty,email"`
			Phone   string          `json:"phone"`
			Address *models.Address `json:"address"`
		}
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

		user, err := userService.UpdateProfile(r.Context(), id, service.UpdateProfileInput{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
		})
		if err != nil {
			logger.Error("failed to update user", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// DeleteUserHandler обрабатывает DELETE /api/auth/users/{id} (только админ).
func DeleteUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteUserHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid user id")
			return
		}

		if err := userService.DeleteUser(r.Context(), id); err != nil {
			logger.Error("failed to delete user", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"message": "user deleted"})
	}
}
