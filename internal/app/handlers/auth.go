package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/urban-shop/internal/service"
)

// RegisterRequest — входной JSON регистрации с тегами валидации
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest — входной JSON аутентификации
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse — ответ с данными пользователя и JWT-токеном
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// setTokenCookie ставит http-only cookie с токеном на неделю.
// В prod cookie уходит только по HTTPS и с SameSite=None для кросс-доменного фронта.
func setTokenCookie(w http.ResponseWriter, token, env string) {
	cookie := &http.Cookie{
		Name:     jwtmiddleware.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	}
	if env == "prod" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}

// RegisterHandler обрабатывает POST /api/auth/register.
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface, env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		user, token, err := authService.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			logger.Error("registration failed", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}

		setTokenCookie(w, token, env)
		writeJSON(w, logger, http.StatusCreated, AuthResponse{User: user, Token: token})
	}
}

// LoginHandler обрабатывает POST /api/auth/login.
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface, env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
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

		user, token, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			logger.Error("login failed", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}

		setTokenCookie(w, token, env)
		writeJSON(w, logger, http.StatusOK, AuthResponse{User: user, Token: token})
	}
}

// LogoutHandler обрабатывает POST /api/auth/logout: гасит cookie сессии.
func LogoutHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LogoutHandler"
		logger := log.With(slog.String("op", op))

		http.SetCookie(w, &http.Cookie{
			Name:     jwtmiddleware.CookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
		writeJSON(w, logger, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

// ProfileHandler обрабатывает GET /api/auth/profile.
func ProfileHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProfileHandler"
		logger := log.With(slog.String("op", op))

		// Извлекаем личность из контекста (установленную JWT middleware)
		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := userService.GetProfile(r.Context(), identity.UserID)
		if err != nil {
			logger.Error("failed to get profile", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// UpdateProfileRequest — частичное обновление профиля: пропущенные поля не меняются.
type UpdateProfileRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Phone    string          `json:"phone"`
	Password string          `json:"password" validate:"omitempty,min=6"`
	Address  *models.Address `json:"address"`
}

// UpdateProfileHandler обрабатывает PUT /api/auth/profile.
func UpdateProfileHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProfileHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req UpdateProfileRequest
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

		user, err := userService.UpdateProfile(r.Context(), identity.UserID, service.UpdateProfileInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Password: req.Password,
			Address:  req.Address,
		})
		if err != nil {
			logger.Error("failed to update profile", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}
