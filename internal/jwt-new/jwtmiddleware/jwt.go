package jwtmiddleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/urban-shop/internal/domain/models"
)

type contextKey string

const IdentityKey contextKey = "identity"

// CookieName — имя http-only cookie с токеном сессии
const CookieName = "token"

// Identity — неизменяемые данные аутентифицированного пользователя,
// извлечённые из токена и переданные обработчику через контекст.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

// IsAdmin — true для пользователей с ролью admin
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// NewJWTMiddleware создаёт middleware для проверки JWT, секрет берётся из переменной окружения.
// Токен ищется сначала в заголовке Authorization (формат "Bearer <token>"),
// затем в http-only cookie — так работает и браузерный фронтенд, и API-клиенты.
func NewJWTMiddleware() func(http.Handler) http.Handler {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			// Парсинг и проверка токена
			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				// Проверка алгоритма
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				http.Error(w, "invalid token claims: sub not found", http.StatusUnauthorized)
				return
			}

			userID, err := strconv.ParseInt(sub, 10, 64)
			if err != nil {
				http.Error(w, "invalid token claims: invalid user id", http.StatusUnauthorized)
				return
			}

			ident := Identity{UserID: userID}
			if email, ok := claims["email"].(string); ok {
				ident.Email = email
			}
			if role, ok := claims["role"].(string); ok {
				ident.Role = role
			}

			// Устанавливаем identity в контекст запроса
			ctx := context.WithValue(r.Context(), IdentityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly пропускает дальше только пользователей с ролью admin.
// Должен стоять после NewJWTMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !ident.IsAdmin() {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// FromContext извлекает identity из контекста.
func FromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(IdentityKey).(Identity)
	return ident, ok
}
