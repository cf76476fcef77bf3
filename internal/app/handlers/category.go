package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/service"
)

// CategoryRequest — входной JSON создания/обновления категории (админ).
type CategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	IsActive bool   `json:"isActive"`
}

// ListCategoriesHandler обрабатывает GET /api/categories.
func ListCategoriesHandler(log *slog.Logger, categories service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		list, err := categories.List(r.Context())
		if err != nil {
			logger.Error("failed to list categories", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// GetCategoryHandler обрабатывает GET /api/categories/{slug}.
func GetCategoryHandler(log *slog.Logger, categories service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCategoryHandler"
		logger := log.With(slog.String("op", op))

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			writeError(w, logger, http.StatusBadRequest, "slug is required")
			return
		}

		category, err := categories.GetBySlug(r.Context(), slug)
		if err != nil {
			logger.Error("failed to get category", slog.String("slug", slug), slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, category)
	}
}

// CreateCategoryHandler обрабатывает POST /api/categories (только админ).
func CreateCategoryHandler(log *slog.Logger, categories service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCategoryHandler"
		logger := log.With(slog.String("op", op))

		var req CategoryRequest
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

		category, err := categories.Create(r.Context(), &models.Category{
			Name:     req.Name,
			Slug:     req.Slug,
			IsActive: req.IsActive,
		})
		if err != nil {
			logger.Error("failed to create category", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, category)
	}
}

// UpdateCategoryHandler обрабатывает PUT /api/categories/{id} (только админ).
func UpdateCategoryHandler(log *slog.Logger, categories service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid category id")
			return
		}

		var req CategoryRequest
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

		category, err := categories.Update(r.Context(), &models.Category{
			ID:       id,
			Name:     req.Name,
			Slug:     req.Slug,
			IsActive: req.IsActive,
		})
		if err != nil {
			logger.Error("failed to update category", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, category)
	}
}

// DeleteCategoryHandler обрабатывает DELETE /api/categories/{id} (только админ).
func DeleteCategoryHandler(log *slog.Logger, categories service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid category id")
			return
		}

		if err := categories.Delete(r.Context(), id); err != nil {
			logger.Error("failed to delete category", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"message": "category deleted"})
	}
}
