package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/service"
)

// parseListInput разбирает query-параметры публичной выдачи каталога.
// Непарсящиеся числа молча игнорируются, фильтр просто не применяется.
func parseListInput(r *http.Request) service.ListProductsInput {
	q := r.URL.Query()

	input := service.ListProductsInput{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	input.Page, input.Limit = pageParams(r)

	if v := q.Get("category"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			input.CategoryID = id
		}
	}
	if v := q.Get("minPrice"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			input.MinPrice = &p
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			input.MaxPrice = &p
		}
	}
	// размеры приходят списком через запятую: size=S,M,L
	if v := q.Get("size"); v != "" {
		for _, size := range strings.Split(v, ",") {
			if size = strings.TrimSpace(size); size != "" {
				input.Sizes = append(input.Sizes, size)
			}
		}
	}
	if v := q.Get("featured"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			input.Featured = &b
		}
	}
	return input
}

// ListProductsHandler обрабатывает GET /api/products.
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		result, err := catalog.List(r.Context(), parseListInput(r))
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// FeaturedProductsHandler обрабатывает GET /api/products/featured.
func FeaturedProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.FeaturedProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalog.Featured(r.Context())
		if err != nil {
			logger.Error("failed to get featured products", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// GetProductHandler обрабатывает GET /api/products/slug/{slug}.
func GetProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			writeError(w, logger, http.StatusBadRequest, "slug is required")
			return
		}

		product, err := catalog.GetBySlug(r.Context(), slug)
		if err != nil {
			logger.Error("failed to get product", slog.String("slug", slug), slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// GetProductByIDHandler обрабатывает GET /api/products/{id}.
func GetProductByIDHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductByIDHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := catalog.GetByID(r.Context(), id)
		if err != nil {
			logger.Error("failed to get product", slog.Int64("id", id), slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// RelatedProductsHandler обрабатывает GET /api/products/{id}/related.
func RelatedProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RelatedProductsHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid product id")
			return
		}

		products, err := catalog.Related(r.Context(), id)
		if err != nil {
			logger.Error("failed to get related products", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// ProductRequest — входной JSON создания/обновления товара (админ).
type ProductRequest struct {
	Name         string   `json:"name" validate:"required"`
	Slug         string   `json:"slug" validate:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" validate:"required,gt=0"`
	ComparePrice *float64 `json:"comparePrice"`
	Images       []string `json:"images"`
	CategoryID   int64    `json:"categoryId" validate:"required"`
	Sizes        []string `json:"sizes"`
	Colors       []string `json:"colors"`
	Stock        int      `json:"stock" validate:"gte=0"`
	Featured     bool     `json:"featured"`
	IsActive     bool     `json:"isActive"`
}

func (req *ProductRequest) toModel() *models.Product {
	return &models.Product{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Images:       req.Images,
		CategoryID:   req.CategoryID,
		Sizes:        req.Sizes,
		Colors:       req.Colors,
		Stock:        req.Stock,
		Featured:     req.Featured,
		IsActive:     req.IsActive,
	}
}

// AdminListProductsHandler обрабатывает GET /api/products/admin/all: без фильтра is_active.
func AdminListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminListProductsHandler"
		logger := log.With(slog.String("op", op))

		page, limit := pageParams(r)
		result, err := catalog.AdminList(r.Context(), page, limit)
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// CreateProductHandler обрабатывает POST /api/products (только админ).
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req ProductRequest
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

		product, err := catalog.Create(r.Context(), req.toModel())
		if err != nil {
			logger.Error("failed to create product", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, product)
	}
}

// UpdateProductHandler обрабатывает PUT /api/products/{id} (только админ).
func UpdateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid product id")
			return
		}

		var req ProductRequest
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

		product := req.toModel()
		product.ID = id
		product, err = catalog.Update(r.Context(), product)
		if err != nil {
			logger.Error("failed to update product", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// DeleteProductHandler обрабатывает DELETE /api/products/{id} (только админ).
func DeleteProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid product id")
			return
		}

		if err := catalog.Delete(r.Context(), id); err != nil {
			logger.Error("failed to delete product", slog.Any("error", err))
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"message": "product deleted"})
	}
}
