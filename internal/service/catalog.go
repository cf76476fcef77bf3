package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/storage"
)

const (
	defaultPageSize = 12
	adminPageSize   = 20
	featuredLimit   = 8
	relatedLimit    = 4
)

// ListProductsInput — параметры публичной выборки каталога.
// Нулевые значения фильтров означают отсутствие условия.
type ListProductsInput struct {
	Page       int
	Limit      int
	CategoryID int64
	MinPrice   *float64
	MaxPrice   *float64
	Sizes      []string
	Search     string
	Featured   *bool
	Sort       string
}

type ProductPage struct {
	Products []*models.Product `json:"products"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
	Total    int64             `json:"total"`
}

// CatalogService — операции каталога товаров.
type CatalogService interface {
	List(ctx context.Context, input ListProductsInput) (*ProductPage, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Featured(ctx context.Context) ([]*models.Product, error)
	Related(ctx context.Context, productID int64) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	// AdminList возвращает товары без ограничения по is_active.
	AdminList(ctx context.Context, page, limit int) (*ProductPage, error)
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage) CatalogService {
	return &catalogService{log: log, productRepo: productRepo}
}

// List отдаёт страницу каталога: публичная выборка всегда ограничена активными товарами.
func (s *catalogService) List(ctx context.Context, input ListProductsInput) (*ProductPage, error) {
	const op = "service.CatalogService.List"

	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = defaultPageSize
	}

	filter := storage.ProductFilter{
		CategoryID: input.CategoryID,
		MinPrice:   input.MinPrice,
		MaxPrice:   input.MaxPrice,
		Sizes:      input.Sizes,
		Search:     input.Search,
		Featured:   input.Featured,
		ActiveOnly: true,
	}

	products, err := s.productRepo.ListProducts(ctx, filter, input.Sort, input.Limit, (input.Page-1)*input.Limit)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total, err := s.productRepo.CountProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to count products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ProductPage{Products: products, Page: input.Page, Pages: pages(total, input.Limit), Total: total}, nil
}

func (s *catalogService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	const op = "service.CatalogService.GetBySlug"

	product, err := s.productRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func (s *catalogService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.GetByID"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func (s *catalogService) Featured(ctx context.Context) ([]*models.Product, error) {
	const op = "service.CatalogService.Featured"

	products, err := s.productRepo.ListFeatured(ctx, featuredLimit)
	if err != nil {
		s.log.Error("failed to list featured products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Related возвращает активные товары той же категории, исключая сам товар.
func (s *catalogService) Related(ctx context.Context, productID int64) ([]*models.Product, error) {
	const op = "service.CatalogService.Related"

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.productRepo.ListRelated(ctx, product.CategoryID, product.ID, relatedLimit)
	if err != nil {
		s.log.Error("failed to list related products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	const op = "service.CatalogService.Create"

	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		s.log.Error("failed to create product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("product created", slog.String("op", op), slog.Int64("productID", created.ID))
	return created, nil
}

func (s *catalogService) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	const op = "service.CatalogService.Update"

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		s.log.Error("failed to update product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// перечитываем, чтобы вернуть данные категории из JOIN
	updated, err := s.productRepo.GetProductByID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s *catalogService) Delete(ctx context.Context, id int64) error {
	const op = "service.CatalogService.Delete"

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		s.log.Error("failed to delete product", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *catalogService) AdminList(ctx context.Context, page, limit int) (*ProductPage, error) {
	const op = "service.CatalogService.AdminList"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = adminPageSize
	}

	// без ограничения ActiveOnly — админка видит и скрытые товары
	filter := storage.ProductFilter{}
	products, err := s.productRepo.ListProducts(ctx, filter, storage.SortNewest, limit, (page-1)*limit)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.productRepo.CountProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &ProductPage{Products: products, Page: page, Pages: pages(total, limit), Total: total}, nil
}
