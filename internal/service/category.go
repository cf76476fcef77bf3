package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/storage"
)

// CategoryService — операции над категориями каталога.
type CategoryService interface {
	List(ctx context.Context) ([]*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	log          *slog.Logger
	categoryRepo storage.CategoryStorage
}

func NewCategoryService(log *slog.Logger, categoryRepo storage.CategoryStorage) CategoryService {
	return &categoryService{log: log, categoryRepo: categoryRepo}
}

// List возвращает только активные категории, по имени.
func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CategoryService.List"

	categories, err := s.categoryRepo.ListCategories(ctx, true)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

func (s *categoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	const op = "service.CategoryService.GetBySlug"

	category, err := s.categoryRepo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	const op = "service.CategoryService.Create"

	created, err := s.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		s.log.Error("failed to create category", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("category created", slog.String("op", op), slog.Int64("categoryID", created.ID))
	return created, nil
}

func (s *categoryService) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	const op = "service.CategoryService.Update"

	if err := s.categoryRepo.UpdateCategory(ctx, category); err != nil {
		s.log.Error("failed to update category", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id int64) error {
	const op = "service.CategoryService.Delete"

	if err := s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		s.log.Error("failed to delete category", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
