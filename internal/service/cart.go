package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/storage"
)

// CartService — операции над корзиной аутентифицированного пользователя.
// Все методы работают только с корзиной владельца; после каждой мутации
// total_price пересчитывается до того, как корзина считается валидной.
type CartService interface {
	// Get возвращает корзину, создавая пустую при первом обращении.
	Get(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int, size, color string) (*models.Cart, error)
	// UpdateItemQuantity с quantity <= 0 удаляет позицию, а не возвращает ошибку.
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error)
	// Clear удаляет позиции, сама корзина остаётся.
	Clear(ctx context.Context, userID int64) error
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{log: log, cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.Get"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	_, created, err := s.cartRepo.EnsureCart(ctx, userID)
	if err != nil {
		logger.Error("failed to ensure cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if created {
		logger.Info("cart created")
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// AddItem добавляет товар в корзину. Позиции с одинаковым (товар, размер, цвет)
// сливаются инкрементом количества — без повторной проверки остатка против
// суммарного количества (известный пробел валидации, сохранён намеренно).
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int, size, color string) (*models.Cart, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		logger.Warn("product lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if product.Stock < quantity {
		logger.Warn("insufficient stock", slog.Int("stock", product.Stock), slog.Int("requested", quantity))
		return nil, fmt.Errorf("%s: %w", op, ErrOutOfStock)
	}

	cartID, _, err := s.cartRepo.EnsureCart(ctx, userID)
	if err != nil {
		logger.Error("failed to ensure cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.cartRepo.FindItem(ctx, cartID, productID, size, color)
	switch {
	case err == nil:
		if err := s.cartRepo.UpdateItemQuantity(ctx, cartID, existing.ID, existing.Quantity+quantity); err != nil {
			logger.Error("failed to increment item quantity", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case errors.Is(err, storage.ErrCartItemNotFound):
		item := &models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
			Size:      size,
			Color:     color,
			Price:     product.Price, // снапшот текущей цены
		}
		if err := s.cartRepo.InsertItem(ctx, item); err != nil {
			logger.Error("failed to insert item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		logger.Error("failed to find item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.RecalculateTotal(ctx, cartID); err != nil {
		logger.Error("failed to recalculate total", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("item added to cart", slog.Int("quantity", quantity))
	return cart, nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, error) {
	const op = "service.CartService.UpdateItemQuantity"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("itemID", itemID))

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		logger.Warn("cart lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if quantity <= 0 {
		err = s.cartRepo.DeleteItem(ctx, cart.ID, itemID)
	} else {
		// остаток товара здесь не перепроверяется
		err = s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity)
	}
	if err != nil {
		logger.Warn("failed to update item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.RecalculateTotal(ctx, cart.ID); err != nil {
		logger.Error("failed to recalculate total", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("itemID", itemID))

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		logger.Warn("cart lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		logger.Warn("failed to delete item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.RecalculateTotal(ctx, cart.ID); err != nil {
		logger.Error("failed to recalculate total", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s *cartService) Clear(ctx context.Context, userID int64) error {
	const op = "service.CartService.Clear"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			// нечего чистить
			return nil
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.ClearItems(ctx, cart.ID); err != nil {
		logger.Error("failed to clear items", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cartRepo.RecalculateTotal(ctx, cart.ID); err != nil {
		logger.Error("failed to recalculate total", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("cart cleared")
	return nil
}
