package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/storage"
)

// Тарифы оформления заказа: бесплатная доставка от 100, налог 8%.
const (
	freeShippingThreshold = 100.0
	flatShippingPrice     = 10.0
	taxRate               = 0.08
)

type OrderPage struct {
	Orders []*models.Order `json:"orders"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
	Total  int64           `json:"total"`
}

// DashboardStats — агрегаты для админской панели, всегда считаются заново.
type DashboardStats struct {
	TotalOrders   int64           `json:"totalOrders"`
	TotalRevenue  float64         `json:"totalRevenue"`
	TotalProducts int64           `json:"totalProducts"`
	PendingOrders int64           `json:"pendingOrders"`
	RecentOrders  []*models.Order `json:"recentOrders"`
}

// OrderService — конвейер заказа: корзина → заказ → списание остатков → очистка корзины.
type OrderService interface {
	Create(ctx context.Context, userID int64, address models.ShippingAddress) (*models.Order, error)
	MyOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetByID отдаёт заказ владельцу или админу; остальным — ErrNotOwned.
	GetByID(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.Order, error)
	AdminList(ctx context.Context, status string, page, limit int) (*OrderPage, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error)
	Stats(ctx context.Context) (*DashboardStats, error)
}

type orderService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewOrderService(log *slog.Logger, orderRepo storage.OrderStorage, cartRepo storage.CartStorage, productRepo storage.ProductStorage) OrderService {
	return &orderService{
		log:         log,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// round2 округляет до двух знаков (минорные единицы валюты).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Create превращает корзину пользователя в заказ.
// Последовательность: снапшот позиций → расчёт цены → вставка заказа →
// списание остатков → очистка корзины. Шаги после вставки заказа идут вне
// транзакции и не компенсируются при сбое: ошибка между списанием остатков
// и очисткой корзины оставляет систему в частично применённом состоянии.
func (s *orderService) Create(ctx context.Context, userID int64, address models.ShippingAddress) (*models.Order, error) {
	const op = "service.OrderService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("creating order from cart")

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(cart.Items) == 0 {
		logger.Warn("cart is empty")
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	// Снапшот позиций: имя, первая картинка и цена фиксируются на момент покупки,
	// чтобы правки каталога не меняли историю заказов.
	items := make([]*models.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		image := ""
		if len(cartItem.ProductImages) > 0 {
			image = cartItem.ProductImages[0]
		}
		items = append(items, &models.OrderItem{
			ProductID: cartItem.ProductID,
			Name:      cartItem.ProductName,
			Image:     image,
			Quantity:  cartItem.Quantity,
			Size:      cartItem.Size,
			Color:     cartItem.Color,
			Price:     cartItem.Price,
		})
	}

	subtotal := cart.TotalPrice
	shippingPrice := flatShippingPrice
	if subtotal > freeShippingThreshold {
		shippingPrice = 0
	}
	taxPrice := round2(subtotal * taxRate)
	totalPrice := round2(subtotal + shippingPrice + taxPrice)

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   "stripe",
		Subtotal:        subtotal,
		ShippingPrice:   shippingPrice,
		TaxPrice:        taxPrice,
		TotalPrice:      totalPrice,
		Status:          models.OrderStatusPending,
	}

	order, err = s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	// Списание остатков: без проверки достаточности на этот момент —
	// гонка с добавлением в корзину может увести остаток в минус.
	for _, item := range cart.Items {
		if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Error("failed to decrement stock",
				slog.Int64("productID", item.ProductID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to decrement stock: %w", op, err)
		}
	}

	if err := s.cartRepo.ClearItems(ctx, cart.ID); err != nil {
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}
	if err := s.cartRepo.RecalculateTotal(ctx, cart.ID); err != nil {
		logger.Error("failed to recalculate cart total", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("order created", slog.Int64("orderID", order.ID), slog.Float64("total", order.TotalPrice))
	return order, nil
}

func (s *orderService) MyOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.MyOrders"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) GetByID(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.Order, error) {
	const op = "service.OrderService.GetByID"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID != requesterID && !isAdmin {
		s.log.Warn("order access denied", slog.String("op", op),
			slog.Int64("orderID", orderID), slog.Int64("requesterID", requesterID))
		return nil, fmt.Errorf("%s: %w", op, ErrNotOwned)
	}
	return order, nil
}

func (s *orderService) AdminList(ctx context.Context, status string, page, limit int) (*OrderPage, error) {
	const op = "service.OrderService.AdminList"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = adminPageSize
	}

	orders, total, err := s.orderRepo.ListOrders(ctx, status, limit, (page-1)*limit)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &OrderPage{Orders: orders, Page: page, Pages: pages(total, limit), Total: total}, nil
}

// UpdateStatus ставит статус без таблицы переходов; delivered дополнительно
// выставляет isDelivered и deliveredAt.
func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", status))

	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}

	var deliveredAt *time.Time
	if status == models.OrderStatusDelivered {
		now := time.Now()
		deliveredAt = &now
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status, deliveredAt); err != nil {
		logger.Warn("failed to update status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("order status updated")
	return order, nil
}

func (s *orderService) Stats(ctx context.Context) (*DashboardStats, error) {
	const op = "service.OrderService.Stats"

	totalOrders, err := s.orderRepo.CountOrders(ctx, "")
	if err != nil {
		s.log.Error("failed to count orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	revenue, err := s.orderRepo.PaidRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	totalProducts, err := s.productRepo.CountProducts(ctx, storage.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pendingOrders, err := s.orderRepo.CountOrders(ctx, models.OrderStatusPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	recent, err := s.orderRepo.RecentOrders(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &DashboardStats{
		TotalOrders:   totalOrders,
		TotalRevenue:  revenue,
		TotalProducts: totalProducts,
		PendingOrders: pendingOrders,
		RecentOrders:  recent,
	}, nil
}
