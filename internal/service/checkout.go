package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/storage"
)

// EventCheckoutCompleted — единственный тип события платёжного провайдера,
// который мы обрабатываем; остальные подтверждаются без действий.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutLineItem — позиция платёжной сессии, сумма в минорных единицах.
type CheckoutLineItem struct {
	Name       string
	Images     []string
	UnitAmount int64
	Quantity   int64
}

type CheckoutSessionParams struct {
	OrderID    string
	LineItems  []CheckoutLineItem
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutEvent — уже проверенное и разобранное событие вебхука.
type CheckoutEvent struct {
	Type          string
	OrderID       string
	PaymentID     string
	PaymentStatus string
	PayerEmail    string
}

// PaymentGateway — создание платёжной сессии у внешнего провайдера.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
}

// WebhookVerifier проверяет подпись сырого тела вебхука и разбирает событие.
type WebhookVerifier interface {
	VerifyEvent(payload []byte, signature string) (*CheckoutEvent, error)
}

// CheckoutService — платёжная сессия для заказа и обработка вебхука оплаты.
type CheckoutService interface {
	CreateSession(ctx context.Context, orderID int64) (string, error)
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type checkoutService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
	gateway   PaymentGateway
	verifier  WebhookVerifier
	clientURL string
}

func NewCheckoutService(log *slog.Logger, orderRepo storage.OrderStorage, gateway PaymentGateway, verifier WebhookVerifier, clientURL string) CheckoutService {
	return &checkoutService{
		log:       log,
		orderRepo: orderRepo,
		gateway:   gateway,
		verifier:  verifier,
		clientURL: clientURL,
	}
}

// minorUnits переводит цену в минорные единицы валюты (центы).
func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateSession строит платёжную сессию по позициям заказа; доставка и налог
// идут отдельными синтетическими позициями, чтобы сумма сессии сошлась
// с totalPrice заказа.
func (s *checkoutService) CreateSession(ctx context.Context, orderID int64) (string, error) {
	const op = "service.CheckoutService.CreateSession"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	lineItems := make([]CheckoutLineItem, 0, len(order.Items)+2)
	for _, item := range order.Items {
		var images []string
		if item.Image != "" {
			images = []string{item.Image}
		}
		lineItems = append(lineItems, CheckoutLineItem{
			Name:       item.Name,
			Images:     images,
			UnitAmount: minorUnits(item.Price),
			Quantity:   int64(item.Quantity),
		})
	}
	if order.ShippingPrice > 0 {
		lineItems = append(lineItems, CheckoutLineItem{
			Name:       "Shipping",
			UnitAmount: minorUnits(order.ShippingPrice),
			Quantity:   1,
		})
	}
	if order.TaxPrice > 0 {
		lineItems = append(lineItems, CheckoutLineItem{
			Name:       "Tax",
			UnitAmount: minorUnits(order.TaxPrice),
			Quantity:   1,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutSessionParams{
		OrderID:    strconv.FormatInt(order.ID, 10),
		LineItems:  lineItems,
		SuccessURL: fmt.Sprintf("%s/order/%d?success=true", s.clientURL, order.ID),
		CancelURL:  fmt.Sprintf("%s/order/%d?cancelled=true", s.clientURL, order.ID),
	})
	if err != nil {
		logger.Error("payment gateway error", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w: %v", op, ErrGateway, err)
	}

	if err := s.orderRepo.SetCheckoutSession(ctx, order.ID, session.ID); err != nil {
		logger.Error("failed to save checkout session", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("checkout session created", slog.String("sessionID", session.ID))
	return session.URL, nil
}

// HandleEvent проверяет подпись и помечает заказ оплаченным.
// Событие по неизвестному заказу и нецелевые типы подтверждаются молча:
// провайдер перестаёт ретраить. Повторная доставка того же события просто
// перезапишет те же платёжные поля.
func (s *checkoutService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	const op = "service.CheckoutService.HandleEvent"
	logger := s.log.With(slog.String("op", op))

	event, err := s.verifier.VerifyEvent(payload, signature)
	if err != nil {
		logger.Warn("webhook signature verification failed", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	if event.Type != EventCheckoutCompleted {
		logger.Info("ignoring webhook event", slog.String("type", event.Type))
		return nil
	}

	orderID, err := strconv.ParseInt(event.OrderID, 10, 64)
	if err != nil {
		logger.Warn("webhook without valid order id", slog.String("orderID", event.OrderID))
		return nil
	}

	result := models.PaymentResult{
		ID:         event.PaymentID,
		Status:     event.PaymentStatus,
		UpdateTime: time.Now().Format(time.RFC3339),
		Email:      event.PayerEmail,
	}

	if err := s.orderRepo.MarkPaid(ctx, orderID, time.Now(), result); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("webhook for unknown order", slog.Int64("orderID", orderID))
			return nil
		}
		logger.Error("failed to mark order paid", slog.Int64("orderID", orderID), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("order marked as paid", slog.Int64("orderID", orderID))
	return nil
}
