package payment

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/linemk/urban-shop/internal/service"
)

// StripeGateway — реализация платёжного шлюза поверх Stripe Checkout.
type StripeGateway struct {
	currency string
}

var _ service.PaymentGateway = (*StripeGateway)(nil)

// NewStripeGateway настраивает глобальный API-ключ stripe-go.
func NewStripeGateway(secretKey, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{currency: currency}
}

// CreateCheckoutSession создаёт hosted-checkout сессию и возвращает её id и redirect URL.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params service.CheckoutSessionParams) (*service.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if len(item.Images) > 0 {
			productData.Images = stripe.StringSlice(item.Images)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx
	sessionParams.AddMetadata("orderId", params.OrderID)

	sess, err := session.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}
	return &service.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// StripeWebhook проверяет подпись входящих событий Stripe.
type StripeWebhook struct {
	secret string
}

var _ service.WebhookVerifier = (*StripeWebhook)(nil)

func NewStripeWebhook(secret string) *StripeWebhook {
	return &StripeWebhook{secret: secret}
}

// VerifyEvent проверяет подпись по сырому телу запроса (до любого парсинга)
// и возвращает нормализованное событие оплаты.
func (w *StripeWebhook) VerifyEvent(payload []byte, signature string) (*service.CheckoutEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, w.secret)
	if err != nil {
		return nil, fmt.Errorf("stripe: signature verification failed: %w", err)
	}

	checkoutEvent := &service.CheckoutEvent{Type: string(event.Type)}
	if checkoutEvent.Type != service.EventCheckoutCompleted {
		return checkoutEvent, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("stripe: failed to parse event payload: %w", err)
	}

	checkoutEvent.OrderID = sess.Metadata["orderId"]
	checkoutEvent.PaymentStatus = string(sess.PaymentStatus)
	if sess.PaymentIntent != nil {
		checkoutEvent.PaymentID = sess.PaymentIntent.ID
	}
	checkoutEvent.PayerEmail = sess.CustomerEmail
	if checkoutEvent.PayerEmail == "" && sess.CustomerDetails != nil {
		checkoutEvent.PayerEmail = sess.CustomerDetails.Email
	}
	return checkoutEvent, nil
}
