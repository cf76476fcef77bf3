package models

import "time"

// Статусы заказа
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus проверяет, что строка является известным статусом заказа.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ShippingAddress — снапшот адреса доставки на момент оформления заказа
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

// PaymentResult — подтверждение оплаты, полученное из вебхука платёжного шлюза
type PaymentResult struct {
	ID         string `json:"id"` // внешний идентификатор транзакции
	Status     string `json:"status"`
	UpdateTime string `json:"updateTime"`
	Email      string `json:"email"`
}

// OrderItem — позиция заказа. Name/Image/Price копируются из товара при создании
// заказа, чтобы последующие правки каталога не меняли историю покупок.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"-"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Price     float64 `json:"price"`
}

// Order представляет заказ пользователя.
// UserName и UserEmail заполняются через JOIN с таблицей users (для админки).
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	UserName        string          `json:"userName,omitempty"`
	UserEmail       string          `json:"userEmail,omitempty"`
	Items           []*OrderItem    `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	Subtotal        float64         `json:"subtotal"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TaxPrice        float64         `json:"taxPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          string          `json:"status"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	StripeSessionID string          `json:"stripeSessionId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
