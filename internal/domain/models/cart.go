package models

import "time"

// CartItem — позиция корзины. Price — снапшот цены товара на момент добавления.
// Поля Product* заполняются через JOIN с таблицей products для отображения.
type CartItem struct {
	ID            int64    `json:"id"`
	CartID        int64    `json:"-"`
	ProductID     int64    `json:"productId"`
	Quantity      int      `json:"quantity"`
	Size          string   `json:"size,omitempty"`
	Color         string   `json:"color,omitempty"`
	Price         float64  `json:"price"`
	ProductName   string   `json:"productName,omitempty"`
	ProductSlug   string   `json:"productSlug,omitempty"`
	ProductImages []string `json:"productImages,omitempty"`
	ProductStock  int      `json:"productStock,omitempty"`
}

// Cart — корзина пользователя, ровно одна на пользователя.
// Инвариант: TotalPrice == Σ(item.Price * item.Quantity) после каждой мутации.
type Cart struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"userId"`
	Items      []*CartItem `json:"items"`
	TotalPrice float64     `json:"totalPrice"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
