package service

import "errors"

// Ошибки бизнес-логики; обработчики транслируют их в HTTP-статусы через errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrNotOwned           = errors.New("order belongs to another user")
	ErrInvalidStatus      = errors.New("unknown order status")
	ErrGateway            = errors.New("payment gateway error")
)

// pages считает количество страниц: ceil(total / limit)
func pages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
