package models

import "time"

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Address — почтовый адрес пользователя (опциональный)
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// User представляет пользователя магазина
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	Role      string    `json:"role"` // "user" или "admin"
	Phone     string    `json:"phone,omitempty"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}
