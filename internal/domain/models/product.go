package models

import "time"

// Product представляет товар каталога.
// CategoryName и CategorySlug заполняются через JOIN с таблицей categories.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"` // уникальный
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	ComparePrice *float64  `json:"comparePrice,omitempty"`
	Images       []string  `json:"images"`
	CategoryID   int64     `json:"categoryId"`
	CategoryName string    `json:"categoryName,omitempty"`
	CategorySlug string    `json:"categorySlug,omitempty"`
	Sizes        []string  `json:"sizes"`
	Colors       []string  `json:"colors"`
	Stock        int       `json:"stock"`
	Featured     bool      `json:"featured"`
	IsActive     bool      `json:"isActive"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"numReviews"`
	CreatedAt    time.Time `json:"createdAt"`
}
