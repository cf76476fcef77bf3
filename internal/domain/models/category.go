package models

// Category представляет категорию каталога
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"` // уникальный
	IsActive bool   `json:"isActive"`
}
