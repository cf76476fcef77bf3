package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/linemk/urban-shop/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// Ключи сортировки каталога
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortRating    = "rating"
)

// ProductFilter — набор независимых необязательных условий выборки,
// объединяемых по AND. Нулевые значения означают отсутствие условия.
type ProductFilter struct {
	CategoryID int64
	MinPrice   *float64
	MaxPrice   *float64
	Sizes      []string
	Search     string
	Featured   *bool
	ActiveOnly bool
}

// ProductStorage описывает методы для работы с товарами каталога.
type ProductStorage interface {
	ListProducts(ctx context.Context, filter ProductFilter, sort string, limit, offset int) ([]*models.Product, error)
	CountProducts(ctx context.Context, filter ProductFilter) (int64, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]*models.Product, error)
	ListRelated(ctx context.Context, categoryID, excludeID int64, limit int) ([]*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	// DecrementStock уменьшает остаток без проверки достаточности:
	// гонка между проверкой в корзине и оформлением заказа может увести
	// остаток в минус, это известное поведение, сохранённое намеренно.
	DecrementStock(ctx context.Context, productID int64, quantity int) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *productRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.compare_price,
	p.images, p.category_id, c.name, c.slug, p.sizes, p.colors, p.stock,
	p.featured, p.is_active, p.rating, p.num_reviews, p.created_at`

const productFrom = " FROM products p JOIN categories c ON p.category_id = c.id"

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID, &product.Name, &product.Slug, &product.Description,
		&product.Price, &product.ComparePrice,
		pq.Array(&product.Images), &product.CategoryID,
		&product.CategoryName, &product.CategorySlug,
		pq.Array(&product.Sizes), pq.Array(&product.Colors), &product.Stock,
		&product.Featured, &product.IsActive, &product.Rating, &product.NumReviews,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// buildProductWhere собирает WHERE из заполненных условий фильтра.
// Возвращает SQL-фрагмент (возможно пустой) и позиционные аргументы.
func buildProductWhere(filter ProductFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	next := func() int { return len(args) + 1 }

	if filter.ActiveOnly {
		clauses = append(clauses, "p.is_active = TRUE")
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("p.price <= $%d", len(args)))
	}
	if len(filter.Sizes) > 0 {
		args = append(args, pq.Array(filter.Sizes))
		clauses = append(clauses, fmt.Sprintf("p.sizes && $%d", len(args)))
	}
	if filter.Search != "" {
		n := next()
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", n, n))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		clauses = append(clauses, fmt.Sprintf("p.featured = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case SortPriceAsc:
		return " ORDER BY p.price ASC"
	case SortPriceDesc:
		return " ORDER BY p.price DESC"
	case SortRating:
		return " ORDER BY p.rating DESC"
	default: // newest
		return " ORDER BY p.created_at DESC"
	}
}

func (r *productRepository) ListProducts(ctx context.Context, filter ProductFilter, sort string, limit, offset int) ([]*models.Product, error) {
	where, args := buildProductWhere(filter)
	query := "SELECT " + productColumns + productFrom + where + orderClause(sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CountProducts(ctx context.Context, filter ProductFilter) (int64, error) {
	where, args := buildProductWhere(filter)
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+productFrom+where, args...).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+productFrom+" WHERE p.id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+productFrom+" WHERE p.slug = $1", slug)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) ListFeatured(ctx context.Context, limit int) ([]*models.Product, error) {
	featured := true
	return r.ListProducts(ctx, ProductFilter{ActiveOnly: true, Featured: &featured}, SortNewest, limit, 0)
}

func (r *productRepository) ListRelated(ctx context.Context, categoryID, excludeID int64, limit int) ([]*models.Product, error) {
	query := "SELECT " + productColumns + productFrom +
		" WHERE p.category_id = $1 AND p.id <> $2 AND p.is_active = TRUE LIMIT $3"
	rows, err := r.db.QueryContext(ctx, query, categoryID, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (name, slug, description, price, compare_price, images,
			category_id, sizes, colors, stock, featured, is_active, rating, num_reviews)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at`,
		product.Name, product.Slug, product.Description, product.Price, product.ComparePrice,
		pq.Array(product.Images), product.CategoryID, pq.Array(product.Sizes),
		pq.Array(product.Colors), product.Stock, product.Featured, product.IsActive,
		product.Rating, product.NumReviews,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $1, slug = $2, description = $3, price = $4,
			compare_price = $5, images = $6, category_id = $7, sizes = $8, colors = $9,
			stock = $10, featured = $11, is_active = $12, rating = $13, num_reviews = $14
		 WHERE id = $15`,
		product.Name, product.Slug, product.Description, product.Price, product.ComparePrice,
		pq.Array(product.Images), product.CategoryID, pq.Array(product.Sizes),
		pq.Array(product.Colors), product.Stock, product.Featured, product.IsActive,
		product.Rating, product.NumReviews, product.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSlugTaken
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2", quantity, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
