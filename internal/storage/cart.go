package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/linemk/urban-shop/internal/domain/models"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartStorage описывает методы для работы с корзиной.
// После каждой мутации позиций сервис обязан вызвать RecalculateTotal,
// чтобы сохранить инвариант total_price == Σ(price * quantity).
type CartStorage interface {
	// EnsureCart идемпотентно создаёт корзину пользователя и возвращает её id
	// и признак того, что корзина была создана этим вызовом.
	EnsureCart(ctx context.Context, userID int64) (int64, bool, error)
	// GetCartByUserID возвращает корзину с позициями и данными товаров (JOIN).
	GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	// FindItem ищет позицию по варианту (товар + размер + цвет).
	FindItem(ctx context.Context, cartID, productID int64, size, color string) (*models.CartItem, error)
	InsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
	// RecalculateTotal пересчитывает total_price на стороне БД.
	RecalculateTotal(ctx context.Context, cartID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *cartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) EnsureCart(ctx context.Context, userID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING RETURNING id",
		userID,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	// корзина уже существует
	err = r.db.QueryRowContext(ctx,
		"SELECT id FROM carts WHERE user_id = $1", userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, ErrCartNotFound
		}
		return 0, false, err
	}
	return id, false, nil
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, total_price, created_at, updated_at FROM carts WHERE user_id = $1",
		userID)
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.TotalPrice, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.size, ci.color, ci.price,
		       p.name, p.slug, p.images, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&item.Size, &item.Color, &item.Price,
			&item.ProductName, &item.ProductSlug, pq.Array(&item.ProductImages),
			&item.ProductStock); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) FindItem(ctx context.Context, cartID, productID int64, size, color string) (*models.CartItem, error) {
	item := &models.CartItem{}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, product_id, quantity, size, color, price
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2 AND size = $3 AND color = $4`,
		cartID, productID, size, color)
	if err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
		&item.Size, &item.Color, &item.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *cartRepository) InsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity, size, color, price)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		item.CartID, item.ProductID, item.Quantity, item.Size, item.Color, item.Price,
	).Scan(&item.ID)
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE id = $2 AND cart_id = $3",
		quantity, itemID, cartID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1 AND cart_id = $2", itemID, cartID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	return err
}

func (r *cartRepository) RecalculateTotal(ctx context.Context, cartID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET total_price = COALESCE((SELECT SUM(price * quantity) FROM cart_items WHERE cart_id = $1), 0),
		    updated_at = NOW()
		WHERE id = $1`, cartID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotFound
	}
	return nil
}
