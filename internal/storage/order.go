package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/linemk/urban-shop/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет заказ вместе с позициями в одной транзакции.
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// ListOrders возвращает страницу заказов (опционально по статусу) и общее количество.
	ListOrders(ctx context.Context, status string, limit, offset int) ([]*models.Order, int64, error)
	SetCheckoutSession(ctx context.Context, orderID int64, sessionID string) error
	// MarkPaid фиксирует подтверждение оплаты из вебхука: isPaid, paidAt,
	// статус processing и данные платёжной транзакции.
	MarkPaid(ctx context.Context, orderID int64, paidAt time.Time, result models.PaymentResult) error
	// UpdateStatus ставит статус без проверки переходов; deliveredAt != nil
	// дополнительно выставляет is_delivered.
	UpdateStatus(ctx context.Context, orderID int64, status string, deliveredAt *time.Time) error

	// Агрегации для админской панели
	CountOrders(ctx context.Context, status string) (int64, error)
	PaidRevenue(ctx context.Context) (float64, error)
	RecentOrders(ctx context.Context, limit int) ([]*models.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *orderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.user_id, u.name, u.email,
	o.shipping_full_name, o.shipping_street, o.shipping_city, o.shipping_state,
	o.shipping_zip, o.shipping_country, o.shipping_phone,
	o.payment_method, o.payment_id, o.payment_status, o.payment_update_time, o.payment_email,
	o.subtotal, o.shipping_price, o.tax_price, o.total_price,
	o.status, o.is_paid, o.paid_at, o.is_delivered, o.delivered_at,
	o.stripe_session_id, o.created_at`

const orderFrom = " FROM orders o JOIN users u ON o.user_id = u.id"

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	order := &models.Order{}
	var paymentID, paymentStatus, paymentUpdateTime, paymentEmail string
	err := row.Scan(
		&order.ID, &order.UserID, &order.UserName, &order.UserEmail,
		&order.ShippingAddress.FullName, &order.ShippingAddress.Street,
		&order.ShippingAddress.City, &order.ShippingAddress.State,
		&order.ShippingAddress.ZipCode, &order.ShippingAddress.Country,
		&order.ShippingAddress.Phone,
		&order.PaymentMethod, &paymentID, &paymentStatus, &paymentUpdateTime, &paymentEmail,
		&order.Subtotal, &order.ShippingPrice, &order.TaxPrice, &order.TotalPrice,
		&order.Status, &order.IsPaid, &order.PaidAt, &order.IsDelivered, &order.DeliveredAt,
		&order.StripeSessionID, &order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentID != "" || paymentStatus != "" {
		order.PaymentResult = &models.PaymentResult{
			ID:         paymentID,
			Status:     paymentStatus,
			UpdateTime: paymentUpdateTime,
			Email:      paymentEmail,
		}
	}
	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id,
			shipping_full_name, shipping_street, shipping_city, shipping_state,
			shipping_zip, shipping_country, shipping_phone,
			payment_method, subtotal, shipping_price, tax_price, total_price, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at`,
		order.UserID,
		order.ShippingAddress.FullName, order.ShippingAddress.Street,
		order.ShippingAddress.City, order.ShippingAddress.State,
		order.ShippingAddress.ZipCode, order.ShippingAddress.Country,
		order.ShippingAddress.Phone,
		order.PaymentMethod, order.Subtotal, order.ShippingPrice,
		order.TaxPrice, order.TotalPrice, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return nil, fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		item.OrderID = order.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, image, quantity, size, color, price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			order.ID, item.ProductID, item.Name, item.Image,
			item.Quantity, item.Size, item.Color, item.Price,
		).Scan(&item.ID)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return nil, fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// loadItems загружает позиции для набора заказов одним запросом.
func (r *orderRepository) loadItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
		byID[order.ID] = order
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, image, quantity, size, color, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.Image, &item.Quantity, &item.Size, &item.Color, &item.Price); err != nil {
			return err
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+orderFrom+" WHERE o.id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+orderFrom+" WHERE o.user_id = $1 ORDER BY o.created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListOrders(ctx context.Context, status string, limit, offset int) ([]*models.Order, int64, error) {
	query := "SELECT " + orderColumns + orderFrom
	countQuery := "SELECT COUNT(*) FROM orders"
	var args []interface{}
	var countArgs []interface{}
	if status != "" {
		query += " WHERE o.status = $1 ORDER BY o.created_at DESC LIMIT $2 OFFSET $3"
		countQuery += " WHERE status = $1"
		args = append(args, status, limit, offset)
		countArgs = append(countArgs, status)
	} else {
		query += " ORDER BY o.created_at DESC LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) SetCheckoutSession(ctx context.Context, orderID int64, sessionID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET stripe_session_id = $1 WHERE id = $2", sessionID, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderID int64, paidAt time.Time, result models.PaymentResult) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $1, status = $2,
		    payment_id = $3, payment_status = $4, payment_update_time = $5, payment_email = $6
		WHERE id = $7`,
		paidAt, models.OrderStatusProcessing,
		result.ID, result.Status, result.UpdateTime, result.Email, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, status string, deliveredAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    is_delivered = CASE WHEN $2::timestamptz IS NOT NULL THEN TRUE ELSE is_delivered END,
		    delivered_at = COALESCE($2, delivered_at)
		WHERE id = $3`,
		status, deliveredAt, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) CountOrders(ctx context.Context, status string) (int64, error) {
	var total int64
	var err error
	if status != "" {
		err = r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM orders WHERE status = $1", status).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&total)
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *orderRepository) PaidRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE is_paid = TRUE").Scan(&revenue)
	if err != nil {
		return 0, err
	}
	return revenue, nil
}

func (r *orderRepository) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+orderFrom+" ORDER BY o.created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}
