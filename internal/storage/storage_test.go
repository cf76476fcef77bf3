package storage_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/storage"
	"github.com/stretchr/testify/assert"
)

var userColumns = []string{
	"id", "name", "email", "pass_hash", "role", "phone",
	"address_street", "address_city", "address_state", "address_zip", "address_country", "created_at",
}

func TestGetUserByID_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()
	userID := int64(1)

	rows := sqlmock.NewRows(userColumns).
		AddRow(userID, "Alice", "alice@example.com", []byte("hashed-password"), "user", "",
			"", "", "", "", "", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs(userID).WillReturnRows(rows)

	user, err := repo.GetUserByID(ctx, userID)
	assert.NoError(t, err, "Expected no error when user is found")
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, []byte("hashed-password"), user.PassHash)
	assert.Equal(t, models.RoleUser, user.Role)

	// Проверяем, что все ожидания sqlmock выполнены.
	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetUserByID_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.GetUserByID(context.Background(), 2)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user, "User should be nil when not found")

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	// Эмулируем нарушение уникальности email (код 23505).
	mock.ExpectQuery("INSERT INTO users (.+) RETURNING id, created_at").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err = repo.CreateUser(context.Background(), &models.User{
		Name:     "Alice",
		Email:    "alice@example.com",
		PassHash: []byte("hashed"),
		Role:     models.RoleUser,
	})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestCountProducts_FilterSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	minPrice := 10.5
	featured := true

	// Условия фильтра должны попасть в WHERE с позиционными аргументами
	// в порядке заполнения.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products p JOIN categories c ON p\.category_id = c\.id`+
		` WHERE p\.is_active = TRUE AND p\.category_id = \$1 AND p\.price >= \$2`+
		` AND p\.sizes && \$3 AND \(p\.name ILIKE \$4 OR p\.description ILIKE \$4\) AND p\.featured = \$5`).
		WithArgs(int64(5), minPrice, pq.Array([]string{"S", "M"}), "%hoodie%", featured).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountProducts(context.Background(), storage.ProductFilter{
		ActiveOnly: true,
		CategoryID: 5,
		MinPrice:   &minPrice,
		Sizes:      []string{"S", "M"},
		Search:     "hoodie",
		Featured:   &featured,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestDecrementStock_NoLowerBound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)

	// Запрос не содержит условия stock >= quantity: списание безусловное.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock = stock - $1 WHERE id = $2")).
		WithArgs(3, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.DecrementStock(context.Background(), 1, 3)
	assert.NoError(t, err)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestEnsureCart_CreatesOnFirstCall(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING RETURNING id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	id, created, err := repo.EnsureCart(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.True(t, created, "First call creates the cart")

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestEnsureCart_ReusesExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)

	// ON CONFLICT DO NOTHING не возвращает строк для существующей корзины,
	// затем id читается отдельным SELECT.
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING RETURNING id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	id, created, err := repo.EnsureCart(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.False(t, created, "Existing cart is reused")

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestRecalculateTotal(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)

	mock.ExpectExec(`UPDATE carts\s+SET total_price = COALESCE`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.RecalculateTotal(context.Background(), 3)
	assert.NoError(t, err)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestRecalculateTotal_CartNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)

	mock.ExpectExec(`UPDATE carts\s+SET total_price = COALESCE`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.RecalculateTotal(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrCartNotFound)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestMarkPaid(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	paidAt := time.Now()

	mock.ExpectExec(`UPDATE orders\s+SET is_paid = TRUE`).
		WithArgs(paidAt, models.OrderStatusProcessing, "pi_123", "paid", "2026-01-02T15:04:05Z", "alice@example.com", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkPaid(context.Background(), 1, paidAt, models.PaymentResult{
		ID:         "pi_123",
		Status:     "paid",
		UpdateTime: "2026-01-02T15:04:05Z",
		Email:      "alice@example.com",
	})
	assert.NoError(t, err)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestMarkPaid_OrderNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	mock.ExpectExec(`UPDATE orders\s+SET is_paid = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkPaid(context.Background(), 99, time.Now(), models.PaymentResult{ID: "pi_123"})
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestCreateOrder_RollsBackOnItemError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders (.+) RETURNING id, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectQuery("INSERT INTO order_items (.+) RETURNING id").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = repo.CreateOrder(context.Background(), &models.Order{
		UserID: 7,
		Items: []*models.OrderItem{
			{ProductID: 1, Name: "Urban Hoodie", Quantity: 2, Price: 40.0},
		},
		Subtotal:      80.0,
		ShippingPrice: 10.0,
		TaxPrice:      6.40,
		TotalPrice:    96.40,
		Status:        models.OrderStatusPending,
	})
	assert.Error(t, err, "Item insert failure must abort the whole order")

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestUpdateStatus_Delivered(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	deliveredAt := time.Now()

	mock.ExpectExec(`UPDATE orders\s+SET status = \$1`).
		WithArgs(models.OrderStatusDelivered, deliveredAt, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(context.Background(), 1, models.OrderStatusDelivered, &deliveredAt)
	assert.NoError(t, err)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}
