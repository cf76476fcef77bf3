package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/urban-shop/internal/app/handlers"
	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/urban-shop/internal/service"
	"github.com/linemk/urban-shop/internal/storage"
	"github.com/stretchr/testify/assert"
)

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	user  *models.User
	token string
	err   error
}

func (f *fakeAuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	return f.user, f.token, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	return f.user, f.token, f.err
}

type fakeCartService struct {
	cart *models.Cart
	err  error
}

func (f *fakeCartService) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) AddItem(ctx context.Context, userID, productID int64, quantity int, size, color string) (*models.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) Clear(ctx context.Context, userID int64) error {
	return f.err
}

type fakeOrderService struct {
	order *models.Order
	err   error
}

func (f *fakeOrderService) Create(ctx context.Context, userID int64, address models.ShippingAddress) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) MyOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Order{f.order}, nil
}

func (f *fakeOrderService) GetByID(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) AdminList(ctx context.Context, status string, page, limit int) (*service.OrderPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.OrderPage{Orders: []*models.Order{f.order}, Page: 1, Pages: 1, Total: 1}, nil
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) Stats(ctx context.Context) (*service.DashboardStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.DashboardStats{TotalOrders: 2, TotalRevenue: 96.40, PendingOrders: 1}, nil
}

type fakeCatalogService struct {
	lastInput service.ListProductsInput
	page      *service.ProductPage
	err       error
}

func (f *fakeCatalogService) List(ctx context.Context, input service.ListProductsInput) (*service.ProductPage, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &service.ProductPage{Page: 1, Pages: 1}, nil
}

func (f *fakeCatalogService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return nil, f.err
}

func (f *fakeCatalogService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	return nil, f.err
}

func (f *fakeCatalogService) Featured(ctx context.Context) ([]*models.Product, error) {
	return nil, f.err
}

func (f *fakeCatalogService) Related(ctx context.Context, productID int64) ([]*models.Product, error) {
	return nil, f.err
}

func (f *fakeCatalogService) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	return product, f.err
}

func (f *fakeCatalogService) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	return product, f.err
}

func (f *fakeCatalogService) Delete(ctx context.Context, id int64) error {
	return f.err
}

func (f *fakeCatalogService) AdminList(ctx context.Context, page, limit int) (*service.ProductPage, error) {
	return &service.ProductPage{Page: page, Pages: 1}, f.err
}

type fakeCheckoutService struct {
	url string
	err error
}

func (f *fakeCheckoutService) CreateSession(ctx context.Context, orderID int64) (string, error) {
	return f.url, f.err
}

func (f *fakeCheckoutService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// withIdentity кладёт identity в контекст запроса, как это делает JWT middleware.
func withIdentity(req *http.Request, ident jwtmiddleware.Identity) *http.Request {
	ctx := context.WithValue(req.Context(), jwtmiddleware.IdentityKey, ident)
	return req.WithContext(ctx)
}

func TestRegisterHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{
		user:  &models.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: models.RoleUser},
		token: "test-token",
	}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc, "local")

	reqBody := `{"name": "Alice", "email": "alice@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code, "Expected status 201 Created")

	var resp handlers.AuthResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "test-token", resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	// Токен дублируется в http-only cookie
	cookies := rr.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, jwtmiddleware.CookieName, cookies[0].Name)
	assert.Equal(t, "test-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	fakeSvc := &fakeAuthService{err: storage.ErrEmailTaken}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc, "local")

	reqBody := `{"name": "Alice", "email": "alice@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code, "Duplicate email should map to 409")
}

func TestRegisterHandler_ValidationError(t *testing.T) {
	fakeSvc := &fakeAuthService{}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc, "local")

	// Пароль короче минимума
	reqBody := `{"name": "Alice", "email": "alice@example.com", "password": "123"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for validation error")
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrInvalidCredentials}
	handler := handlers.LoginHandler(testLogger(), fakeSvc, "local")

	reqBody := `{"email": "alice@example.com", "password": "wrongpassword"}`
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Wrong password should map to 401")
}

func TestListProductsHandler_QueryFilters(t *testing.T) {
	fakeSvc := &fakeCatalogService{}
	handler := handlers.ListProductsHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/products?size=M,L&minPrice=25.5&featured=true&category=3&search=hoodie", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, []string{"M", "L"}, fakeSvc.lastInput.Sizes, "size param should be comma-split into the filter")
	assert.Equal(t, int64(3), fakeSvc.lastInput.CategoryID)
	assert.Equal(t, "hoodie", fakeSvc.lastInput.Search)
	if assert.NotNil(t, fakeSvc.lastInput.MinPrice) {
		assert.Equal(t, 25.5, *fakeSvc.lastInput.MinPrice)
	}
	if assert.NotNil(t, fakeSvc.lastInput.Featured) {
		assert.True(t, *fakeSvc.lastInput.Featured)
	}
}

func TestAddCartItemHandler_OutOfStock(t *testing.T) {
	fakeSvc := &fakeCartService{err: service.ErrOutOfStock}
	handler := handlers.AddCartItemHandler(testLogger(), fakeSvc)

	reqBody := `{"productId": 1, "quantity": 5}`
	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(reqBody))
	req = withIdentity(req, jwtmiddleware.Identity{UserID: 7, Role: models.RoleUser})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Out of stock should map to 400")
}

func TestAddCartItemHandler_Unauthorized(t *testing.T) {
	fakeSvc := &fakeCartService{}
	handler := handlers.AddCartItemHandler(testLogger(), fakeSvc)

	reqBody := `{"productId": 1, "quantity": 1}`
	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "No identity in context means 401")
}

func TestCreateOrderHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{order: &models.Order{
		ID:            1,
		UserID:        7,
		Subtotal:      80.0,
		ShippingPrice: 10.0,
		TaxPrice:      6.40,
		TotalPrice:    96.40,
		Status:        models.OrderStatusPending,
	}}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	reqBody := `{"shippingAddress": {"fullName": "Alice Smith", "street": "1 Main St", "city": "Springfield", "country": "US"}}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	req = withIdentity(req, jwtmiddleware.Identity{UserID: 7, Role: models.RoleUser})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp models.Order
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	// Ценовая раскладка видна клиенту целиком
	assert.Equal(t, 80.0, resp.Subtotal)
	assert.Equal(t, 10.0, resp.ShippingPrice)
	assert.Equal(t, 6.40, resp.TaxPrice)
	assert.Equal(t, 96.40, resp.TotalPrice)
}

func TestCreateOrderHandler_EmptyCart(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrEmptyCart}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	reqBody := `{"shippingAddress": {"fullName": "Alice Smith"}}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	req = withIdentity(req, jwtmiddleware.Identity{UserID: 7, Role: models.RoleUser})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Empty cart should map to 400")
}

func TestGetOrderHandler_Forbidden(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrNotOwned}

	router := chi.NewRouter()
	router.Get("/api/orders/{id}", handlers.GetOrderHandler(testLogger(), fakeSvc))

	req := httptest.NewRequest("GET", "/api/orders/1", nil)
	req = withIdentity(req, jwtmiddleware.Identity{UserID: 8, Role: models.RoleUser})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code, "Foreign order should map to 403")
}

func TestCheckoutHandler_GatewayDown(t *testing.T) {
	orderSvc := &fakeOrderService{order: &models.Order{ID: 1, UserID: 7}}
	checkoutSvc := &fakeCheckoutService{err: service.ErrGateway}
	handler := handlers.CheckoutHandler(testLogger(), orderSvc, checkoutSvc)

	req := httptest.NewRequest("POST", "/api/orders/checkout-session", bytes.NewBufferString(`{"orderId": 1}`))
	req = withIdentity(req, jwtmiddleware.Identity{UserID: 7, Role: models.RoleUser})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadGateway, rr.Code, "Gateway failure should map to 502")
}

func TestCheckoutHandler_ForeignOrder(t *testing.T) {
	orderSvc := &fakeOrderService{err: service.ErrNotOwned}
	checkoutSvc := &fakeCheckoutService{url: "https://checkout.stripe.com/pay/cs_test"}
	handler := handlers.CheckoutHandler(testLogger(), orderSvc, checkoutSvc)

	req := httptest.NewRequest("POST", "/api/orders/checkout-session", bytes.NewBufferString(`{"orderId": 1}`))
	req = withIdentity(req, jwtmiddleware.Identity{UserID: 8, Role: models.RoleUser})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code, "Ownership check should fire before the gateway call")
}

func TestStripeWebhookHandler_Success(t *testing.T) {
	fakeSvc := &fakeCheckoutService{}
	handler := handlers.StripeWebhookHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/orders/webhook", bytes.NewBufferString(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]bool
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.True(t, resp["received"], "Webhook should acknowledge with received=true")
}

func TestStripeWebhookHandler_BadSignature(t *testing.T) {
	fakeSvc := &fakeCheckoutService{err: service.ErrInvalidSignature}
	handler := handlers.StripeWebhookHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/orders/webhook", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "bad")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Invalid signature should map to 400")
}

func TestUpdateOrderStatusHandler_InvalidStatus(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrInvalidStatus}

	router := chi.NewRouter()
	router.Put("/api/orders/{id}/status", handlers.UpdateOrderStatusHandler(testLogger(), fakeSvc))

	req := httptest.NewRequest("PUT", "/api/orders/1/status", bytes.NewBufferString(`{"status": "teleported"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Unknown status should map to 400")
}

func TestStatsHandler(t *testing.T) {
	fakeSvc := &fakeOrderService{}
	handler := handlers.StatsHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/orders/stats", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp service.DashboardStats
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), resp.TotalOrders)
	assert.Equal(t, 96.40, resp.TotalRevenue)
}
