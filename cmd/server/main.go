package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linemk/urban-shop/internal/app"
	"github.com/linemk/urban-shop/internal/app/handlers"
	"github.com/linemk/urban-shop/internal/config"
	"github.com/linemk/urban-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/urban-shop/internal/lib/logger"
	"github.com/linemk/urban-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/urban-shop/internal/payment"
	"github.com/linemk/urban-shop/internal/service"
	"github.com/linemk/urban-shop/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	// cookie-сессии фронтенда требуют credentials, поэтому origin задаётся явно
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Client.URL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	// платёжный шлюз и верификатор вебхуков
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	verifier := payment.NewStripeWebhook(cfg.Stripe.WebhookSecret)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(cfg.JWT.TokenTTL)*time.Hour)
	userService := service.NewUserService(application.Logger, userRepo)
	catalogService := service.NewCatalogService(application.Logger, productRepo)
	categoryService := service.NewCategoryService(application.Logger, categoryRepo)
	cartService := service.NewCartService(application.Logger, cartRepo, productRepo)
	orderService := service.NewOrderService(application.Logger, orderRepo, cartRepo, productRepo)
	checkoutService := service.NewCheckoutService(application.Logger, orderRepo, gateway, verifier, cfg.Client.URL)

	// публичные эндпоинты
	router.Get("/api/health", handlers.HealthHandler(application.Logger))
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService, cfg.Env))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService, cfg.Env))
	router.Post("/api/auth/logout", handlers.LogoutHandler(application.Logger))

	router.Get("/api/products", handlers.ListProductsHandler(application.Logger, catalogService))
	router.Get("/api/products/featured", handlers.FeaturedProductsHandler(application.Logger, catalogService))
	router.Get("/api/products/slug/{slug}", handlers.GetProductHandler(application.Logger, catalogService))
	router.Get("/api/products/{id}", handlers.GetProductByIDHandler(application.Logger, catalogService))
	router.Get("/api/products/{id}/related", handlers.RelatedProductsHandler(application.Logger, catalogService))
	router.Get("/api/categories", handlers.ListCategoriesHandler(application.Logger, categoryService))
	router.Get("/api/categories/{slug}", handlers.GetCategoryHandler(application.Logger, categoryService))

	// вебхук платёжного шлюза: аутентификация — подписью тела, не токеном
	router.Post("/api/orders/webhook", handlers.StripeWebhookHandler(application.Logger, checkoutService))

	jwtMW := jwtmiddleware.NewJWTMiddleware()

	// эндпоинты за JWT middleware
	router.Group(func(r chi.Router) {
		r.Use(jwtMW)
		r.Get("/api/auth/profile", handlers.ProfileHandler(application.Logger, userService))
		r.Put("/api/auth/profile", handlers.UpdateProfileHandler(application.Logger, userService))

		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/api/cart/add", handlers.AddCartItemHandler(application.Logger, cartService))
		r.Put("/api/cart/item/{itemId}", handlers.UpdateCartItemHandler(application.Logger, cartService))
		r.Delete("/api/cart/item/{itemId}", handlers.RemoveCartItemHandler(application.Logger, cartService))
		r.Delete("/api/cart/clear", handlers.ClearCartHandler(application.Logger, cartService))

		r.Post("/api/orders", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Post("/api/orders/checkout-session", handlers.CheckoutHandler(application.Logger, orderService, checkoutService))
		r.Get("/api/orders/my-orders", handlers.MyOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
	})

	// админские эндпоинты
	router.Group(func(r chi.Router) {
		r.Use(jwtMW)
		r.Use(jwtmiddleware.AdminOnly)
		r.Get("/api/products/admin/all", handlers.AdminListProductsHandler(application.Logger, catalogService))
		r.Post("/api/products", handlers.CreateProductHandler(application.Logger, catalogService))
		r.Put("/api/products/{id}", handlers.UpdateProductHandler(application.Logger, catalogService))
		r.Delete("/api/products/{id}", handlers.DeleteProductHandler(application.Logger, catalogService))

		r.Post("/api/categories", handlers.CreateCategoryHandler(application.Logger, categoryService))
		r.Put("/api/categories/{id}", handlers.UpdateCategoryHandler(application.Logger, categoryService))
		r.Delete("/api/categories/{id}", handlers.DeleteCategoryHandler(application.Logger, categoryService))

		r.Get("/api/orders", handlers.AdminListOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/stats", handlers.StatsHandler(application.Logger, orderService))
		r.Put("/api/orders/{id}/status", handlers.UpdateOrderStatusHandler(application.Logger, orderService))

		r.Get("/api/auth/users", handlers.ListUsersHandler(application.Logger, userService))
		r.Get("/api/auth/users/{id}", handlers.GetUserHandler(application.Logger, userService))
		r.Put("/api/auth/users/{id}", handlers.UpdateUserHandler(application.Logger, userService))
		r.Delete("/api/auth/users/{id}", handlers.DeleteUserHandler(application.Logger, userService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
