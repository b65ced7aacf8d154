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
	"github.com/kmalykh/webstore/internal/app"
	"github.com/kmalykh/webstore/internal/app/handlers"
	"github.com/kmalykh/webstore/internal/config"
	"github.com/kmalykh/webstore/internal/lib/logger"
	"github.com/kmalykh/webstore/internal/lib/logger/handlers/urllog"
	"github.com/kmalykh/webstore/internal/service"
	"github.com/kmalykh/webstore/internal/storage"
	"github.com/kmalykh/webstore/internal/token"
	"github.com/kmalykh/webstore/internal/token/tokenmiddleware"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// менеджер токенов создаётся до всего остального: короткий или пустой
	// секрет валит сервис на старте, запасного секрета в коде нет
	tokens, err := token.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TokenTTLHours)*time.Hour)
	if err != nil {
		log.Error("failed to initialize token manager", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize token manager"))
	}

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

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, tokens)
	productService := service.NewProductService(application.Logger, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, productRepo, orderRepo)

	router.Get("/health", handlers.HealthHandler(application.Logger, application.DB))

	router.Route("/api", func(r chi.Router) {
		// аутентификация и публичная часть каталога
		r.Post("/auth/register", handlers.RegisterHandler(application.Logger, authService))
		r.Post("/auth/login", handlers.LoginHandler(application.Logger, authService))
		r.Get("/products", handlers.ListProductsHandler(application.Logger, productService))
		r.Get("/products/{id}", handlers.GetProductHandler(application.Logger, productService))

		// эндпоинты, требующие bearer-токен
		r.Group(func(r chi.Router) {
			r.Use(tokenmiddleware.New(tokens))
			r.Post("/products", handlers.CreateProductHandler(application.Logger, productService))
			r.Put("/products/{id}", handlers.UpdateProductHandler(application.Logger, productService))
			r.Delete("/products/{id}", handlers.DeleteProductHandler(application.Logger, productService))
			r.Post("/orders", handlers.CreateOrderHandler(application.Logger, orderService))
			r.Get("/orders", handlers.ListOrdersHandler(application.Logger, orderService))
			r.Get("/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
		})
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
