package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/flytster-backend/internal/config"
	"github.com/ignatzorin/flytster-backend/internal/db"
	httpHandlers "github.com/ignatzorin/flytster-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/flytster-backend/internal/http/router"
	"github.com/ignatzorin/flytster-backend/internal/logger"
	"github.com/ignatzorin/flytster-backend/internal/notifier"
	"github.com/ignatzorin/flytster-backend/internal/pricing"
	"github.com/ignatzorin/flytster-backend/internal/repository"
	"github.com/ignatzorin/flytster-backend/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Уведомления уходят в очередь; без брокера работаем через лог.
	var notify notifier.Notifier
	if cfg.AMQPURL != "" {
		notify = notifier.NewAMQPNotifier(cfg.AMQPURL)
	} else {
		notify = notifier.NewLogNotifier()
	}

	provider := pricing.NewStaticProvider()

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	tokenRepo := repository.NewTokenRepository(dbConn)
	tripRepo := repository.NewTripRepository(dbConn)
	passengerRepo := repository.NewPassengerRepository(dbConn)

	// Сервисы.
	tokenService := service.NewTokenService(tokenRepo, cfg.Tokens)
	authService := service.NewAuthService(userRepo, tokenService, notify)
	userService := service.NewUserService(userRepo, tokenService, notify)
	tripService := service.NewTripService(tripRepo, passengerRepo, provider)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	userHandler := httpHandlers.NewUserHandler(userService)
	tripHandler := httpHandlers.NewTripHandler(tripService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, userHandler, tripHandler, healthHandler, tokenService)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
