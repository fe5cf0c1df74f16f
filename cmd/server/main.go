package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/app"
	"github.com/titipin/titip-backend/internal/config"
	"github.com/titipin/titip-backend/internal/db"
	"github.com/titipin/titip-backend/internal/events"
	httpHandlers "github.com/titipin/titip-backend/internal/http/handlers"
	"github.com/titipin/titip-backend/internal/http/middleware"
	httpRouter "github.com/titipin/titip-backend/internal/http/router"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}
	log := logger.WithComponent("main")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPool)
	if err != nil {
		log.Fatalf("ошибка подключения к базе: %v", err)
	}
	defer safeClose(log, dbConn)

	applied, err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath)
	if err != nil {
		log.Fatalf("ошибка миграций: %v", err)
	}
	if len(applied) > 0 {
		log.WithField("migrations", applied).Info("миграции применены")
	}

	// Вебсокеты и шина событий.
	hub := ws.NewHub(ctx)
	go hub.Run()

	var bus events.BusPublisher = events.NoopBus{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitBus(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ недоступен, события уходят только в websocket")
		} else {
			defer rabbit.Close()
			bus = rabbit
		}
	}
	emitter := events.NewEmitter(hub, bus)
	defer emitter.Close()

	services, err := app.NewServices(ctx, cfg, dbConn, emitter)
	if err != nil {
		log.Fatalf("ошибка инициализации сервисов: %v", err)
	}

	limiterStore, closeLimiter, err := middleware.NewLimiterStore(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("ошибка подключения к хранилищу лимитов: %v", err)
	}
	defer func() {
		if err := closeLimiter(); err != nil {
			log.WithError(err).Warn("ошибка закрытия хранилища лимитов")
		}
	}()

	// HTTP хэндлеры.
	maxUpload := services.Files.MaxUploadBytes()
	handlers := httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(services.Auth),
		Profile:      httpHandlers.NewProfileHandler(services.Profiles, maxUpload),
		Order:        httpHandlers.NewOrderHandler(services.Escrow, services.Orders),
		Chat:         httpHandlers.NewChatHandler(services.Chat, maxUpload),
		Review:       httpHandlers.NewReviewHandler(services.Reviews),
		Wallet:       httpHandlers.NewWalletHandler(services.Wallet, services.WalletQueries),
		Notification: httpHandlers.NewNotificationHandler(services.Notifications),
		Admin:        httpHandlers.NewAdminHandler(services.Wallet, services.Profiles),
		Health: httpHandlers.NewHealthHandler(map[string]httpHandlers.HealthCheck{
			"database": dbConn.PingContext,
		}),
		WS: httpHandlers.NewWSHandler(hub, services.Tokens, cfg.AllowedOrigins),
	}

	engine := httpRouter.SetupRouter(cfg, handlers, services.Tokens, limiterStore)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("ошибка остановки http сервера")
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(log *logrus.Entry, db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.WithError(err).Error("ошибка закрытия базы")
	}
}
