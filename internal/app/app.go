// Package app собирает репозитории и сервисы для сервера и titipctl.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/titipin/titip-backend/internal/config"
	domainrepo "github.com/titipin/titip-backend/internal/domain/repository"
	"github.com/titipin/titip-backend/internal/infrastructure/persistence"
	"github.com/titipin/titip-backend/internal/pkg/retry"
	"github.com/titipin/titip-backend/internal/repository"
	"github.com/titipin/titip-backend/internal/repository/common"
	"github.com/titipin/titip-backend/internal/service"
	"github.com/titipin/titip-backend/internal/storage"
	"github.com/titipin/titip-backend/internal/usecase/escrow"
	"github.com/titipin/titip-backend/internal/usecase/wallet"
)

type Services struct {
	Tokens        *service.TokenManager
	Files         *storage.LocalStorage
	Ledger        *repository.LedgerRepository
	Auth          *service.AuthService
	Escrow        *escrow.Coordinator
	Wallet        *wallet.Service
	WalletQueries *service.WalletQueryService
	Orders        *service.OrderQueryService
	Chat          *service.ChatService
	Reviews       *service.ReviewService
	Notifications *service.NotificationService
	Profiles      *service.ProfileService
	Seed          *service.SeedService
}

// TxPolicy повторы транзакций при конфликте сериализации.
func TxPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.TxMaxAttempts,
		Delay:       cfg.TxRetryDelay,
		Backoff:     retry.Exponential,
		MaxDelay:    cfg.TxRetryDelay * 8,
	}
}

func UploadPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.UploadMaxAttempts,
		Delay:       cfg.UploadRetryDelay,
		Backoff:     retry.Linear,
	}
}

// NewServices создаёт сервисы поверх подключения к базе. pub получает
// события только после коммита.
func NewServices(ctx context.Context, cfg *config.Config, conn *sqlx.DB, pub domainrepo.EventPublisher) (*Services, error) {
	files, err := storage.NewLocalStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		return nil, fmt.Errorf("app: файловое хранилище: %w", err)
	}

	users := repository.NewUserRepository(conn)
	orders := repository.NewOrderRepository(conn)
	ledger := repository.NewLedgerRepository(conn)
	withdrawals := repository.NewWithdrawalRepository(conn)
	messages := repository.NewMessageRepository(conn)
	notifications := repository.NewNotificationRepository(conn)
	reviews := repository.NewReviewRepository(conn)

	txManager := persistence.NewTxManager(conn, TxPolicy(cfg))
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	reviewTx := func(ctx context.Context, fn func(repo service.ReviewRepository) error) error {
		return common.WithTransaction(ctx, conn, nil, func(tx *sqlx.Tx) error {
			return fn(repository.NewReviewRepository(tx))
		})
	}
	verifyTx := func(ctx context.Context, fn func(users service.UserVerifier, notifications service.NotificationWriter) error) error {
		return common.WithTransaction(ctx, conn, nil, func(tx *sqlx.Tx) error {
			return fn(repository.NewUserRepository(tx), repository.NewNotificationRepository(tx))
		})
	}

	coordinator := escrow.NewCoordinator(txManager, pub)
	walletService := wallet.NewService(txManager, pub, withdrawals, wallet.Limits{
		MinTopUp:      cfg.MinTopUpAmount,
		MinWithdrawal: cfg.MinWithdrawalAmount,
	})
	auth := service.NewAuthService(users, tokens)

	createOrder := func(ctx context.Context, o service.SeedOrder) error {
		_, err := coordinator.CreateOrder(ctx, escrow.CreateOrderInput{
			RequesterID:  o.RequesterID,
			Item:         o.Item,
			Price:        o.Price,
			Tip:          o.Tip,
			FromLocation: o.FromLocation,
			ToLocation:   o.ToLocation,
		})
		return err
	}

	return &Services{
		Tokens:        tokens,
		Files:         files,
		Ledger:        ledger,
		Auth:          auth,
		Escrow:        coordinator,
		Wallet:        walletService,
		WalletQueries: service.NewWalletQueryService(ledger),
		Orders:        service.NewOrderQueryService(orders, service.NewCacheService(ctx)),
		Chat:          service.NewChatService(orders, messages, files, pub, UploadPolicy(cfg)),
		Reviews:       service.NewReviewService(reviews, reviewTx, orders),
		Notifications: service.NewNotificationService(notifications),
		Profiles:      service.NewProfileService(users, verifyTx, files, pub, UploadPolicy(cfg)),
		Seed:          service.NewSeedService(auth, walletService, createOrder, 42),
	}, nil
}
