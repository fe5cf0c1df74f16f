//go:build integration
// +build integration

package app_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/titipin/titip-backend/internal/app"
	"github.com/titipin/titip-backend/internal/config"
	"github.com/titipin/titip-backend/internal/db"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/service"
	"github.com/titipin/titip-backend/internal/usecase/escrow"
	"github.com/titipin/titip-backend/internal/usecase/wallet"
)

// setupServices поднимает PostgreSQL в контейнере, применяет миграции и собирает сервисы.
func setupServices(t *testing.T) *app.Services {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("titip"),
		postgres.WithUsername("titip"),
		postgres.WithPassword("titip"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("не удалось остановить контейнер: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.NewPostgres(ctx, dsn, db.DefaultPool)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = db.RunMigrations(ctx, conn, "../../migrations")
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:           "integration-access-secret",
		RefreshSecret:       "integration-refresh-secret",
		AccessTokenTTL:      time.Minute,
		RefreshTokenTTL:     time.Hour,
		MediaStoragePath:    t.TempDir(),
		MaxUploadSizeMB:     1,
		MinTopUpAmount:      10_000,
		MinWithdrawalAmount: 50_000,
		TxMaxAttempts:       10,
		TxRetryDelay:        5 * time.Millisecond,
		UploadMaxAttempts:   1,
	}

	svcCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	services, err := app.NewServices(svcCtx, cfg, conn, events.NewEmitter(nil, events.NoopBus{}).Synchronous())
	require.NoError(t, err)
	return services
}

func registerUser(t *testing.T, s *app.Services, name string, topUp int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	res, err := s.Auth.Register(ctx, service.RegisterInput{
		Email:    fmt.Sprintf("%s.%s@titip.test", name, uuid.NewString()[:8]),
		Password: "Password123",
		FullName: name,
	}, service.SessionMeta{})
	require.NoError(t, err)

	if topUp > 0 {
		_, err = s.Wallet.TopUp(ctx, res.User.ID, topUp)
		require.NoError(t, err)
	}
	return res.User.ID
}

func createOrder(t *testing.T, s *app.Services, requester uuid.UUID, price, tip int64) uuid.UUID {
	t.Helper()
	order, err := s.Escrow.CreateOrder(context.Background(), escrow.CreateOrderInput{
		RequesterID:  requester,
		Item:         "Bolu Meranti",
		Price:        price,
		Tip:          tip,
		FromLocation: "Medan",
		ToLocation:   "Jakarta",
	})
	require.NoError(t, err)
	return order.ID
}

func requireReconciled(t *testing.T, s *app.Services) {
	t.Helper()
	mismatches, err := s.WalletQueries.Mismatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционные тесты пропущены в режиме -short")
	}

	s := setupServices(t)
	ctx := context.Background()

	t.Run("full delivery credits tip only", func(t *testing.T) {
		requester := registerUser(t, s, "Budi", 200_000)
		traveler := registerUser(t, s, "Siti", 0)

		orderID := createOrder(t, s, requester, 120_000, 15_000)

		balance, err := s.WalletQueries.Balance(ctx, requester)
		require.NoError(t, err)
		assert.Equal(t, int64(65_000), balance)

		_, err = s.Escrow.TakeOrder(ctx, orderID, traveler)
		require.NoError(t, err)
		_, err = s.Escrow.AdvanceDelivery(ctx, orderID, traveler, "bought")
		require.NoError(t, err)
		_, err = s.Escrow.AdvanceDelivery(ctx, orderID, traveler, "otw")
		require.NoError(t, err)

		_, err = s.Escrow.CompleteOrder(ctx, orderID, traveler)
		assert.True(t, apperror.IsForbidden(err), "завершает только заказчик: %v", err)

		order, err := s.Escrow.CompleteOrder(ctx, orderID, requester)
		require.NoError(t, err)
		assert.Equal(t, "done", string(order.Status))

		balance, err = s.WalletQueries.Balance(ctx, traveler)
		require.NoError(t, err)
		assert.Equal(t, int64(15_000), balance)

		_, err = s.Escrow.CompleteOrder(ctx, orderID, requester)
		assert.True(t, apperror.IsIllegalTransition(err))

		balance, err = s.WalletQueries.Balance(ctx, traveler)
		require.NoError(t, err)
		assert.Equal(t, int64(15_000), balance, "чаевые не выплачиваются дважды")

		messages, err := s.Chat.ListMessages(ctx, orderID, requester, 50, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, messages)

		requireReconciled(t, s)
	})

	t.Run("cancel refunds escrow", func(t *testing.T) {
		requester := registerUser(t, s, "Agus", 100_000)
		orderID := createOrder(t, s, requester, 60_000, 10_000)

		_, err := s.Escrow.CancelOrder(ctx, orderID, requester)
		require.NoError(t, err)

		balance, err := s.WalletQueries.Balance(ctx, requester)
		require.NoError(t, err)
		assert.Equal(t, int64(100_000), balance)

		_, err = s.Escrow.CancelOrder(ctx, orderID, requester)
		assert.True(t, apperror.IsIllegalTransition(err))

		requireReconciled(t, s)
	})

	t.Run("only one traveler takes an order", func(t *testing.T) {
		requester := registerUser(t, s, "Dewi", 100_000)
		orderID := createOrder(t, s, requester, 50_000, 5_000)

		const travelers = 8
		ids := make([]uuid.UUID, travelers)
		for i := range ids {
			ids[i] = registerUser(t, s, fmt.Sprintf("Traveler%d", i), 0)
		}

		var (
			wg      sync.WaitGroup
			success int32
		)
		for _, id := range ids {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				_, err := s.Escrow.TakeOrder(ctx, orderID, id)
				if err == nil {
					atomic.AddInt32(&success, 1)
					return
				}
				assert.True(t, apperror.IsIllegalTransition(err) || apperror.IsRetryable(err), "неожиданная ошибка: %v", err)
			}(id)
		}
		wg.Wait()

		assert.Equal(t, int32(1), success)
	})

	t.Run("concurrent escrow never overdraws", func(t *testing.T) {
		requester := registerUser(t, s, "Rizky", 100_000)

		var (
			wg      sync.WaitGroup
			created int32
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Escrow.CreateOrder(ctx, escrow.CreateOrderInput{
					RequesterID:  requester,
					Item:         "Kopi Toraja",
					Price:        25_000,
					Tip:          5_000,
					FromLocation: "Makassar",
					ToLocation:   "Bandung",
				})
				if err == nil {
					atomic.AddInt32(&created, 1)
					return
				}
				assert.True(t, apperror.IsInsufficientFunds(err) || apperror.IsRetryable(err), "неожиданная ошибка: %v", err)
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, created, int32(3))
		balance, err := s.WalletQueries.Balance(ctx, requester)
		require.NoError(t, err)
		assert.Equal(t, 100_000-int64(created)*30_000, balance)
		assert.GreaterOrEqual(t, balance, int64(0))

		requireReconciled(t, s)
	})

	t.Run("withdrawal reject refunds once", func(t *testing.T) {
		user := registerUser(t, s, "Putri", 80_000)
		admin := registerUser(t, s, "Admin", 0)

		w, err := s.Wallet.RequestWithdrawal(ctx, wallet.WithdrawalInput{
			UserID:        user,
			Amount:        60_000,
			BankName:      "BNI",
			AccountNumber: "0987654321",
			AccountHolder: "Putri Lestari",
		})
		require.NoError(t, err)

		balance, err := s.WalletQueries.Balance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(20_000), balance)

		_, err = s.Wallet.RejectWithdrawal(ctx, w.ID, admin)
		require.NoError(t, err)
		_, err = s.Wallet.RejectWithdrawal(ctx, w.ID, admin)
		assert.True(t, apperror.IsAlreadyProcessed(err))
		_, err = s.Wallet.ApproveWithdrawal(ctx, w.ID, admin)
		assert.True(t, apperror.IsAlreadyProcessed(err))

		balance, err = s.WalletQueries.Balance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(80_000), balance)

		requireReconciled(t, s)
	})

	t.Run("review after completion", func(t *testing.T) {
		requester := registerUser(t, s, "Andi", 100_000)
		traveler := registerUser(t, s, "Ayu", 0)
		orderID := createOrder(t, s, requester, 40_000, 8_000)

		_, err := s.Escrow.TakeOrder(ctx, orderID, traveler)
		require.NoError(t, err)
		_, err = s.Escrow.AdvanceDelivery(ctx, orderID, traveler, "bought")
		require.NoError(t, err)
		_, err = s.Escrow.CompleteOrder(ctx, orderID, requester)
		require.NoError(t, err)

		review, err := s.Reviews.CreateReview(ctx, orderID, requester, 5, "Cepat dan rapi")
		require.NoError(t, err)
		assert.Equal(t, traveler, review.TargetID)

		_, err = s.Reviews.CreateReview(ctx, orderID, requester, 4, "")
		assert.True(t, apperror.IsAlreadyProcessed(err))

		profile, err := s.Profiles.GetProfile(ctx, traveler)
		require.NoError(t, err)
		assert.Equal(t, 1, profile.ReviewCount)
	})

	t.Run("verifying twice notifies once", func(t *testing.T) {
		user := registerUser(t, s, "Made", 0)
		admin := registerUser(t, s, "Ketut", 0)

		require.NoError(t, s.Profiles.VerifyUser(ctx, user, admin))
		err := s.Profiles.VerifyUser(ctx, user, admin)
		assert.True(t, apperror.IsAlreadyProcessed(err), "повторное подтверждение: %v", err)
		assert.True(t, apperror.IsNotFound(s.Profiles.VerifyUser(ctx, uuid.New(), admin)))

		count, err := s.Notifications.CountUnread(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("concurrent reviews of one traveler are all counted", func(t *testing.T) {
		traveler := registerUser(t, s, "Wayan", 0)

		const reviewers = 4
		orders := make(map[uuid.UUID]uuid.UUID, reviewers)
		for i := 0; i < reviewers; i++ {
			requester := registerUser(t, s, fmt.Sprintf("Reviewer%d", i), 50_000)
			orderID := createOrder(t, s, requester, 20_000, 4_000)
			_, err := s.Escrow.TakeOrder(ctx, orderID, traveler)
			require.NoError(t, err)
			_, err = s.Escrow.AdvanceDelivery(ctx, orderID, traveler, "bought")
			require.NoError(t, err)
			_, err = s.Escrow.CompleteOrder(ctx, orderID, requester)
			require.NoError(t, err)
			orders[orderID] = requester
		}

		ratings := []int{5, 4, 3, 2}
		var wg sync.WaitGroup
		i := 0
		for orderID, requester := range orders {
			wg.Add(1)
			go func(orderID, requester uuid.UUID, rating int) {
				defer wg.Done()
				_, err := s.Reviews.CreateReview(ctx, orderID, requester, rating, "")
				assert.NoError(t, err)
			}(orderID, requester, ratings[i])
			i++
		}
		wg.Wait()

		profile, err := s.Profiles.GetProfile(ctx, traveler)
		require.NoError(t, err)
		assert.Equal(t, reviewers, profile.ReviewCount)
		assert.InDelta(t, 3.5, profile.Rating, 0.001)
	})
}
