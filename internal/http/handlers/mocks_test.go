package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/http/middleware"
	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/usecase/escrow"
	"github.com/titipin/titip-backend/internal/usecase/wallet"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter роутер, в котором запрос уже аутентифицирован как userID.
// uuid.Nil означает анонимный запрос.
func newTestRouter(userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.ContextUserIDKey, userID)
			c.Set(middleware.ContextRoleKey, models.RoleUser)
		}
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) response.Envelope {
	t.Helper()
	env := response.Envelope{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

type mockEscrow struct {
	mock.Mock
}

func (m *mockEscrow) order(args mock.Arguments) (*entity.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *mockEscrow) CreateOrder(ctx context.Context, input escrow.CreateOrderInput) (*entity.Order, error) {
	return m.order(m.Called(ctx, input))
}

func (m *mockEscrow) CancelOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error) {
	return m.order(m.Called(ctx, orderID, caller))
}

func (m *mockEscrow) TakeOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error) {
	return m.order(m.Called(ctx, orderID, caller))
}

func (m *mockEscrow) AdvanceDelivery(ctx context.Context, orderID, caller uuid.UUID, target string) (*entity.Order, error) {
	return m.order(m.Called(ctx, orderID, caller, target))
}

func (m *mockEscrow) CompleteOrder(ctx context.Context, orderID, caller uuid.UUID) (*entity.Order, error) {
	return m.order(m.Called(ctx, orderID, caller))
}

type mockOrderQueries struct {
	mock.Mock
}

func (m *mockOrderQueries) ListMarket(ctx context.Context, caller uuid.UUID, from, to string, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, caller, from, to, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderQueries) MarketLocations(ctx context.Context) (*models.MarketLocations, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketLocations), args.Error(1)
}

func (m *mockOrderQueries) MyRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderQueries) MyJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderQueries) GetOrder(ctx context.Context, id, caller uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) TopUp(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWallet) RequestWithdrawal(ctx context.Context, in wallet.WithdrawalInput) (*entity.Withdrawal, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Withdrawal), args.Error(1)
}

func (m *mockWallet) ListMyWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWallet) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWallet) ApproveWithdrawal(ctx context.Context, id, adminID uuid.UUID) (*entity.Withdrawal, error) {
	args := m.Called(ctx, id, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Withdrawal), args.Error(1)
}

func (m *mockWallet) RejectWithdrawal(ctx context.Context, id, adminID uuid.UUID) (*entity.Withdrawal, error) {
	args := m.Called(ctx, id, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Withdrawal), args.Error(1)
}

type mockWalletQueries struct {
	mock.Mock
}

func (m *mockWalletQueries) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWalletQueries) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletLog, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.WalletLog), args.Error(1)
}
