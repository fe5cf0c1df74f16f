package escrow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/infrastructure/memory"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
	"github.com/titipin/titip-backend/internal/pkg/retry"
	"github.com/titipin/titip-backend/internal/usecase/escrow"
)

type recordingPublisher struct {
	mu            sync.Mutex
	notifications []entity.Notification
	messages      []entity.Message
}

func (p *recordingPublisher) PublishNotification(ctx context.Context, n entity.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
}

func (p *recordingPublisher) PublishMessage(ctx context.Context, m entity.Message, recipients []uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, m)
}

func (p *recordingPublisher) count() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notifications), len(p.messages)
}

type fixture struct {
	store     *memory.Store
	pub       *recordingPublisher
	c         *escrow.Coordinator
	requester uuid.UUID
	traveler  uuid.UUID
}

func newFixture(t *testing.T, requesterBalance int64) *fixture {
	t.Helper()
	store := memory.NewStore(retry.Policy{MaxAttempts: 3, Delay: time.Millisecond})
	pub := &recordingPublisher{}
	f := &fixture{
		store:     store,
		pub:       pub,
		c:         escrow.NewCoordinator(store, pub),
		requester: uuid.New(),
		traveler:  uuid.New(),
	}
	store.AddUser(f.requester, requesterBalance)
	store.AddUser(f.traveler, 0)
	return f
}

func (f *fixture) create(t *testing.T, price, tip int64) *entity.Order {
	t.Helper()
	order, err := f.c.CreateOrder(context.Background(), escrow.CreateOrderInput{
		RequesterID:  f.requester,
		Item:         "Kopi Gayo 1kg",
		Price:        price,
		Tip:          tip,
		FromLocation: "Aceh",
		ToLocation:   "Jakarta",
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) assertReconciled(t *testing.T) {
	t.Helper()
	for _, id := range []uuid.UUID{f.requester, f.traveler} {
		rec := f.store.Reconcile(id)
		assert.True(t, rec.Consistent, "balance %d != credits %d - debits %d", rec.Balance, rec.Credits, rec.Debits)
	}
}

func TestCoordinator_FullScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100000)

	first := f.create(t, 60000, 10000)
	assert.Equal(t, int64(30000), f.store.Balance(f.requester))
	assert.Equal(t, valueobject.OrderStatusOpen, first.Status)
	assert.Nil(t, first.TravelerID)

	cancelled, err := f.c.CancelOrder(ctx, first.ID, f.requester)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(100000), f.store.Balance(f.requester))

	second := f.create(t, 60000, 10000)
	assert.Equal(t, int64(30000), f.store.Balance(f.requester))

	taken, err := f.c.TakeOrder(ctx, second.ID, f.traveler)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusTaken, taken.Status)
	require.NotNil(t, taken.TravelerID)
	assert.Equal(t, f.traveler, *taken.TravelerID)

	_, err = f.c.AdvanceDelivery(ctx, second.ID, f.traveler, "bought")
	require.NoError(t, err)
	_, err = f.c.AdvanceDelivery(ctx, second.ID, f.traveler, "otw")
	require.NoError(t, err)

	done, err := f.c.CompleteOrder(ctx, second.ID, f.requester)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusDone, done.Status)

	assert.Equal(t, int64(10000), f.store.Balance(f.traveler))
	assert.Equal(t, int64(30000), f.store.Balance(f.requester))
	f.assertReconciled(t)

	// take + bought + otw пишут системные сообщения в чат заказа
	assert.Len(t, f.store.Messages(second.ID), 3)
	assert.Len(t, f.store.Notifications(f.traveler), 1)
}

func TestCoordinator_CreateThenCancelRestoresBalance(t *testing.T) {
	f := newFixture(t, 75000)

	order := f.create(t, 50000, 5000)
	_, err := f.c.CancelOrder(context.Background(), order.ID, f.requester)
	require.NoError(t, err)

	assert.Equal(t, int64(75000), f.store.Balance(f.requester))
	logs := f.store.Logs(f.requester)
	require.Len(t, logs, 3)
	assert.Equal(t, models.CategoryOrderEscrow, logs[1].Category)
	assert.Equal(t, models.CategoryOrderRefund, logs[2].Category)
	f.assertReconciled(t)
}

func TestCoordinator_CreateOrderInsufficientFunds(t *testing.T) {
	f := newFixture(t, 10000)

	_, err := f.c.CreateOrder(context.Background(), escrow.CreateOrderInput{
		RequesterID: f.requester, Item: "Batik", Price: 10000, Tip: 1,
		FromLocation: "Solo", ToLocation: "Bandung",
	})

	assert.True(t, apperror.IsInsufficientFunds(err))
	assert.Equal(t, int64(10000), f.store.Balance(f.requester))
	assert.Equal(t, 0, f.store.OrderCount())
	f.assertReconciled(t)
}

func TestCoordinator_CreateOrderRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t, 10000)

	for _, tc := range []struct{ price, tip int64 }{{0, 100}, {100, 0}, {-5, 100}} {
		_, err := f.c.CreateOrder(context.Background(), escrow.CreateOrderInput{
			RequesterID: f.requester, Item: "Batik", Price: tc.price, Tip: tc.tip,
			FromLocation: "Solo", ToLocation: "Bandung",
		})
		assert.True(t, apperror.IsValidation(err), "price=%d tip=%d", tc.price, tc.tip)
	}
	assert.Equal(t, int64(10000), f.store.Balance(f.requester))
}

func TestCoordinator_ConcurrentTakeOnlyOneWins(t *testing.T) {
	f := newFixture(t, 100000)
	order := f.create(t, 60000, 10000)

	const racers = 8
	travelers := make([]uuid.UUID, racers)
	for i := range travelers {
		travelers[i] = uuid.New()
		f.store.AddUser(travelers[i], 0)
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.c.TakeOrder(context.Background(), order.ID, travelers[i])
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	var winner uuid.UUID
	for i, err := range errs {
		if err == nil {
			winners++
			winner = travelers[i]
			continue
		}
		assert.True(t, apperror.IsIllegalTransition(err), "unexpected error: %v", err)
	}
	require.Equal(t, 1, winners)

	stored, ok := f.store.Order(order.ID)
	require.True(t, ok)
	require.NotNil(t, stored.TravelerID)
	assert.Equal(t, winner, *stored.TravelerID)
	assert.Equal(t, valueobject.OrderStatusTaken, stored.Status)
}

func TestCoordinator_CompleteTwicePaysTipOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100000)
	order := f.create(t, 60000, 10000)

	_, err := f.c.TakeOrder(ctx, order.ID, f.traveler)
	require.NoError(t, err)
	_, err = f.c.AdvanceDelivery(ctx, order.ID, f.traveler, "bought")
	require.NoError(t, err)

	_, err = f.c.CompleteOrder(ctx, order.ID, f.requester)
	require.NoError(t, err)
	_, err = f.c.CompleteOrder(ctx, order.ID, f.requester)

	assert.True(t, apperror.IsIllegalTransition(err))
	assert.Equal(t, int64(10000), f.store.Balance(f.traveler))
	f.assertReconciled(t)
}

func TestCoordinator_RequesterCannotTakeOwnOrder(t *testing.T) {
	f := newFixture(t, 100000)
	order := f.create(t, 60000, 10000)

	_, err := f.c.TakeOrder(context.Background(), order.ID, f.requester)

	assert.True(t, apperror.IsIllegalTransition(err))
	stored, _ := f.store.Order(order.ID)
	assert.Nil(t, stored.TravelerID)
	assert.Equal(t, valueobject.OrderStatusOpen, stored.Status)
}

func TestCoordinator_TerminalStatesRejectEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200000)

	cancelled := f.create(t, 60000, 10000)
	_, err := f.c.CancelOrder(ctx, cancelled.ID, f.requester)
	require.NoError(t, err)

	done := f.create(t, 60000, 10000)
	_, err = f.c.TakeOrder(ctx, done.ID, f.traveler)
	require.NoError(t, err)
	_, err = f.c.AdvanceDelivery(ctx, done.ID, f.traveler, "bought")
	require.NoError(t, err)
	_, err = f.c.CompleteOrder(ctx, done.ID, f.requester)
	require.NoError(t, err)

	balances := map[uuid.UUID]int64{
		f.requester: f.store.Balance(f.requester),
		f.traveler:  f.store.Balance(f.traveler),
	}
	stranger := uuid.New()

	for _, id := range []uuid.UUID{cancelled.ID, done.ID} {
		for _, caller := range []uuid.UUID{f.requester, f.traveler, stranger} {
			_, err := f.c.CancelOrder(ctx, id, caller)
			assert.True(t, apperror.IsIllegalTransition(err), "cancel: %v", err)
			_, err = f.c.TakeOrder(ctx, id, caller)
			assert.True(t, apperror.IsIllegalTransition(err), "take: %v", err)
			_, err = f.c.AdvanceDelivery(ctx, id, caller, "bought")
			assert.True(t, apperror.IsIllegalTransition(err), "bought: %v", err)
			_, err = f.c.AdvanceDelivery(ctx, id, caller, "otw")
			assert.True(t, apperror.IsIllegalTransition(err), "otw: %v", err)
			_, err = f.c.CompleteOrder(ctx, id, caller)
			assert.True(t, apperror.IsIllegalTransition(err), "complete: %v", err)
		}
	}

	for id, balance := range balances {
		assert.Equal(t, balance, f.store.Balance(id))
	}
	f.assertReconciled(t)
}

func TestCoordinator_ActorRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100000)
	stranger := uuid.New()
	order := f.create(t, 60000, 10000)

	_, err := f.c.CancelOrder(ctx, order.ID, stranger)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.c.AdvanceDelivery(ctx, order.ID, f.traveler, "bought")
	assert.True(t, apperror.IsIllegalTransition(err), "advance before take")

	_, err = f.c.TakeOrder(ctx, order.ID, f.traveler)
	require.NoError(t, err)

	_, err = f.c.CancelOrder(ctx, order.ID, f.requester)
	assert.True(t, apperror.IsIllegalTransition(err), "cancel after take")

	_, err = f.c.AdvanceDelivery(ctx, order.ID, f.requester, "bought")
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.c.AdvanceDelivery(ctx, order.ID, f.traveler, "otw")
	assert.True(t, apperror.IsIllegalTransition(err), "taken cannot skip to otw")

	_, err = f.c.CompleteOrder(ctx, order.ID, f.requester)
	assert.True(t, apperror.IsIllegalTransition(err), "taken cannot go to done")

	_, err = f.c.AdvanceDelivery(ctx, order.ID, f.traveler, "done")
	assert.True(t, apperror.IsIllegalTransition(err))

	_, err = f.c.AdvanceDelivery(ctx, order.ID, f.traveler, "bought")
	require.NoError(t, err)

	_, err = f.c.CompleteOrder(ctx, order.ID, f.traveler)
	assert.True(t, apperror.IsForbidden(err), "only requester releases escrow")

	assert.Equal(t, int64(0), f.store.Balance(f.traveler))
}

func TestCoordinator_UnknownOrder(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.c.TakeOrder(context.Background(), uuid.New(), f.traveler)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.c.CancelOrder(context.Background(), uuid.New(), f.requester)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCoordinator_RetriesSerializationConflicts(t *testing.T) {
	f := newFixture(t, 100000)
	f.store.FailNextCommits(2)
	before := f.store.Attempts()

	order := f.create(t, 60000, 10000)

	assert.Equal(t, 3, f.store.Attempts()-before)
	assert.Equal(t, int64(30000), f.store.Balance(f.requester))
	_, ok := f.store.Order(order.ID)
	assert.True(t, ok)
	f.assertReconciled(t)
}

func TestCoordinator_ExhaustedRetriesLeaveNoTrace(t *testing.T) {
	f := newFixture(t, 100000)
	order := f.create(t, 60000, 10000)
	f.store.FailNextCommits(3)

	_, err := f.c.CancelOrder(context.Background(), order.ID, f.requester)

	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, int64(30000), f.store.Balance(f.requester))
	stored, _ := f.store.Order(order.ID)
	assert.Equal(t, valueobject.OrderStatusOpen, stored.Status)
	assert.Empty(t, f.store.Notifications(f.requester))
	notifications, _ := f.pub.count()
	assert.Equal(t, 0, notifications)
}

func TestCoordinator_PublishesAfterCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100000)
	order := f.create(t, 60000, 10000)

	_, err := f.c.TakeOrder(ctx, order.ID, f.traveler)
	require.NoError(t, err)

	notifications, messages := f.pub.count()
	assert.Equal(t, 1, notifications)
	assert.Equal(t, 1, messages)

	_, err = f.c.TakeOrder(ctx, order.ID, uuid.New())
	require.Error(t, err)

	notifications, messages = f.pub.count()
	assert.Equal(t, 1, notifications)
	assert.Equal(t, 1, messages)
}

func TestCoordinator_ExpiredContextIsRetryable(t *testing.T) {
	f := newFixture(t, 100000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.c.CreateOrder(ctx, escrow.CreateOrderInput{
		RequesterID: f.requester, Item: "Batik", Price: 100, Tip: 10,
		FromLocation: "Solo", ToLocation: "Bandung",
	})

	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, int64(100000), f.store.Balance(f.requester))
}
