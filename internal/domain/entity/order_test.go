package entity_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titipin/titip-backend/internal/domain/entity"
	"github.com/titipin/titip-backend/internal/domain/valueobject"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

func newOpenOrder(t *testing.T) *entity.Order {
	t.Helper()
	o, err := entity.NewOrder(uuid.New(), "  Sepatu lari  ", 60000, 10000, "Singapore", "Medan")
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o := newOpenOrder(t)

	assert.Equal(t, "Sepatu lari", o.Item)
	assert.Equal(t, valueobject.OrderStatusOpen, o.Status)
	assert.Nil(t, o.TravelerID)
	assert.Equal(t, int64(70000), o.EscrowAmount())
}

func TestNewOrder_Validation(t *testing.T) {
	requester := uuid.New()
	tests := []struct {
		name       string
		item       string
		price, tip int64
		from, to   string
	}{
		{"пустой товар", " ", 100, 10, "A", "B"},
		{"нет маршрута", "item", 100, 10, "", "B"},
		{"нулевая цена", "item", 0, 10, "A", "B"},
		{"отрицательные чаевые", "item", 100, -1, "A", "B"},
		{"переполнение", "item", 1 << 62, 1 << 62, "A", "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := entity.NewOrder(requester, tt.item, tt.price, tt.tip, tt.from, tt.to)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestOrder_Take(t *testing.T) {
	o := newOpenOrder(t)

	err := o.Take(o.RequesterID)
	assert.True(t, apperror.IsIllegalTransition(err))

	traveler := uuid.New()
	require.NoError(t, o.Take(traveler))
	assert.Equal(t, valueobject.OrderStatusTaken, o.Status)
	assert.True(t, o.IsTraveler(traveler))
	assert.True(t, o.IsParticipant(traveler))

	err = o.Take(uuid.New())
	assert.True(t, apperror.IsIllegalTransition(err))
	assert.True(t, o.IsTraveler(traveler))
}

func TestOrder_Cancel(t *testing.T) {
	o := newOpenOrder(t)

	assert.True(t, apperror.IsForbidden(o.Cancel(uuid.New())))
	require.NoError(t, o.Cancel(o.RequesterID))
	assert.Equal(t, valueobject.OrderStatusCancelled, o.Status)
	assert.Nil(t, o.TravelerID)

	assert.True(t, apperror.IsIllegalTransition(o.Cancel(o.RequesterID)))
}

func TestOrder_DeliveryFlow(t *testing.T) {
	o := newOpenOrder(t)
	traveler := uuid.New()

	assert.True(t, apperror.IsIllegalTransition(o.Advance(traveler, valueobject.OrderStatusBought)))
	require.NoError(t, o.Take(traveler))

	assert.True(t, apperror.IsForbidden(o.Advance(o.RequesterID, valueobject.OrderStatusBought)))
	assert.True(t, apperror.IsIllegalTransition(o.Advance(traveler, valueobject.OrderStatusOnTheWay)))
	assert.True(t, apperror.IsIllegalTransition(o.Advance(traveler, valueobject.OrderStatusDone)))
	assert.True(t, apperror.IsIllegalTransition(o.Complete(o.RequesterID)))

	require.NoError(t, o.Advance(traveler, valueobject.OrderStatusBought))
	assert.True(t, apperror.IsForbidden(o.Complete(traveler)))
	require.NoError(t, o.Advance(traveler, valueobject.OrderStatusOnTheWay))
	require.NoError(t, o.Complete(o.RequesterID))
	assert.Equal(t, valueobject.OrderStatusDone, o.Status)
}

func TestOrder_CompleteStraightFromBought(t *testing.T) {
	o := newOpenOrder(t)
	traveler := uuid.New()
	require.NoError(t, o.Take(traveler))
	require.NoError(t, o.Advance(traveler, valueobject.OrderStatusBought))

	require.NoError(t, o.Complete(o.RequesterID))
	assert.Equal(t, valueobject.OrderStatusDone, o.Status)
}

func TestOrder_TerminalWinsOverActorCheck(t *testing.T) {
	o := newOpenOrder(t)
	require.NoError(t, o.Cancel(o.RequesterID))
	stranger := uuid.New()

	assert.True(t, apperror.IsIllegalTransition(o.Cancel(stranger)))
	assert.True(t, apperror.IsIllegalTransition(o.Take(stranger)))
	assert.True(t, apperror.IsIllegalTransition(o.Advance(stranger, valueobject.OrderStatusBought)))
	assert.True(t, apperror.IsIllegalTransition(o.Complete(stranger)))
}
