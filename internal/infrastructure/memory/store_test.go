package memory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/titipin/titip-backend/internal/pkg/retry"
)

func TestStore_AddUser(t *testing.T) {
	store := NewStore(retry.Policy{MaxAttempts: 1})
	id := uuid.New()

	store.AddUser(id, 25000)
	assert.Equal(t, int64(25000), store.Balance(id))
	assert.Len(t, store.Logs(id), 1)
	assert.True(t, store.Reconcile(id).Consistent)

	assert.Panics(t, func() { store.AddUser(id, 0) })
	assert.Equal(t, int64(25000), store.Balance(id))
	assert.True(t, store.Reconcile(id).Consistent)
}
