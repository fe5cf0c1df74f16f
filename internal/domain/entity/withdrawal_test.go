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

func TestNewWithdrawal(t *testing.T) {
	w, err := entity.NewWithdrawal(uuid.New(), 50000, 50000, " BCA ", "1234567890", "Siti")
	require.NoError(t, err)

	assert.Equal(t, "BCA", w.BankName)
	assert.Equal(t, valueobject.WithdrawalStatusPending, w.Status)
	assert.Nil(t, w.ProcessedAt)
}

func TestNewWithdrawal_Validation(t *testing.T) {
	user := uuid.New()

	_, err := entity.NewWithdrawal(user, 49999, 50000, "BCA", "1234567890", "Siti")
	assert.Equal(t, apperror.ErrCodeInvalidAmount, apperror.CodeOf(err))

	_, err = entity.NewWithdrawal(user, 0, 50000, "BCA", "1234567890", "Siti")
	assert.Equal(t, apperror.ErrCodeInvalidAmount, apperror.CodeOf(err))

	_, err = entity.NewWithdrawal(user, 60000, 50000, "BCA", "12-34", "Siti")
	assert.True(t, apperror.IsValidation(err))

	_, err = entity.NewWithdrawal(user, 60000, 50000, "", "1234567890", "Siti")
	assert.True(t, apperror.IsValidation(err))

	_, err = entity.NewWithdrawal(user, 60000, 50000, "BCA", "1234567890", " ")
	assert.True(t, apperror.IsValidation(err))
}

func TestWithdrawal_ProcessOnce(t *testing.T) {
	w, err := entity.NewWithdrawal(uuid.New(), 50000, 50000, "BCA", "1234567890", "Siti")
	require.NoError(t, err)
	admin := uuid.New()

	require.NoError(t, w.Reject(admin))
	assert.Equal(t, valueobject.WithdrawalStatusRejected, w.Status)
	require.NotNil(t, w.ProcessedBy)
	assert.Equal(t, admin, *w.ProcessedBy)

	assert.True(t, apperror.IsAlreadyProcessed(w.Approve(admin)))
	assert.True(t, apperror.IsAlreadyProcessed(w.Reject(admin)))
	assert.Equal(t, valueobject.WithdrawalStatusRejected, w.Status)
}
