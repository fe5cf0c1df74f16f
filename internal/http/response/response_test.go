package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, err)

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.ErrOrderNotFound, http.StatusNotFound, "NOT_FOUND"},
		{apperror.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{apperror.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{apperror.New(apperror.ErrCodeIllegalTransition, "нельзя"), http.StatusConflict, "ILLEGAL_TRANSITION"},
		{apperror.ErrAlreadyProcessed, http.StatusConflict, "ALREADY_PROCESSED"},
		{apperror.New(apperror.ErrCodeInvalidAmount, "мало"), http.StatusBadRequest, "INVALID_AMOUNT"},
		{apperror.New(apperror.ErrCodeValidation, "плохо"), http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tc := range cases {
		w, body := render(t, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.code)
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
		assert.Equal(t, tc.code, body.Error.Code)
	}
}

func TestError_TransactionFailedIsRetryable(t *testing.T) {
	w, body := render(t, apperror.ErrTransactionFailed)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "TRANSACTION_FAILED", body.Error.Code)
}

func TestError_MasksInternals(t *testing.T) {
	w, body := render(t, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "внутренняя ошибка сервера", body.Error.Message)

	w, body = render(t, apperror.Wrap(errors.New("pq: relation missing"), apperror.ErrCodeDatabaseError, "не удалось получить заказ"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "DATABASE_ERROR", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "pq")
}

func TestOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, http.StatusCreated, gin.H{"balance": 30000})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"balance":30000}}`, w.Body.String())
}
