package metrics

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "insufficient_funds", Outcome(apperror.ErrInsufficientFunds))
	assert.Equal(t, "illegal_transition", Outcome(fmt.Errorf("wrap: %w", apperror.New(apperror.ErrCodeIllegalTransition, "x"))))
	assert.Equal(t, "timeout", Outcome(context.DeadlineExceeded))
	assert.Equal(t, "internal_error", Outcome(fmt.Errorf("boom")))
}

func TestEscrowOperationsCounter(t *testing.T) {
	c := EscrowOperations.WithLabelValues("test_op", "ok")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
