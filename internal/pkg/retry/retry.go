package retry

import (
	"context"
	"time"

	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// Backoff задаёт рост задержки между попытками.
type Backoff int

const (
	Linear Backoff = iota
	Exponential
)

// Policy описывает ограниченную политику повторов.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     Backoff
	MaxDelay    time.Duration
	// Retryable решает, стоит ли повторять после ошибки. По умолчанию apperror.IsRetryable.
	Retryable func(error) bool
}

// DelayFor возвращает паузу перед следующей попыткой после попытки attempt (с 1).
func (p Policy) DelayFor(attempt int) time.Duration {
	if attempt < 1 || p.Delay <= 0 {
		return 0
	}

	var d time.Duration
	switch p.Backoff {
	case Exponential:
		d = p.Delay
		for i := 1; i < attempt; i++ {
			d *= 2
			if p.MaxDelay > 0 && d >= p.MaxDelay {
				break
			}
		}
	default:
		d = p.Delay * time.Duration(attempt)
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return apperror.IsRetryable(err)
}

// Do выполняет fn, пока она не вернёт nil, неповторяемую ошибку,
// не закончатся попытки или не отменится контекст.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !p.retryable(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(p.DelayFor(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}

	return err
}
