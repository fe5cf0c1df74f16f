package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

const limiterPrefix = "titip_limiter"

// NewLimiterStore возвращает хранилище счётчиков: Redis, если задан redisURL,
// иначе память процесса. Redis нужен, когда инстансов API несколько.
func NewLimiterStore(ctx context.Context, redisURL string) (limiter.Store, func() error, error) {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix}), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("rate limit: parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("rate limit: redis ping: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: limiterPrefix, MaxRetry: 3})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("rate limit: redis store: %w", err)
	}

	logger.WithComponent("rate_limit").Info("счётчики лимитов хранятся в Redis")
	return store, client.Close, nil
}

// RateLimitMiddleware ограничивает число запросов с одного IP.
// scope разделяет счётчики разных групп маршрутов в общем хранилище.
// По умолчанию: 10 запросов в минуту.
func RateLimitMiddleware(store limiter.Store, scope string, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	instance := limiter.New(store, limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		lctx, err := instance.Get(c, key)
		if err != nil {
			logger.WithComponent("rate_limit").WithError(err).Warn("хранилище лимитов недоступно, запрос пропущен")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			response.Abort(c, http.StatusTooManyRequests, apperror.ErrCodeBadRequest, "слишком много запросов, попробуйте позже")
			return
		}

		c.Next()
	}
}
