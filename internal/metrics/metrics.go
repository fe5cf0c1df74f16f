// Package metrics содержит счётчики Prometheus приложения.
package metrics

import (
	"context"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titip_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "titip_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	EscrowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titip_escrow_operations_total",
			Help: "Escrow coordinator operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	WalletOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titip_wallet_operations_total",
			Help: "Top-up and withdrawal operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titip_events_published_total",
			Help: "Realtime and bus deliveries by sink and result",
		},
		[]string{"sink", "result"},
	)
)

// Outcome превращает ошибку операции в значение метки: ok или код ошибки в нижнем регистре.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	return strings.ToLower(string(apperror.CodeOf(err)))
}
