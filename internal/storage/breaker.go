package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker settings for the object store.
type BreakerConfig struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// MaxRequests is the maximum number of requests allowed in the half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing internal counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio is the ratio of failures to total requests that trips the breaker.
	FailureRatio float64

	// MinRequests is the minimum number of requests needed before the failure ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns sensible defaults for the object store breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var objectStoreBreakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "object_store_circuit_breaker_state",
		Help: "Current state of the object store circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(objectStoreBreakerState)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerStorage wraps a Storage with circuit breaker protection so a
// misbehaving object store fails fast instead of tying up request handlers.
type BreakerStorage struct {
	next    Storage
	breaker *gobreaker.CircuitBreaker[*UploadResult]
	logger  *slog.Logger
}

// NewBreakerStorage wraps an existing storage with a circuit breaker.
func NewBreakerStorage(next Storage, cfg BreakerConfig, logger *slog.Logger) *BreakerStorage {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("object store circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			objectStoreBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	objectStoreBreakerState.WithLabelValues(cfg.Name).Set(stateToFloat(gobreaker.StateClosed))

	return &BreakerStorage{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*UploadResult](settings),
		logger:  logger,
	}
}

// Upload delegates to the wrapped storage through the breaker.
func (s *BreakerStorage) Upload(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	return s.breaker.Execute(func() (*UploadResult, error) {
		return s.next.Upload(ctx, input)
	})
}

// Delete delegates to the wrapped storage through the breaker.
func (s *BreakerStorage) Delete(ctx context.Context, url string) error {
	_, err := s.breaker.Execute(func() (*UploadResult, error) {
		return nil, s.next.Delete(ctx, url)
	})
	return err
}

// Ping bypasses the breaker so health checks observe the real store state.
func (s *BreakerStorage) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
