package docstore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// BreakerSettings configures WithBreaker.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

type breakerStore struct {
	next ports.DocumentStore
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker guards next with a circuit breaker. Only transport failures
// count toward tripping it; answers such as 404 or 401 are successful calls.
// While open, every call fails with a 503 StoreError.
func WithBreaker(next ports.DocumentStore, settings BreakerSettings, log *logger.Logger) ports.DocumentStore {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("Store circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &breakerStore{next: next, cb: cb}
}

func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	code := ports.StoreErrorCode(err)
	return code >= 400 && code < 500
}

func (b *breakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ports.NewStoreError(http.StatusServiceUnavailable, ports.StoreErrorUnavailable, "document store unavailable: %v", err)
	}
	return res, err
}

func (b *breakerStore) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.Create(ctx, collection, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return res.(*ports.Document), nil
}

func (b *breakerStore) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.Get(ctx, collection, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*ports.Document), nil
}

func (b *breakerStore) List(ctx context.Context, collection string, filters ...ports.Filter) ([]*ports.Document, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.List(ctx, collection, filters...)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*ports.Document), nil
}

func (b *breakerStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*ports.Document, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.next.Update(ctx, collection, id, patch)
	})
	if err != nil {
		return nil, err
	}
	return res.(*ports.Document), nil
}

func (b *breakerStore) Delete(ctx context.Context, collection, id string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, collection, id)
	})
	return err
}
