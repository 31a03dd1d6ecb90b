package store

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/subauthgw/internal/observability"
	"github.com/vyrodovalexey/subauthgw/internal/subscription"
)

// BreakerStore wraps a Store with a circuit breaker so that a failing
// backend is given time to recover instead of being hammered by every
// in-flight request. An open circuit is surfaced as
// ErrBackendUnavailable. Not-found and invalid-record results are
// successful fetches from the breaker's point of view and do not trip it.
type BreakerStore struct {
	next   Store
	cb     *gobreaker.CircuitBreaker
	logger observability.Logger
}

// fetchResult carries a fetch outcome through the breaker so that
// non-failure errors are not counted against it.
type fetchResult struct {
	rec *subscription.Record
	err error
}

// NewBreakerStore wraps the store with a circuit breaker that opens
// after maxFailures consecutive backend failures and probes again after
// the timeout.
func NewBreakerStore(next Store, maxFailures int, timeout time.Duration, logger observability.Logger) *BreakerStore {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s := &BreakerStore{next: next, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "subscription-store",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("subscription store circuit state changed",
				observability.String("breaker", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()))
		},
	})
	return s
}

// FetchByID implements Store.
func (s *BreakerStore) FetchByID(ctx context.Context, id string) (*subscription.Record, error) {
	return s.execute(func() (*subscription.Record, error) {
		return s.next.FetchByID(ctx, id)
	})
}

// FetchByClaim implements Store.
func (s *BreakerStore) FetchByClaim(ctx context.Context, claim string) (*subscription.Record, error) {
	return s.execute(func() (*subscription.Record, error) {
		return s.next.FetchByClaim(ctx, claim)
	})
}

// Close implements Store.
func (s *BreakerStore) Close() error {
	return s.next.Close()
}

// execute runs a fetch through the breaker, counting only backend
// failures against it.
func (s *BreakerStore) execute(fetch func() (*subscription.Record, error)) (*subscription.Record, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		rec, err := fetch()
		if err != nil && !IsNotFound(err) && !subscription.IsInvalidRecord(err) {
			return nil, err
		}
		return fetchResult{rec: rec, err: err}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Join(ErrBackendUnavailable, err)
		}
		return nil, err
	}

	fr := res.(fetchResult)
	return fr.rec, fr.err
}
