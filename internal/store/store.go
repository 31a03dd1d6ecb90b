// Package store provides the persistence gateway the identity cache
// falls back to on a miss. A store resolves subscription records by id
// or by federated-identity claim; it is the only component that may
// block on network I/O and honors the caller's context for timeouts and
// cancellation.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/subauthgw/internal/subscription"
)

// Common store errors.
var (
	// ErrNotFound indicates that no record exists for the key. Callers
	// treat this as fail-closed; it is never a retryable condition.
	ErrNotFound = errors.New("subscription not found")

	// ErrBackendUnavailable indicates a timeout or connectivity failure.
	// It is retryable and must never be collapsed into ErrNotFound.
	ErrBackendUnavailable = errors.New("subscription store unavailable")
)

// IsNotFound checks whether an error means the record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable checks whether an error is a retryable backend failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// Store fetches subscription records from the backing persistence store.
type Store interface {
	// FetchByID returns the record with the given id, or ErrNotFound.
	FetchByID(ctx context.Context, id string) (*subscription.Record, error)

	// FetchByClaim returns the record whose federated-identity field
	// equals the claim, or ErrNotFound.
	FetchByClaim(ctx context.Context, claim string) (*subscription.Record, error)

	// Close releases any resources held by the store.
	Close() error
}
