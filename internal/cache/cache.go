// Package cache provides the identity cache: a bounded, TTL-expiring
// resolver that turns a subscription id or a federated-identity claim
// into a validated Subscription, hitting the backing store on a miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/subauthgw/internal/config"
	"github.com/vyrodovalexey/subauthgw/internal/observability"
	"github.com/vyrodovalexey/subauthgw/internal/store"
	"github.com/vyrodovalexey/subauthgw/internal/subscription"
)

// ErrSubscriptionExpired indicates that the store returned a record
// whose subscription has already expired. Expired subscriptions are
// rejected and never cached; the next resolution re-checks the store.
var ErrSubscriptionExpired = errors.New("subscription expired")

// IsExpired checks whether an error means the subscription has expired.
func IsExpired(err error) bool {
	return errors.Is(err, ErrSubscriptionExpired)
}

// resolverTracerName is the OpenTelemetry tracer name for resolutions.
const resolverTracerName = "subauthgw/identitycache"

// Cache tier labels used in metrics.
const (
	tierSubscription = "subscription"
	tierClaim        = "claim"
)

// Resolver resolves identifiers to validated subscriptions with bounded
// staleness. The primary tier maps a subscription id to its
// Subscription; the secondary tier maps a federated-identity claim to a
// subscription id. Both tiers are bounded and TTL-expiring. Concurrent
// misses for the same key may each hit the store; the fetch is
// idempotent and the last writer wins, so no single-flight
// serialization is applied.
type Resolver struct {
	logger observability.Logger
	gw     store.Store

	subs   *ttlStore[*subscription.Subscription]
	claims *ttlStore[string]

	stopCh chan struct{}
}

// NewResolver creates a resolver over the given store gateway.
func NewResolver(gw store.Store, cfg *config.CacheConfig, logger observability.Logger) *Resolver {
	if logger == nil {
		logger = observability.NopLogger()
	}

	r := &Resolver{
		logger: logger,
		gw:     gw,
		subs:   newTTLStore[*subscription.Subscription](cfg.SubscriptionTTL.Duration(), cfg.MaxEntries),
		claims: newTTLStore[string](cfg.ClaimTTL.Duration(), cfg.MaxEntries),
		stopCh: make(chan struct{}),
	}

	go r.cleanupLoop()

	logger.Info("identity cache initialized",
		observability.Int("maxEntries", cfg.MaxEntries),
		observability.Duration("subscriptionTTL", cfg.SubscriptionTTL.Duration()),
		observability.Duration("claimTTL", cfg.ClaimTTL.Duration()))

	return r
}

// ResolveByID resolves a subscription id to its validated Subscription.
// The id is matched case-insensitively. A record absent from the store
// is store.ErrNotFound; an invalid record propagates its validation
// error; an expired record is ErrSubscriptionExpired. None of these
// outcomes is cached.
func (r *Resolver) ResolveByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	ctx, span := otel.Tracer(resolverTracerName).Start(ctx, "identitycache.ResolveByID",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("subscription.id", id)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetResolverMetrics().resolveDuration.WithLabelValues("by_id").
			Observe(time.Since(start).Seconds())
	}()

	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" {
		return nil, store.ErrNotFound
	}

	if sub, ok := r.subs.get(key); ok {
		GetResolverMetrics().hitsTotal.WithLabelValues(tierSubscription).Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return sub, nil
	}
	GetResolverMetrics().missesTotal.WithLabelValues(tierSubscription).Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	sub, err := r.fetchAndValidate(ctx, func(ctx context.Context) (*subscription.Record, error) {
		return r.gw.FetchByID(ctx, key)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if evicted := r.subs.put(key, sub); evicted > 0 {
		GetResolverMetrics().evictionsTotal.WithLabelValues(tierSubscription).Add(float64(evicted))
	}
	r.updateSizeGauges()
	return sub, nil
}

// ResolveByClaim resolves a federated-identity claim to its validated
// Subscription. A live claim-to-id mapping only short-circuits the
// store when the target subscription is itself still live in the
// primary tier; otherwise the claim is re-fetched. A successful fetch
// populates both tiers and marks the subscription's federated-identity
// fields.
func (r *Resolver) ResolveByClaim(ctx context.Context, claim string) (*subscription.Subscription, error) {
	ctx, span := otel.Tracer(resolverTracerName).Start(ctx, "identitycache.ResolveByClaim",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetResolverMetrics().resolveDuration.WithLabelValues("by_claim").
			Observe(time.Since(start).Seconds())
	}()

	key := strings.ToLower(strings.TrimSpace(claim))
	if key == "" {
		return nil, store.ErrNotFound
	}

	if id, ok := r.claims.get(key); ok {
		if sub, ok := r.subs.get(id); ok {
			GetResolverMetrics().hitsTotal.WithLabelValues(tierClaim).Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return sub, nil
		}
	}
	GetResolverMetrics().missesTotal.WithLabelValues(tierClaim).Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	sub, err := r.fetchAndValidate(ctx, func(ctx context.Context) (*subscription.Record, error) {
		return r.gw.FetchByClaim(ctx, key)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sub.IsFederatedIdentity = true
	sub.FederatedUsername = key

	subKey := strings.ToLower(sub.ID)
	if evicted := r.claims.put(key, subKey); evicted > 0 {
		GetResolverMetrics().evictionsTotal.WithLabelValues(tierClaim).Add(float64(evicted))
	}
	if evicted := r.subs.put(subKey, sub); evicted > 0 {
		GetResolverMetrics().evictionsTotal.WithLabelValues(tierSubscription).Add(float64(evicted))
	}
	r.updateSizeGauges()
	return sub, nil
}

// fetchAndValidate performs a store fetch and turns the record into a
// validated, unexpired Subscription. Failures leave the cache
// unmodified.
func (r *Resolver) fetchAndValidate(
	ctx context.Context,
	fetch func(ctx context.Context) (*subscription.Record, error),
) (*subscription.Subscription, error) {
	rec, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := subscription.New(rec)
	if err != nil {
		r.logger.Warn("subscription record failed validation",
			observability.Error(err))
		return nil, err
	}
	if sub.IsExpired() {
		return nil, fmt.Errorf("%w: id %s", ErrSubscriptionExpired, sub.ID)
	}
	return sub, nil
}

// Stats returns the current entry counts of both tiers.
func (r *Resolver) Stats() (subscriptions, claims int) {
	return r.subs.len(), r.claims.len()
}

// Close stops the background cleanup goroutine.
func (r *Resolver) Close() error {
	close(r.stopCh)
	return nil
}

// updateSizeGauges refreshes the per-tier size metrics.
func (r *Resolver) updateSizeGauges() {
	m := GetResolverMetrics()
	m.sizeGauge.WithLabelValues(tierSubscription).Set(float64(r.subs.len()))
	m.sizeGauge.WithLabelValues(tierClaim).Set(float64(r.claims.len()))
}

// cleanupLoop periodically removes expired entries so idle tiers do not
// pin memory until their next lookup.
func (r *Resolver) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := r.subs.purge() + r.claims.purge()
			if removed > 0 {
				r.logger.Debug("identity cache cleanup completed",
					observability.Int("removed", removed))
			}
			r.updateSizeGauges()
		case <-r.stopCh:
			return
		}
	}
}
