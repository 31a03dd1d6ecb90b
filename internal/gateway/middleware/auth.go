package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/subauthgw/internal/cache"
	"github.com/vyrodovalexey/subauthgw/internal/observability"
	"github.com/vyrodovalexey/subauthgw/internal/request"
	"github.com/vyrodovalexey/subauthgw/internal/store"
	"github.com/vyrodovalexey/subauthgw/internal/subscription"
)

// SubscriptionKey is the gin context key under which the resolved
// subscription is stored for downstream handlers.
const SubscriptionKey = "subscription"

// AuthOptions configures the subscription-auth middleware.
type AuthOptions struct {
	// Resolver resolves identifiers to subscriptions.
	Resolver *cache.Resolver

	// Verifier supplies a verified identity claim when a request
	// carries no subscription identifier. Optional.
	Verifier ClaimVerifier

	// Logger for decision logging. Defaults to a nop logger.
	Logger observability.Logger

	// FailOpen lets requests through when the store is unavailable.
	FailOpen bool

	// CORSEnabled answers OPTIONS preflight requests directly.
	CORSEnabled bool

	// PinCookie sets the subscription cookie on allowed requests that
	// did not present one.
	PinCookie bool

	// FetchTimeout bounds the store fetch on a cache miss.
	FetchTimeout time.Duration
}

// SubscriptionAuth returns a middleware that resolves the caller's
// subscription and evaluates its rules against the request. Requests
// without a resolvable subscription are rejected with 401, policy
// denials with 403, and backend outages with 503 unless FailOpen is set.
func SubscriptionAuth(opts AuthOptions) gin.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		if opts.CORSEnabled && c.Request.Method == http.MethodOptions {
			answerPreflight(c)
			return
		}

		view := ViewFromGin(c)

		sub, err := resolveSubscription(c.Request.Context(), opts, view)
		if err != nil {
			handleResolveError(c, logger, err, opts.FailOpen)
			return
		}

		decision := sub.Evaluate(view)
		if !decision.Allowed {
			GetDecisionMetrics().decisionsTotal.WithLabelValues(resultDenied).Inc()
			logger.WithContext(c.Request.Context()).Info("request denied",
				observability.String("subscription", sub.ID),
				observability.String("reason", decision.Reason),
				observability.String("path", view.Path(true)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "Not Allowed",
				"reason": decision.Reason,
			})
			return
		}

		GetDecisionMetrics().decisionsTotal.WithLabelValues(resultAllowed).Inc()

		if opts.PinCookie {
			pinSubscriptionCookie(c, view, sub)
		}

		c.Set(SubscriptionKey, sub)
		c.Next()
	}
}

// SubscriptionFromContext returns the subscription resolved for the
// request, or nil when the request went through without one (fail-open).
func SubscriptionFromContext(c *gin.Context) *subscription.Subscription {
	if v, ok := c.Get(SubscriptionKey); ok {
		if sub, ok := v.(*subscription.Subscription); ok {
			return sub
		}
	}
	return nil
}

// resolveSubscription applies the identifier-extraction precedence: an
// explicit identifier wins and is resolved by id; otherwise a verified
// identity claim is resolved by its username.
func resolveSubscription(
	ctx context.Context,
	opts AuthOptions,
	view *request.View,
) (*subscription.Subscription, error) {
	if opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.FetchTimeout)
		defer cancel()
	}

	if id := ExtractIdentifier(view); id != "" {
		return opts.Resolver.ResolveByID(ctx, id)
	}

	if opts.Verifier != nil {
		claims, err := opts.Verifier.Verify(ctx, view)
		if err != nil {
			return nil, err
		}
		if username := ClaimUsername(claims); username != "" {
			return opts.Resolver.ResolveByClaim(ctx, username)
		}
	}

	return nil, store.ErrNotFound
}

// handleResolveError maps resolution failures onto responses. Absent and
// invalid records fail closed as unauthenticated; a backend outage is
// 503, or lets the request through without a subscription when failing
// open.
func handleResolveError(c *gin.Context, logger observability.Logger, err error, failOpen bool) {
	log := logger.WithContext(c.Request.Context())

	switch {
	case store.IsUnavailable(err):
		if failOpen {
			GetDecisionMetrics().decisionsTotal.WithLabelValues(resultFailOpen).Inc()
			log.Warn("subscription store unavailable, failing open",
				observability.Error(err))
			c.Next()
			return
		}
		GetDecisionMetrics().decisionsTotal.WithLabelValues(resultUnavailable).Inc()
		log.Error("subscription store unavailable", observability.Error(err))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service Unavailable",
		})
	case subscription.IsInvalidRecord(err):
		GetDecisionMetrics().decisionsTotal.WithLabelValues(resultUnauthenticated).Inc()
		log.Warn("subscription record rejected", observability.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case cache.IsExpired(err):
		GetDecisionMetrics().decisionsTotal.WithLabelValues(resultUnauthenticated).Inc()
		log.Info("expired subscription rejected", observability.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	default:
		GetDecisionMetrics().decisionsTotal.WithLabelValues(resultUnauthenticated).Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}

// pinSubscriptionCookie sets the subscription cookie when the request
// did not present one, so later requests skip identifier extraction.
func pinSubscriptionCookie(c *gin.Context, view *request.View, sub *subscription.Subscription) {
	if existing, err := view.Cookie(subscriptionCookie); err == nil && existing != "" {
		return
	}
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(subscriptionCookie, sub.ID, 0, "/", "", true, true)
}

// answerPreflight accepts a CORS preflight request.
func answerPreflight(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = "*"
	}
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers",
		"Content-Type, Accept, Authorization, Subscription, X-Subscription")
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Max-Age", "3600")
	c.AbortWithStatus(http.StatusOK)
}
