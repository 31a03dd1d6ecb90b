package middleware

import (
	"context"
	"strings"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// ClaimVerifier resolves a verified identity for a request that carries
// no subscription identifier. Implementations perform the actual token
// verification (OIDC, JWT) outside this package; the middleware consumes
// only the resulting claims. A nil claims map with a nil error means the
// request carries no verifiable identity.
type ClaimVerifier interface {
	Verify(ctx context.Context, view *request.View) (map[string]any, error)
}

// ClaimUsername extracts the federated username from verified claims:
// preferred_username first, then upn, trimmed of whitespace.
func ClaimUsername(claims map[string]any) string {
	for _, key := range []string{"preferred_username", "upn"} {
		if v, ok := claims[key].(string); ok {
			if username := strings.TrimSpace(v); username != "" {
				return username
			}
		}
	}
	return ""
}
