// Package middleware provides the gin middleware that authorizes
// inbound requests against their resolved subscription.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Identifier sources checked, in order, for a caller-supplied
// subscription identifier.
const (
	subscriptionHeader  = "subscription"
	subscriptionCookie  = "subscription"
	subscriptionQuery   = "subscription"
	xSubscriptionHeader = "x-subscription"
	xSubscriptionCookie = "x-subscription"
)

// ViewFromGin builds a request view over the current gin request.
// Multi-valued headers keep their first value.
func ViewFromGin(c *gin.Context) *request.View {
	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	return request.NewView(
		c.Request.Method,
		c.Request.Host,
		c.Request.URL.RequestURI(),
		headers,
		request.WithClientIP(c.ClientIP()),
	)
}

// ExtractIdentifier returns the caller-supplied subscription identifier,
// checking the subscription header, query parameter, and cookie, then
// the x-subscription header and cookie. A "Bearer " prefix is stripped.
// An empty string means the request carries no identifier.
func ExtractIdentifier(view *request.View) string {
	id := view.Header(subscriptionHeader)
	if id == "" {
		id, _ = view.QueryParam(subscriptionQuery)
	}
	if id == "" {
		id, _ = view.Cookie(subscriptionCookie)
	}
	if id == "" {
		id = view.Header(xSubscriptionHeader)
	}
	if id == "" {
		id, _ = view.Cookie(xSubscriptionCookie)
	}
	return stripBearer(id)
}

// stripBearer removes a leading bearer prefix from an identifier.
func stripBearer(id string) string {
	for _, prefix := range []string{"Bearer ", "BEARER "} {
		if strings.HasPrefix(id, prefix) {
			return id[len(prefix):]
		}
	}
	return id
}
