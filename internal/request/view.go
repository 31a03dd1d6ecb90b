// Package request provides a read-only view over an inbound HTTP request
// for rule evaluation. Query parameters and cookies are parsed lazily on
// first access and memoized on the view.
package request

import (
	"fmt"
	"strings"
	"sync"
)

// View is an immutable accessor over the parts of a request that rules
// inspect. The view owns its derived query-parameter and cookie maps;
// they are built once and never exposed for external mutation.
type View struct {
	method   string
	host     string
	urlPath  string
	headers  map[string]string
	clientIP string

	queryOnce   sync.Once
	queryParams map[string]string
	queryErr    error

	cookieOnce sync.Once
	cookies    map[string]string
	cookieErr  error
}

// Option configures a View.
type Option func(*View)

// WithClientIP sets the client address on the view.
func WithClientIP(ip string) Option {
	return func(v *View) {
		v.clientIP = ip
	}
}

// WithQueryParams pre-populates the query-parameter map, skipping the
// lazy parse of the URL path. Keys are normalized to lower case.
func WithQueryParams(params map[string]string) Option {
	return func(v *View) {
		m := make(map[string]string, len(params))
		for k, val := range params {
			m[strings.ToLower(k)] = val
		}
		v.queryParams = m
		v.queryOnce.Do(func() {})
	}
}

// NewView creates a view over the given request parts. The path may carry
// a "?query" suffix; headers are stored with their case as received.
func NewView(method, host, path string, headers map[string]string, opts ...Option) *View {
	if headers == nil {
		headers = map[string]string{}
	}
	v := &View{
		method:  method,
		host:    host,
		urlPath: path,
		headers: headers,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Method returns the request method as received.
func (v *View) Method() string {
	return v.method
}

// Host returns the request host as received.
func (v *View) Host() string {
	return v.host
}

// Path returns the request path. With excludeQuery set, the substring
// before the first "?" is returned.
func (v *View) Path(excludeQuery bool) string {
	if excludeQuery {
		if idx := strings.Index(v.urlPath, "?"); idx >= 0 {
			return v.urlPath[:idx]
		}
	}
	return v.urlPath
}

// ClientIP returns the client address, or an empty string when unknown.
func (v *View) ClientIP() string {
	return v.clientIP
}

// Header returns the value of the named header. Lookup is
// case-insensitive; an absent header yields an empty string.
func (v *View) Header(key string) string {
	if val, ok := v.headers[key]; ok {
		return val
	}
	for k, val := range v.headers {
		if strings.EqualFold(k, key) {
			return val
		}
	}
	return ""
}

// QueryParam returns the value of the named query parameter. The query
// string is parsed from the URL path on first access; keys are normalized
// to lower case. A malformed entry (missing "=") is reported as an error.
// An absent parameter yields an empty string.
func (v *View) QueryParam(key string) (string, error) {
	v.queryOnce.Do(v.parseQuery)
	if v.queryErr != nil {
		return "", v.queryErr
	}
	return v.queryParams[strings.ToLower(key)], nil
}

// Cookie returns the value of the named cookie. The Cookie header is
// parsed on first access; keys are normalized to lower case. A malformed
// entry (missing "=") is reported as an error. An absent cookie yields an
// empty string.
func (v *View) Cookie(key string) (string, error) {
	v.cookieOnce.Do(v.parseCookies)
	if v.cookieErr != nil {
		return "", v.cookieErr
	}
	return v.cookies[strings.ToLower(key)], nil
}

// parseQuery builds the query-parameter map from the URL path.
func (v *View) parseQuery() {
	v.queryParams = map[string]string{}

	idx := strings.Index(v.urlPath, "?")
	if idx < 0 {
		return
	}
	query := v.urlPath[idx+1:]
	if query == "" {
		return
	}

	for _, param := range strings.Split(query, "&") {
		key, value, found := strings.Cut(param, "=")
		if !found {
			v.queryErr = fmt.Errorf("malformed query parameter: %q", param)
			return
		}
		v.queryParams[strings.ToLower(key)] = value
	}
}

// parseCookies builds the cookie map from the Cookie header.
func (v *View) parseCookies() {
	v.cookies = map[string]string{}

	raw := v.Header("Cookie")
	if raw == "" {
		return
	}

	for _, cookie := range strings.Split(raw, ";") {
		key, value, found := strings.Cut(cookie, "=")
		if !found {
			v.cookieErr = fmt.Errorf("malformed cookie: %q", cookie)
			return
		}
		v.cookies[strings.ToLower(strings.TrimSpace(key))] = value
	}
}
