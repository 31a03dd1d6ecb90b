package rule

import (
	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Rule is a named, polarized predicate over a request. An allow rule must
// match for a request to pass; a deny rule must not match.
type Rule interface {
	// Name returns the configured rule name, used in decision reasons.
	Name() string

	// Allow reports the rule polarity: true for allow, false for deny.
	Allow() bool

	// Matches reports whether the request satisfies the rule predicate.
	Matches(req *request.View) bool
}

// base carries the name and polarity shared by every rule variant.
type base struct {
	name  string
	allow bool
}

// Name returns the configured rule name.
func (b base) Name() string {
	return b.name
}

// Allow reports the rule polarity.
func (b base) Allow() bool {
	return b.allow
}

// AllowAll matches every request. As an allow rule it is always
// satisfied.
type AllowAll struct {
	base
}

// NewAllowAll creates an AllowAll rule.
func NewAllowAll(name string) *AllowAll {
	return &AllowAll{base{name: name, allow: true}}
}

// Matches always reports true.
func (r *AllowAll) Matches(_ *request.View) bool {
	return true
}

// DenyAll matches every request. As a deny rule it always causes the
// subscription to deny.
type DenyAll struct {
	base
}

// NewDenyAll creates a DenyAll rule.
func NewDenyAll(name string) *DenyAll {
	return &DenyAll{base{name: name, allow: false}}
}

// Matches always reports true.
func (r *DenyAll) Matches(_ *request.View) bool {
	return true
}
