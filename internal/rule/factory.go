package rule

import (
	"errors"
	"fmt"
)

// Rule type tags as they appear in persisted subscription records.
const (
	TypeHost     = "host"
	TypePath     = "path"
	TypeHeader   = "header"
	TypeCookie   = "cookie"
	TypeQuery    = "query"
	TypeMethod   = "method"
	TypeDate     = "date"
	TypeClientIP = "client-ip"
	TypeAllowAll = "allow-all"
	TypeDenyAll  = "deny-all"
)

// Definition is the persisted form of a rule inside a subscription
// record. Only the fields for the definition's type are consulted; the
// alternate value-list fields mirror the shapes found in existing
// records.
type Definition struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Allow *bool  `json:"allow,omitempty"`

	Hosts   []string `json:"hosts,omitempty"`
	Paths   []string `json:"paths,omitempty"`
	Values  []string `json:"values,omitempty"`
	Cookies []string `json:"cookies,omitempty"`
	Headers []string `json:"headers,omitempty"`
	Methods []string `json:"methods,omitempty"`
	CIDRs   []string `json:"cidrs,omitempty"`

	// Key-name overrides for header, cookie, and query rules; the rule
	// name is the fallback key.
	Header     string `json:"header,omitempty"`
	HeaderName string `json:"header_name,omitempty"`
	Cookie     string `json:"cookie,omitempty"`
	CookieName string `json:"cookie_name,omitempty"`
	Param      string `json:"param,omitempty"`
	Query      string `json:"query,omitempty"`

	Date     string `json:"date,omitempty"`
	Operator string `json:"operator,omitempty"`
}

// Validation errors for rule definitions.
var (
	// ErrMissingName indicates that a rule definition has no name.
	ErrMissingName = errors.New("rule name is required")

	// ErrMissingType indicates that a rule definition has no type.
	ErrMissingType = errors.New("rule type is required")

	// ErrUnknownType indicates an unrecognized rule type tag.
	ErrUnknownType = errors.New("unknown rule type")
)

// allow resolves the definition's polarity, defaulting to allow.
func (d *Definition) allow() bool {
	if d.Allow == nil {
		return true
	}
	return *d.Allow
}

// firstNonEmpty returns the first value list that has entries.
func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

// firstNonBlank returns the first non-empty string.
func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// New constructs a rule from its persisted definition. The type tag is
// dispatched exhaustively; an unknown type, a missing required field, or
// an invalid pattern rejects the definition.
func New(def Definition) (Rule, error) {
	if def.Name == "" {
		return nil, ErrMissingName
	}
	if def.Type == "" {
		return nil, fmt.Errorf("rule %q: %w", def.Name, ErrMissingType)
	}

	allow := def.allow()

	switch def.Type {
	case TypeHost:
		return NewHost(def.Name, firstNonEmpty(def.Hosts, def.Values), allow)
	case TypePath:
		return NewPath(def.Name, firstNonEmpty(def.Paths, def.Values), allow)
	case TypeHeader:
		header := firstNonBlank(def.Header, def.HeaderName, def.Name)
		return NewHeader(def.Name, header, firstNonEmpty(def.Values, def.Headers), allow)
	case TypeCookie:
		cookie := firstNonBlank(def.Cookie, def.CookieName, def.Name)
		return NewCookie(def.Name, cookie, firstNonEmpty(def.Values, def.Cookies), allow)
	case TypeQuery:
		param := firstNonBlank(def.Param, def.Query, def.Name)
		return NewQuery(def.Name, param, firstNonEmpty(def.Values), allow)
	case TypeMethod:
		return NewMethod(def.Name, firstNonEmpty(def.Methods, def.Values), allow)
	case TypeDate:
		if def.Date == "" {
			return nil, fmt.Errorf("date rule %q: date is required", def.Name)
		}
		if def.Operator == "" {
			return nil, fmt.Errorf("date rule %q: operator is required", def.Name)
		}
		return NewDate(def.Name, def.Date, def.Operator, allow)
	case TypeClientIP:
		return NewClientIP(def.Name, def.CIDRs, allow)
	case TypeAllowAll:
		return NewAllowAll(def.Name), nil
	case TypeDenyAll:
		return NewDenyAll(def.Name), nil
	default:
		return nil, fmt.Errorf("rule %q: %w: %q", def.Name, ErrUnknownType, def.Type)
	}
}
