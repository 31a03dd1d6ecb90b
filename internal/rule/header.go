package rule

import (
	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Header matches the value of a named request header against a list of
// configured values. Values may use prefix, suffix, or two-part
// wildcards ("abc*", "*abc", "a*c"), a bare "*" to accept any value, or
// a "regex(...)" pattern. Comparison is case-sensitive. An absent header
// never matches.
type Header struct {
	base
	header string
	set    *MatcherSet
}

// NewHeader compiles a header rule for the named header.
func NewHeader(name, header string, values []string, allow bool) (*Header, error) {
	set, err := CompileSet(values, ModeValue)
	if err != nil {
		return nil, err
	}
	return &Header{base: base{name: name, allow: allow}, header: header, set: set}, nil
}

// Matches tests the request's header value against the matcher set.
func (r *Header) Matches(req *request.View) bool {
	value := req.Header(r.header)
	if value == "" {
		return false
	}
	return r.set.Test(value)
}
