package rule

import (
	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Query matches the value of a named query parameter against a list of
// configured values, with the same pattern forms as Header. An absent or
// unparsable parameter never matches.
type Query struct {
	base
	param string
	set   *MatcherSet
}

// NewQuery compiles a query rule for the named parameter.
func NewQuery(name, param string, values []string, allow bool) (*Query, error) {
	set, err := CompileSet(values, ModeValue)
	if err != nil {
		return nil, err
	}
	return &Query{base: base{name: name, allow: allow}, param: param, set: set}, nil
}

// Matches tests the request's query-parameter value against the matcher
// set.
func (r *Query) Matches(req *request.View) bool {
	value, err := req.QueryParam(r.param)
	if err != nil || value == "" {
		return false
	}
	return r.set.Test(value)
}
