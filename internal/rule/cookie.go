package rule

import (
	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Cookie matches the value of a named request cookie against a list of
// configured values, with the same pattern forms as Header. An absent or
// unparsable cookie never matches.
type Cookie struct {
	base
	cookie string
	set    *MatcherSet
}

// NewCookie compiles a cookie rule for the named cookie.
func NewCookie(name, cookie string, values []string, allow bool) (*Cookie, error) {
	set, err := CompileSet(values, ModeValue)
	if err != nil {
		return nil, err
	}
	return &Cookie{base: base{name: name, allow: allow}, cookie: cookie, set: set}, nil
}

// Matches tests the request's cookie value against the matcher set.
func (r *Cookie) Matches(req *request.View) bool {
	value, err := req.Cookie(r.cookie)
	if err != nil || value == "" {
		return false
	}
	return r.set.Test(value)
}
