package rule

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Method matches the request method against a set of configured methods.
// Methods are compared after upper-casing; wildcards and regexes are not
// supported.
type Method struct {
	base
	methods map[string]struct{}
}

// NewMethod creates a method rule over the configured method tokens.
func NewMethod(name string, methods []string, allow bool) (*Method, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("method rule %q: at least one method is required", name)
	}
	normalized := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		normalized[strings.ToUpper(m)] = struct{}{}
	}
	return &Method{base: base{name: name, allow: allow}, methods: normalized}, nil
}

// Matches reports whether the upper-cased request method is in the
// configured set.
func (r *Method) Matches(req *request.View) bool {
	method := req.Method()
	if method == "" {
		return false
	}
	_, ok := r.methods[strings.ToUpper(method)]
	return ok
}
