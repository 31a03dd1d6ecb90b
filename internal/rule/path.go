package rule

import (
	"strings"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Path matches the request path (query suffix excluded) against a list of
// configured paths. Paths may use a leading or trailing wildcard
// ("*.js", "/api/*"), a segment wildcard ("/foo/*/check", where "*"
// matches exactly one slash-delimited segment), or a "regex(...)"
// pattern. Matching is case-insensitive.
type Path struct {
	base
	set *MatcherSet
}

// NewPath compiles a path rule over the configured path patterns.
func NewPath(name string, paths []string, allow bool) (*Path, error) {
	lowered := make([]string, len(paths))
	for i, p := range paths {
		if isRegexValue(p) {
			lowered[i] = p
			continue
		}
		lowered[i] = strings.ToLower(p)
	}
	set, err := CompileSet(lowered, ModePath)
	if err != nil {
		return nil, err
	}
	return &Path{base: base{name: name, allow: allow}, set: set}, nil
}

// Matches tests the lower-cased request path, without its query suffix,
// against the matcher set. A request without a path never matches.
func (r *Path) Matches(req *request.View) bool {
	path := req.Path(true)
	if path == "" {
		return false
	}
	return r.set.Test(strings.ToLower(path))
}
