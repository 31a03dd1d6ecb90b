package rule

import (
	"strings"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Host matches the request host against a list of configured hosts.
// Hosts may use a leading or trailing wildcard ("*.example.com",
// "example.com.*"), a segment wildcard ("app.*.example.com", where "*"
// matches exactly one dot-delimited segment), or a "regex(...)" pattern.
// Matching is case-insensitive.
type Host struct {
	base
	set *MatcherSet
}

// NewHost compiles a host rule over the configured host patterns.
func NewHost(name string, hosts []string, allow bool) (*Host, error) {
	lowered := make([]string, len(hosts))
	for i, h := range hosts {
		if isRegexValue(h) {
			lowered[i] = h
			continue
		}
		lowered[i] = strings.ToLower(h)
	}
	set, err := CompileSet(lowered, ModeHost)
	if err != nil {
		return nil, err
	}
	return &Host{base: base{name: name, allow: allow}, set: set}, nil
}

// Matches tests the lower-cased request host against the matcher set.
// A request without a host never matches.
func (r *Host) Matches(req *request.View) bool {
	host := req.Host()
	if host == "" {
		return false
	}
	return r.set.Test(strings.ToLower(host))
}
