package rule

import (
	"fmt"
	"net"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// ClientIP matches the client address against a set of configured CIDR
// blocks. A request without a client address, or with an unparsable one,
// never matches.
type ClientIP struct {
	base
	networks []*net.IPNet
}

// NewClientIP parses the configured CIDR blocks into a client-IP rule.
func NewClientIP(name string, cidrs []string, allow bool) (*ClientIP, error) {
	if len(cidrs) == 0 {
		return nil, fmt.Errorf("client-ip rule %q: at least one CIDR is required", name)
	}
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("client-ip rule %q: invalid CIDR %q: %w", name, cidr, err)
		}
		networks = append(networks, network)
	}
	return &ClientIP{base: base{name: name, allow: allow}, networks: networks}, nil
}

// Matches reports whether the client address is contained in at least one
// configured block.
func (r *ClientIP) Matches(req *request.View) bool {
	ip := net.ParseIP(req.ClientIP())
	if ip == nil {
		return false
	}
	for _, network := range r.networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
