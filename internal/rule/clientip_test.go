package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

func ipView(ip string) *request.View {
	return request.NewView("GET", "example.com", "/", nil, request.WithClientIP(ip))
}

func TestClientIP_Matches(t *testing.T) {
	t.Parallel()

	r, err := NewClientIP("networks", []string{
		"10.0.0.0/16",
		"172.16.1.0/24",
		"192.168.10.50/28",
		"201.202.203.204/32",
	}, true)
	require.NoError(t, err)

	tests := []struct {
		ip       string
		expected bool
	}{
		{ip: "10.0.5.10", expected: true},
		{ip: "10.1.5.10", expected: false},
		{ip: "172.16.1.50", expected: true},
		{ip: "172.16.2.50", expected: false},
		{ip: "192.168.10.60", expected: true},
		{ip: "192.168.10.70", expected: false},
		{ip: "201.202.203.204", expected: true},
		{ip: "201.202.203.205", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, r.Matches(ipView(tt.ip)))
		})
	}
}

func TestClientIP_AbsentOrInvalidAddress(t *testing.T) {
	t.Parallel()

	r, err := NewClientIP("networks", []string{"0.0.0.0/0"}, true)
	require.NoError(t, err)

	assert.False(t, r.Matches(ipView("")))
	assert.False(t, r.Matches(ipView("not-an-ip")))
}

func TestNewClientIP_Validation(t *testing.T) {
	t.Parallel()

	t.Run("empty CIDR list rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewClientIP("networks", nil, true)
		require.Error(t, err)
	})

	t.Run("invalid CIDR rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewClientIP("networks", []string{"10.0.0.0/99"}, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid CIDR")
	})
}
