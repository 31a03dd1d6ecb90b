package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

func boolPtr(b bool) *bool { return &b }

func TestNew_AllVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		def      Definition
		expected interface{}
	}{
		{
			name:     "host",
			def:      Definition{Name: "r", Type: TypeHost, Hosts: []string{"example.com"}},
			expected: (*Host)(nil),
		},
		{
			name:     "path",
			def:      Definition{Name: "r", Type: TypePath, Paths: []string{"/app"}},
			expected: (*Path)(nil),
		},
		{
			name:     "header",
			def:      Definition{Name: "r", Type: TypeHeader, Header: "X-Channel", Values: []string{"web"}},
			expected: (*Header)(nil),
		},
		{
			name:     "cookie",
			def:      Definition{Name: "r", Type: TypeCookie, Cookie: "tier", Values: []string{"gold"}},
			expected: (*Cookie)(nil),
		},
		{
			name:     "query",
			def:      Definition{Name: "r", Type: TypeQuery, Param: "v", Values: []string{"1"}},
			expected: (*Query)(nil),
		},
		{
			name:     "method",
			def:      Definition{Name: "r", Type: TypeMethod, Methods: []string{"GET"}},
			expected: (*Method)(nil),
		},
		{
			name:     "date",
			def:      Definition{Name: "r", Type: TypeDate, Date: "2030-01-01", Operator: "before"},
			expected: (*Date)(nil),
		},
		{
			name:     "client-ip",
			def:      Definition{Name: "r", Type: TypeClientIP, CIDRs: []string{"10.0.0.0/8"}},
			expected: (*ClientIP)(nil),
		},
		{
			name:     "allow-all",
			def:      Definition{Name: "r", Type: TypeAllowAll},
			expected: (*AllowAll)(nil),
		},
		{
			name:     "deny-all",
			def:      Definition{Name: "r", Type: TypeDenyAll},
			expected: (*DenyAll)(nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := New(tt.def)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, r)
			assert.Equal(t, "r", r.Name())
		})
	}
}

func TestNew_Polarity(t *testing.T) {
	t.Parallel()

	t.Run("defaults to allow", func(t *testing.T) {
		t.Parallel()
		r, err := New(Definition{Name: "r", Type: TypeHost, Hosts: []string{"example.com"}})
		require.NoError(t, err)
		assert.True(t, r.Allow())
	})

	t.Run("explicit deny", func(t *testing.T) {
		t.Parallel()
		r, err := New(Definition{
			Name: "r", Type: TypeHost, Allow: boolPtr(false),
			Hosts: []string{"example.com"},
		})
		require.NoError(t, err)
		assert.False(t, r.Allow())
	})

	t.Run("deny-all is always a deny rule", func(t *testing.T) {
		t.Parallel()
		r, err := New(Definition{Name: "r", Type: TypeDenyAll, Allow: boolPtr(true)})
		require.NoError(t, err)
		assert.False(t, r.Allow())
	})

	t.Run("allow-all is always an allow rule", func(t *testing.T) {
		t.Parallel()
		r, err := New(Definition{Name: "r", Type: TypeAllowAll, Allow: boolPtr(false)})
		require.NoError(t, err)
		assert.True(t, r.Allow())
	})
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  Definition
		want error
	}{
		{name: "missing name", def: Definition{Type: TypeHost}, want: ErrMissingName},
		{name: "missing type", def: Definition{Name: "r"}, want: ErrMissingType},
		{name: "unknown type", def: Definition{Name: "r", Type: "teapot"}, want: ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.def)
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("date without operator", func(t *testing.T) {
		t.Parallel()
		_, err := New(Definition{Name: "r", Type: TypeDate, Date: "2030-01-01"})
		require.Error(t, err)
	})

	t.Run("date without date", func(t *testing.T) {
		t.Parallel()
		_, err := New(Definition{Name: "r", Type: TypeDate, Operator: "before"})
		require.Error(t, err)
	})

	t.Run("client-ip with bad CIDR", func(t *testing.T) {
		t.Parallel()
		_, err := New(Definition{Name: "r", Type: TypeClientIP, CIDRs: []string{"nope"}})
		require.Error(t, err)
	})
}

func TestNew_KeyNameFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("header falls back to rule name", func(t *testing.T) {
		t.Parallel()
		r, err := New(Definition{Name: "X-Channel", Type: TypeHeader, Values: []string{"web"}})
		require.NoError(t, err)

		view := request.NewView("GET", "example.com", "/",
			map[string]string{"X-Channel": "web"})
		assert.True(t, r.Matches(view))
	})

	t.Run("header_name alias", func(t *testing.T) {
		t.Parallel()
		r, err := New(Definition{
			Name: "channel", Type: TypeHeader,
			HeaderName: "X-Channel", Values: []string{"web"},
		})
		require.NoError(t, err)

		view := request.NewView("GET", "example.com", "/",
			map[string]string{"X-Channel": "web"})
		assert.True(t, r.Matches(view))
	})

	t.Run("header values from headers list", func(t *testing.T) {
		t.Parallel()
		r, err := New(Definition{
			Name: "channel", Type: TypeHeader,
			Header: "X-Channel", Headers: []string{"web"},
		})
		require.NoError(t, err)

		view := request.NewView("GET", "example.com", "/",
			map[string]string{"X-Channel": "web"})
		assert.True(t, r.Matches(view))
	})
}

func TestAllowAllDenyAll_AlwaysMatch(t *testing.T) {
	t.Parallel()

	view := request.NewView("GET", "example.com", "/", nil)

	allowAll := NewAllowAll("open")
	assert.True(t, allowAll.Matches(view))
	assert.True(t, allowAll.Allow())

	denyAll := NewDenyAll("closed")
	assert.True(t, denyAll.Matches(view))
	assert.False(t, denyAll.Allow())
}
