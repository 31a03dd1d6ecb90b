package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

func hostView(host string) *request.View {
	return request.NewView("GET", host, "/", nil)
}

func TestHost_Matches(t *testing.T) {
	t.Parallel()

	r, err := NewHost("hosts", []string{
		"foo.org",
		"*.example.com",
		"app.*.bar.com",
		`regex((.+\.)?example[0-9]\.com)`,
	}, true)
	require.NoError(t, err)

	tests := []struct {
		host     string
		expected bool
	}{
		{host: "foo.org", expected: true},
		{host: "test.example.com", expected: true},
		{host: "app.test.example.com", expected: true},
		{host: "example1.com", expected: true},
		{host: "test.example2.com", expected: true},
		{host: "app.test.bar.com", expected: true},
		{host: "app.x.test.bar.com", expected: false},
		{host: "bar.org", expected: false},
		{host: "examplex.com", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, r.Matches(hostView(tt.host)))
		})
	}
}

func TestHost_CaseInsensitive(t *testing.T) {
	t.Parallel()

	r, err := NewHost("hosts", []string{"Foo.ORG"}, true)
	require.NoError(t, err)

	assert.True(t, r.Matches(hostView("foo.org")))
	assert.True(t, r.Matches(hostView("FOO.org")))
}

func TestHost_EmptyHostNeverMatches(t *testing.T) {
	t.Parallel()

	r, err := NewHost("hosts", []string{"*"}, true)
	require.NoError(t, err)

	assert.False(t, r.Matches(hostView("")))
}

func TestHost_InvalidPatternRejected(t *testing.T) {
	t.Parallel()

	_, err := NewHost("hosts", []string{"app.te*st.bar.com"}, true)
	require.Error(t, err)
}
