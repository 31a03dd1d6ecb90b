package subscription

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiry_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected Expiry
	}{
		{name: "epoch seconds", input: "1893456000", expected: Expiry(1893456000)},
		{name: "never sentinel", input: "-1", expected: ExpiryNever},
		{name: "always expired sentinel", input: "-2", expected: ExpiryAlwaysExpired},
		{name: "null", input: "null", expected: ExpiryNever},
		{
			name:     "date string",
			input:    `"2030-06-15"`,
			expected: Expiry(time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC).Unix()),
		},
		{
			name:     "date-time string",
			input:    `"2030-06-15 13:45:00"`,
			expected: Expiry(time.Date(2030, 6, 15, 13, 45, 0, 0, time.UTC).Unix()),
		},
		{name: "stringified epoch", input: `"1893456000"`, expected: Expiry(1893456000)},
		{name: "stringified sentinel", input: `"-1"`, expected: ExpiryNever},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var e Expiry
			require.NoError(t, json.Unmarshal([]byte(tt.input), &e))
			assert.Equal(t, tt.expected, e)
		})
	}

	t.Run("invalid values rejected", func(t *testing.T) {
		t.Parallel()
		for _, input := range []string{`"not-a-date"`, "-3", `"2030/06/15"`, "1.5"} {
			var e Expiry
			assert.Error(t, json.Unmarshal([]byte(input), &e), "input %s", input)
		}
	})
}

func TestRecord_Unmarshal(t *testing.T) {
	t.Parallel()

	t.Run("full record", func(t *testing.T) {
		t.Parallel()
		raw := `{
			"id": "s1",
			"name": "Test",
			"description": "a test subscription",
			"expiry": "2030-06-15",
			"is_entra_user": true,
			"entra_username": "user@example.com",
			"rules": [
				{"name": "open", "type": "allow-all"},
				{"name": "hosts", "type": "host", "hosts": ["*.example.com"], "allow": true}
			]
		}`

		var rec Record
		require.NoError(t, json.Unmarshal([]byte(raw), &rec))

		assert.Equal(t, "s1", rec.ID)
		assert.Equal(t, "Test", rec.Name)
		require.NotNil(t, rec.Expiry)
		assert.True(t, rec.IsEntraUser)
		assert.Equal(t, "user@example.com", rec.EntraUser)
		require.Len(t, rec.Rules, 2)
		assert.Equal(t, "allow-all", rec.Rules[0].Type)
	})

	t.Run("missing expiry means never", func(t *testing.T) {
		t.Parallel()
		raw := `{"id": "s1", "name": "Test", "rules": [{"name": "open", "type": "allow-all"}]}`

		var rec Record
		require.NoError(t, json.Unmarshal([]byte(raw), &rec))
		assert.Nil(t, rec.Expiry)

		sub, err := New(&rec)
		require.NoError(t, err)
		assert.Equal(t, ExpiryNever, sub.Expiry)
	})
}

func TestExpiry_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Expiry(1893456000))
	require.NoError(t, err)
	assert.Equal(t, "1893456000", string(data))

	data, err = json.Marshal(ExpiryNever)
	require.NoError(t, err)
	assert.Equal(t, "-1", string(data))
}
