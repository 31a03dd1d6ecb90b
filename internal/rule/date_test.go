package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Operator
	}{
		{input: "==", expected: OpEqual},
		{input: "eq", expected: OpEqual},
		{input: "equals", expected: OpEqual},
		{input: "=", expected: OpEqual},
		{input: "!=", expected: OpNotEqual},
		{input: "ne", expected: OpNotEqual},
		{input: "not-equals", expected: OpNotEqual},
		{input: "!", expected: OpNotEqual},
		{input: "<", expected: OpLess},
		{input: "lt", expected: OpLess},
		{input: "before", expected: OpLess},
		{input: "<=", expected: OpLessOrEqual},
		{input: "le", expected: OpLessOrEqual},
		{input: "until", expected: OpLessOrEqual},
		{input: ">", expected: OpGreater},
		{input: "gt", expected: OpGreater},
		{input: "after", expected: OpGreater},
		{input: ">=", expected: OpGreaterOrEqual},
		{input: "ge", expected: OpGreaterOrEqual},
		{input: "from", expected: OpGreaterOrEqual},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			op, err := ParseOperator(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, op)
		})
	}

	t.Run("invalid operator", func(t *testing.T) {
		t.Parallel()
		_, err := ParseOperator("~=")
		require.Error(t, err)
	})
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	t.Run("date only", func(t *testing.T) {
		t.Parallel()
		d, err := ParseDate("2030-06-15")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("date with time", func(t *testing.T) {
		t.Parallel()
		d, err := ParseDate("2030-06-15 13:45:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2030, 6, 15, 13, 45, 0, 0, time.UTC), d)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()
		_, err := ParseDate("15/06/2030")
		require.Error(t, err)
	})
}

func TestDate_Matches(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		date     string
		operator string
		expected bool
	}{
		{name: "before future date", date: "2030-12-31", operator: "before", expected: true},
		{name: "before past date", date: "2030-01-01", operator: "before", expected: false},
		{name: "after past date", date: "2030-01-01", operator: "after", expected: true},
		{name: "after future date", date: "2030-12-31", operator: "after", expected: false},
		{name: "equal exact instant", date: "2030-06-15 12:00:00", operator: "==", expected: true},
		{name: "equal different instant", date: "2030-06-15 12:00:01", operator: "==", expected: false},
		{name: "not equal", date: "2030-06-15 12:00:01", operator: "!=", expected: true},
		{name: "until inclusive boundary", date: "2030-06-15 12:00:00", operator: "until", expected: true},
		{name: "from inclusive boundary", date: "2030-06-15 12:00:00", operator: "from", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := NewDate("window", tt.date, tt.operator, true)
			require.NoError(t, err)
			r.now = func() time.Time { return fixed }
			assert.Equal(t, tt.expected, r.Matches(nil))
		})
	}
}

func TestNewDate_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewDate("window", "not-a-date", "before", true)
	require.Error(t, err)

	_, err = NewDate("window", "2030-01-01", "sideways", true)
	require.Error(t, err)
}
