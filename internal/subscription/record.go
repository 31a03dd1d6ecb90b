package subscription

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/subauthgw/internal/rule"
)

// Expiry sentinel values.
const (
	// ExpiryNever marks a subscription that never expires.
	ExpiryNever Expiry = -1

	// ExpiryAlwaysExpired marks a subscription that is always expired.
	ExpiryAlwaysExpired Expiry = -2
)

// Expiry is a subscription expiry: a Unix timestamp in seconds, or one of
// the Never / AlwaysExpired sentinels. Records may carry it as an epoch
// integer or as an ISO date string ("YYYY-MM-DD", optionally with a
// time component).
type Expiry int64

// UnmarshalJSON accepts an epoch integer, a sentinel, or a date string.
func (e *Expiry) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*e = ExpiryNever
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("invalid expiry: %w", err)
		}
		return e.parseString(str)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry %q: %w", s, err)
	}
	return e.fromInt(n)
}

// parseString parses a date string, or a stringified epoch integer as
// found in some hand-edited records.
func (e *Expiry) parseString(s string) error {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return e.fromInt(n)
	}
	t, err := rule.ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid expiry: %w", err)
	}
	*e = Expiry(t.Unix())
	return nil
}

// fromInt validates an integer expiry value.
func (e *Expiry) fromInt(n int64) error {
	if n < int64(ExpiryAlwaysExpired) {
		return fmt.Errorf("invalid expiry value: %d", n)
	}
	*e = Expiry(n)
	return nil
}

// MarshalJSON emits the expiry in its integer form.
func (e Expiry) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(e), 10)), nil
}

// Record is the persisted subscription document as stored by the backing
// store.
type Record struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Expiry      *Expiry           `json:"expiry,omitempty"`
	IsEntraUser bool              `json:"is_entra_user,omitempty"`
	EntraUser   string            `json:"entra_username,omitempty"`
	Rules       []rule.Definition `json:"rules"`
}
