package rule

import (
	"fmt"
	"time"

	"github.com/vyrodovalexey/subauthgw/internal/request"
)

// Operator is a comparison between the current time and a configured
// instant.
type Operator string

// Supported date operators.
const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
)

// operatorAliases maps accepted spellings onto the canonical operators.
var operatorAliases = map[string]Operator{
	"eq": OpEqual, "equals": OpEqual, "=": OpEqual,
	"ne": OpNotEqual, "not-equals": OpNotEqual, "!": OpNotEqual,
	"lt": OpLess, "before": OpLess,
	"le": OpLessOrEqual, "until": OpLessOrEqual,
	"gt": OpGreater, "after": OpGreater,
	"ge": OpGreaterOrEqual, "from": OpGreaterOrEqual,
}

// ParseOperator resolves an operator string or one of its aliases.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		return Operator(s), nil
	}
	if op, ok := operatorAliases[s]; ok {
		return op, nil
	}
	return "", fmt.Errorf("invalid date operator: %q", s)
}

// Date layouts accepted by date rules and subscription expiries.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// ParseDate parses a configured date, with or without a time component.
func ParseDate(s string) (time.Time, error) {
	layout := dateLayout
	if len(s) > len(dateLayout) {
		layout = dateTimeLayout
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Date compares the current time against a configured instant using a
// configured operator. The request itself is not consulted.
type Date struct {
	base
	op   Operator
	date time.Time

	now func() time.Time
}

// NewDate parses the configured date and operator into a date rule.
func NewDate(name, date, operator string, allow bool) (*Date, error) {
	op, err := ParseOperator(operator)
	if err != nil {
		return nil, fmt.Errorf("date rule %q: %w", name, err)
	}
	t, err := ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("date rule %q: %w", name, err)
	}
	return &Date{
		base: base{name: name, allow: allow},
		op:   op,
		date: t,
		now:  time.Now,
	}, nil
}

// Matches compares the current time against the configured instant.
func (r *Date) Matches(_ *request.View) bool {
	now := r.now()
	switch r.op {
	case OpEqual:
		return now.Equal(r.date)
	case OpNotEqual:
		return !now.Equal(r.date)
	case OpLess:
		return now.Before(r.date)
	case OpLessOrEqual:
		return now.Before(r.date) || now.Equal(r.date)
	case OpGreater:
		return now.After(r.date)
	case OpGreaterOrEqual:
		return now.After(r.date) || now.Equal(r.date)
	default:
		return false
	}
}
