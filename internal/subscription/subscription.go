// Package subscription defines a caller's policy object: an identifier,
// an expiry, and an ordered rule list, together with the evaluation
// algorithm that decides whether a request may proceed.
package subscription

import (
	"fmt"
	"time"

	"github.com/vyrodovalexey/subauthgw/internal/request"
	"github.com/vyrodovalexey/subauthgw/internal/rule"
)

// Decision reasons with fixed wording; callers and tests rely on these
// exact strings.
const (
	ReasonOK      = "OK"
	ReasonExpired = "Subscription has expired"
	ReasonNoRules = "Subscription has no rules"
	reasonNoMatch = "Request does not match ALLOW rule %s"
	reasonDenyHit = "Request matches DENY rule %s"
)

// Decision is the structured result of evaluating a subscription against
// a request.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Reason describes the decision; "OK" when allowed.
	Reason string

	// Rule names the rule that produced a denial, if any.
	Rule string
}

// Subscription is an identity's policy. It is immutable after
// construction except for the federated-identity linkage fields, which
// the resolution layer sets after a claim-based lookup.
type Subscription struct {
	// ID is the subscription identifier; lookups are case-insensitive.
	ID string

	// Name is the human-readable subscription name.
	Name string

	// Description is optional free text.
	Description string

	// Expiry is the subscription expiry.
	Expiry Expiry

	// Rules is the ordered, non-empty rule list.
	Rules []rule.Rule

	// IsFederatedIdentity marks a subscription resolved through a
	// federated-identity claim rather than its id.
	IsFederatedIdentity bool

	// FederatedUsername is the claim the subscription was resolved by.
	FederatedUsername string

	now func() time.Time
}

// New validates a persisted record and constructs a Subscription from it.
// Any missing or invalid field rejects the whole record; a partially
// built subscription is never returned.
func New(rec *Record) (*Subscription, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: subscription id is required", ErrInvalidRecord)
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("%w: subscription name is required", ErrInvalidRecord)
	}
	if len(rec.Rules) == 0 {
		return nil, fmt.Errorf("%w: at least one rule is required", ErrInvalidRecord)
	}

	rules := make([]rule.Rule, 0, len(rec.Rules))
	for i, def := range rec.Rules {
		r, err := rule.New(def)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidRecord, i, err)
		}
		rules = append(rules, r)
	}

	expiry := ExpiryNever
	if rec.Expiry != nil {
		expiry = *rec.Expiry
	}

	return &Subscription{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Expiry:      expiry,
		Rules:       rules,
		now:         time.Now,
	}, nil
}

// IsExpired reports whether the subscription has expired.
func (s *Subscription) IsExpired() bool {
	switch s.Expiry {
	case ExpiryNever:
		return false
	case ExpiryAlwaysExpired:
		return true
	}
	return s.now().Unix() > int64(s.Expiry)
}

// ExpiryDate returns a human-readable form of the expiry.
func (s *Subscription) ExpiryDate() string {
	switch s.Expiry {
	case ExpiryNever:
		return "Never"
	case ExpiryAlwaysExpired:
		return "Expired"
	}
	return time.Unix(int64(s.Expiry), 0).UTC().Format(time.RFC3339)
}

// Evaluate runs the subscription's rules against the request in
// configured order. Every allow rule must match and no deny rule may
// match; the first failing rule short-circuits and names the reason.
// Evaluation is pure and side-effect free.
func (s *Subscription) Evaluate(req *request.View) Decision {
	if s.IsExpired() {
		return Decision{Allowed: false, Reason: ReasonExpired}
	}

	// Construction guarantees a non-empty rule list; kept as a guard so
	// a hand-built subscription still fails closed.
	if len(s.Rules) == 0 {
		return Decision{Allowed: false, Reason: ReasonNoRules}
	}

	for _, r := range s.Rules {
		matched := r.Matches(req)
		if r.Allow() && !matched {
			return Decision{
				Allowed: false,
				Reason:  fmt.Sprintf(reasonNoMatch, r.Name()),
				Rule:    r.Name(),
			}
		}
		if !r.Allow() && matched {
			return Decision{
				Allowed: false,
				Reason:  fmt.Sprintf(reasonDenyHit, r.Name()),
				Rule:    r.Name(),
			}
		}
	}

	return Decision{Allowed: true, Reason: ReasonOK}
}

// String implements fmt.Stringer.
func (s *Subscription) String() string {
	return fmt.Sprintf("Subscription(id=%s, name=%s, expiry=%s, rules=%d)",
		s.ID, s.Name, s.ExpiryDate(), len(s.Rules))
}
