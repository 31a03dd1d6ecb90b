package subscription

import "errors"

// ErrInvalidRecord indicates that a persisted subscription record failed
// validation. Records that fail construction are rejected whole and are
// never cached.
var ErrInvalidRecord = errors.New("invalid subscription record")

// IsInvalidRecord checks whether an error stems from record validation.
func IsInvalidRecord(err error) bool {
	return errors.Is(err, ErrInvalidRecord)
}
