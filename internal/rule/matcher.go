// Package rule implements the policy rules evaluated against inbound
// requests. Each rule is a named, polarized predicate; string-valued rules
// share a compiled pattern-matching sub-language (exact, wildcard,
// segment-wildcard, and regex forms).
package rule

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchMode selects how wildcard values are interpreted when a pattern is
// compiled.
type MatchMode int

const (
	// ModeValue interprets an interior "*" as a two-part prefix/suffix
	// wildcard and a bare "*" as "any non-empty value". Used for header,
	// cookie, and query values.
	ModeValue MatchMode = iota

	// ModeHost interprets an interior "*" as a single dot-delimited
	// segment wildcard.
	ModeHost

	// ModePath interprets an interior "*" as a single slash-delimited
	// segment wildcard.
	ModePath
)

// separator returns the segment separator for the mode.
func (m MatchMode) separator() string {
	if m == ModePath {
		return "/"
	}
	return "."
}

// Matcher is a compiled matching strategy for one configured value.
type Matcher interface {
	// Test reports whether the candidate matches the configured value.
	Test(candidate string) bool
}

const (
	regexPrefix = "regex("
	regexSuffix = ")"
)

// isRegexValue reports whether a configured value selects regex matching.
func isRegexValue(value string) bool {
	return strings.HasPrefix(value, regexPrefix) && strings.HasSuffix(value, regexSuffix)
}

// MatcherSet holds the compiled matchers for a rule's configured values.
// Test is a logical OR across the set; regex matchers are tried only after
// every non-regex matcher has been tried and found false.
type MatcherSet struct {
	matchers []Matcher
	regexes  []*regexp.Regexp
}

// CompileSet compiles each configured value into exactly one matcher.
// Values wrapped as "regex(...)" are compiled with match-from-start
// semantics; all other values are classified per the mode. An unsupported
// wildcard form fails compilation.
func CompileSet(values []string, mode MatchMode) (*MatcherSet, error) {
	set := &MatcherSet{}
	for _, value := range values {
		if isRegexValue(value) {
			inner := value[len(regexPrefix) : len(value)-len(regexSuffix)]
			re, err := compileFromStart(inner)
			if err != nil {
				return nil, fmt.Errorf("invalid regex pattern %q: %w", value, err)
			}
			set.regexes = append(set.regexes, re)
			continue
		}
		m, err := Compile(value, mode)
		if err != nil {
			return nil, err
		}
		set.matchers = append(set.matchers, m)
	}
	return set, nil
}

// Test reports whether any compiled matcher accepts the candidate.
func (s *MatcherSet) Test(candidate string) bool {
	for _, m := range s.matchers {
		if m.Test(candidate) {
			return true
		}
	}
	for _, re := range s.regexes {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// Empty reports whether the set holds no matchers at all.
func (s *MatcherSet) Empty() bool {
	return len(s.matchers) == 0 && len(s.regexes) == 0
}

// compileFromStart compiles a regex that must match a prefix of the
// candidate rather than the full string. This mirrors the behavior rule
// authors rely on; patterns wanting full-match semantics carry their own
// end anchor.
func compileFromStart(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`\A(?:` + pattern + `)`)
}

// Compile classifies a non-regex configured value into exactly one
// matcher kind.
func Compile(value string, mode MatchMode) (Matcher, error) {
	wildcards := strings.Count(value, "*")
	if wildcards == 0 {
		return exactMatcher(value), nil
	}

	if mode == ModeValue {
		switch {
		case value == "*":
			return anyValueMatcher{}, nil
		case wildcards > 1:
			return nil, fmt.Errorf("unsupported multi-wildcard pattern: %q", value)
		case strings.HasPrefix(value, "*"):
			return suffixMatcher(value[1:]), nil
		case strings.HasSuffix(value, "*"):
			return prefixMatcher(value[:len(value)-1]), nil
		default:
			prefix, suffix, _ := strings.Cut(value, "*")
			return middleMatcher{prefix: prefix, suffix: suffix}, nil
		}
	}

	// Host and path modes: a leading or trailing "*" is a plain
	// prefix/suffix wildcard; anything else is the segment form.
	if wildcards == 1 {
		if strings.HasPrefix(value, "*") {
			return suffixMatcher(value[1:]), nil
		}
		if strings.HasSuffix(value, "*") {
			return prefixMatcher(value[:len(value)-1]), nil
		}
	}
	return newSegmentMatcher(value, mode.separator())
}

// exactMatcher matches by case-sensitive equality. Callers that need
// case folding lower-case both sides before compiling and testing.
type exactMatcher string

func (m exactMatcher) Test(candidate string) bool {
	return candidate == string(m)
}

// anyValueMatcher matches any non-empty candidate.
type anyValueMatcher struct{}

func (anyValueMatcher) Test(candidate string) bool {
	return candidate != ""
}

// prefixMatcher matches candidates starting with the configured prefix.
type prefixMatcher string

func (m prefixMatcher) Test(candidate string) bool {
	return strings.HasPrefix(candidate, string(m))
}

// suffixMatcher matches candidates ending with the configured suffix.
type suffixMatcher string

func (m suffixMatcher) Test(candidate string) bool {
	return strings.HasSuffix(candidate, string(m))
}

// middleMatcher matches candidates with the configured prefix and suffix,
// regardless of what lies between.
type middleMatcher struct {
	prefix string
	suffix string
}

func (m middleMatcher) Test(candidate string) bool {
	return strings.HasPrefix(candidate, m.prefix) && strings.HasSuffix(candidate, m.suffix)
}

// segmentMatcher matches a "*" against exactly one delimited segment.
// Pattern and candidate must have the same number of segments.
type segmentMatcher struct {
	segments  []string
	separator string
}

// newSegmentMatcher validates that every wildcard occupies a whole
// segment. A "*" embedded inside a segment is a configuration error.
func newSegmentMatcher(value, separator string) (segmentMatcher, error) {
	segments := strings.Split(value, separator)
	for _, seg := range segments {
		if seg != "*" && strings.Contains(seg, "*") {
			return segmentMatcher{}, fmt.Errorf("unsupported wildcard inside segment: %q", value)
		}
	}
	return segmentMatcher{segments: segments, separator: separator}, nil
}

func (m segmentMatcher) Test(candidate string) bool {
	parts := strings.Split(candidate, m.separator)
	if len(parts) != len(m.segments) {
		return false
	}
	for i, seg := range m.segments {
		if seg != "*" && seg != parts[i] {
			return false
		}
	}
	return true
}
