// Package engine implements rule trigger evaluation and winning-rule
// selection for transaction records. Evaluation is pure and deterministic:
// the same rule set and record always produce the same outcome, regardless
// of the order rules are supplied in.
package engine

import (
	"sort"
	"strings"
)

// Predicate compares one record field value against one condition
// alternative. Both sides are folded to lower case before comparison; the
// engine's string matching is case-insensitive throughout.
type Predicate func(fieldValue, alternative string) bool

// Operator names accepted in stored rule conditions.
const (
	OpContains    = "contains"
	OpEquals      = "equals"
	OpStartsWith  = "starts_with"
	OpEndsWith    = "ends_with"
	OpNotContains = "not_contains"
)

var predicates = map[string]Predicate{
	OpContains: func(fieldValue, alternative string) bool {
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(alternative))
	},
	OpEquals: func(fieldValue, alternative string) bool {
		return strings.EqualFold(fieldValue, alternative)
	},
	OpStartsWith: func(fieldValue, alternative string) bool {
		return strings.HasPrefix(strings.ToLower(fieldValue), strings.ToLower(alternative))
	},
	OpEndsWith: func(fieldValue, alternative string) bool {
		return strings.HasSuffix(strings.ToLower(fieldValue), strings.ToLower(alternative))
	},
	OpNotContains: func(fieldValue, alternative string) bool {
		return !strings.Contains(strings.ToLower(fieldValue), strings.ToLower(alternative))
	},
}

// LookupOperator resolves an operator name to its predicate. The second
// return is false for an operator this engine version does not know, which
// callers must surface as a rule-configuration error rather than treat as a
// non-match.
func LookupOperator(name string) (Predicate, bool) {
	p, ok := predicates[name]
	return p, ok
}

// SupportedOperators returns the operator catalogue in sorted order.
func SupportedOperators() []string {
	names := make([]string, 0, len(predicates))
	for name := range predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
