package models

import (
	"fmt"
	"strings"
)

// Rule is a persisted reconciliation rule: a condition set plus the field
// assignments it applies to a matching record. The id is globally unique and
// stable across merges, so downstream references ("categorized by rule X")
// stay valid after an import reconciliation.
type Rule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Conditions []RuleCondition `json:"conditions"`
	Priority   int             `json:"priority"`
	SkipImport bool            `json:"skipImport"`

	SetCategoryID        string   `json:"setCategoryId,omitempty"`
	SetCounterpartyID    string   `json:"setCounterpartyId,omitempty"`
	SetLocationID        string   `json:"setLocationId,omitempty"`
	SetUserID            string   `json:"setUserId,omitempty"`
	SetTransactionTypeID string   `json:"setTransactionTypeId,omitempty"`
	SetDescription       string   `json:"setDescription,omitempty"`
	AssignTagIDs         []string `json:"assignTagIds,omitempty"`
}

// Validate checks that the rule is structurally usable for matching. A rule
// with an empty condition list is a configuration defect: it is surfaced to
// the author and excluded from matching rather than silently matching nothing
// (or, worse, everything).
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("rule id cannot be empty")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule '%s' has no conditions", r.Name)
	}
	for i := range r.Conditions {
		if err := r.Conditions[i].Validate(); err != nil {
			return fmt.Errorf("rule '%s' condition %d: %w", r.Name, i, err)
		}
	}
	return nil
}

// NormalizedName returns the rule name in canonical comparison form. Rule
// name collisions during import are detected on this form.
func (r *Rule) NormalizedName() string {
	return NormalizeName(r.Name)
}

// ConditionValues returns the " || "-join of all condition values of the
// rule, in condition order. This is the per-rule side of a merge: each rule
// contributes the flattened list of its own alternatives.
func (r *Rule) ConditionValues() string {
	parts := make([]string, 0, len(r.Conditions))
	for i := range r.Conditions {
		parts = append(parts, r.Conditions[i].JoinedValue())
	}
	return strings.Join(parts, AlternativeSeparator)
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() Rule {
	out := *r
	out.Conditions = make([]RuleCondition, len(r.Conditions))
	for i, c := range r.Conditions {
		c.Alternatives = append([]string(nil), c.Alternatives...)
		out.Conditions[i] = c
	}
	out.AssignTagIDs = append([]string(nil), r.AssignTagIDs...)
	return out
}

// String returns a string representation of the Rule.
func (r *Rule) String() string {
	return fmt.Sprintf("Rule{ID: %s, Name: %s, Priority: %d, Conditions: %d}",
		r.ID, r.Name, r.Priority, len(r.Conditions))
}

// RuleIndex is an immutable lookup over an active rule set, keyed by
// normalized name and by id. The import reconciler consults it for collision
// detection; it must be rebuilt after a commit, never mutated mid-batch.
type RuleIndex struct {
	byName map[string]*Rule
	byID   map[string]*Rule
	rules  []Rule
}

// NewRuleIndex builds a rule index snapshot. When two rules share a
// normalized name the first one wins the name slot, matching the lookup
// behavior of the staging UI.
func NewRuleIndex(rules []Rule) *RuleIndex {
	idx := &RuleIndex{
		byName: make(map[string]*Rule, len(rules)),
		byID:   make(map[string]*Rule, len(rules)),
		rules:  rules,
	}
	for i := range rules {
		r := &idx.rules[i]
		idx.byID[r.ID] = r
		key := r.NormalizedName()
		if _, exists := idx.byName[key]; !exists {
			idx.byName[key] = r
		}
	}
	return idx
}

// LookupName returns the rule whose normalized name matches the given name.
func (idx *RuleIndex) LookupName(name string) (*Rule, bool) {
	r, ok := idx.byName[NormalizeName(name)]
	return r, ok
}

// LookupID returns the rule with the given id.
func (idx *RuleIndex) LookupID(id string) (*Rule, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// Rules returns the underlying rule collection.
func (idx *RuleIndex) Rules() []Rule {
	return idx.rules
}

// Len returns the number of rules in the index.
func (idx *RuleIndex) Len() int {
	return len(idx.rules)
}
