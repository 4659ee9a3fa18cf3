package models

import (
	"fmt"
	"strings"
)

// MappingHint is the suggestion service's verdict on whether a suggested
// reference name should resolve to an existing entity or create a new one.
type MappingHint string

const (
	// MappingMatch hints that the suggested name names an existing entity.
	MappingMatch MappingHint = "match"
	// MappingCreate hints that a new entity should be created for the name.
	MappingCreate MappingHint = "create"
)

// IsValid checks if the mapping hint is known.
func (m MappingHint) IsValid() bool {
	return m == MappingMatch || m == MappingCreate
}

// MappingStatus carries the per-kind mapping hints of a draft.
type MappingStatus struct {
	Category     MappingHint `json:"category,omitempty"`
	Counterparty MappingHint `json:"counterparty,omitempty"`
	Location     MappingHint `json:"location,omitempty"`
}

// Hint returns the hint for the given entity kind, defaulting to match when
// the suggestion service left the slot empty.
func (m MappingStatus) Hint(kind EntityKind) MappingHint {
	var h MappingHint
	switch kind {
	case KindCategory:
		h = m.Category
	case KindCounterparty:
		h = m.Counterparty
	case KindLocation:
		h = m.Location
	}
	if h == "" {
		return MappingMatch
	}
	return h
}

// RuleImportDraft is a transient, not-yet-committed candidate rule produced by
// the external suggestion service. It is a Rule plus reconciliation metadata;
// it is never persisted as-is and is consumed exactly once by the import
// reconciler, which resolves it into a clean Rule plus zero or more new
// reference entities.
type RuleImportDraft struct {
	Rule

	IsSelected    bool          `json:"isSelected"`
	MappingStatus MappingStatus `json:"mappingStatus"`

	SuggestedCategoryName     string `json:"suggestedCategoryName,omitempty"`
	SuggestedCounterpartyName string `json:"suggestedCounterpartyName,omitempty"`
	SuggestedLocationName     string `json:"suggestedLocationName,omitempty"`
	SuggestedTypeName         string `json:"suggestedTypeName,omitempty"`
}

// SuggestedName returns the suggested entity name for the given kind.
func (d *RuleImportDraft) SuggestedName(kind EntityKind) string {
	switch kind {
	case KindCategory:
		return d.SuggestedCategoryName
	case KindCounterparty:
		return d.SuggestedCounterpartyName
	case KindLocation:
		return d.SuggestedLocationName
	}
	return ""
}

// CleanRule strips the transient draft-only fields and returns the rule that
// would be persisted, as a deep copy so later draft edits cannot leak into a
// built plan.
func (d *RuleImportDraft) CleanRule() Rule {
	return d.Rule.Clone()
}

// ValidateName checks the one hard precondition for entering a batch: a
// non-empty trimmed name. A nameless draft cannot participate in collision
// classification and is rejected before it consumes any batch state.
func (d *RuleImportDraft) ValidateName() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("draft name cannot be empty")
	}
	return nil
}

// String returns a string representation of the RuleImportDraft.
func (d *RuleImportDraft) String() string {
	return fmt.Sprintf("Draft{ID: %s, Name: %s, Selected: %t}", d.ID, d.Name, d.IsSelected)
}
