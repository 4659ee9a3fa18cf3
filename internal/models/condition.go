package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConditionField identifies which record attribute a condition inspects.
type ConditionField string

const (
	// FieldDescription inspects the record's description text.
	FieldDescription ConditionField = "description"
	// FieldCounterparty inspects the record's counterparty reference.
	FieldCounterparty ConditionField = "counterparty"
	// FieldLocation inspects the record's location reference.
	FieldLocation ConditionField = "location"
	// FieldUser inspects the record's user reference.
	FieldUser ConditionField = "user"
	// FieldTags inspects the record's tag set.
	FieldTags ConditionField = "tags"
	// FieldAccount inspects the record's account reference.
	FieldAccount ConditionField = "account"
)

// String returns the string representation of ConditionField.
func (f ConditionField) String() string {
	return string(f)
}

// IsValid checks if the condition field is one of the known record attributes.
func (f ConditionField) IsValid() bool {
	switch f {
	case FieldDescription, FieldCounterparty, FieldLocation, FieldUser, FieldTags, FieldAccount:
		return true
	}
	return false
}

// ChainOperator combines a condition's result with the result of the NEXT
// condition in the list. Conditions are evaluated left-to-right as a flat
// boolean chain with no precedence grouping.
type ChainOperator string

const (
	// ChainAnd requires both this and the next condition's result.
	ChainAnd ChainOperator = "AND"
	// ChainOr accepts either this or the next condition's result.
	ChainOr ChainOperator = "OR"
)

// IsValid checks if the chain operator is known.
func (c ChainOperator) IsValid() bool {
	return c == ChainAnd || c == ChainOr
}

// ConditionKindBasic is the only condition kind currently defined. The kind
// tag is carried so future grouped conditions can coexist with basic ones in
// the stored format.
const ConditionKindBasic = "basic"

// AlternativeSeparator is the literal token joining accepted alternatives in
// the stored condition value. It is a storage-boundary encoding only: in
// memory a condition carries an explicit Alternatives slice and the joined
// string never reaches the evaluation path.
const AlternativeSeparator = " || "

// RuleCondition is the atomic unit of a rule's trigger logic. A condition
// matches when the record's field value satisfies the operator against ANY of
// the alternatives. Merging two rules appends alternatives instead of growing
// the condition list.
type RuleCondition struct {
	ID           string
	Kind         string
	Field        ConditionField
	Operator     string
	Alternatives []string
	Chain        ChainOperator
}

// NewCondition creates a basic condition from a stored-format value string,
// splitting it into alternatives.
func NewCondition(id string, field ConditionField, operator, value string) RuleCondition {
	return RuleCondition{
		ID:           id,
		Kind:         ConditionKindBasic,
		Field:        field,
		Operator:     operator,
		Alternatives: SplitAlternatives(value),
		Chain:        ChainAnd,
	}
}

// SplitAlternatives splits a stored condition value on the literal separator.
// A value with no separator yields a single-element list, so the result is
// never empty.
func SplitAlternatives(value string) []string {
	return strings.Split(value, AlternativeSeparator)
}

// JoinedValue serializes the alternatives back into the stored value format.
// SplitAlternatives(JoinedValue()) round-trips exactly.
func (c *RuleCondition) JoinedValue() string {
	return strings.Join(c.Alternatives, AlternativeSeparator)
}

// Validate performs structural validation on the condition.
func (c *RuleCondition) Validate() error {
	if !c.Field.IsValid() {
		return fmt.Errorf("unknown condition field: %s", c.Field)
	}
	if strings.TrimSpace(c.Operator) == "" {
		return fmt.Errorf("condition operator cannot be empty")
	}
	if len(c.Alternatives) == 0 {
		return fmt.Errorf("condition must carry at least one alternative")
	}
	if c.Chain != "" && !c.Chain.IsValid() {
		return fmt.Errorf("invalid chain operator: %s", c.Chain)
	}
	return nil
}

// String returns a string representation of the RuleCondition.
func (c *RuleCondition) String() string {
	return fmt.Sprintf("Condition{%s %s %q}", c.Field, c.Operator, c.JoinedValue())
}

// conditionJSON is the wire/storage shape of a condition. The alternatives
// travel as the legacy joined "value" string so persisted rules from earlier
// versions of the tracker load unchanged.
type conditionJSON struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Field    ConditionField `json:"field"`
	Operator string         `json:"operator"`
	Value    string         `json:"value"`
	Chain    ChainOperator  `json:"chain,omitempty"`
}

// MarshalJSON implements custom JSON marshaling for RuleCondition.
func (c RuleCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(conditionJSON{
		ID:       c.ID,
		Kind:     c.Kind,
		Field:    c.Field,
		Operator: c.Operator,
		Value:    c.JoinedValue(),
		Chain:    c.Chain,
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for RuleCondition.
func (c *RuleCondition) UnmarshalJSON(data []byte) error {
	var aux conditionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.ID = aux.ID
	c.Kind = aux.Kind
	if c.Kind == "" {
		c.Kind = ConditionKindBasic
	}
	c.Field = aux.Field
	c.Operator = aux.Operator
	c.Alternatives = SplitAlternatives(aux.Value)
	c.Chain = aux.Chain
	return nil
}
