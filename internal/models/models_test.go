package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Costco", "costco"},
		{"  Costco  ", "costco"},
		{"COSTCO", "costco"},
		{"\tGroceries \n", "groceries"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseEntityKind(t *testing.T) {
	tests := []struct {
		input   string
		want    EntityKind
		wantErr bool
	}{
		{"category", KindCategory, false},
		{" Counterparty ", KindCounterparty, false},
		{"LOCATION", KindLocation, false},
		{"tag", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEntityKind(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseEntityKind(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEntityKind(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseEntityKind(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegistry_LookupName(t *testing.T) {
	reg := NewRegistry(KindCounterparty, []Entity{
		{ID: "cp_1", Name: "Costco"},
		{ID: "cp_2", Name: "Peets Coffee"},
		{ID: "cp_3", Name: " costco "}, // duplicate normalized name, first wins
	})

	e, ok := reg.LookupName("  COSTCO ")
	if !ok {
		t.Fatal("expected lookup to find entity by case-insensitive trimmed name")
	}
	if e.ID != "cp_1" {
		t.Errorf("expected first registered entity to win the name slot, got %s", e.ID)
	}

	if _, ok := reg.LookupName("walmart"); ok {
		t.Error("expected lookup miss for unknown name")
	}

	if _, ok := reg.LookupID("cp_3"); !ok {
		t.Error("duplicate-named entity must stay reachable by id")
	}
}

func TestSplitAlternatives(t *testing.T) {
	tests := []struct {
		value    string
		expected []string
	}{
		{"STARBUCKS", []string{"STARBUCKS"}},
		{"STARBUCKS || PEETS", []string{"STARBUCKS", "PEETS"}},
		{"A || B || C", []string{"A", "B", "C"}},
		{"", []string{""}},
		// single pipes and missing spaces are not the separator
		{"A|B", []string{"A|B"}},
		{"A ||B", []string{"A ||B"}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := SplitAlternatives(tt.value)
			if len(got) != len(tt.expected) {
				t.Fatalf("SplitAlternatives(%q) = %v, want %v", tt.value, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("alternative %d = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestRuleCondition_JSONRoundTrip(t *testing.T) {
	cond := NewCondition("c1", FieldDescription, "contains", "STARBUCKS || PEETS")
	cond.Chain = ChainOr

	data, err := json.Marshal(cond)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"value":"STARBUCKS || PEETS"`) {
		t.Errorf("expected joined legacy value in wire form, got %s", data)
	}

	var decoded RuleCondition
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(decoded.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives after round trip, got %v", decoded.Alternatives)
	}
	if decoded.JoinedValue() != cond.JoinedValue() {
		t.Errorf("round trip changed value: %q != %q", decoded.JoinedValue(), cond.JoinedValue())
	}
	if decoded.Chain != ChainOr {
		t.Errorf("expected chain to survive round trip, got %q", decoded.Chain)
	}
}

func TestRuleCondition_UnmarshalDefaultsKind(t *testing.T) {
	var cond RuleCondition
	raw := `{"id":"c1","field":"description","operator":"contains","value":"X"}`
	if err := json.Unmarshal([]byte(raw), &cond); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if cond.Kind != ConditionKindBasic {
		t.Errorf("expected kind to default to %q, got %q", ConditionKindBasic, cond.Kind)
	}
}

func TestRuleCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    RuleCondition
		wantErr bool
	}{
		{"valid", NewCondition("c1", FieldDescription, "contains", "X"), false},
		{"unknown field", NewCondition("c1", "amount", "contains", "X"), true},
		{"empty operator", NewCondition("c1", FieldTags, " ", "X"), true},
		{"no alternatives", RuleCondition{Field: FieldDescription, Operator: "contains"}, true},
		{"bad chain", RuleCondition{Field: FieldDescription, Operator: "contains", Alternatives: []string{"X"}, Chain: "XOR"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRule_Validate(t *testing.T) {
	valid := Rule{
		ID:         "r1",
		Name:       "Coffee",
		Conditions: []RuleCondition{NewCondition("c1", FieldDescription, "contains", "STARBUCKS")},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid rule, got %v", err)
	}

	empty := Rule{ID: "r2", Name: "Empty"}
	if err := empty.Validate(); err == nil {
		t.Error("expected rule with no conditions to fail validation")
	}

	nameless := Rule{ID: "r3", Conditions: valid.Conditions}
	if err := nameless.Validate(); err == nil {
		t.Error("expected nameless rule to fail validation")
	}
}

func TestRule_ConditionValues(t *testing.T) {
	rule := Rule{
		ID:   "r1",
		Name: "Coffee",
		Conditions: []RuleCondition{
			NewCondition("c1", FieldDescription, "contains", "STARBUCKS || PEETS"),
			NewCondition("c2", FieldDescription, "contains", "BLUE BOTTLE"),
		},
	}

	want := "STARBUCKS || PEETS || BLUE BOTTLE"
	if got := rule.ConditionValues(); got != want {
		t.Errorf("ConditionValues() = %q, want %q", got, want)
	}
}

func TestRuleIndex_LookupName(t *testing.T) {
	idx := NewRuleIndex([]Rule{
		{ID: "r1", Name: "Coffee"},
		{ID: "r2", Name: "Groceries"},
	})

	r, ok := idx.LookupName("  coffee ")
	if !ok {
		t.Fatal("expected name lookup to be case-insensitive and trimmed")
	}
	if r.ID != "r1" {
		t.Errorf("expected r1, got %s", r.ID)
	}

	if _, ok := idx.LookupName("rent"); ok {
		t.Error("expected lookup miss for unknown rule name")
	}
}

func TestMappingStatus_HintDefaultsToMatch(t *testing.T) {
	status := MappingStatus{Category: MappingCreate}

	if got := status.Hint(KindCategory); got != MappingCreate {
		t.Errorf("expected create hint for category, got %q", got)
	}
	if got := status.Hint(KindCounterparty); got != MappingMatch {
		t.Errorf("expected empty hint to default to match, got %q", got)
	}
}

func TestRuleImportDraft_CleanRule(t *testing.T) {
	draft := RuleImportDraft{
		Rule: Rule{
			ID:         "d1",
			Name:       "Coffee",
			Conditions: []RuleCondition{NewCondition("c1", FieldDescription, "contains", "PEETS")},
		},
		IsSelected:            true,
		SuggestedCategoryName: "Dining",
	}

	clean := draft.CleanRule()
	if clean.ID != "d1" || clean.Name != "Coffee" {
		t.Errorf("clean rule lost identity: %+v", clean)
	}

	// mutating the clean copy must not reach back into the draft
	clean.Conditions[0].Alternatives[0] = "MUTATED"
	if draft.Conditions[0].Alternatives[0] != "PEETS" {
		t.Error("CleanRule must deep-copy conditions")
	}
}

func TestRuleImportDraft_ValidateName(t *testing.T) {
	draft := RuleImportDraft{Rule: Rule{ID: "d1", Name: "   "}}
	if err := draft.ValidateName(); err == nil {
		t.Error("expected whitespace-only name to be rejected")
	}

	draft.Name = "Coffee"
	if err := draft.ValidateName(); err != nil {
		t.Errorf("unexpected error for valid name: %v", err)
	}
}

func TestTransactionRecord_FieldValues(t *testing.T) {
	record := TransactionRecord{
		ID:          "tx1",
		Description: "STARBUCKS #123",
		Account:     "acc_main",
		Tags:        []string{"coffee", "work"},
	}

	values, ok := record.FieldValues(FieldDescription)
	if !ok || len(values) != 1 || values[0] != "STARBUCKS #123" {
		t.Errorf("unexpected description values: %v, ok=%t", values, ok)
	}

	values, ok = record.FieldValues(FieldTags)
	if !ok || len(values) != 2 {
		t.Errorf("expected one value per tag, got %v", values)
	}

	if _, ok := record.FieldValues("amount"); ok {
		t.Error("expected unknown field to report not-ok")
	}

	// empty tag set still yields a single comparable value
	record.Tags = nil
	values, ok = record.FieldValues(FieldTags)
	if !ok || len(values) != 1 || values[0] != "" {
		t.Errorf("expected single empty value for empty tag set, got %v", values)
	}
}
