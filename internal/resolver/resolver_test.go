package resolver

import (
	"testing"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
)

func createTestResolver(existing map[models.EntityKind][]models.Entity, types []models.TransactionTypeDef) *BatchResolver {
	registries := make(map[models.EntityKind]*models.Registry)
	for kind, entities := range existing {
		registries[kind] = models.NewRegistry(kind, entities)
	}
	return NewBatchResolver(registries, models.NewTypeRegistry(types), nil)
}

func TestResolve_MatchHintFindsExisting(t *testing.T) {
	r := createTestResolver(map[models.EntityKind][]models.Entity{
		models.KindCategory: {{ID: "cat_1", Name: "Groceries"}},
	}, nil)

	id := r.Resolve(models.KindCategory, "  groceries ", models.MappingMatch)
	if id != "cat_1" {
		t.Errorf("expected existing id cat_1, got %q", id)
	}
	if len(r.Warnings()) != 0 {
		t.Errorf("expected no warnings, got %v", r.Warnings())
	}
	if len(r.PendingCreations()[models.KindCategory]) != 0 {
		t.Error("expected no pending creations for a clean match")
	}
}

func TestResolve_MatchHintMissFallsBackToCreate(t *testing.T) {
	r := createTestResolver(nil, nil)

	id := r.Resolve(models.KindCounterparty, "Costco", models.MappingMatch)
	if id == "" {
		t.Fatal("expected fallback creation, the reference must not be dropped")
	}

	warnings := r.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected one mapping-inconsistency warning, got %d", len(warnings))
	}
	if warnings[0].Code != errors.CodeMappingInconsistency {
		t.Errorf("expected %s, got %s", errors.CodeMappingInconsistency, warnings[0].Code)
	}

	pending := r.PendingCreations()[models.KindCounterparty]
	if len(pending) != 1 || pending[0].ID != id {
		t.Errorf("expected the minted entity in pending creations, got %v", pending)
	}
}

func TestResolve_BatchDedupAcrossNameVariants(t *testing.T) {
	r := createTestResolver(nil, nil)

	first := r.Resolve(models.KindCounterparty, "Costco", models.MappingCreate)
	variants := []string{"  Costco ", "COSTCO", "costco", "\tCostco\n"}
	for _, variant := range variants {
		if id := r.Resolve(models.KindCounterparty, variant, models.MappingCreate); id != first {
			t.Errorf("variant %q minted a second entity: %q != %q", variant, id, first)
		}
	}

	pending := r.PendingCreations()[models.KindCounterparty]
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending creation, got %d", len(pending))
	}
	if pending[0].Name != "Costco" {
		t.Errorf("expected first spelling trimmed with original case, got %q", pending[0].Name)
	}
}

func TestResolve_CreateHintPrefersExisting(t *testing.T) {
	r := createTestResolver(map[models.EntityKind][]models.Entity{
		models.KindLocation: {{ID: "loc_1", Name: "Seattle"}},
	}, nil)

	// a stale create hint must not duplicate an entity that already exists
	if id := r.Resolve(models.KindLocation, "seattle", models.MappingCreate); id != "loc_1" {
		t.Errorf("expected existing id, got %q", id)
	}
	if len(r.PendingCreations()[models.KindLocation]) != 0 {
		t.Error("expected no creation when the name already resolves")
	}
}

func TestResolve_EmptyNameResolvesToNothing(t *testing.T) {
	r := createTestResolver(nil, nil)

	for _, name := range []string{"", "   ", "\t"} {
		if id := r.Resolve(models.KindCategory, name, models.MappingCreate); id != "" {
			t.Errorf("expected empty resolution for %q, got %q", name, id)
		}
	}
	if len(r.Warnings()) != 0 {
		t.Errorf("expected no warnings for empty names, got %v", r.Warnings())
	}
}

func TestResolveType(t *testing.T) {
	r := createTestResolver(nil, []models.TransactionTypeDef{
		{ID: "tt_1", Name: "Expense"},
	})

	if id := r.ResolveType("d1", " expense "); id != "tt_1" {
		t.Errorf("expected tt_1, got %q", id)
	}

	// unknown type names are never auto-created
	if id := r.ResolveType("d1", "Transfer"); id != "" {
		t.Errorf("expected empty assignment for unknown type, got %q", id)
	}
	warnings := r.Warnings()
	if len(warnings) != 1 || warnings[0].Code != errors.CodeUnknownTypeName {
		t.Errorf("expected one unknown_type_name warning, got %v", warnings)
	}

	if id := r.ResolveType("d1", ""); id != "" {
		t.Errorf("expected empty name to resolve to nothing, got %q", id)
	}
}

func TestResolve_DistinctNamesMintDistinctEntities(t *testing.T) {
	r := createTestResolver(nil, nil)

	a := r.Resolve(models.KindCategory, "Dining", models.MappingCreate)
	b := r.Resolve(models.KindCategory, "Travel", models.MappingCreate)
	if a == b {
		t.Error("distinct names must mint distinct entities")
	}
	if len(r.PendingCreations()[models.KindCategory]) != 2 {
		t.Errorf("expected two pending creations, got %d", len(r.PendingCreations()[models.KindCategory]))
	}
}
