package reconciler

import (
	"testing"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
)

func createTestRegistries() map[models.EntityKind]*models.Registry {
	return map[models.EntityKind]*models.Registry{
		models.KindCategory: models.NewRegistry(models.KindCategory, []models.Entity{
			{ID: "cat_dining", Name: "Dining"},
			{ID: "cat_groceries", Name: "Groceries"},
		}),
		models.KindCounterparty: models.NewRegistry(models.KindCounterparty, nil),
		models.KindLocation:     models.NewRegistry(models.KindLocation, nil),
	}
}

func createCoffeeRule() models.Rule {
	return models.Rule{
		ID:            "r1",
		Name:          "Coffee",
		SetCategoryID: "cat_dining",
		Conditions: []models.RuleCondition{
			models.NewCondition("c1", models.FieldDescription, "contains", "STARBUCKS"),
		},
	}
}

func createCoffeeDraft() models.RuleImportDraft {
	return models.RuleImportDraft{
		Rule: models.Rule{
			ID:   "d1",
			Name: "Coffee",
			Conditions: []models.RuleCondition{
				models.NewCondition("dc1", models.FieldDescription, "contains", "PEETS"),
			},
		},
		IsSelected:            true,
		MappingStatus:         models.MappingStatus{Category: models.MappingMatch},
		SuggestedCategoryName: "Dining",
	}
}

func TestBuildPlan_MergeScenario(t *testing.T) {
	r := New(nil)
	rules := models.NewRuleIndex([]models.Rule{createCoffeeRule()})
	draft := createCoffeeDraft()

	plan := r.BuildPlan([]models.RuleImportDraft{draft}, rules, createTestRegistries(), nil)

	if len(plan.RulesToUpsert) != 1 {
		t.Fatalf("expected one upsert, got %d", len(plan.RulesToUpsert))
	}
	merged := plan.RulesToUpsert[0]
	if merged.ID != "r1" {
		t.Errorf("merge must reuse the existing rule's id, got %s", merged.ID)
	}
	if len(merged.Conditions) != 1 {
		t.Fatalf("expected a single synthesized condition, got %d", len(merged.Conditions))
	}
	if got := merged.Conditions[0].JoinedValue(); got != "STARBUCKS || PEETS" {
		t.Errorf("expected merged value 'STARBUCKS || PEETS', got %q", got)
	}
	if merged.Conditions[0].Field != models.FieldDescription || merged.Conditions[0].Operator != "contains" {
		t.Errorf("synthesized condition must copy field/operator from the existing rule, got %s/%s",
			merged.Conditions[0].Field, merged.Conditions[0].Operator)
	}
	if merged.SetCategoryID != "cat_dining" {
		t.Errorf("merge must keep the existing rule's assignments, got %q", merged.SetCategoryID)
	}

	if len(plan.Outcomes) != 1 || plan.Outcomes[0].Outcome != OutcomeMerge {
		t.Errorf("expected merge outcome, got %+v", plan.Outcomes)
	}
	if plan.EntityCount() != 0 {
		t.Errorf("merge must not create entities, got %d", plan.EntityCount())
	}
}

func TestBuildPlan_MergeByDirectCategoryID(t *testing.T) {
	r := New(nil)
	rules := models.NewRuleIndex([]models.Rule{createCoffeeRule()})

	draft := createCoffeeDraft()
	draft.SuggestedCategoryName = ""
	draft.SetCategoryID = "cat_dining"

	plan := r.BuildPlan([]models.RuleImportDraft{draft}, rules, createTestRegistries(), nil)
	if len(plan.Outcomes) != 1 || plan.Outcomes[0].Outcome != OutcomeMerge {
		t.Errorf("expected merge via direct id equality, got %+v", plan.Outcomes)
	}
}

func TestBuildPlan_MergeIsNotIdempotent(t *testing.T) {
	r := New(nil)
	draft := createCoffeeDraft()

	// first merge
	rules := models.NewRuleIndex([]models.Rule{createCoffeeRule()})
	plan := r.BuildPlan([]models.RuleImportDraft{draft}, rules, createTestRegistries(), nil)
	once := plan.RulesToUpsert[0]

	// merging the identical draft into the already-merged rule appends the
	// alternative again; the duplication is preserved, not deduplicated
	rules = models.NewRuleIndex([]models.Rule{once})
	plan = r.BuildPlan([]models.RuleImportDraft{draft}, rules, createTestRegistries(), nil)
	twice := plan.RulesToUpsert[0]

	if got := twice.Conditions[0].JoinedValue(); got != "STARBUCKS || PEETS || PEETS" {
		t.Errorf("expected literal duplication to be preserved, got %q", got)
	}
}

func TestBuildPlan_MergeWithEmptyExistingConditions(t *testing.T) {
	r := New(nil)
	existing := createCoffeeRule()
	existing.Conditions = nil
	rules := models.NewRuleIndex([]models.Rule{existing})

	plan := r.BuildPlan([]models.RuleImportDraft{createCoffeeDraft()}, rules, createTestRegistries(), nil)

	merged := plan.RulesToUpsert[0]
	if len(merged.Conditions) != 1 {
		t.Fatalf("expected one synthesized condition, got %d", len(merged.Conditions))
	}
	cond := merged.Conditions[0]
	if cond.Field != models.FieldDescription || cond.Operator != "contains" {
		t.Errorf("expected description/contains fallback, got %s/%s", cond.Field, cond.Operator)
	}
	// the empty side contributes no alternative: a leading "" alternative
	// would make contains match every record
	if got := cond.JoinedValue(); got != "PEETS" {
		t.Errorf("expected merged value 'PEETS', got %q", got)
	}
	if len(cond.Alternatives) != 1 || cond.Alternatives[0] != "PEETS" {
		t.Errorf("expected a single non-empty alternative, got %v", cond.Alternatives)
	}
}

func TestBuildPlan_SameNameDraftsClassifyAgainstSnapshot(t *testing.T) {
	r := New(nil)
	rules := models.NewRuleIndex([]models.Rule{createCoffeeRule()})

	first := createCoffeeDraft()
	second := createCoffeeDraft()
	second.ID = "d2"
	second.Conditions = []models.RuleCondition{
		models.NewCondition("dc2", models.FieldDescription, "contains", "BLUE BOTTLE"),
	}

	plan := r.BuildPlan([]models.RuleImportDraft{first, second}, rules, createTestRegistries(), nil)

	// both drafts classify against the snapshot taken at the start of the
	// batch, so each merges with the original rule independently; the second
	// upsert wins at commit time and carries only its own alternatives
	if len(plan.Outcomes) != 2 {
		t.Fatalf("expected two outcomes, got %d", len(plan.Outcomes))
	}
	for _, o := range plan.Outcomes {
		if o.Outcome != OutcomeMerge || o.RuleID != "r1" {
			t.Errorf("expected merge into r1, got %+v", o)
		}
	}
	if len(plan.RulesToUpsert) != 2 {
		t.Fatalf("expected two upserts under the shared id, got %d", len(plan.RulesToUpsert))
	}
	if got := plan.RulesToUpsert[0].Conditions[0].JoinedValue(); got != "STARBUCKS || PEETS" {
		t.Errorf("first merge = %q, want 'STARBUCKS || PEETS'", got)
	}
	if got := plan.RulesToUpsert[1].Conditions[0].JoinedValue(); got != "STARBUCKS || BLUE BOTTLE" {
		t.Errorf("second merge = %q, want 'STARBUCKS || BLUE BOTTLE'", got)
	}
}

func TestBuildPlan_CollisionKeepsOriginalUntouched(t *testing.T) {
	r := New(nil)
	existing := createCoffeeRule()
	rules := models.NewRuleIndex([]models.Rule{existing})

	draft := createCoffeeDraft()
	draft.SuggestedCategoryName = "Groceries"

	plan := r.BuildPlan([]models.RuleImportDraft{draft}, rules, createTestRegistries(), nil)

	if len(plan.Outcomes) != 1 || plan.Outcomes[0].Outcome != OutcomeCollision {
		t.Fatalf("expected collision outcome, got %+v", plan.Outcomes)
	}
	committed := plan.RulesToUpsert[0]
	if committed.ID != "d1" {
		t.Errorf("collision must commit under the draft's own id, got %s", committed.ID)
	}
	if committed.SetCategoryID != "cat_groceries" {
		t.Errorf("expected draft's category resolution, got %q", committed.SetCategoryID)
	}

	// original rule is not part of the plan and keeps its conditions
	if got := existing.Conditions[0].JoinedValue(); got != "STARBUCKS" {
		t.Errorf("pre-existing rule was mutated: %q", got)
	}
	for _, rule := range plan.RulesToUpsert {
		if rule.ID == "r1" {
			t.Error("collision must not touch the existing rule")
		}
	}
}

func TestBuildPlan_NewDraftResolvesEntities(t *testing.T) {
	r := New(nil)
	rules := models.NewRuleIndex(nil)

	draft := models.RuleImportDraft{
		Rule: models.Rule{
			ID:   "d1",
			Name: "Warehouse runs",
			Conditions: []models.RuleCondition{
				models.NewCondition("dc1", models.FieldDescription, "contains", "COSTCO"),
			},
		},
		IsSelected: true,
		MappingStatus: models.MappingStatus{
			Category:     models.MappingMatch,
			Counterparty: models.MappingCreate,
		},
		SuggestedCategoryName:     "Groceries",
		SuggestedCounterpartyName: "Costco",
		SuggestedTypeName:         "Expense",
	}

	types := models.NewTypeRegistry([]models.TransactionTypeDef{{ID: "tt_expense", Name: "Expense"}})
	plan := r.BuildPlan([]models.RuleImportDraft{draft}, rules, createTestRegistries(), types)

	if len(plan.Outcomes) != 1 || plan.Outcomes[0].Outcome != OutcomeNew {
		t.Fatalf("expected new outcome, got %+v", plan.Outcomes)
	}
	rule := plan.RulesToUpsert[0]
	if rule.SetCategoryID != "cat_groceries" {
		t.Errorf("expected matched category id, got %q", rule.SetCategoryID)
	}
	if rule.SetCounterpartyID == "" {
		t.Error("expected minted counterparty id")
	}
	if rule.SetTransactionTypeID != "tt_expense" {
		t.Errorf("expected matched type id, got %q", rule.SetTransactionTypeID)
	}

	created := plan.EntitiesToCreate[models.KindCounterparty]
	if len(created) != 1 || created[0].ID != rule.SetCounterpartyID {
		t.Errorf("expected one counterparty creation matching the assignment, got %v", created)
	}
}

func TestBuildPlan_UnknownTypeNameIsWarning(t *testing.T) {
	r := New(nil)
	draft := createCoffeeDraft()
	draft.Name = "Transfers"
	draft.SuggestedTypeName = "Transfer"

	plan := r.BuildPlan([]models.RuleImportDraft{draft}, models.NewRuleIndex(nil), createTestRegistries(), nil)

	rule := plan.RulesToUpsert[0]
	if rule.SetTransactionTypeID != "" {
		t.Errorf("types must never be auto-created, got assignment %q", rule.SetTransactionTypeID)
	}
	found := false
	for _, w := range plan.Warnings {
		if w.Code == errors.CodeUnknownTypeName {
			found = true
		}
	}
	if !found {
		t.Error("expected unknown_type_name warning in the audit trail")
	}
}

func TestBuildPlan_EmptyNameRejected(t *testing.T) {
	r := New(nil)

	nameless := createCoffeeDraft()
	nameless.ID = "d_nameless"
	nameless.Name = "   "
	nameless.SuggestedCounterpartyName = "Costco"
	nameless.MappingStatus.Counterparty = models.MappingCreate

	plan := r.BuildPlan([]models.RuleImportDraft{nameless}, models.NewRuleIndex(nil), createTestRegistries(), nil)

	if len(plan.RulesToUpsert) != 0 {
		t.Errorf("rejected draft must not produce an upsert, got %d", len(plan.RulesToUpsert))
	}
	if len(plan.Rejected) != 1 || plan.Rejected[0].Code != errors.CodeEmptyDraftName {
		t.Fatalf("expected one empty_draft_name rejection, got %v", plan.Rejected)
	}
	// a rejected draft consumes no dedup state: its suggestions resolve nothing
	if plan.EntityCount() != 0 {
		t.Errorf("rejected draft must not create entities, got %d", plan.EntityCount())
	}
}

func TestBuildPlan_UnselectedDraftsSkipped(t *testing.T) {
	r := New(nil)
	draft := createCoffeeDraft()
	draft.IsSelected = false

	plan := r.BuildPlan([]models.RuleImportDraft{draft}, models.NewRuleIndex(nil), createTestRegistries(), nil)
	if len(plan.RulesToUpsert) != 0 || len(plan.Outcomes) != 0 {
		t.Errorf("unselected draft must not participate, got %+v", plan)
	}
}

func TestBuildPlan_BatchDedupAcrossDrafts(t *testing.T) {
	r := New(nil)

	makeDraft := func(id, name, counterparty string) models.RuleImportDraft {
		return models.RuleImportDraft{
			Rule: models.Rule{
				ID:   id,
				Name: name,
				Conditions: []models.RuleCondition{
					models.NewCondition(id+"_c", models.FieldDescription, "contains", "COSTCO"),
				},
			},
			IsSelected:                true,
			MappingStatus:             models.MappingStatus{Counterparty: models.MappingCreate},
			SuggestedCounterpartyName: counterparty,
		}
	}

	drafts := []models.RuleImportDraft{
		makeDraft("d1", "Costco A", "Costco"),
		makeDraft("d2", "Costco B", " costco "),
		makeDraft("d3", "Costco C", "COSTCO"),
	}

	plan := r.BuildPlan(drafts, models.NewRuleIndex(nil), createTestRegistries(), nil)

	created := plan.EntitiesToCreate[models.KindCounterparty]
	if len(created) != 1 {
		t.Fatalf("expected exactly one counterparty creation, got %d", len(created))
	}
	for _, rule := range plan.RulesToUpsert {
		if rule.SetCounterpartyID != created[0].ID {
			t.Errorf("all drafts must resolve to the shared entity, got %q", rule.SetCounterpartyID)
		}
	}
}

func TestClassifyDraft_Preview(t *testing.T) {
	r := New(nil)
	rules := models.NewRuleIndex([]models.Rule{createCoffeeRule()})
	categories := createTestRegistries()[models.KindCategory]

	draft := createCoffeeDraft()
	if got := r.ClassifyDraft(&draft, rules, categories); got != OutcomeMerge {
		t.Errorf("expected merge preview, got %s", got)
	}

	draft.SuggestedCategoryName = "Groceries"
	if got := r.ClassifyDraft(&draft, rules, categories); got != OutcomeCollision {
		t.Errorf("expected collision preview, got %s", got)
	}

	draft.Name = "Rent"
	if got := r.ClassifyDraft(&draft, rules, categories); got != OutcomeNew {
		t.Errorf("expected new preview, got %s", got)
	}
}
