package reconciler

import (
	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/internal/resolver"
	"rule-reconciliation-service/pkg/errors"
	"rule-reconciliation-service/pkg/logger"
)

// DraftOutcome records how one selected draft was classified and which rule
// id it will commit under.
type DraftOutcome struct {
	DraftID   string  `json:"draftId"`
	DraftName string  `json:"draftName"`
	Outcome   Outcome `json:"-"`
	RuleID    string  `json:"ruleId"`
}

// Plan is the persistence plan produced from one import batch: what to
// write, in what groups, plus the complete audit trail of rejections and
// fallbacks. Building a plan has no side effects; committing it is a
// separate step.
type Plan struct {
	RulesToUpsert    []models.Rule
	EntitiesToCreate map[models.EntityKind][]models.Entity
	Outcomes         []DraftOutcome
	Rejected         []*errors.EngineError
	Warnings         []*errors.EngineError
}

// CountByOutcome returns how many drafts classified to the given outcome.
func (p *Plan) CountByOutcome(outcome Outcome) int {
	count := 0
	for _, o := range p.Outcomes {
		if o.Outcome == outcome {
			count++
		}
	}
	return count
}

// EntityCount returns the total number of entities the plan creates.
func (p *Plan) EntityCount() int {
	count := 0
	for _, entities := range p.EntitiesToCreate {
		count += len(entities)
	}
	return count
}

// Reconciler classifies import drafts against an existing rule set and
// builds persistence plans. It holds no batch state; all batch-scoped state
// lives in the per-call resolver, so one Reconciler can serve many batches
// as long as callers serialize the calls.
type Reconciler struct {
	logger logger.Logger
}

// New creates a reconciler.
func New(log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Reconciler{
		logger: log.WithComponent("reconciler"),
	}
}

// ClassifyDraft previews the outcome a draft would get in a batch, without
// consuming any batch state. The staging UI calls this to warn about
// collisions before the user commits.
func (r *Reconciler) ClassifyDraft(draft *models.RuleImportDraft, rules *models.RuleIndex, categories *models.Registry) Outcome {
	existing, found := rules.LookupName(draft.Name)
	if !found {
		return OutcomeNew
	}
	return classifyAgainst(existing, draft, categories)
}

// BuildPlan processes one batch of drafts against snapshots of the rule set
// and entity registries. Only selected drafts participate. A draft with an
// empty trimmed name is rejected before classification and consumes no
// dedup state. The snapshots must stay stable for the duration of the call;
// callers serialize import batches.
func (r *Reconciler) BuildPlan(
	drafts []models.RuleImportDraft,
	rules *models.RuleIndex,
	registries map[models.EntityKind]*models.Registry,
	types *models.TypeRegistry,
) *Plan {
	res := resolver.NewBatchResolver(registries, types, r.logger)
	categories := registries[models.KindCategory]
	if categories == nil {
		categories = models.NewRegistry(models.KindCategory, nil)
	}

	plan := &Plan{}

	for i := range drafts {
		draft := &drafts[i]
		if !draft.IsSelected {
			continue
		}

		if err := draft.ValidateName(); err != nil {
			rejection := errors.DraftValidationError(errors.CodeEmptyDraftName, draft.ID, err.Error())
			plan.Rejected = append(plan.Rejected, rejection)
			r.logger.WithField("draft_id", draft.ID).Warn("Rejected draft with empty name")
			continue
		}

		existing, found := rules.LookupName(draft.Name)
		if !found {
			rule := r.resolveDraft(draft, res)
			plan.RulesToUpsert = append(plan.RulesToUpsert, rule)
			plan.Outcomes = append(plan.Outcomes, DraftOutcome{
				DraftID:   draft.ID,
				DraftName: draft.Name,
				Outcome:   OutcomeNew,
				RuleID:    rule.ID,
			})
			continue
		}

		switch classifyAgainst(existing, draft, categories) {
		case OutcomeMerge:
			merged := mergeRules(existing, draft)
			plan.RulesToUpsert = append(plan.RulesToUpsert, merged)
			plan.Outcomes = append(plan.Outcomes, DraftOutcome{
				DraftID:   draft.ID,
				DraftName: draft.Name,
				Outcome:   OutcomeMerge,
				RuleID:    existing.ID,
			})
		default:
			// collision: the draft commits under its own id, the
			// original rule is left untouched
			rule := r.resolveDraft(draft, res)
			plan.RulesToUpsert = append(plan.RulesToUpsert, rule)
			plan.Outcomes = append(plan.Outcomes, DraftOutcome{
				DraftID:   draft.ID,
				DraftName: draft.Name,
				Outcome:   OutcomeCollision,
				RuleID:    rule.ID,
			})
		}
	}

	plan.EntitiesToCreate = res.PendingCreations()
	plan.Warnings = res.Warnings()

	r.logger.WithFields(logger.Fields{
		"drafts":   len(drafts),
		"upserts":  len(plan.RulesToUpsert),
		"entities": plan.EntityCount(),
		"rejected": len(plan.Rejected),
		"warnings": len(plan.Warnings),
	}).Info("Built reconciliation plan")

	return plan
}

// resolveDraft strips the draft's transient fields and resolves its
// suggested entity names into concrete assignment ids. Suggestions only
// fill assignments the draft does not already carry.
func (r *Reconciler) resolveDraft(draft *models.RuleImportDraft, res *resolver.BatchResolver) models.Rule {
	rule := draft.CleanRule()

	if rule.SetCategoryID == "" {
		rule.SetCategoryID = res.Resolve(models.KindCategory,
			draft.SuggestedCategoryName, draft.MappingStatus.Hint(models.KindCategory))
	}
	if rule.SetCounterpartyID == "" {
		rule.SetCounterpartyID = res.Resolve(models.KindCounterparty,
			draft.SuggestedCounterpartyName, draft.MappingStatus.Hint(models.KindCounterparty))
	}
	if rule.SetLocationID == "" {
		rule.SetLocationID = res.Resolve(models.KindLocation,
			draft.SuggestedLocationName, draft.MappingStatus.Hint(models.KindLocation))
	}
	if rule.SetTransactionTypeID == "" && draft.SuggestedTypeName != "" {
		rule.SetTransactionTypeID = res.ResolveType(draft.ID, draft.SuggestedTypeName)
	}

	return rule
}
