// Package reconciler implements import reconciliation: classifying a batch
// of suggested rule drafts against the existing rule set, resolving their
// suggested entity names, and producing the persistence plan of rule
// upserts and entity creations.
package reconciler

import (
	"github.com/google/uuid"

	"rule-reconciliation-service/internal/models"
)

// Outcome is the terminal classification of one selected draft.
type Outcome int

const (
	// OutcomeNew means no existing rule shares the draft's name; the draft
	// is committed as a fresh rule.
	OutcomeNew Outcome = iota
	// OutcomeMerge means an existing rule shares the draft's name and
	// target category; the draft's match values are folded into the
	// existing rule under the existing rule's id.
	OutcomeMerge
	// OutcomeCollision means an existing rule shares the draft's name but
	// targets a different category; the draft is committed as a separate
	// rule under its own id and the original is left untouched.
	OutcomeCollision
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeMerge:
		return "merge"
	case OutcomeCollision:
		return "collision"
	default:
		return "new"
	}
}

// classifyAgainst decides merge vs collision for a draft whose name matched
// an existing rule. The rules merge when they target the same category:
// either the ids are directly equal, or the draft's suggested category name
// names the existing rule's category.
func classifyAgainst(existing *models.Rule, draft *models.RuleImportDraft, categories *models.Registry) Outcome {
	if existing.SetCategoryID == draft.SetCategoryID && draft.SuggestedCategoryName == "" {
		return OutcomeMerge
	}
	if draft.SetCategoryID != "" && draft.SetCategoryID == existing.SetCategoryID {
		return OutcomeMerge
	}
	if draft.SuggestedCategoryName != "" && existing.SetCategoryID != "" {
		if e, ok := categories.LookupID(existing.SetCategoryID); ok {
			if e.NormalizedName() == models.NormalizeName(draft.SuggestedCategoryName) {
				return OutcomeMerge
			}
		}
	}
	return OutcomeCollision
}

// mergeRules folds a draft into an existing same-named, same-target rule.
// The result keeps the existing rule's id and assignments; its condition
// list is replaced by a single synthesized condition whose field and
// operator come from the existing rule's first condition (description and
// contains when it had none) and whose alternatives are the existing rule's
// values followed by the draft's. A side with no conditions contributes no
// alternative: joining an empty side in would produce an empty alternative,
// and contains against the empty string matches everything. Re-merging the
// same draft appends the same alternatives again; the duplication is a
// long-standing quirk of the stored format that downstream tooling
// tolerates, so it is preserved here.
func mergeRules(existing *models.Rule, draft *models.RuleImportDraft) models.Rule {
	merged := existing.Clone()

	field := models.FieldDescription
	operator := "contains"
	conditionID := uuid.NewString()
	if len(existing.Conditions) > 0 {
		first := &existing.Conditions[0]
		field = first.Field
		operator = first.Operator
		conditionID = first.ID
	}

	value := existing.ConditionValues()
	if draftValues := draft.ConditionValues(); draftValues != "" {
		if value == "" {
			value = draftValues
		} else {
			value += models.AlternativeSeparator + draftValues
		}
	}
	merged.Conditions = []models.RuleCondition{
		models.NewCondition(conditionID, field, operator, value),
	}
	return merged
}
