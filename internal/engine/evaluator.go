package engine

import (
	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
	"rule-reconciliation-service/pkg/logger"
)

// Evaluator applies a rule's trigger logic to a transaction record.
type Evaluator struct {
	logger logger.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(log logger.Logger) *Evaluator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Evaluator{
		logger: log.WithComponent("evaluator"),
	}
}

// EvaluateCondition reports whether a single condition matches the record.
// A condition matches when ANY of its alternatives satisfies the operator
// against ANY of the field's candidate values (most fields have one value,
// the tag set has one per tag). An unknown field or operator is a
// rule-configuration error, never a silent non-match.
func (e *Evaluator) EvaluateCondition(ruleID string, cond *models.RuleCondition, record *models.TransactionRecord) (bool, *errors.EngineError) {
	values, ok := record.FieldValues(cond.Field)
	if !ok {
		return false, errors.InvalidRuleError(errors.CodeUnknownField, ruleID, cond.Field.String())
	}

	predicate, ok := LookupOperator(cond.Operator)
	if !ok {
		return false, errors.InvalidRuleError(errors.CodeUnknownOperator, ruleID, cond.Operator)
	}

	for _, value := range values {
		for _, alternative := range cond.Alternatives {
			if predicate(value, alternative) {
				return true, nil
			}
		}
	}
	return false, nil
}

// MatchesRule reports whether the rule's full condition chain matches the
// record. Conditions combine left-to-right as a flat boolean chain: each
// condition's chain operator joins its accumulated result with the next
// condition, with no precedence grouping. A missing chain operator means AND.
//
// A rule with zero conditions is a configuration defect and never matches;
// the error keeps the defect visible to the rule's author.
func (e *Evaluator) MatchesRule(rule *models.Rule, record *models.TransactionRecord) (bool, *errors.EngineError) {
	if len(rule.Conditions) == 0 {
		return false, errors.InvalidRuleError(errors.CodeEmptyConditions, rule.ID, "")
	}

	result, err := e.EvaluateCondition(rule.ID, &rule.Conditions[0], record)
	if err != nil {
		return false, err
	}

	for i := 1; i < len(rule.Conditions); i++ {
		next, err := e.EvaluateCondition(rule.ID, &rule.Conditions[i], record)
		if err != nil {
			return false, err
		}

		chain := rule.Conditions[i-1].Chain
		if chain == models.ChainOr {
			result = result || next
		} else {
			result = result && next
		}
	}

	e.logger.WithFields(logger.Fields{
		"rule_id":   rule.ID,
		"record_id": record.ID,
		"matched":   result,
	}).Debug("Evaluated rule")

	return result, nil
}
