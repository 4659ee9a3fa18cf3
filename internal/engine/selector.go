package engine

import (
	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
	"rule-reconciliation-service/pkg/logger"
)

// SelectionOutcome classifies what rule selection decided for a record.
type SelectionOutcome int

const (
	// SelectionNone means no rule matched the record.
	SelectionNone SelectionOutcome = iota
	// SelectionMatched means a rule matched and its assignments apply.
	SelectionMatched
	// SelectionSuppressed means the winning rule marks matching records to
	// be dropped from the import.
	SelectionSuppressed
)

// String returns the string representation of SelectionOutcome.
func (o SelectionOutcome) String() string {
	switch o {
	case SelectionMatched:
		return "matched"
	case SelectionSuppressed:
		return "suppressed"
	default:
		return "none"
	}
}

// Selection is the result of selecting a winning rule for one record.
type Selection struct {
	Outcome SelectionOutcome
	// Rule is the winning rule for matched and suppressed outcomes, nil
	// otherwise. For suppressed outcomes it is the rule that caused the
	// suppression, kept for the audit trail.
	Rule *models.Rule
	// InvalidRules collects configuration defects found in the rule set
	// during this selection. Defective rules are excluded from matching.
	InvalidRules []*errors.EngineError
}

// Selector picks the single winning rule for a record out of a rule set.
type Selector struct {
	evaluator *Evaluator
	logger    logger.Logger
}

// NewSelector creates a selector.
func NewSelector(log logger.Logger) *Selector {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Selector{
		evaluator: NewEvaluator(log),
		logger:    log.WithComponent("selector"),
	}
}

// Select evaluates every rule against the record and picks the winner:
// highest priority first, smallest rule id on a priority tie. The tie-break
// makes selection deterministic no matter how the rule set is ordered. A
// winning rule flagged skipImport yields a suppressed outcome instead of a
// match.
func (s *Selector) Select(rules []models.Rule, record *models.TransactionRecord) Selection {
	var selection Selection
	var winner *models.Rule

	for i := range rules {
		rule := &rules[i]

		matched, err := s.evaluator.MatchesRule(rule, record)
		if err != nil {
			selection.InvalidRules = append(selection.InvalidRules, err)
			continue
		}
		if !matched {
			continue
		}

		if winner == nil || betterCandidate(rule, winner) {
			winner = rule
		}
	}

	if winner == nil {
		selection.Outcome = SelectionNone
		return selection
	}

	selection.Rule = winner
	if winner.SkipImport {
		selection.Outcome = SelectionSuppressed
	} else {
		selection.Outcome = SelectionMatched
	}

	s.logger.WithFields(logger.Fields{
		"record_id": record.ID,
		"rule_id":   winner.ID,
		"outcome":   selection.Outcome.String(),
	}).Debug("Selected rule")

	return selection
}

// betterCandidate reports whether candidate beats the current winner:
// higher priority, or equal priority with the smaller id.
func betterCandidate(candidate, current *models.Rule) bool {
	if candidate.Priority != current.Priority {
		return candidate.Priority > current.Priority
	}
	return candidate.ID < current.ID
}
