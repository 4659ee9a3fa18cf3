package reconciler

import (
	"context"

	"rule-reconciliation-service/internal/engine"
	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
	"rule-reconciliation-service/pkg/logger"
)

// Store is the full storage contract the service consumes: snapshot loads
// for building a batch, plus the write half used by the committer.
type Store interface {
	Persister
	LoadRules(ctx context.Context) ([]models.Rule, error)
	LoadEntities(ctx context.Context, kind models.EntityKind) ([]models.Entity, error)
	LoadTransactionTypes(ctx context.Context) ([]models.TransactionTypeDef, error)
}

// RecordSelection is the per-record result of a categorization sweep.
type RecordSelection struct {
	RecordID string                  `json:"recordId"`
	Outcome  engine.SelectionOutcome `json:"-"`
	RuleID   string                  `json:"ruleId,omitempty"`
	RuleName string                  `json:"ruleName,omitempty"`
}

// SweepResult is the outcome of categorizing a record batch, including the
// configuration defects found in the rule set along the way.
type SweepResult struct {
	Selections   []RecordSelection
	InvalidRules []*errors.EngineError
}

// Service ties the engine together over a storage backend: it loads the
// registry snapshots, builds and optionally commits import plans, and runs
// categorization sweeps. Import calls must be serialized by the caller; a
// sweep runs over the snapshot taken at its start and is unaffected by
// later commits.
type Service struct {
	store      Store
	reconciler *Reconciler
	committer  *Committer
	selector   *engine.Selector
	logger     logger.Logger
}

// NewService creates a service over the given store.
func NewService(store Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Service{
		store:      store,
		reconciler: New(log),
		committer:  NewCommitter(store, log),
		selector:   engine.NewSelector(log),
		logger:     log.WithComponent("service"),
	}
}

// loadSnapshots loads the rule index, the entity registries and the type
// registry in one place, so every batch sees one consistent view.
func (s *Service) loadSnapshots(ctx context.Context) (*models.RuleIndex, map[models.EntityKind]*models.Registry, *models.TypeRegistry, error) {
	rules, err := s.store.LoadRules(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	registries := make(map[models.EntityKind]*models.Registry)
	for _, kind := range models.AllEntityKinds() {
		entities, err := s.store.LoadEntities(ctx, kind)
		if err != nil {
			return nil, nil, nil, err
		}
		registries[kind] = models.NewRegistry(kind, entities)
	}

	types, err := s.store.LoadTransactionTypes(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	return models.NewRuleIndex(rules), registries, models.NewTypeRegistry(types), nil
}

// ImportDrafts reconciles a batch of drafts against the stored rule set and
// registries. With dryRun set, the plan is returned without touching
// storage; otherwise it is committed before returning.
func (s *Service) ImportDrafts(ctx context.Context, drafts []models.RuleImportDraft, dryRun bool) (*Plan, error) {
	rules, registries, types, err := s.loadSnapshots(ctx)
	if err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "loading registries")
	}

	plan := s.reconciler.BuildPlan(drafts, rules, registries, types)

	if dryRun {
		s.logger.Info("Dry run, plan not committed")
		return plan, nil
	}

	commitErr := logger.TimedOperation("commit plan", s.logger, func() error {
		if err := s.committer.Commit(ctx, plan); err != nil {
			return err
		}
		return nil
	})
	if commitErr != nil {
		return plan, commitErr
	}
	return plan, nil
}

// CategorizeRecords runs rule selection over a batch of records against the
// stored rule set. Each record is independent; defects found in the rule
// set are deduplicated by rule id across the sweep.
func (s *Service) CategorizeRecords(ctx context.Context, records []models.TransactionRecord) (*SweepResult, error) {
	rules, err := s.store.LoadRules(ctx)
	if err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "loading rules")
	}

	result := &SweepResult{
		Selections: make([]RecordSelection, 0, len(records)),
	}
	seenDefects := make(map[string]bool)

	tracker := logger.NewSweepTracker("categorize", int64(len(records)), s.logger)
	for i := range records {
		record := &records[i]
		selection := s.selector.Select(rules, record)

		rs := RecordSelection{
			RecordID: record.ID,
			Outcome:  selection.Outcome,
		}
		if selection.Rule != nil {
			rs.RuleID = selection.Rule.ID
			rs.RuleName = selection.Rule.Name
		}
		result.Selections = append(result.Selections, rs)

		for _, defect := range selection.InvalidRules {
			ruleID, _ := defect.Context["rule_id"].(string)
			if ruleID != "" && seenDefects[ruleID] {
				continue
			}
			seenDefects[ruleID] = true
			result.InvalidRules = append(result.InvalidRules, defect)
		}
		tracker.Increment()
	}
	tracker.Complete()

	return result, nil
}
