package reconciler

import (
	"context"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
	"rule-reconciliation-service/pkg/logger"
)

// Persister is the slice of the storage contract the committer needs.
type Persister interface {
	CreateEntities(ctx context.Context, kind models.EntityKind, entities []models.Entity) error
	UpsertRule(ctx context.Context, rule models.Rule) error
}

// Committer applies a built plan to storage in the one order that keeps the
// store consistent without transactions: every entity creation of the batch
// is issued before any rule upsert, so a committed rule never references an
// entity id that was not persisted.
type Committer struct {
	store  Persister
	logger logger.Logger
}

// NewCommitter creates a committer over the given store.
func NewCommitter(store Persister, log logger.Logger) *Committer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Committer{
		store:  store,
		logger: log.WithComponent("committer"),
	}
}

// Commit writes the plan. If any entity creation fails, no rule of the
// batch is upserted; rules pointing at unpersisted entities would be worse
// than an incomplete import. Rule upserts after that point fail
// individually but entities already written stay, so re-running the import
// is safe.
func (c *Committer) Commit(ctx context.Context, plan *Plan) *errors.EngineError {
	for _, kind := range models.AllEntityKinds() {
		entities := plan.EntitiesToCreate[kind]
		if len(entities) == 0 {
			continue
		}
		if err := c.store.CreateEntities(ctx, kind, entities); err != nil {
			return errors.CommitError(errors.CodeEntityCreateFailed, "entity creation", err).
				WithContext("entity_kind", kind.String())
		}
		c.logger.WithFields(logger.Fields{
			"entity_kind": kind.String(),
			"count":       len(entities),
		}).Info("Created entities")
	}

	for i := range plan.RulesToUpsert {
		rule := plan.RulesToUpsert[i]
		if err := c.store.UpsertRule(ctx, rule); err != nil {
			return errors.CommitError(errors.CodeRuleUpsertFailed, "rule upsert", err).
				WithContext("rule_id", rule.ID)
		}
	}

	c.logger.WithFields(logger.Fields{
		"rules":    len(plan.RulesToUpsert),
		"entities": plan.EntityCount(),
	}).Info("Committed reconciliation plan")

	return nil
}
