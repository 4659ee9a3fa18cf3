// Package resolver turns suggested entity names from import drafts into
// concrete entity ids, creating new entities where needed. Creations are
// batch-scoped: every draft in one import run that suggests the same new
// name (after normalization) resolves to the same pending entity.
package resolver

import (
	"strings"

	"github.com/google/uuid"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
	"rule-reconciliation-service/pkg/logger"
)

// BatchResolver resolves suggested names against the existing registries of
// one import batch. It is not safe for concurrent use; one resolver serves
// exactly one batch and is discarded afterwards.
type BatchResolver struct {
	registries map[models.EntityKind]*models.Registry
	types      *models.TypeRegistry

	// created maps normalized name to the entity minted for it in this
	// batch, per kind. This is the dedup table that guarantees one creation
	// per distinct new name.
	created map[models.EntityKind]map[string]models.Entity
	pending map[models.EntityKind][]models.Entity

	warnings []*errors.EngineError
	logger   logger.Logger
}

// NewBatchResolver creates a resolver over the given registry snapshots.
// Missing registries are treated as empty.
func NewBatchResolver(registries map[models.EntityKind]*models.Registry, types *models.TypeRegistry, log logger.Logger) *BatchResolver {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if registries == nil {
		registries = make(map[models.EntityKind]*models.Registry)
	}
	for _, kind := range models.AllEntityKinds() {
		if registries[kind] == nil {
			registries[kind] = models.NewRegistry(kind, nil)
		}
	}

	created := make(map[models.EntityKind]map[string]models.Entity)
	pending := make(map[models.EntityKind][]models.Entity)
	for _, kind := range models.AllEntityKinds() {
		created[kind] = make(map[string]models.Entity)
	}

	return &BatchResolver{
		registries: registries,
		types:      types,
		created:    created,
		pending:    pending,
		logger:     log.WithComponent("resolver"),
	}
}

// Resolve resolves a suggested name of the given kind to an entity id,
// honoring the mapping hint. An empty name resolves to no assignment.
//
// A match hint looks the name up case-insensitively (trimmed) in the
// existing registry; on a miss the resolver records a mapping-inconsistency
// warning and falls back to create semantics, so the reference is never
// silently dropped. Create semantics first consult this batch's created
// table, then the existing registry, and only mint a new entity when both
// miss. The minted entity keeps the suggested name trimmed but in its
// original case.
func (r *BatchResolver) Resolve(kind models.EntityKind, name string, hint models.MappingHint) string {
	normalized := models.NormalizeName(name)
	if normalized == "" {
		return ""
	}

	registry := r.registries[kind]

	if hint == models.MappingMatch {
		if e, ok := registry.LookupName(name); ok {
			return e.ID
		}
		warning := errors.MappingInconsistencyError(kind.String(), name)
		r.warnings = append(r.warnings, warning)
		r.logger.WithFields(logger.Fields{
			"entity_kind":    kind.String(),
			"suggested_name": name,
		}).Warn("Match hint no longer resolves, falling back to create")
	}

	if e, ok := r.created[kind][normalized]; ok {
		return e.ID
	}
	if e, ok := registry.LookupName(name); ok {
		return e.ID
	}

	entity := models.Entity{
		ID:   uuid.NewString(),
		// trimmed but original case, so the entity displays the way the
		// suggestion spelled it
		Name: strings.TrimSpace(name),
	}
	r.created[kind][normalized] = entity
	r.pending[kind] = append(r.pending[kind], entity)

	r.logger.WithFields(logger.Fields{
		"entity_kind": kind.String(),
		"entity_id":   entity.ID,
		"name":        entity.Name,
	}).Debug("Minted pending entity")

	return entity.ID
}

// ResolveType resolves a suggested transaction-type name by exact
// case-insensitive equality. Types are never auto-created: an unknown name
// yields no assignment plus a warning attributed to the given draft.
func (r *BatchResolver) ResolveType(draftID, name string) string {
	if models.NormalizeName(name) == "" {
		return ""
	}
	if t, ok := r.types.LookupName(name); ok {
		return t.ID
	}
	r.warnings = append(r.warnings, errors.UnknownTypeNameError(draftID, name))
	return ""
}

// PendingCreations returns the entities minted in this batch, per kind in
// creation order. These must all be persisted before any rule that
// references them.
func (r *BatchResolver) PendingCreations() map[models.EntityKind][]models.Entity {
	return r.pending
}

// Warnings returns the recoverable resolution warnings accumulated so far.
func (r *BatchResolver) Warnings() []*errors.EngineError {
	return r.warnings
}
