// Package models defines the core data types shared by the rule engine:
// reconciliation rules and their conditions, import drafts produced by the
// external suggestion service, reference entities (categories, counterparties,
// locations), and the transaction records rules are evaluated against.
//
// Name normalization lives here so that the entity resolver and the import
// collision classifier share identical dedup semantics.
package models

import (
	"fmt"
	"strings"
)

// EntityKind identifies a reference-entity registry.
type EntityKind string

const (
	// KindCategory is the category registry.
	KindCategory EntityKind = "category"
	// KindCounterparty is the counterparty registry.
	KindCounterparty EntityKind = "counterparty"
	// KindLocation is the location registry.
	KindLocation EntityKind = "location"
)

// AllEntityKinds lists every resolvable reference-entity kind in a stable order.
func AllEntityKinds() []EntityKind {
	return []EntityKind{KindCategory, KindCounterparty, KindLocation}
}

// String returns the string representation of EntityKind.
func (k EntityKind) String() string {
	return string(k)
}

// IsValid checks if the entity kind is one of the known registries.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindCategory, KindCounterparty, KindLocation:
		return true
	}
	return false
}

// ParseEntityKind parses and validates an entity kind from string.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("invalid entity kind '%s': must be category, counterparty or location", s)
	}
	return k, nil
}

// Entity is a named, optionally-hierarchical reference target that rules can
// assign to matching records. Entities form a forest: at most one parent, and
// the resolver only ever creates leaf nodes, so no cycle can be introduced.
type Entity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// Validate performs basic validation on the Entity.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("entity id cannot be empty")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("entity name cannot be empty")
	}
	return nil
}

// NormalizedName returns the entity name in canonical dedup form.
func (e *Entity) NormalizedName() string {
	return NormalizeName(e.Name)
}

// String returns a string representation of the Entity.
func (e *Entity) String() string {
	return fmt.Sprintf("Entity{ID: %s, Name: %s}", e.ID, e.Name)
}

// TransactionTypeDef is a named transaction type (expense, income, transfer).
// Types are reference data only: the import reconciler resolves suggested type
// names against the existing set and never creates new ones.
type TransactionTypeDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizeName is the single canonical name transform used everywhere a name
// is compared or deduplicated: trimmed and lowercased, nothing else. Both the
// entity resolver and the rule-name collision lookup go through this function.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Registry is an in-memory snapshot of one reference-entity collection,
// indexed for the two lookups the engine needs: by id and by normalized name.
// A Registry is immutable once built; batch-scoped creations are tracked by
// the resolver, not here.
type Registry struct {
	Kind     EntityKind
	byID     map[string]Entity
	byName   map[string]Entity
	entities []Entity
}

// NewRegistry builds a registry snapshot from a loaded entity collection.
// If two entities share a normalized name, the first one wins; later
// duplicates are unreachable by name lookup but still reachable by id.
func NewRegistry(kind EntityKind, entities []Entity) *Registry {
	r := &Registry{
		Kind:     kind,
		byID:     make(map[string]Entity, len(entities)),
		byName:   make(map[string]Entity, len(entities)),
		entities: entities,
	}
	for _, e := range entities {
		r.byID[e.ID] = e
		key := e.NormalizedName()
		if _, exists := r.byName[key]; !exists {
			r.byName[key] = e
		}
	}
	return r
}

// LookupID returns the entity with the given id.
func (r *Registry) LookupID(id string) (Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// LookupName returns the entity whose normalized name equals the normalized
// form of the given name.
func (r *Registry) LookupName(name string) (Entity, bool) {
	e, ok := r.byName[NormalizeName(name)]
	return e, ok
}

// Len returns the number of entities in the registry.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Entities returns the underlying entity collection.
func (r *Registry) Entities() []Entity {
	return r.entities
}

// TypeRegistry is an in-memory snapshot of the transaction-type collection,
// indexed by normalized name for suggestion resolution.
type TypeRegistry struct {
	byName map[string]TransactionTypeDef
}

// NewTypeRegistry builds a type registry snapshot.
func NewTypeRegistry(types []TransactionTypeDef) *TypeRegistry {
	r := &TypeRegistry{byName: make(map[string]TransactionTypeDef, len(types))}
	for _, t := range types {
		key := NormalizeName(t.Name)
		if _, exists := r.byName[key]; !exists {
			r.byName[key] = t
		}
	}
	return r
}

// LookupName resolves a type by exact case-insensitive, trimmed name equality.
func (r *TypeRegistry) LookupName(name string) (TransactionTypeDef, bool) {
	if r == nil {
		return TransactionTypeDef{}, false
	}
	t, ok := r.byName[NormalizeName(name)]
	return t, ok
}
