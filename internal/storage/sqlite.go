// Package storage persists rules, reference entities and transaction types
// in an embedded SQLite database. It implements the load/upsert contract the
// reconciler consumes; conditions travel as JSON text inside the rule row so
// the stored " || " value encoding round-trips byte for byte.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/logger"
)

// SQLiteStore is a rule/entity store over a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// Open opens (creating if needed) the database at dbPath and migrates its
// schema.
func Open(dbPath string, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: log.WithComponent("storage"),
	}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadRules returns every stored rule, ordered by id for stable output.
func (s *SQLiteStore) LoadRules(ctx context.Context) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, priority, skip_import, conditions,
		       set_category_id, set_counterparty_id, set_location_id,
		       set_user_id, set_transaction_type_id, set_description,
		       assign_tag_ids
		FROM rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var r models.Rule
		var skipImport int
		var conditions, tagIDs string
		if err := rows.Scan(&r.ID, &r.Name, &r.Priority, &skipImport, &conditions,
			&r.SetCategoryID, &r.SetCounterpartyID, &r.SetLocationID,
			&r.SetUserID, &r.SetTransactionTypeID, &r.SetDescription,
			&tagIDs); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.SkipImport = skipImport != 0
		if err := json.Unmarshal([]byte(conditions), &r.Conditions); err != nil {
			return nil, fmt.Errorf("decode conditions of rule %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(tagIDs), &r.AssignTagIDs); err != nil {
			return nil, fmt.Errorf("decode tag ids of rule %s: %w", r.ID, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// UpsertRule inserts the rule or replaces the stored version with the same id.
func (s *SQLiteStore) UpsertRule(ctx context.Context, rule models.Rule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions of rule %s: %w", rule.ID, err)
	}
	tagIDs, err := json.Marshal(rule.AssignTagIDs)
	if err != nil {
		return fmt.Errorf("encode tag ids of rule %s: %w", rule.ID, err)
	}
	if rule.AssignTagIDs == nil {
		tagIDs = []byte("[]")
	}

	skipImport := 0
	if rule.SkipImport {
		skipImport = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (id, name, priority, skip_import, conditions,
			set_category_id, set_counterparty_id, set_location_id,
			set_user_id, set_transaction_type_id, set_description, assign_tag_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			priority = excluded.priority,
			skip_import = excluded.skip_import,
			conditions = excluded.conditions,
			set_category_id = excluded.set_category_id,
			set_counterparty_id = excluded.set_counterparty_id,
			set_location_id = excluded.set_location_id,
			set_user_id = excluded.set_user_id,
			set_transaction_type_id = excluded.set_transaction_type_id,
			set_description = excluded.set_description,
			assign_tag_ids = excluded.assign_tag_ids`,
		rule.ID, rule.Name, rule.Priority, skipImport, string(conditions),
		rule.SetCategoryID, rule.SetCounterpartyID, rule.SetLocationID,
		rule.SetUserID, rule.SetTransactionTypeID, rule.SetDescription,
		string(tagIDs))
	if err != nil {
		return fmt.Errorf("upsert rule %s: %w", rule.ID, err)
	}
	return nil
}

// LoadEntities returns the entity collection of one kind, ordered by id.
func (s *SQLiteStore) LoadEntities(ctx context.Context, kind models.EntityKind) ([]models.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, parent_id FROM entities WHERE kind = ? ORDER BY id`, kind.String())
	if err != nil {
		return nil, fmt.Errorf("load %s entities: %w", kind, err)
	}
	defer rows.Close()

	var entities []models.Entity
	for rows.Next() {
		var e models.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.ParentID); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// CreateEntities inserts a batch of new entities of one kind inside a single
// transaction, so a batch either lands whole or not at all.
func (s *SQLiteStore) CreateEntities(ctx context.Context, kind models.EntityKind, entities []models.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entity batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (kind, id, name, parent_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entity insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		if _, err := stmt.ExecContext(ctx, kind.String(), e.ID, e.Name, e.ParentID); err != nil {
			return fmt.Errorf("insert %s entity %s: %w", kind, e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entity batch: %w", err)
	}

	s.logger.WithFields(logger.Fields{
		"entity_kind": kind.String(),
		"count":       len(entities),
	}).Debug("Inserted entity batch")
	return nil
}

// LoadTransactionTypes returns every stored transaction type.
func (s *SQLiteStore) LoadTransactionTypes(ctx context.Context) ([]models.TransactionTypeDef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM transaction_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load transaction types: %w", err)
	}
	defer rows.Close()

	var types []models.TransactionTypeDef
	for rows.Next() {
		var t models.TransactionTypeDef
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan transaction type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// UpsertTransactionType inserts or replaces a transaction type. Used by
// seeding only; the reconciler never creates types.
func (s *SQLiteStore) UpsertTransactionType(ctx context.Context, t models.TransactionTypeDef) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_types (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`, t.ID, t.Name)
	if err != nil {
		return fmt.Errorf("upsert transaction type %s: %w", t.ID, err)
	}
	return nil
}
