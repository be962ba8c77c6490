package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"httpquery/internal/config"
	"httpquery/internal/metadata"
)

// Bootstrap creates the entity and relation tables when they are missing.
func (s *Store) Bootstrap(ctx context.Context) error {
	exists, err := s.Dialect.TableExists(ctx, s.DB, "_entities")
	if err != nil {
		return fmt.Errorf("check metadata tables: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, s.Dialect.MetadataTablesSQL()); err != nil {
		return fmt.Errorf("bootstrap metadata tables: %w", err)
	}
	log.Printf("Created metadata tables (%s)", s.Dialect.Name())
	return nil
}

// SaveEntity inserts or replaces the definition row of e.
func SaveEntity(ctx context.Context, q Querier, d Dialect, e *metadata.Entity) error {
	def, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entity %s: %w", e.Name, err)
	}
	table := e.Table
	if table == "" {
		table = e.Name
	}

	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf(`INSERT INTO _entities (name, table_name, definition) VALUES (%s, %s, %s)
ON CONFLICT (name) DO UPDATE SET table_name = EXCLUDED.table_name, definition = EXCLUDED.definition, updated_at = %s`,
		pb.Add(e.Name), pb.Add(table), pb.Add(string(def)), d.NowExpr())
	if _, err := Exec(ctx, q, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("save entity %s: %w", e.Name, MapError(d, err))
	}
	return nil
}

// SaveRelation inserts or replaces the definition row of rel. Both ends must
// already be saved.
func SaveRelation(ctx context.Context, q Querier, d Dialect, rel *metadata.Relation) error {
	def, err := json.Marshal(rel)
	if err != nil {
		return fmt.Errorf("marshal relation %s: %w", rel.Name, err)
	}

	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf(`INSERT INTO _relations (name, source, target, definition) VALUES (%s, %s, %s, %s)
ON CONFLICT (name) DO UPDATE SET source = EXCLUDED.source, target = EXCLUDED.target, definition = EXCLUDED.definition, updated_at = %s`,
		pb.Add(rel.Name), pb.Add(rel.Source), pb.Add(rel.Target), pb.Add(string(def)), d.NowExpr())
	if _, err := Exec(ctx, q, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("save relation %s: %w", rel.Name, MapError(d, err))
	}
	return nil
}

// DeleteEntity removes an entity definition and, by cascade, its relations.
func DeleteEntity(ctx context.Context, q Querier, d Dialect, name string) error {
	pb := d.NewParamBuilder()
	n, err := Exec(ctx, q, "DELETE FROM _entities WHERE name = "+pb.Add(name), pb.Params()...)
	if err != nil {
		return fmt.Errorf("delete entity %s: %w", name, MapError(d, err))
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// EntityNames returns the names of all stored entities in name order.
func EntityNames(ctx context.Context, q Querier) ([]string, error) {
	return QueryStrings(ctx, q, "SELECT name FROM _entities ORDER BY name")
}

// Import saves every entity and relation of doc in one transaction.
func (s *Store) Import(ctx context.Context, doc *metadata.Document) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, e := range doc.Entities {
		if err := SaveEntity(ctx, tx, s.Dialect, e); err != nil {
			return err
		}
	}
	for _, rel := range doc.Relations {
		if err := SaveRelation(ctx, tx, s.Dialect, rel); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	log.Printf("Imported %d entities, %d relations", len(doc.Entities), len(doc.Relations))
	return nil
}

// LoadMetadata fills reg from the configured source: the YAML file, or the
// metadata tables of the configured database.
func LoadMetadata(ctx context.Context, cfg *config.Config, reg *metadata.Registry) error {
	if !cfg.Metadata.UsesDatabase() {
		return metadata.LoadFile(cfg.Metadata.File, reg)
	}

	s, err := New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect metadata database: %w", err)
	}
	defer s.Close()

	if err := s.Bootstrap(ctx); err != nil {
		return err
	}
	return metadata.LoadAll(ctx, s.DB, reg)
}
