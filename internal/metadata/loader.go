package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadAll reads all entities and relations from the database and populates the registry.
func LoadAll(ctx context.Context, q Querier, reg *Registry) error {
	entities, err := loadEntities(ctx, q)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}

	relations, err := loadRelations(ctx, q)
	if err != nil {
		return fmt.Errorf("load relations: %w", err)
	}

	reg.Load(entities, relations)

	log.Printf("Loaded %d entities, %d relations into registry", len(entities), len(relations))
	return nil
}

func loadEntities(ctx context.Context, q Querier) ([]*Entity, error) {
	rows, err := q.QueryContext(ctx, "SELECT name, definition FROM _entities ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		var name string
		var defJSON []byte
		if err := rows.Scan(&name, &defJSON); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}

		var entity Entity
		if err := json.Unmarshal(defJSON, &entity); err != nil {
			log.Printf("WARN: skipping entity %s (invalid JSON): %v", name, err)
			continue
		}
		if entity.Name == "" {
			entity.Name = name
		}
		entities = append(entities, &entity)
	}
	return entities, rows.Err()
}

func loadRelations(ctx context.Context, q Querier) ([]*Relation, error) {
	rows, err := q.QueryContext(ctx, "SELECT name, definition FROM _relations ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []*Relation
	for rows.Next() {
		var name string
		var defJSON []byte
		if err := rows.Scan(&name, &defJSON); err != nil {
			return nil, fmt.Errorf("scan relation row: %w", err)
		}

		var rel Relation
		if err := json.Unmarshal(defJSON, &rel); err != nil {
			log.Printf("WARN: skipping relation %s (invalid JSON): %v", name, err)
			continue
		}
		if rel.Name == "" {
			rel.Name = name
		}
		relations = append(relations, &rel)
	}
	return relations, rows.Err()
}

// Document is the on-disk layout of an entity definition file.
type Document struct {
	Entities  []*Entity   `yaml:"entities"`
	Relations []*Relation `yaml:"relations"`
}

// LoadFile reads a YAML entity definition file and populates the registry.
func LoadFile(path string, reg *Registry) error {
	doc, err := ReadFile(path)
	if err != nil {
		return err
	}
	reg.Load(doc.Entities, doc.Relations)
	return nil
}

// ReadFile parses a YAML entity definition file without loading it.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseYAML(data)
}

// LoadYAML parses a YAML entity definition document and populates the registry.
func LoadYAML(data []byte, reg *Registry) error {
	doc, err := ParseYAML(data)
	if err != nil {
		return err
	}
	reg.Load(doc.Entities, doc.Relations)
	return nil
}

// ParseYAML parses a YAML entity definition document. Every entity must be
// named; relations are taken as written.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse entity definitions: %w", err)
	}
	for i, e := range doc.Entities {
		if e == nil || e.Name == "" {
			return nil, fmt.Errorf("entity #%d has no name", i)
		}
	}
	return &doc, nil
}
