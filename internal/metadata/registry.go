package metadata

import (
	"errors"
	"sync"
)

// ErrUnknownEntity is returned by lookups of an entity that is not registered.
var ErrUnknownEntity = errors.New("unknown entity")

// ResolvedField is a field reachable from an entity: declared on it,
// inherited from an ancestor, or contributed by a relation.
type ResolvedField struct {
	Name       string
	Type       FieldType // scalar type, empty for relationship fields
	Target     string    // related entity name for relationship fields
	Collection bool
	Owner      string // entity declaring the field
}

// IsRelation returns true if the field points at another entity.
func (f *ResolvedField) IsRelation() bool {
	return f.Target != ""
}

// table is the flattened resolution table of one entity, built at Load time.
type table struct {
	entity *Entity
	fields map[string]*ResolvedField
	pk     *ResolvedField
}

type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	tables   map[string]*table
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*Entity),
		tables:   make(map[string]*table),
	}
}

// GetEntity returns the entity with the given name, or nil.
func (r *Registry) GetEntity(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// Entity returns the entity with the given name or ErrUnknownEntity.
func (r *Registry) Entity(name string) (*Entity, error) {
	if e := r.GetEntity(name); e != nil {
		return e, nil
	}
	return nil, ErrUnknownEntity
}

// AllEntities returns all registered entities.
func (r *Registry) AllEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entities := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		entities = append(entities, e)
	}
	return entities
}

// Load replaces all entities and relations in the registry and rebuilds the
// flattened resolution tables.
func (r *Registry) Load(entities []*Entity, relations []*Relation) {
	byName := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		byName[e.Name] = e
	}

	direct := make(map[string][]*ResolvedField, len(entities))
	for _, e := range entities {
		for _, f := range e.Fields {
			direct[e.Name] = append(direct[e.Name], &ResolvedField{Name: f.Name, Type: f.Type, Owner: e.Name})
		}
		if pk := e.PrimaryKey; pk.Field != "" && !e.HasField(pk.Field) {
			direct[e.Name] = append(direct[e.Name], &ResolvedField{Name: pk.Field, Type: pk.Type, Owner: e.Name})
		}
	}

	for _, rel := range relations {
		direct[rel.Source] = append(direct[rel.Source], &ResolvedField{
			Name:       rel.Name,
			Target:     rel.Target,
			Collection: rel.SourceIsCollection(),
			Owner:      rel.Source,
		})
		if rel.Inverse != "" {
			direct[rel.Target] = append(direct[rel.Target], &ResolvedField{
				Name:       rel.Inverse,
				Target:     rel.Source,
				Collection: rel.InverseIsCollection(),
				Owner:      rel.Target,
			})
		}
	}

	tables := make(map[string]*table, len(entities))
	for _, e := range entities {
		tables[e.Name] = flatten(e, byName, direct)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = byName
	r.tables = tables
}

// flatten walks the Extends chain of e and merges every level's fields into a
// single table. The first declaration of a name wins; the walk stops at the
// end of the chain, at an unregistered parent, or on a cycle.
func flatten(e *Entity, byName map[string]*Entity, direct map[string][]*ResolvedField) *table {
	t := &table{entity: e, fields: make(map[string]*ResolvedField)}
	seen := make(map[string]bool)
	pkName := ""
	for cur := e; cur != nil && !seen[cur.Name]; cur = byName[cur.Extends] {
		seen[cur.Name] = true
		for _, f := range direct[cur.Name] {
			if _, ok := t.fields[f.Name]; !ok {
				t.fields[f.Name] = f
			}
		}
		if pkName == "" {
			pkName = cur.PrimaryKey.Field
		}
	}
	if pkName != "" {
		if f, ok := t.fields[pkName]; ok && !f.IsRelation() {
			t.pk = f
		}
	}
	return t
}

// ResolveField looks up a field by exact name on the entity, including
// inherited and relationship fields.
func (r *Registry) ResolveField(entityName, fieldName string) (*ResolvedField, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveField(entityName, fieldName)
}

func (r *Registry) resolveField(entityName, fieldName string) (*ResolvedField, bool) {
	t, ok := r.tables[entityName]
	if !ok {
		return nil, false
	}
	f, ok := t.fields[fieldName]
	return f, ok
}

// ResolvePrimaryKey returns the identifier field of the entity, searching
// ancestors when the entity does not declare one.
func (r *Registry) ResolvePrimaryKey(entityName string) (*ResolvedField, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolvePrimaryKey(entityName)
}

func (r *Registry) resolvePrimaryKey(entityName string) (*ResolvedField, bool) {
	t, ok := r.tables[entityName]
	if !ok || t.pk == nil {
		return nil, false
	}
	return t.pk, true
}
