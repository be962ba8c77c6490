package metadata

import "strings"

// Target is what a field or path resolves to: a related entity or a scalar
// type.
type Target struct {
	Entity *Entity
	Type   FieldType
}

// IsEntity returns true if the target is a related entity.
func (t Target) IsEntity() bool {
	return t.Entity != nil
}

// Path is the result of walking a dotted field path from a root entity.
type Path struct {
	Name   string // dotted path, empty when nothing resolved
	Target Target
}

// Segments returns the dotted path split into words.
func (p Path) Segments() []string {
	if p.Name == "" {
		return nil
	}
	return strings.Split(p.Name, ".")
}

// ResolveTarget returns the type a field leads to. Relationship fields,
// collection-valued or not, lead to the related entity; false means the
// related entity is not registered.
func (r *Registry) ResolveTarget(f *ResolvedField) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveTarget(f)
}

func (r *Registry) resolveTarget(f *ResolvedField) (Target, bool) {
	if !f.IsRelation() {
		return Target{Type: f.Type}, true
	}
	e, ok := r.entities[f.Target]
	if !ok {
		return Target{}, false
	}
	return Target{Entity: e}, true
}

// WalkPath resolves words against the root entity one segment at a time.
// The walk stops at the first word that does not resolve; the words before it
// form the path. When the path ends on a relationship, the related entity's
// primary key is appended so the relation compares by key. The boolean is
// false only when a relationship points at an unregistered entity.
func (r *Registry) WalkPath(root *Entity, words []string) (Path, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur := Target{Entity: root}
	var segs []string
	for _, w := range words {
		if cur.Entity == nil {
			break
		}
		f, ok := r.resolveField(cur.Entity.Name, w)
		if !ok {
			break
		}
		next, ok := r.resolveTarget(f)
		if !ok {
			return Path{}, false
		}
		segs = append(segs, w)
		cur = next
	}

	if len(segs) > 0 && cur.Entity != nil {
		if pk, ok := r.resolvePrimaryKey(cur.Entity.Name); ok {
			segs = append(segs, pk.Name)
			cur = Target{Type: pk.Type}
		}
	}
	return Path{Name: strings.Join(segs, "."), Target: cur}, true
}
