package metadata

type Relation struct {
	Name    string `json:"name" yaml:"name"`       // field name on the source entity
	Type    string `json:"type" yaml:"type"`       // one_to_one, one_to_many, many_to_one, many_to_many
	Source  string `json:"source" yaml:"source"`
	Target  string `json:"target" yaml:"target"`
	Inverse string `json:"inverse,omitempty" yaml:"inverse,omitempty"` // field name on the target pointing back
}

const (
	OneToOne   = "one_to_one"
	OneToMany  = "one_to_many"
	ManyToOne  = "many_to_one"
	ManyToMany = "many_to_many"
)

func (r *Relation) IsManyToMany() bool {
	return r.Type == ManyToMany
}

func (r *Relation) IsOneToMany() bool {
	return r.Type == OneToMany
}

// SourceIsCollection reports whether the relation field on the source holds
// many target rows.
func (r *Relation) SourceIsCollection() bool {
	return r.IsOneToMany() || r.IsManyToMany()
}

// InverseIsCollection reports whether the inverse field on the target holds
// many source rows.
func (r *Relation) InverseIsCollection() bool {
	return r.Type == ManyToOne || r.IsManyToMany()
}
