package metadata

type Entity struct {
	Name       string     `json:"name" yaml:"name"`
	Table      string     `json:"table,omitempty" yaml:"table,omitempty"`
	Extends    string     `json:"extends,omitempty" yaml:"extends,omitempty"` // parent entity whose fields are inherited
	PrimaryKey PrimaryKey `json:"primary_key" yaml:"primary_key"`
	Fields     []Field    `json:"fields" yaml:"fields"`
}

type PrimaryKey struct {
	Field     string    `json:"field" yaml:"field"`
	Type      FieldType `json:"type,omitempty" yaml:"type,omitempty"` // uuid, int, bigint, string
	Generated bool      `json:"generated,omitempty" yaml:"generated,omitempty"`
}

// GetField returns a pointer to the declared (not inherited) field with the
// given name, or nil.
func (e *Entity) GetField(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the entity declares a field with the given name.
func (e *Entity) HasField(name string) bool {
	return e.GetField(name) != nil
}
