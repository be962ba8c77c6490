package metadata

// FieldType is the declared scalar type of a field. It also keys the
// converter registry.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeText      FieldType = "text"
	TypeInt       FieldType = "int"
	TypeBigInt    FieldType = "bigint"
	TypeDecimal   FieldType = "decimal"
	TypeBoolean   FieldType = "boolean"
	TypeUUID      FieldType = "uuid"
	TypeTimestamp FieldType = "timestamp"
	TypeDate      FieldType = "date"
	TypeJSON      FieldType = "json"
)

type Field struct {
	Name     string    `json:"name" yaml:"name"`
	Type     FieldType `json:"type" yaml:"type"`
	Nullable bool      `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Enum     []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
}
