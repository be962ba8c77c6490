// Package predicate defines the filter structure produced from query
// parameters and an in-memory accumulator for it.
package predicate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Op enumerates predicate kinds.
type Op int

const (
	OpEq Op = iota
	OpGt
	OpGe
	OpLt
	OpLe
	OpLike
	OpILike
	OpContains
	OpIContains
	OpStartsWith
	OpEndsWith
	OpIStartsWith
	OpIEndsWith
	OpIn
	OpBetween
	OpIsNull
	OpIsNotNull
	OpIsEmpty
	OpIsNotEmpty
	OpNot // negated conjunction of Children
)

var opNames = [...]string{
	OpEq:          "eq",
	OpGt:          "gt",
	OpGe:          "ge",
	OpLt:          "lt",
	OpLe:          "le",
	OpLike:        "like",
	OpILike:       "ilike",
	OpContains:    "contains",
	OpIContains:   "icontains",
	OpStartsWith:  "startswith",
	OpEndsWith:    "endswith",
	OpIStartsWith: "istartswith",
	OpIEndsWith:   "iendswith",
	OpIn:          "in",
	OpBetween:     "between",
	OpIsNull:      "isnull",
	OpIsNotNull:   "isnotnull",
	OpIsEmpty:     "isempty",
	OpIsNotEmpty:  "isnotempty",
	OpNot:         "not",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "?"
	}
	return opNames[op]
}

// MarshalText encodes the op by name.
func (op Op) MarshalText() ([]byte, error) {
	if op < 0 || int(op) >= len(opNames) {
		return nil, fmt.Errorf("unknown op %d", int(op))
	}
	return []byte(opNames[op]), nil
}

// UnmarshalText decodes an op name.
func (op *Op) UnmarshalText(b []byte) error {
	for i, name := range opNames {
		if name == string(b) {
			*op = Op(i)
			return nil
		}
	}
	return fmt.Errorf("unknown op %q", string(b))
}

// Expr is one predicate or a negated group.
type Expr struct {
	Op       Op     `json:"op"`
	Field    string `json:"field,omitempty"`
	Value    any    `json:"value,omitempty"`
	Values   []any  `json:"values,omitempty"` // OpIn; empty means the set is empty
	Lower    any    `json:"lower,omitempty"`  // OpBetween, nil is unbounded
	Upper    any    `json:"upper,omitempty"`
	Children []Expr `json:"children,omitempty"` // OpNot
}

// MarshalJSON always writes values for OpIn, so an empty set encodes as [].
func (e Expr) MarshalJSON() ([]byte, error) {
	type plain Expr
	if e.Op != OpIn {
		return json.Marshal(plain(e))
	}
	values := e.Values
	if values == nil {
		values = []any{}
	}
	return json.Marshal(struct {
		plain
		Values []any `json:"values"`
	}{plain(e), values})
}

func Eq(field string, v any) Expr { return Expr{Op: OpEq, Field: field, Value: v} }
func Gt(field string, v any) Expr { return Expr{Op: OpGt, Field: field, Value: v} }
func Ge(field string, v any) Expr { return Expr{Op: OpGe, Field: field, Value: v} }
func Lt(field string, v any) Expr { return Expr{Op: OpLt, Field: field, Value: v} }
func Le(field string, v any) Expr { return Expr{Op: OpLe, Field: field, Value: v} }
func Match(op Op, field, v string) Expr { return Expr{Op: op, Field: field, Value: v} }
func In(field string, values []any) Expr { return Expr{Op: OpIn, Field: field, Values: values} }
func Between(field string, lo, hi any) Expr { return Expr{Op: OpBetween, Field: field, Lower: lo, Upper: hi} }
func Check(op Op, field string) Expr { return Expr{Op: op, Field: field} }
func Not(children ...Expr) Expr { return Expr{Op: OpNot, Children: children} }

// String renders the expression for logs and debugging.
func (e Expr) String() string {
	switch e.Op {
	case OpNot:
		parts := make([]string, len(e.Children))
		for i, c := range e.Children {
			parts[i] = c.String()
		}
		return "NOT (" + strings.Join(parts, " AND ") + ")"
	case OpIn:
		parts := make([]string, len(e.Values))
		for i, v := range e.Values {
			parts[i] = formatValue(v)
		}
		return fmt.Sprintf("%s in (%s)", e.Field, strings.Join(parts, ", "))
	case OpBetween:
		return fmt.Sprintf("%s between %s and %s", e.Field, formatValue(e.Lower), formatValue(e.Upper))
	case OpIsNull, OpIsNotNull, OpIsEmpty, OpIsNotEmpty:
		return fmt.Sprintf("%s %s", e.Field, e.Op)
	default:
		return fmt.Sprintf("%s %s %s", e.Field, e.Op, formatValue(e.Value))
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case time.Time:
		return val.Format("2006-01-02T15:04:05.000Z07:00")
	default:
		return fmt.Sprint(val)
	}
}
