package query

import "strings"

// Operator is the suffix of a parameter key selecting the predicate kind.
type Operator string

const (
	OperatorEq          Operator = "eq"
	OperatorNe          Operator = "ne"
	OperatorGt          Operator = "gt"
	OperatorGte         Operator = "gte"
	OperatorLt          Operator = "lt"
	OperatorLte         Operator = "lte"
	OperatorLike        Operator = "like"
	OperatorILike       Operator = "ilike"
	OperatorContains    Operator = "contains"
	OperatorIContains   Operator = "icontains"
	OperatorStartsWith  Operator = "startswith"
	OperatorEndsWith    Operator = "endswith"
	OperatorIStartsWith Operator = "istartswith"
	OperatorIEndsWith   Operator = "iendswith"
	OperatorIn          Operator = "in"
	OperatorNotIn       Operator = "notin"
	OperatorBetween     Operator = "between"
	OperatorIsNull      Operator = "isnull"
	OperatorIsNotNull   Operator = "isnotnull"
	OperatorIsEmpty     Operator = "isempty"
	OperatorIsNotEmpty  Operator = "isnotempty"
	OperatorOrderBy     Operator = "orderby"
)

const (
	keyDelimiter  = "__"
	pathDelimiter = "."
	listDelimiter = ","
	notMarker     = "not"
)

// Instruction is a parameter key decomposed into its parts.
type Instruction struct {
	Key      string
	Words    []string // raw path words, before alias resolution
	Negate   bool
	Operator Operator
}

// ParseInstruction splits "path[__not]__op". A key without operator means eq;
// with three or more parts the second is the (case-insensitive) not marker
// and the third the operator.
func ParseInstruction(key string) Instruction {
	parts := split(key, keyDelimiter)
	ins := Instruction{Key: key, Operator: OperatorEq}
	switch {
	case len(parts) >= 3:
		ins.Negate = strings.EqualFold(parts[1], notMarker)
		ins.Operator = Operator(parts[2])
	case len(parts) == 2:
		ins.Operator = Operator(parts[1])
	}
	if len(parts) > 0 {
		ins.Words = split(parts[0], pathDelimiter)
	}
	return ins
}

// split is strings.Split without trailing empty elements, so "1,2," yields
// two elements and "," none.
func split(s, sep string) []string {
	parts := strings.Split(s, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
