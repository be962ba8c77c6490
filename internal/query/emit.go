package query

import (
	"strings"
	"time"

	"httpquery/internal/convert"
	"httpquery/internal/metadata"
	"httpquery/internal/predicate"
)

var matchOps = map[Operator]predicate.Op{
	OperatorLike:        predicate.OpLike,
	OperatorILike:       predicate.OpILike,
	OperatorContains:    predicate.OpContains,
	OperatorIContains:   predicate.OpIContains,
	OperatorStartsWith:  predicate.OpStartsWith,
	OperatorEndsWith:    predicate.OpEndsWith,
	OperatorIStartsWith: predicate.OpIStartsWith,
	OperatorIEndsWith:   predicate.OpIEndsWith,
}

// emit adds the predicate for one resolved instruction. It returns false for
// an unknown operator.
func (b *Builder) emit(acc Accumulator, op Operator, path metadata.Path, raw string, orderBy *[]string) bool {
	field := path.Name
	typ := path.Target.Type

	switch op {
	case OperatorEq:
		v := b.converters.Convert(typ, raw)
		if ts, ok := v.(time.Time); ok {
			lower, upper := convert.TimestampRange(raw, ts)
			acc.Add(predicate.Ge(field, lower))
			acc.Add(predicate.Le(field, upper))
		} else {
			acc.Add(predicate.Eq(field, v))
		}
	case OperatorNe:
		acc.BeginNot()
		b.emit(acc, OperatorEq, path, raw, orderBy)
		acc.EndNot()
	case OperatorGt:
		acc.Add(predicate.Gt(field, b.converters.Convert(typ, raw)))
	case OperatorGte:
		acc.Add(predicate.Ge(field, b.converters.Convert(typ, raw)))
	case OperatorLt:
		acc.Add(predicate.Lt(field, b.converters.Convert(typ, raw)))
	case OperatorLte:
		v := b.converters.Convert(typ, raw)
		if ts, ok := v.(time.Time); ok {
			v = convert.TimestampUpper(raw, ts)
		}
		acc.Add(predicate.Le(field, v))
	case OperatorLike, OperatorILike, OperatorContains, OperatorIContains,
		OperatorStartsWith, OperatorEndsWith, OperatorIStartsWith, OperatorIEndsWith:
		acc.Add(predicate.Match(matchOps[op], field, raw))
	case OperatorIn:
		acc.Add(predicate.In(field, b.convertList(typ, raw)))
	case OperatorNotIn:
		// An empty list is not negated: both in and notin then match nothing.
		if raw == "" {
			acc.Add(predicate.In(field, []any{}))
			break
		}
		acc.BeginNot()
		acc.Add(predicate.In(field, b.convertList(typ, raw)))
		acc.EndNot()
	case OperatorBetween:
		var lower, upper any
		bounds := split(raw, listDelimiter)
		if len(bounds) >= 1 {
			lower = b.converters.Convert(typ, bounds[0])
		}
		if len(bounds) >= 2 {
			upper = b.converters.Convert(typ, bounds[1])
		}
		acc.Add(predicate.Between(field, lower, upper))
	case OperatorIsNull:
		acc.Add(predicate.Check(predicate.OpIsNull, field))
	case OperatorIsNotNull:
		acc.Add(predicate.Check(predicate.OpIsNotNull, field))
	case OperatorIsEmpty:
		acc.Add(predicate.Check(predicate.OpIsEmpty, collectionPath(field)))
	case OperatorIsNotEmpty:
		acc.Add(predicate.Check(predicate.OpIsNotEmpty, collectionPath(field)))
	case OperatorOrderBy:
		if strings.EqualFold(raw, "asc") || strings.EqualFold(raw, "desc") {
			*orderBy = append(*orderBy, field+" "+raw)
		}
	default:
		return false
	}
	return true
}

// convertList splits a comma-separated value and converts every element. An
// empty value yields an empty, non-nil list.
func (b *Builder) convertList(typ metadata.FieldType, raw string) []any {
	c := b.converters.Get(typ)
	parts := split(raw, listDelimiter)
	values := make([]any, len(parts))
	for i, p := range parts {
		values[i] = c.Convert(p)
	}
	return values
}

// collectionPath drops the key segment appended to a relation path so the
// predicate applies to the relation itself.
func collectionPath(field string) string {
	if i := strings.LastIndex(field, pathDelimiter); i >= 0 {
		return field[:i]
	}
	return field
}
