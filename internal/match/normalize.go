package match

import (
	"httpquery/internal/convert"
	"httpquery/internal/metadata"
)

// Normalize converts a decoded record (JSON or YAML) to the value types the
// converters produce, so it compares against built predicates. Strings of
// non-text fields go through the field type's converter and numbers of int
// and bigint fields become int and int64. Relation values are normalized
// against the related entity. Unknown keys are kept as they are.
func Normalize(reg *metadata.Registry, conv *convert.Registry, entity string, raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		f, ok := reg.ResolveField(entity, k)
		if !ok || v == nil {
			out[k] = v
			continue
		}
		if f.IsRelation() {
			out[k] = normalizeRelated(reg, conv, f.Target, v)
			continue
		}
		out[k] = normalizeValue(conv, f.Type, v)
	}
	return out
}

func normalizeRelated(reg *metadata.Registry, conv *convert.Registry, target string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Normalize(reg, conv, target, val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeRelated(reg, conv, target, elem)
		}
		return out
	default:
		return v
	}
}

func normalizeValue(conv *convert.Registry, t metadata.FieldType, v any) any {
	switch val := v.(type) {
	case string:
		if t == metadata.TypeString || t == metadata.TypeText || !conv.Has(t) {
			return val
		}
		return conv.Convert(t, val)
	case float64:
		switch t {
		case metadata.TypeInt:
			return int(val)
		case metadata.TypeBigInt:
			return int64(val)
		}
	case int:
		if t == metadata.TypeBigInt {
			return int64(val)
		}
	}
	return v
}
