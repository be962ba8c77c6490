package match

import (
	"fmt"
	"regexp"
	"strings"

	"httpquery/internal/metadata"
	"httpquery/internal/predicate"
)

const (
	recordRef  = "record"
	elementRef = "#"
)

type renderer struct {
	reg  *metadata.Registry
	args []any
}

// arg stores v and returns the expression that reads it back.
func (r *renderer) arg(v any) string {
	r.args = append(r.args, v)
	return fmt.Sprintf("args[%d]", len(r.args)-1)
}

func (r *renderer) all(entity string, exprs []predicate.Expr) (string, error) {
	if len(exprs) == 0 {
		return "true", nil
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		s, err := r.expr(entity, e)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + s + ")"
	}
	return strings.Join(parts, " && "), nil
}

func (r *renderer) expr(entity string, e predicate.Expr) (string, error) {
	if e.Op == predicate.OpNot {
		inner, err := r.all(entity, e.Children)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil
	}
	return r.path(entity, recordRef, strings.Split(e.Field, "."), func(ref string) string {
		return r.leaf(e, ref)
	})
}

// path renders the walk along segs. To-one relations chain with optional
// member access; to-many relations become any() over the collection, so the
// rest of the path must hold for at least one element.
func (r *renderer) path(entity, ref string, segs []string, leaf func(ref string) string) (string, error) {
	seg := segs[0]
	f, ok := r.reg.ResolveField(entity, seg)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, entity, seg)
	}
	next := member(ref, seg)
	if len(segs) == 1 {
		return leaf(next), nil
	}
	if !f.IsRelation() {
		return "", fmt.Errorf("%w: %s.%s is not a relation", ErrUnknownField, entity, seg)
	}
	if f.Collection {
		inner, err := r.path(f.Target, elementRef, segs[1:], leaf)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("any(%s ?? [], %s)", next, inner), nil
	}
	return r.path(f.Target, next, segs[1:], leaf)
}

func member(ref, seg string) string {
	if ref == recordRef || ref == elementRef {
		return ref + "." + seg
	}
	return ref + "?." + seg
}

func (r *renderer) leaf(e predicate.Expr, ref string) string {
	present := ref + " != nil && "

	switch e.Op {
	case predicate.OpEq:
		if e.Value == nil {
			return ref + " == nil"
		}
		return present + ref + " == " + r.arg(e.Value)
	case predicate.OpGt, predicate.OpGe, predicate.OpLt, predicate.OpLe:
		if e.Value == nil {
			return "false"
		}
		return present + ref + " " + comparison[e.Op] + " " + r.arg(e.Value)
	case predicate.OpLike:
		return present + "string(" + ref + ") matches " + r.arg(likeRegexp(fmt.Sprint(e.Value), false))
	case predicate.OpILike:
		return present + "string(" + ref + ") matches " + r.arg(likeRegexp(fmt.Sprint(e.Value), true))
	case predicate.OpContains:
		return present + "string(" + ref + ") contains " + r.arg(fmt.Sprint(e.Value))
	case predicate.OpStartsWith:
		return present + "string(" + ref + ") startsWith " + r.arg(fmt.Sprint(e.Value))
	case predicate.OpEndsWith:
		return present + "string(" + ref + ") endsWith " + r.arg(fmt.Sprint(e.Value))
	case predicate.OpIContains:
		return present + "lower(string(" + ref + ")) contains " + r.arg(strings.ToLower(fmt.Sprint(e.Value)))
	case predicate.OpIStartsWith:
		return present + "lower(string(" + ref + ")) startsWith " + r.arg(strings.ToLower(fmt.Sprint(e.Value)))
	case predicate.OpIEndsWith:
		return present + "lower(string(" + ref + ")) endsWith " + r.arg(strings.ToLower(fmt.Sprint(e.Value)))
	case predicate.OpIn:
		if len(e.Values) == 0 {
			return "false"
		}
		return present + ref + " in " + r.arg(e.Values)
	case predicate.OpBetween:
		var bounds []string
		if e.Lower != nil {
			bounds = append(bounds, ref+" >= "+r.arg(e.Lower))
		}
		if e.Upper != nil {
			bounds = append(bounds, ref+" <= "+r.arg(e.Upper))
		}
		if len(bounds) == 0 {
			return "true"
		}
		return present + strings.Join(bounds, " && ")
	case predicate.OpIsNull:
		return ref + " == nil"
	case predicate.OpIsNotNull:
		return ref + " != nil"
	case predicate.OpIsEmpty:
		return "len(" + ref + " ?? []) == 0"
	case predicate.OpIsNotEmpty:
		return "len(" + ref + " ?? []) > 0"
	default:
		return "false"
	}
}

var comparison = map[predicate.Op]string{
	predicate.OpGt: ">",
	predicate.OpGe: ">=",
	predicate.OpLt: "<",
	predicate.OpLe: "<=",
}

// likeRegexp translates a LIKE pattern, where % is any run of characters
// and _ a single character, to an anchored regular expression.
func likeRegexp(pattern string, foldCase bool) string {
	var sb strings.Builder
	if foldCase {
		sb.WriteString("(?is)^")
	} else {
		sb.WriteString("(?s)^")
	}
	for _, c := range pattern {
		switch c {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}
