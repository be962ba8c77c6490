// Package match evaluates a predicate list against in-memory records.
//
// A list is rendered to an expr-lang boolean program over the environment
// {"record": <record>, "args": <values>}. Records are maps keyed by field
// name; to-one relations hold a nested map (or nil) and to-many relations a
// slice of maps. Predicate values travel in args, so lists that differ only
// in their values share one compiled program.
package match

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"httpquery/internal/metadata"
	"httpquery/internal/predicate"
)

var ErrUnknownField = errors.New("unknown field")

// DefaultCacheSize is the number of compiled programs an Evaluator keeps
// when no size is given.
const DefaultCacheSize = 256

// Evaluator compiles predicate lists. Compiled programs are cached by source
// in a fixed-size least-recently-used cache.
type Evaluator struct {
	cache *lru.Cache[string, *vm.Program]
}

// NewEvaluator returns an Evaluator caching at most size programs. A size of
// zero or less selects DefaultCacheSize.
func NewEvaluator(size int) *Evaluator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *vm.Program](size)
	if err != nil {
		panic(fmt.Sprintf("match: %v", err)) // only for size <= 0
	}
	return &Evaluator{cache: cache}
}

var defaultEvaluator = NewEvaluator(DefaultCacheSize)

// Compile compiles list for records of the root entity using a shared
// evaluator.
func Compile(reg *metadata.Registry, root string, list *predicate.List) (*Matcher, error) {
	return defaultEvaluator.Compile(reg, root, list)
}

func (e *Evaluator) Compile(reg *metadata.Registry, root string, list *predicate.List) (*Matcher, error) {
	if _, err := reg.Entity(root); err != nil {
		return nil, fmt.Errorf("compile matcher for %s: %w", root, err)
	}

	r := &renderer{reg: reg}
	source, err := r.all(root, list.Exprs())
	if err != nil {
		return nil, fmt.Errorf("compile matcher for %s: %w", root, err)
	}

	prog, err := e.program(source)
	if err != nil {
		return nil, err
	}
	return &Matcher{source: source, program: prog, args: r.args}, nil
}

// Cached returns the number of compiled programs currently held.
func (e *Evaluator) Cached() int {
	return e.cache.Len()
}

func (e *Evaluator) program(source string) (*vm.Program, error) {
	if prog, ok := e.cache.Get(source); ok {
		return prog, nil
	}
	prog, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition: %w", err)
	}
	e.cache.Add(source, prog)
	return prog, nil
}

// Matcher tests records against a compiled predicate list.
type Matcher struct {
	source  string
	program *vm.Program
	args    []any
}

// Source returns the expr-lang condition the list was rendered to.
func (m *Matcher) Source() string {
	return m.source
}

// Match reports whether record satisfies every predicate. A record whose
// values cannot be compared, such as a string against a number, does not
// match.
func (m *Matcher) Match(record map[string]any) bool {
	ok, err := m.Eval(record)
	return err == nil && ok
}

// Eval is Match with the evaluation error exposed.
func (m *Matcher) Eval(record map[string]any) (bool, error) {
	result, err := expr.Run(m.program, map[string]any{
		"record": record,
		"args":   m.args,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}
	isTrue, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not return bool")
	}
	return isTrue, nil
}

// Filter returns the matching records in their original order.
func (m *Matcher) Filter(records []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		if m.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}
