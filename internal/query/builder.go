// Package query builds filter predicates from flat HTTP query parameters.
//
// A parameter key names a field path on a root entity, an optional negation
// marker and an operator, separated by double underscores:
//
//	albums.year__in=1999,2000
//	artist.name__not__ilike=strato%
//	createdAt=1999
//
// Building is lenient. Keys that are ignored, that do not resolve to a field
// or that name an unknown operator contribute nothing and raise no error.
package query

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"httpquery/internal/alias"
	"httpquery/internal/config"
	"httpquery/internal/convert"
	"httpquery/internal/metadata"
	"httpquery/internal/predicate"
)

// Accumulator receives the predicates built from parameters.
type Accumulator interface {
	Add(e predicate.Expr)
	BeginNot()
	EndNot()
	SetOrderBy(clause string)
}

// Builder turns parameters into predicates. Configure it with ignore patterns
// and aliases before sharing it; building only reads the rules, so one
// configured Builder serves concurrent requests.
type Builder struct {
	converters *convert.Registry
	registry   *metadata.Registry
	ignored    *alias.IgnoreList
	aliases    *alias.Resolver
	logger     *log.Logger
}

type Option func(*Builder)

// WithLogger logs every parameter that is dropped and why.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

func New(conv *convert.Registry, reg *metadata.Registry, opts ...Option) *Builder {
	b := &Builder{
		converters: conv,
		registry:   reg,
		ignored:    alias.NewIgnoreList(),
		aliases:    alias.NewResolver(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromConfig creates a Builder with the configured ignore patterns and
// alias rules. Invalid patterns are logged and skipped.
func NewFromConfig(cfg config.HTTPQueryConfig, conv *convert.Registry, reg *metadata.Registry, opts ...Option) *Builder {
	b := New(conv, reg, opts...)
	for _, p := range cfg.IgnorePatterns {
		if err := b.AddIgnoredPatterns(p); err != nil {
			log.Printf("WARN: skipping ignore pattern: %v", err)
		}
	}
	for _, r := range cfg.AliasRules {
		if err := b.AddAlias(r.Pattern, r.Replacement); err != nil {
			log.Printf("WARN: skipping alias %q: %v", r.Replacement, err)
		}
	}
	return b
}

// AddIgnoredPatterns adds regular expressions matched against whole
// parameter keys, operator suffix included.
func (b *Builder) AddIgnoredPatterns(patterns ...string) error {
	return b.ignored.Add(patterns...)
}

// AddAlias maps path words whose probe matches pattern to replacement.
// addAlias(`Cover:gnarf`, "album.artist.name") turns "gnarf" into the
// three-word path when building for Cover.
func (b *Builder) AddAlias(pattern, replacement string) error {
	return b.aliases.Add(pattern, replacement)
}

// Clone returns a Builder with independent copies of the ignore and alias
// rules. The converter and metadata registries are shared.
func (b *Builder) Clone() *Builder {
	return &Builder{
		converters: b.converters,
		registry:   b.registry,
		ignored:    b.ignored.Clone(),
		aliases:    b.aliases.Clone(),
		logger:     b.logger,
	}
}

// BuildQuery adds the predicates for params on the named root entity to acc
// and returns acc.
func BuildQuery[A Accumulator](b *Builder, root string, params []Param, acc A) (A, error) {
	e, err := b.registry.Entity(root)
	if err != nil {
		return acc, fmt.Errorf("build query for %s: %w", root, err)
	}
	b.Apply(e, params, acc)
	return acc, nil
}

// BuildFromValues builds a fresh predicate list from decoded query values.
// url.Values carries no key order, so keys are applied in sorted order and
// order-by clauses join alphabetically by key; use BuildFromRequest or
// ParseRawQuery to keep the caller's order.
func (b *Builder) BuildFromValues(root string, values url.Values) (*predicate.List, error) {
	return BuildQuery(b, root, FromValues(values), predicate.NewList())
}

// BuildFromRequest builds a fresh predicate list from the request's query
// string, in the order the parameters were sent.
func (b *Builder) BuildFromRequest(c *fiber.Ctx, root string) (*predicate.List, error) {
	return BuildQuery(b, root, FromRequest(c), predicate.NewList())
}

// Apply adds the predicates for params on root to acc, then the combined
// order clause if any parameter asked for ordering.
func (b *Builder) Apply(root *metadata.Entity, params []Param, acc Accumulator) {
	var orderBy []string
	for _, p := range params {
		b.apply(root, p, acc, &orderBy)
	}
	if len(orderBy) > 0 {
		acc.SetOrderBy(strings.Join(orderBy, ", "))
	}
}

func (b *Builder) apply(root *metadata.Entity, p Param, acc Accumulator, orderBy *[]string) {
	if b.ignored.Match(p.Key) {
		b.debugf("ignored parameter %q", p.Key)
		return
	}

	ins := ParseInstruction(p.Key)
	words := b.aliases.Resolve(root.Name, ins.Words)
	path, ok := b.registry.WalkPath(root, words)
	if !ok {
		b.debugf("dropped %q: relation target of %s is not registered", p.Key, strings.Join(words, "."))
		return
	}
	if path.Name == "" {
		b.debugf("dropped %q: no field %q on %s", p.Key, strings.Join(words, "."), root.Name)
		return
	}

	if ins.Negate {
		acc.BeginNot()
	}
	if !b.emit(acc, ins.Operator, path, p.Value(), orderBy) {
		b.debugf("dropped %q: unknown operator %q", p.Key, ins.Operator)
	}
	if ins.Negate {
		acc.EndNot()
	}
}

func (b *Builder) debugf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

// Rules describes the configured rules, for diagnostics.
func (b *Builder) Rules() (ignored []string, aliases [][2]string) {
	return b.ignored.Patterns(), b.aliases.Rules()
}

