// Package convert turns raw query-string values into typed Go values.
//
// Conversion is lenient: a value that does not parse converts to nil and a
// type without a registered converter passes the raw string through.
package convert

import (
	"sync"

	"httpquery/internal/metadata"
)

// Converter converts one raw string into a typed value, or nil when the
// string is not a valid representation.
type Converter interface {
	Convert(raw string) any
}

// Func adapts a plain function to Converter.
type Func func(raw string) any

func (f Func) Convert(raw string) any { return f(raw) }

// identity is returned for types without a registered converter.
var identity = Func(func(raw string) any { return raw })

// Registry maps field types to converters. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[metadata.FieldType]Converter
}

// NewRegistry returns a registry holding the built-in converters.
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[metadata.FieldType]Converter)}
	r.RegisterFunc(metadata.TypeInt, ParseInt)
	r.RegisterFunc(metadata.TypeBigInt, ParseInt64)
	r.RegisterFunc(metadata.TypeDecimal, ParseFloat)
	r.RegisterFunc(metadata.TypeBoolean, ParseBool)
	r.RegisterFunc(metadata.TypeTimestamp, ParseTimestamp)
	r.RegisterFunc(metadata.TypeDate, ParseTimestamp)
	r.RegisterFunc(metadata.TypeUUID, ParseUUID)
	return r
}

// Register adds c for t unless a converter is already registered for t.
// It reports whether c was inserted.
func (r *Registry) Register(t metadata.FieldType, c Converter) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.converters[t]; exists {
		return false
	}
	r.converters[t] = c
	return true
}

// RegisterFunc is Register for a plain function.
func (r *Registry) RegisterFunc(t metadata.FieldType, fn func(raw string) any) bool {
	return r.Register(t, Func(fn))
}

// Get returns the converter for t, or a pass-through converter.
func (r *Registry) Get(t metadata.FieldType) Converter {
	r.mu.RLock()
	c, ok := r.converters[t]
	r.mu.RUnlock()
	if !ok {
		return identity
	}
	return c
}

// Has reports whether a converter is registered for t.
func (r *Registry) Has(t metadata.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.converters[t]
	return ok
}

// Convert converts raw with the converter registered for t.
func (r *Registry) Convert(t metadata.FieldType, raw string) any {
	return r.Get(t).Convert(raw)
}
