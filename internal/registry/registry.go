// Package registry holds the name-to-implementation tables the workflow
// engine dispatches through. A Registry is constructed explicitly and handed
// to the runner; it is not process-global state. Registrations happen during
// startup, before any workflow runs, and the engine only reads afterwards,
// so lookups need no locking.
package registry

import (
	"context"
	"fmt"
	"strings"

	"factorizer/internal/series"
)

// Capability kinds, used in error reporting.
const (
	KindLoader    = "loader"
	KindWriter    = "writer"
	KindIndicator = "indicator"
	KindCross     = "cross"
)

// UnknownCapabilityError reports a plan referencing a name that was never
// registered for a kind.
type UnknownCapabilityError struct {
	Kind string
	Name string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown %s capability %q", e.Kind, e.Name)
}

// LoaderFunc produces the full bar table for one run.
type LoaderFunc func(ctx context.Context, args map[string]any) (*series.Table, error)

// WriterFunc persists the assembled result table, exactly once per run.
type WriterFunc func(ctx context.Context, table *series.Table, args map[string]any) error

// IndicatorFunc derives new columns from one partition. It sees the raw bar
// columns plus everything earlier indicator specs already appended.
type IndicatorFunc func(bars *series.Frame, args map[string]any) (*series.ColumnSet, error)

// CrossFunc combines one group of eligible columns into derived columns.
type CrossFunc func(cols *series.ColumnSet, args map[string]any) (*series.ColumnSet, error)

// CrossEntry carries a cross implementation plus the traits the cross stage
// needs to enumerate its inputs.
type CrossEntry struct {
	Fn CrossFunc
	// OrderSensitive is false for whole-table transforms that ignore the
	// spec's orders list and run once over every eligible column.
	OrderSensitive bool
	// Sequential selects permutations instead of unordered combinations
	// when enumerating column groups.
	Sequential bool
}

// Registry maps capability names to implementations, per kind. Names are
// case-insensitive. Registering an existing name overwrites it; that is the
// extension point, not an error.
type Registry struct {
	loaders    map[string]LoaderFunc
	writers    map[string]WriterFunc
	indicators map[string]IndicatorFunc
	crosses    map[string]CrossEntry
}

func New() *Registry {
	return &Registry{
		loaders:    make(map[string]LoaderFunc),
		writers:    make(map[string]WriterFunc),
		indicators: make(map[string]IndicatorFunc),
		crosses:    make(map[string]CrossEntry),
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) RegisterLoader(name string, fn LoaderFunc) {
	r.loaders[key(name)] = fn
}

func (r *Registry) RegisterWriter(name string, fn WriterFunc) {
	r.writers[key(name)] = fn
}

func (r *Registry) RegisterIndicator(name string, fn IndicatorFunc) {
	r.indicators[key(name)] = fn
}

func (r *Registry) RegisterCross(name string, entry CrossEntry) {
	r.crosses[key(name)] = entry
}

func (r *Registry) Loader(name string) (LoaderFunc, error) {
	fn, ok := r.loaders[key(name)]
	if !ok {
		return nil, &UnknownCapabilityError{Kind: KindLoader, Name: name}
	}
	return fn, nil
}

func (r *Registry) Writer(name string) (WriterFunc, error) {
	fn, ok := r.writers[key(name)]
	if !ok {
		return nil, &UnknownCapabilityError{Kind: KindWriter, Name: name}
	}
	return fn, nil
}

func (r *Registry) Indicator(name string) (IndicatorFunc, error) {
	fn, ok := r.indicators[key(name)]
	if !ok {
		return nil, &UnknownCapabilityError{Kind: KindIndicator, Name: name}
	}
	return fn, nil
}

func (r *Registry) Cross(name string) (CrossEntry, error) {
	entry, ok := r.crosses[key(name)]
	if !ok {
		return CrossEntry{}, &UnknownCapabilityError{Kind: KindCross, Name: name}
	}
	return entry, nil
}
