// Package model defines the schema of a raster model: named entries whose
// functions compute interval bounds, group key components and per-bucket
// fields, plus the condition selecting the rows the model applies to.
package model

import (
	"fmt"

	rerr "github.com/aevon-lab/raster/internal/core/errors"
	"github.com/aevon-lab/raster/internal/core/logic"
)

// Model is an ordered, name-keyed set of entries. Entries are append-only.
// Once a storage materializes the bucket layout no VALUE entry may be added,
// and once the first row is accepted no GROUP entry may be added.
type Model[T any] struct {
	name      string
	condition Condition

	start   *Entry[T]
	end     *Entry[T]
	entries []*Entry[T]
	byName  map[string]*Entry[T]

	materialized bool
	sealed       bool
}

// NewModel creates a model with its fixed interval bounds. A nil condition
// accepts every row.
func NewModel[T any](name string, start, end *Entry[T], condition Condition) (*Model[T], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: model name must not be empty", rerr.ErrInvalidModel)
	}
	if start == nil || start.Type() != IntervalStart {
		return nil, fmt.Errorf("%w: model %q needs an INTERVALSTART entry", rerr.ErrInvalidModel, name)
	}
	if end == nil || end.Type() != IntervalEnd {
		return nil, fmt.Errorf("%w: model %q needs an INTERVALEND entry", rerr.ErrInvalidModel, name)
	}
	if start.Name() == end.Name() {
		return nil, fmt.Errorf("%w: model %q: duplicate entry %q", rerr.ErrInvalidModel, name, start.Name())
	}
	if condition == nil {
		condition = Always
	}

	m := &Model[T]{
		name:      name,
		condition: condition,
		start:     start,
		end:       end,
		entries:   []*Entry[T]{start, end},
		byName:    map[string]*Entry[T]{start.Name(): start, end.Name(): end},
	}
	return m, nil
}

func (m *Model[T]) Name() string         { return m.name }
func (m *Model[T]) Condition() Condition { return m.condition }
func (m *Model[T]) Start() *Entry[T]     { return m.start }
func (m *Model[T]) End() *Entry[T]       { return m.end }

// Entries returns every entry in declaration order, interval bounds first.
func (m *Model[T]) Entries() []*Entry[T] {
	return append([]*Entry[T](nil), m.entries...)
}

// Entry returns the named entry.
func (m *Model[T]) Entry(name string) (*Entry[T], bool) {
	e, ok := m.byName[name]
	return e, ok
}

// Groups returns the GROUP entries in declaration order.
func (m *Model[T]) Groups() []*Entry[T] {
	return m.ofType(Group)
}

// Values returns the VALUE entries in declaration order.
func (m *Model[T]) Values() []*Entry[T] {
	return m.ofType(Value)
}

func (m *Model[T]) ofType(typ EntryType) []*Entry[T] {
	var out []*Entry[T]
	for _, e := range m.entries {
		if e.Type() == typ {
			out = append(out, e)
		}
	}
	return out
}

// AddEntry appends a VALUE or GROUP entry.
func (m *Model[T]) AddEntry(e *Entry[T]) error {
	if e == nil {
		return fmt.Errorf("%w: model %q: nil entry", rerr.ErrInvalidModel, m.name)
	}
	switch e.Type() {
	case Value:
		if m.materialized {
			return fmt.Errorf("model %q: adding VALUE entry %q: %w", m.name, e.Name(), rerr.ErrLayoutMaterialized)
		}
	case Group:
		if m.sealed {
			return fmt.Errorf("model %q: adding GROUP entry %q: %w", m.name, e.Name(), rerr.ErrModelSealed)
		}
	default:
		return fmt.Errorf("%w: model %q: %s entries are fixed at construction", rerr.ErrInvalidModel, m.name, e.Type())
	}
	if _, exists := m.byName[e.Name()]; exists {
		return fmt.Errorf("%w: model %q: duplicate entry %q", rerr.ErrInvalidModel, m.name, e.Name())
	}

	m.entries = append(m.entries, e)
	m.byName[e.Name()] = e
	return nil
}

// Materialize records that a storage created the bucket layout.
func (m *Model[T]) Materialize() { m.materialized = true }

// Materialized reports whether the bucket layout exists.
func (m *Model[T]) Materialized() bool { return m.materialized }

// Seal records that the model accepted a row.
func (m *Model[T]) Seal() { m.sealed = true }

// Sealed reports whether the model accepted a row.
func (m *Model[T]) Sealed() bool { return m.sealed }

// Admit checks row against the condition and resolves its interval. ok is
// false when the row is absent, fails the condition, lacks a bound, or has
// an empty or inverted interval. err is set when a bound cannot be mapped
// onto T.
func (m *Model[T]) Admit(row ModelData, l logic.Logic[T]) (start, end T, ok bool, err error) {
	if row == nil || !m.condition.Check(row) {
		return start, end, false, nil
	}

	rawStart := m.start.EvaluateRow(row)
	rawEnd := m.end.EvaluateRow(row)
	if rawStart == nil || rawEnd == nil {
		return start, end, false, nil
	}

	if start, err = l.Coerce(rawStart); err != nil {
		return start, end, false, fmt.Errorf("model %q: %s %q: %w", m.name, IntervalStart, m.start.Name(), err)
	}
	if end, err = l.Coerce(rawEnd); err != nil {
		return start, end, false, fmt.Errorf("model %q: %s %q: %w", m.name, IntervalEnd, m.end.Name(), err)
	}
	if l.Compare(start, end) >= 0 {
		return start, end, false, nil
	}
	return start, end, true, nil
}
