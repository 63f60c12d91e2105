package model

import (
	"fmt"

	rerr "github.com/aevon-lab/raster/internal/core/errors"
)

// EntryType is the role of an entry within a model.
type EntryType int

const (
	Value EntryType = iota + 1
	Group
	IntervalStart
	IntervalEnd
)

func (t EntryType) String() string {
	switch t {
	case Value:
		return "VALUE"
	case Group:
		return "GROUP"
	case IntervalStart:
		return "INTERVALSTART"
	case IntervalEnd:
		return "INTERVALEND"
	default:
		return fmt.Sprintf("EntryType(%d)", int(t))
	}
}

// Params are the free-form parameters an entry was declared with.
type Params map[string]any

// Entry is a named field of a model. The capability of its function is
// checked once in NewEntry and the matching strategy cached; the dispatch
// methods panic with errors.ErrCapabilityMismatch when called on the wrong
// path.
type Entry[T any] struct {
	name   string
	typ    EntryType
	fn     Function
	params Params

	capability Capability
	invariant  InvariantFunction
	row        RowFunction
	data       DataFunction[T]
	aggregate  AggregateFunction[T]
}

// NewEntry validates fn against its declared capability and the rules for
// typ.
func NewEntry[T any](name string, typ EntryType, fn Function, params Params) (*Entry[T], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: entry name must not be empty", rerr.ErrInvalidModel)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: entry %q has no function", rerr.ErrInvalidModel, name)
	}

	e := &Entry[T]{name: name, typ: typ, fn: fn, params: params, capability: fn.Capability()}

	var ok bool
	switch e.capability {
	case Invariant:
		e.invariant, ok = fn.(InvariantFunction)
	case IntervalInvariant, IntervalAndGroupInvariant:
		e.row, ok = fn.(RowFunction)
	case DataInvariant:
		e.data, ok = fn.(DataFunction[T])
	case Aggregatable:
		e.aggregate, ok = fn.(AggregateFunction[T])
	}
	if !ok {
		return nil, fmt.Errorf("%w: entry %q: %T does not implement the %s strategy",
			rerr.ErrInvalidModel, name, fn, e.capability)
	}

	switch typ {
	case IntervalStart, IntervalEnd:
		if e.capability != IntervalAndGroupInvariant {
			return nil, fmt.Errorf("%w: %s entry %q must be %s, got %s",
				rerr.ErrInvalidModel, typ, name, IntervalAndGroupInvariant, e.capability)
		}
	case Group:
		switch e.capability {
		case IntervalAndGroupInvariant, DataInvariant, Invariant:
		default:
			return nil, fmt.Errorf("%w: GROUP entry %q cannot be %s", rerr.ErrInvalidModel, name, e.capability)
		}
	case Value:
	default:
		return nil, fmt.Errorf("%w: entry %q has unknown type %d", rerr.ErrInvalidModel, name, int(typ))
	}
	return e, nil
}

func (e *Entry[T]) Name() string           { return e.name }
func (e *Entry[T]) Type() EntryType        { return e.typ }
func (e *Entry[T]) Function() Function     { return e.fn }
func (e *Entry[T]) Params() Params         { return e.params }
func (e *Entry[T]) Capability() Capability { return e.capability }
func (e *Entry[T]) Initial() any           { return e.fn.Initial() }
func (e *Entry[T]) Is(c Capability) bool   { return e.capability == c }

// Evaluate dispatches an Invariant function.
func (e *Entry[T]) Evaluate() any {
	e.must(e.invariant != nil, Invariant)
	return e.invariant.Evaluate()
}

// EvaluateRow dispatches an IntervalInvariant or IntervalAndGroupInvariant
// function.
func (e *Entry[T]) EvaluateRow(row ModelData) any {
	e.must(e.row != nil, IntervalInvariant, IntervalAndGroupInvariant)
	return e.row.EvaluateRow(row)
}

// EvaluateInterval dispatches a DataInvariant function.
func (e *Entry[T]) EvaluateInterval(start, end T) any {
	e.must(e.data != nil, DataInvariant)
	return e.data.EvaluateInterval(start, end)
}

// Aggregate dispatches an Aggregatable function, writing into data under the
// entry's name.
func (e *Entry[T]) Aggregate(row ModelData, data *Data, start, end T) {
	e.must(e.aggregate != nil, Aggregatable)
	e.aggregate.Aggregate(row, data, e.name, start, end)
}

func (e *Entry[T]) must(ok bool, want ...Capability) {
	if !ok {
		panic(fmt.Errorf("%w: entry %q is %s, dispatched as %v", rerr.ErrCapabilityMismatch, e.name, e.capability, want))
	}
}
