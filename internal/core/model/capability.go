package model

import "fmt"

// Capability decides which inputs a function may read and how often it runs.
// Every function declares exactly one.
type Capability int

const (
	// Invariant functions read nothing and run once per bucket at creation.
	Invariant Capability = iota + 1

	// IntervalInvariant functions read the row only and run once per row;
	// the result is shared by every bucket of a freshly created group.
	IntervalInvariant

	// DataInvariant functions read the interval bounds of a bucket only and
	// run once per bucket at creation.
	DataInvariant

	// IntervalAndGroupInvariant functions read the row only. They produce
	// interval bounds and group key components.
	IntervalAndGroupInvariant

	// Aggregatable functions read the row, the portion of its interval that
	// falls in a bucket, and the bucket's accumulated state, and run once per
	// bucket crossed.
	Aggregatable
)

func (c Capability) String() string {
	switch c {
	case Invariant:
		return "invariant"
	case IntervalInvariant:
		return "interval_invariant"
	case DataInvariant:
		return "data_invariant"
	case IntervalAndGroupInvariant:
		return "interval_and_group_invariant"
	case Aggregatable:
		return "aggregatable"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Function is implemented by every entry function. A function additionally
// implements the strategy interface matching its capability.
type Function interface {
	Capability() Capability

	// Initial is the value a bucket field holds before any row is added.
	Initial() any
}

// InvariantFunction is the strategy for Invariant.
type InvariantFunction interface {
	Function
	Evaluate() any
}

// RowFunction is the strategy for IntervalInvariant and
// IntervalAndGroupInvariant. A nil result means absent.
type RowFunction interface {
	Function
	EvaluateRow(row ModelData) any
}

// DataFunction is the strategy for DataInvariant.
type DataFunction[T any] interface {
	Function
	EvaluateInterval(start, end T) any
}

// AggregateFunction is the strategy for Aggregatable. Aggregate folds the
// part [start, end) of the row's interval into data, writing its result
// under field.
type AggregateFunction[T any] interface {
	Function
	Aggregate(row ModelData, data *Data, field string, start, end T)
}
