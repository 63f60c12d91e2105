package function

import (
	"github.com/shopspring/decimal"

	"github.com/aevon-lab/raster/internal/core/coerce"
	"github.com/aevon-lab/raster/internal/core/model"
)

// Fold operators over a numeric row field.
const (
	OpSum = "sum"
	OpMin = "min"
	OpMax = "max"
)

// Aggregator defines the reduce semantics of a fold operator.
type Aggregator interface {
	// Initial returns the aggregate after the first value reaches a bucket.
	Initial(incoming decimal.Decimal) decimal.Decimal

	// Apply folds an incoming value into an existing aggregate.
	Apply(current, incoming decimal.Decimal) decimal.Decimal
}

// Operators is the registry of fold operators.
var Operators = map[string]Aggregator{
	OpSum: sumAgg{},
	OpMin: minAgg{},
	OpMax: maxAgg{},
}

// ValidOperator reports whether op is a registered fold operator.
func ValidOperator(op string) bool {
	_, ok := Operators[op]
	return ok
}

type sumAgg struct{}

func (sumAgg) Initial(v decimal.Decimal) decimal.Decimal      { return v }
func (sumAgg) Apply(cur, inc decimal.Decimal) decimal.Decimal { return cur.Add(inc) }

type minAgg struct{}

func (minAgg) Initial(v decimal.Decimal) decimal.Decimal { return v }
func (minAgg) Apply(cur, inc decimal.Decimal) decimal.Decimal {
	if inc.LessThan(cur) {
		return inc
	}
	return cur
}

type maxAgg struct{}

func (maxAgg) Initial(v decimal.Decimal) decimal.Decimal { return v }
func (maxAgg) Apply(cur, inc decimal.Decimal) decimal.Decimal {
	if inc.GreaterThan(cur) {
		return inc
	}
	return cur
}

// Fold applies an operator to a numeric row field in every bucket the row's
// interval crosses. Rows without a numeric value leave the bucket untouched.
// A bucket that never saw a value holds nil, except for sum which starts at
// zero.
type Fold[T any] struct {
	Field string
	Op    Aggregator
	zero  any
}

// NewFold returns a Fold for a registered operator.
func NewFold[T any](field, op string) (*Fold[T], error) {
	agg, ok := Operators[op]
	if !ok {
		return nil, errUnknownOperator(op)
	}
	f := &Fold[T]{Field: field, Op: agg}
	if op == OpSum {
		f.zero = decimal.Zero
	}
	return f, nil
}

func (f *Fold[T]) Capability() model.Capability { return model.Aggregatable }
func (f *Fold[T]) Initial() any                 { return f.zero }

func (f *Fold[T]) Aggregate(row model.ModelData, data *model.Data, field string, _, _ T) {
	raw, ok := row.Get(f.Field)
	if !ok {
		return
	}
	v, ok := coerce.Decimal(raw)
	if !ok {
		return
	}
	if cur, ok := data.Get(field).(decimal.Decimal); ok {
		data.Set(field, f.Op.Apply(cur, v))
		return
	}
	data.Set(field, f.Op.Initial(v))
}
