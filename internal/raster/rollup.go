package raster

import (
	"github.com/shopspring/decimal"

	"github.com/aevon-lab/raster/internal/core/bucket"
	"github.com/aevon-lab/raster/internal/core/coerce"
	"github.com/aevon-lab/raster/internal/core/function"
	"github.com/aevon-lab/raster/internal/core/model"
)

// Total is a numeric field rolled up over every group of a model for one
// bucket.
type Total[T any] struct {
	Bucket bucket.Bucket
	Start  T
	End    T
	Value  decimal.Decimal
	Groups int // groups that held a numeric value
}

// Rollup combines field per bucket across all groups of a model. Fields
// backed by a min or max fold keep the global min or max; everything else is
// summed. Non-numeric and missing values are skipped. Buckets are returned in
// ascending order and always cover the whole axis.
func (r *Raster[T]) Rollup(modelName, field string) ([]Total[T], error) {
	gs, err := r.storage(modelName)
	if err != nil {
		return nil, err
	}

	op := rollupOp(gs.Model(), field)

	l := r.cfg.Logic
	buckets := l.Granularity().Buckets()
	totals := make([]Total[T], len(buckets))
	for i, b := range buckets {
		totals[i] = Total[T]{Bucket: b, Start: l.BucketStart(b), End: l.BucketEnd(b), Value: decimal.Zero}
	}

	for _, g := range gs.Groups() {
		for i, b := range buckets {
			v, ok := coerce.Decimal(g.Storage.Get(b).Get(field))
			if !ok {
				continue
			}
			if totals[i].Groups == 0 {
				totals[i].Value = op.Initial(v)
			} else {
				totals[i].Value = op.Apply(totals[i].Value, v)
			}
			totals[i].Groups++
		}
	}
	return totals, nil
}

// GrandTotal combines a model's rollup of field over the whole axis with the
// same operator. Buckets no group contributed to are skipped; buckets is the
// number that were combined.
func (r *Raster[T]) GrandTotal(modelName, field string) (total decimal.Decimal, buckets int, err error) {
	totals, err := r.Rollup(modelName, field)
	if err != nil {
		return decimal.Zero, 0, err
	}
	op := rollupOp(r.models[modelName].Model(), field)

	total = decimal.Zero
	for _, t := range totals {
		if t.Groups == 0 {
			continue
		}
		if buckets == 0 {
			total = op.Initial(t.Value)
		} else {
			total = op.Apply(total, t.Value)
		}
		buckets++
	}
	return total, buckets, nil
}

func rollupOp[T any](m *model.Model[T], field string) function.Aggregator {
	if e, ok := m.Entry(field); ok {
		if fold, ok := e.Function().(*function.Fold[T]); ok {
			return fold.Op
		}
	}
	return function.Operators[function.OpSum]
}
