// Package storage keeps the per-bucket data of a model and splits incoming
// row intervals across the buckets they cross.
package storage

import (
	"fmt"

	"github.com/aevon-lab/raster/internal/core/bucket"
	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
)

// BucketStorage holds one Data per bucket of the granularity, in ascending
// bucket order, and counts the rows it accepted.
type BucketStorage[T any] struct {
	model *model.Model[T]
	logic logic.Logic[T]

	buckets    []*model.Data
	aggregates []*model.Entry[T]
	rows       int
}

// NewBucketStorage creates and initializes the bucket layout for m. The
// model is marked materialized: it accepts no further VALUE entries.
func NewBucketStorage[T any](m *model.Model[T], l logic.Logic[T]) *BucketStorage[T] {
	m.Materialize()
	s := &BucketStorage[T]{model: m, logic: l}
	for _, e := range m.Values() {
		if e.Is(model.Aggregatable) {
			s.aggregates = append(s.aggregates, e)
		}
	}
	s.initialize()
	return s
}

func (s *BucketStorage[T]) initialize() {
	g := s.logic.Granularity()
	entries := s.model.Entries()

	s.buckets = make([]*model.Data, 0, g.Count())
	for _, b := range g.Buckets() {
		d := model.NewData()
		for _, e := range entries {
			switch e.Type() {
			case model.IntervalStart, model.IntervalEnd:
				continue
			}
			switch e.Capability() {
			case model.Invariant:
				d.Set(e.Name(), e.Evaluate())
			case model.DataInvariant:
				d.Set(e.Name(), e.EvaluateInterval(s.logic.BucketStart(b), s.logic.BucketEnd(b)))
			default:
				d.Set(e.Name(), e.Initial())
			}
		}
		s.buckets = append(s.buckets, d)
	}
	s.rows = 0
}

// AddRow splits the row's interval across buckets and folds it into every
// Aggregatable VALUE entry. It returns false without touching any bucket
// when the row is absent, fails the model's condition, or has no usable
// interval.
func (s *BucketStorage[T]) AddRow(row model.ModelData) (bool, error) {
	start, end, ok, err := s.model.Admit(row, s.logic)
	if err != nil || !ok {
		return false, err
	}
	if err := s.add(row, start, end); err != nil {
		return false, err
	}
	return true, nil
}

// add walks [start, end) bucket by bucket. The first step ends at the end
// of the bucket containing start; later steps start bucket-aligned and
// advance by one bucket width, stopping early at the cycle boundary of a
// truncated trailing bucket. Intervals longer than one cycle visit buckets
// once per lap.
func (s *BucketStorage[T]) add(row model.ModelData, start, end T) error {
	l := s.logic
	g := l.Granularity()

	pointer := start
	localEnd := l.AbsoluteBucketEnd(pointer)
	for {
		if l.Compare(localEnd, end) >= 0 {
			localEnd = end
		}
		if l.Compare(localEnd, pointer) <= 0 {
			return fmt.Errorf("model %q: interval walk stalled at %v", s.model.Name(), pointer)
		}

		data := s.buckets[g.Index(l.Bucket(pointer))]
		for _, e := range s.aggregates {
			e.Aggregate(row, data, pointer, localEnd)
		}

		pointer = localEnd
		if l.Compare(pointer, end) >= 0 {
			break
		}
		localEnd = l.AdvanceByBucketSize(pointer)
		if bound := l.AbsoluteBucketEnd(pointer); l.Compare(bound, localEnd) < 0 {
			localEnd = bound
		}
	}
	s.rows++
	return nil
}

// SetAll writes v into field of every bucket.
func (s *BucketStorage[T]) SetAll(field string, v any) {
	for _, d := range s.buckets {
		d.Set(field, v)
	}
}

// Get returns the data of bucket b.
func (s *BucketStorage[T]) Get(b bucket.Bucket) *model.Data {
	g := s.logic.Granularity()
	return s.buckets[g.Index(g.Of(int(b)))]
}

// Buckets lists the buckets in ascending order.
func (s *BucketStorage[T]) Buckets() []bucket.Bucket {
	return s.logic.Granularity().Buckets()
}

// Rows is the number of accepted rows.
func (s *BucketStorage[T]) Rows() int { return s.rows }

// Reset drops all accumulated data and reinitializes every bucket.
func (s *BucketStorage[T]) Reset() {
	s.initialize()
}

// Records snapshots every bucket in ascending order, tagged with key.
func (s *BucketStorage[T]) Records(key GroupKey) []Record[T] {
	out := make([]Record[T], 0, len(s.buckets))
	for i, b := range s.Buckets() {
		out = append(out, Record[T]{
			Model:  s.model.Name(),
			Group:  key,
			Bucket: b,
			Start:  s.logic.BucketStart(b),
			End:    s.logic.BucketEnd(b),
			Values: s.buckets[i].Values(),
		})
	}
	return out
}
