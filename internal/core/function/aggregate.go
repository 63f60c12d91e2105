package function

import (
	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/shopspring/decimal"

	"github.com/aevon-lab/raster/internal/core/coerce"
	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
)

// Count adds one per bucket the row's interval crosses. With Field set only
// rows carrying that field are counted.
type Count[T any] struct {
	Field string
}

func (c Count[T]) Capability() model.Capability { return model.Aggregatable }
func (c Count[T]) Initial() any                 { return int64(0) }

func (c Count[T]) Aggregate(row model.ModelData, data *model.Data, field string, _, _ T) {
	if c.Field != "" {
		if _, ok := row.Get(c.Field); !ok {
			return
		}
	}
	n, _ := data.Get(field).(int64)
	data.Set(field, n+1)
}

// IntervalSum adds the length of the part of the row's interval that falls
// in the bucket, measured in the logic's unit.
type IntervalSum[T any] struct {
	Logic logic.Logic[T]
}

func (s IntervalSum[T]) Capability() model.Capability { return model.Aggregatable }
func (s IntervalSum[T]) Initial() any                 { return decimal.Zero }

func (s IntervalSum[T]) Aggregate(_ model.ModelData, data *model.Data, field string, start, end T) {
	cur, _ := data.Get(field).(decimal.Decimal)
	data.Set(field, cur.Add(decimal.NewFromInt(s.Logic.Difference(end, start))))
}

type avgState struct {
	sum decimal.Decimal
	n   int64
}

// Avg keeps the mean of a numeric row field per bucket. The running sum and
// count are kept as bucket state.
type Avg[T any] struct {
	Field string
}

func (a Avg[T]) Capability() model.Capability { return model.Aggregatable }
func (a Avg[T]) Initial() any                 { return nil }

func (a Avg[T]) Aggregate(row model.ModelData, data *model.Data, field string, _, _ T) {
	raw, ok := row.Get(a.Field)
	if !ok {
		return
	}
	v, ok := coerce.Decimal(raw)
	if !ok {
		return
	}
	st, _ := data.State(field).(*avgState)
	if st == nil {
		st = &avgState{}
		data.SetState(field, st)
	}
	st.sum = st.sum.Add(v)
	st.n++
	data.Set(field, st.sum.Div(decimal.NewFromInt(st.n)))
}

// DefaultAccuracy is the relative accuracy of quantile sketches.
const DefaultAccuracy = 0.01

// Quantile estimates the Q-quantile of a numeric row field per bucket with a
// DDSketch kept as bucket state.
type Quantile[T any] struct {
	Field    string
	Q        float64
	Accuracy float64
}

func (q Quantile[T]) Capability() model.Capability { return model.Aggregatable }
func (q Quantile[T]) Initial() any                 { return nil }

func (q Quantile[T]) Aggregate(row model.ModelData, data *model.Data, field string, _, _ T) {
	raw, ok := row.Get(q.Field)
	if !ok {
		return
	}
	v, ok := coerce.Decimal(raw)
	if !ok {
		return
	}
	sketch, _ := data.State(field).(*ddsketch.DDSketch)
	if sketch == nil {
		accuracy := q.Accuracy
		if accuracy <= 0 {
			accuracy = DefaultAccuracy
		}
		var err error
		if sketch, err = ddsketch.NewDefaultDDSketch(accuracy); err != nil {
			return
		}
		data.SetState(field, sketch)
	}
	f, _ := v.Float64()
	if err := sketch.Add(f); err != nil {
		return
	}
	if est, err := sketch.GetValueAtQuantile(q.Q); err == nil {
		data.Set(field, est)
	}
}
