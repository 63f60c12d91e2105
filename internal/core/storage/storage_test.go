package storage

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/aevon-lab/raster/internal/core/bucket"
	rerr "github.com/aevon-lab/raster/internal/core/errors"
	"github.com/aevon-lab/raster/internal/core/function"
	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
)

func day(d, h, m int) time.Time {
	return time.Date(2026, 2, d, h, m, 0, 0, time.UTC)
}

func entry[T any](t *testing.T, name string, typ model.EntryType, fn model.Function) *model.Entry[T] {
	t.Helper()
	e, err := model.NewEntry[T](name, typ, fn, nil)
	require.NoError(t, err)
	return e
}

// shiftModel builds a model over rows with "from"/"to" bounds, a Count and
// an IntervalSum, plus the given GROUP fields.
func shiftModel(t *testing.T, l logic.Logic[time.Time], cond model.Condition, groups ...string) *model.Model[time.Time] {
	t.Helper()
	m, err := model.NewModel("shifts",
		entry[time.Time](t, "from", model.IntervalStart, function.Value{Field: "from"}),
		entry[time.Time](t, "to", model.IntervalEnd, function.Value{Field: "to"}),
		cond,
	)
	require.NoError(t, err)
	for _, g := range groups {
		require.NoError(t, m.AddEntry(entry[time.Time](t, g, model.Group, function.Value{Field: g})))
	}
	require.NoError(t, m.AddEntry(entry[time.Time](t, "count", model.Value, function.Count[time.Time]{})))
	require.NoError(t, m.AddEntry(entry[time.Time](t, "minutes", model.Value, function.IntervalSum[time.Time]{Logic: l})))
	return m
}

func minutes(t *testing.T, size int) *logic.Time {
	t.Helper()
	l, err := logic.NewMinuteOfDay(size, time.UTC)
	require.NoError(t, err)
	return l
}

func requireDecimal(t *testing.T, want int64, got any) {
	t.Helper()
	d, ok := got.(decimal.Decimal)
	require.True(t, ok, "got %T", got)
	require.True(t, decimal.NewFromInt(want).Equal(d), "want %d got %s", want, d)
}

func TestBucketStorage_FullDayAtMinuteGranularity(t *testing.T) {
	l := minutes(t, 1)
	s := NewBucketStorage[time.Time](shiftModel(t, l, nil), l)

	ok, err := s.AddRow(model.Row{"from": day(11, 0, 0), "to": day(12, 0, 0)})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, s.Rows())

	total := decimal.Zero
	require.Len(t, s.Buckets(), 1440)
	for _, b := range s.Buckets() {
		d := s.Get(b)
		require.Equal(t, int64(1), d.Get("count"), "bucket %d", b)
		requireDecimal(t, 1, d.Get("minutes"))
		total = total.Add(d.Get("minutes").(decimal.Decimal))
	}
	require.True(t, decimal.NewFromInt(1440).Equal(total))
}

func TestBucketStorage_PartialCoverage(t *testing.T) {
	l := minutes(t, 1)
	s := NewBucketStorage[time.Time](shiftModel(t, l, nil), l)

	for _, row := range []model.Row{
		{"from": day(11, 0, 0), "to": day(12, 0, 0)},
		{"from": day(11, 0, 0), "to": day(11, 12, 0)},
	} {
		ok, err := s.AddRow(row)
		require.NoError(t, err)
		require.True(t, ok)
	}

	for _, b := range s.Buckets() {
		want := int64(1)
		if b < 720 {
			want = 2
		}
		require.Equal(t, want, s.Get(b).Get("count"), "bucket %d", b)
	}
}

func TestBucketStorage_WrapsAtMidnight(t *testing.T) {
	l := minutes(t, 30)
	s := NewBucketStorage[time.Time](shiftModel(t, l, nil), l)

	ok, err := s.AddRow(model.Row{"from": day(11, 23, 45), "to": day(12, 0, 15)})
	require.NoError(t, err)
	require.True(t, ok)

	requireDecimal(t, 15, s.Get(1410).Get("minutes"))
	requireDecimal(t, 15, s.Get(0).Get("minutes"))
	require.Equal(t, int64(1), s.Get(1410).Get("count"))
	require.Equal(t, int64(1), s.Get(0).Get("count"))
	require.Equal(t, int64(0), s.Get(30).Get("count"))
}

func TestBucketStorage_MultiLapAccumulatesPerLap(t *testing.T) {
	l := minutes(t, 60)
	s := NewBucketStorage[time.Time](shiftModel(t, l, nil), l)

	ok, err := s.AddRow(model.Row{"from": day(11, 6, 0), "to": day(13, 6, 0)})
	require.NoError(t, err)
	require.True(t, ok)

	for _, b := range s.Buckets() {
		require.Equal(t, int64(2), s.Get(b).Get("count"))
		requireDecimal(t, 120, s.Get(b).Get("minutes"))
	}
}

func TestBucketStorage_TruncatedTrailingBucket(t *testing.T) {
	l, err := logic.NewDayOfWeek(2, time.UTC)
	require.NoError(t, err)
	s := NewBucketStorage[time.Time](shiftModel(t, l, nil), l)

	// Saturday 00:00 to the following Tuesday 00:00.
	ok, err := s.AddRow(model.Row{"from": day(14, 0, 0), "to": day(17, 0, 0)})
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []bucket.Bucket{1, 3, 5, 7}, s.Buckets())
	requireDecimal(t, 1, s.Get(5).Get("minutes"))
	requireDecimal(t, 1, s.Get(7).Get("minutes"))
	requireDecimal(t, 1, s.Get(1).Get("minutes"))
	requireDecimal(t, 0, s.Get(3).Get("minutes"))
}

func TestBucketStorage_Rejections(t *testing.T) {
	l := minutes(t, 30)
	m := shiftModel(t, l, model.ConditionFunc(func(row model.ModelData) bool {
		v, _ := row.Get("status")
		return v != "Cancelled"
	}))
	s := NewBucketStorage[time.Time](m, l)

	tests := []struct {
		name string
		row  model.ModelData
	}{
		{name: "absent row", row: nil},
		{name: "condition fails", row: model.Row{"status": "Cancelled", "from": day(11, 0, 0), "to": day(11, 1, 0)}},
		{name: "missing end", row: model.Row{"from": day(11, 0, 0)}},
		{name: "zero length", row: model.Row{"from": day(11, 0, 0), "to": day(11, 0, 0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := s.AddRow(tc.row)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
	require.Equal(t, 0, s.Rows())
	for _, b := range s.Buckets() {
		require.Equal(t, int64(0), s.Get(b).Get("count"))
	}

	ok, err := s.AddRow(model.Row{"from": true, "to": day(11, 1, 0)})
	require.False(t, ok)
	require.True(t, errors.Is(err, rerr.ErrTypeMismatch))
}

func TestBucketStorage_InitializesInvariantFields(t *testing.T) {
	l := minutes(t, 30)
	m := shiftModel(t, l, nil)
	require.NoError(t, m.AddEntry(entry[time.Time](t, "kind", model.Value, function.Const{Value: "cleaning"})))
	require.NoError(t, m.AddEntry(entry[time.Time](t, "label", model.Value, function.BucketLabel[time.Time]{
		Logic:  l,
		Render: function.TimeLayout[time.Time]("15:04"),
	})))
	s := NewBucketStorage[time.Time](m, l)

	require.Equal(t, "cleaning", s.Get(0).Get("kind"))
	require.Equal(t, "00:00 - 00:30", s.Get(0).Get("label"))
	require.Equal(t, "23:30 - 00:00", s.Get(1410).Get("label"))

	ok, err := s.AddRow(model.Row{"from": day(11, 0, 0), "to": day(11, 0, 10)})
	require.NoError(t, err)
	require.True(t, ok)

	s.Reset()
	require.Equal(t, 0, s.Rows())
	require.Equal(t, int64(0), s.Get(0).Get("count"))
	require.Equal(t, "cleaning", s.Get(0).Get("kind"))
}

func TestGroupStorage_PlannedCleanerScenario(t *testing.T) {
	l := minutes(t, 30)
	gs := NewGroupStorage[time.Time](shiftModel(t, l, nil, "status", "role"), l)

	ok, err := gs.AddRow(model.Row{"status": "Planned", "role": "Cleaner", "from": day(11, 0, 0), "to": day(11, 0, 45)})
	require.NoError(t, err)
	require.True(t, ok)

	s, found := gs.Group(NewGroupKey("Planned", "Cleaner"))
	require.True(t, found)

	require.Equal(t, int64(1), s.Get(0).Get("count"))
	requireDecimal(t, 30, s.Get(0).Get("minutes"))
	require.Equal(t, int64(1), s.Get(30).Get("count"))
	requireDecimal(t, 15, s.Get(30).Get("minutes"))
	for _, b := range s.Buckets()[2:] {
		require.Equal(t, int64(0), s.Get(b).Get("count"), "bucket %d", b)
		requireDecimal(t, 0, s.Get(b).Get("minutes"))
	}
	require.Equal(t, "Planned", s.Get(600).Get("status"))
	require.Equal(t, "Cleaner", s.Get(600).Get("role"))
}

func TestGroupStorage_IndependentGroups(t *testing.T) {
	l := minutes(t, 1)
	gs := NewGroupStorage[time.Time](shiftModel(t, l, nil, "status"), l)
	require.NotNil(t, gs.Ungrouped())
	require.Len(t, gs.Records(), 1440)
	require.True(t, gs.Records()[0].Group.Empty())

	ok, err := gs.AddRow(model.Row{"status": "Planned", "from": day(11, 0, 0), "to": day(12, 0, 0)})
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, gs.Ungrouped())

	ok, err = gs.AddRow(model.Row{"status": "Done", "from": day(11, 0, 0), "to": day(11, 1, 0)})
	require.NoError(t, err)
	require.True(t, ok)

	groups := gs.Groups()
	require.Len(t, groups, 2)
	require.Equal(t, []any{"Planned"}, groups[0].Key.Values())
	require.Equal(t, []any{"Done"}, groups[1].Key.Values())
	require.Len(t, groups[0].Storage.Buckets(), 1440)
	require.Len(t, groups[1].Storage.Buckets(), 1440)

	require.Equal(t, int64(1), groups[0].Storage.Get(600).Get("count"))
	require.Equal(t, int64(0), groups[1].Storage.Get(600).Get("count"))
	require.Equal(t, int64(1), groups[1].Storage.Get(0).Get("count"))
	require.Equal(t, 2, gs.Rows())
	require.Len(t, gs.Records(), 2*1440)
}

func TestGroupStorage_RejectedRowsCreateNoGroup(t *testing.T) {
	l := minutes(t, 30)
	gs := NewGroupStorage[time.Time](shiftModel(t, l, nil, "status"), l)

	ok, err := gs.AddRow(model.Row{"status": "Planned", "from": day(11, 1, 0), "to": day(11, 1, 0)})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, gs.Groups())
	require.NotNil(t, gs.Ungrouped())
	require.False(t, gs.Model().Sealed())
}

func TestGroupStorage_SchemaChanges(t *testing.T) {
	l := minutes(t, 30)
	gs := NewGroupStorage[time.Time](shiftModel(t, l, nil), l)

	err := gs.AddEntry(entry[time.Time](t, "late", model.Value, function.Count[time.Time]{}))
	require.True(t, errors.Is(err, rerr.ErrLayoutMaterialized))

	require.NoError(t, gs.AddEntry(entry[time.Time](t, "status", model.Group, function.Value{Field: "status"})))

	ok, err := gs.AddRow(model.Row{"status": "Planned", "from": day(11, 0, 0), "to": day(11, 1, 0)})
	require.NoError(t, err)
	require.True(t, ok)

	err = gs.AddEntry(entry[time.Time](t, "role", model.Group, function.Value{Field: "role"}))
	require.True(t, errors.Is(err, rerr.ErrModelSealed))

	_, found := gs.Group(NewGroupKey("Planned"))
	require.True(t, found)
}

func TestGroupStorage_RowDerivedValuesFillNewGroups(t *testing.T) {
	l := minutes(t, 30)
	m := shiftModel(t, l, nil, "status", "role")
	require.NoError(t, m.AddEntry(entry[time.Time](t, "title", model.Value,
		function.NewGroup("{role} ({status}) at {site}", language.English))))
	gs := NewGroupStorage[time.Time](m, l)

	ok, err := gs.AddRow(model.Row{"status": "Planned", "role": "Cleaner", "site": "North",
		"from": day(11, 0, 0), "to": day(11, 0, 30)})
	require.NoError(t, err)
	require.True(t, ok)

	// A later row of the same group does not recompute the label.
	ok, err = gs.AddRow(model.Row{"status": "Planned", "role": "Cleaner", "site": "South",
		"from": day(11, 2, 0), "to": day(11, 2, 30)})
	require.NoError(t, err)
	require.True(t, ok)

	s, found := gs.Group(NewGroupKey("Planned", "Cleaner"))
	require.True(t, found)
	for _, b := range []bucket.Bucket{0, 120, 1410} {
		require.Equal(t, "Cleaner (Planned) at North", s.Get(b).Get("title"))
	}
}

func TestGroupStorage_InvariantAndDataGroups(t *testing.T) {
	l := minutes(t, 60)
	m := shiftModel(t, l, nil)
	require.NoError(t, m.AddEntry(entry[time.Time](t, "kind", model.Group, function.Const{Value: "shift"})))
	require.NoError(t, m.AddEntry(entry[time.Time](t, "slot", model.Group, function.BucketLabel[time.Time]{
		Logic:  l,
		Render: function.TimeLayout[time.Time]("15:04"),
	})))
	gs := NewGroupStorage[time.Time](m, l)

	key, err := gs.KeyOf(model.Row{"from": day(11, 8, 15), "to": day(11, 9, 0)})
	require.NoError(t, err)
	require.True(t, key.Equal(NewGroupKey("shift", "08:00 - 09:00")))

	empty, err := gs.KeyOf(nil)
	require.NoError(t, err)
	require.True(t, empty.Empty())

	ok, err := gs.AddRow(model.Row{"from": day(11, 8, 15), "to": day(11, 9, 0)})
	require.NoError(t, err)
	require.True(t, ok)

	s, found := gs.Group(key)
	require.True(t, found)
	// Every bucket stores the key value, not a per-bucket label.
	for _, b := range s.Buckets() {
		require.Equal(t, key.Values()[0], s.Get(b).Get("kind"))
		require.Equal(t, key.Values()[1], s.Get(b).Get("slot"))
	}
	require.Equal(t, int64(1), s.Get(480).Get("count"))

	for _, rec := range gs.Records() {
		require.Equal(t, "08:00 - 09:00", rec.Get("slot"))
	}
}

func TestGroupStorage_RepeatedFallBackHour(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	l, err := logic.NewMinuteOfDay(30, ny)
	require.NoError(t, err)
	gs := NewGroupStorage[time.Time](shiftModel(t, l, nil, "role"), l)

	// 06:30Z-07:30Z is 01:30-02:30 EST, after clocks fell back at 06:00Z.
	ok, err := gs.AddRow(model.Row{
		"role": "Cleaner",
		"from": time.Date(2025, 11, 2, 6, 30, 0, 0, time.UTC),
		"to":   time.Date(2025, 11, 2, 7, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, gs.Rows())

	s, found := gs.Group(NewGroupKey("Cleaner"))
	require.True(t, found)
	requireDecimal(t, 30, s.Get(90).Get("minutes"))
	requireDecimal(t, 30, s.Get(120).Get("minutes"))
	require.Equal(t, int64(1), s.Get(90).Get("count"))
	require.Equal(t, int64(1), s.Get(120).Get("count"))
	require.Equal(t, int64(0), s.Get(60).Get("count"))
}

// stalledLogic never advances past the pointer.
type stalledLogic struct {
	*logic.Time
}

func (stalledLogic) AbsoluteBucketEnd(t time.Time) time.Time { return t }

func TestGroupStorage_FailedWalkLeavesNoGroup(t *testing.T) {
	l := stalledLogic{minutes(t, 30)}
	gs := NewGroupStorage[time.Time](shiftModel(t, l.Time, nil, "role"), l)

	ok, err := gs.AddRow(model.Row{"role": "Cleaner", "from": day(11, 8, 0), "to": day(11, 9, 0)})
	require.Error(t, err)
	require.False(t, ok)

	require.Empty(t, gs.Groups())
	require.Zero(t, gs.Rows())
	require.NotNil(t, gs.Ungrouped())
	require.False(t, gs.Model().Sealed())
	_, found := gs.Group(NewGroupKey("Cleaner"))
	require.False(t, found)
}

func TestGroupStorage_Reset(t *testing.T) {
	l := minutes(t, 30)
	gs := NewGroupStorage[time.Time](shiftModel(t, l, nil, "status"), l)

	ok, err := gs.AddRow(model.Row{"status": "Planned", "from": day(11, 0, 0), "to": day(11, 1, 0)})
	require.NoError(t, err)
	require.True(t, ok)

	gs.Reset()
	require.Equal(t, 0, gs.Rows())
	require.Empty(t, gs.Groups())
	require.NotNil(t, gs.Ungrouped())
	require.True(t, gs.Model().Sealed())
	require.Len(t, gs.Records(), 48)
}

func TestGroupKey(t *testing.T) {
	require.True(t, NewGroupKey(1, "a").Equal(NewGroupKey(1.0, "a")))
	require.True(t, NewGroupKey(decimal.NewFromInt(2)).Equal(NewGroupKey(int64(2))))
	require.False(t, NewGroupKey("1").Equal(NewGroupKey(1)))
	require.False(t, NewGroupKey("a", "b").Equal(NewGroupKey("b", "a")))
	require.False(t, NewGroupKey("a,b").Equal(NewGroupKey("a", "b")))
	require.False(t, NewGroupKey(nil).Equal(NewGroupKey()))
	require.True(t, NewGroupKey().Empty())
	require.Equal(t, "Planned|<nil>", NewGroupKey("Planned", nil).String())

	k := NewGroupKey("x")
	vals := k.Values()
	vals[0] = "y"
	require.Equal(t, []any{"x"}, k.Values())
}

func TestBucketStorage_CalendarDaysAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	l, err := logic.NewDayOfWeek(1, berlin)
	require.NoError(t, err)
	s := NewBucketStorage[time.Time](shiftModel(t, l, nil), l)

	// 2025-03-30 is a 23h Sunday and 2025-10-26 a 25h one.
	for _, row := range []model.Row{
		{"from": time.Date(2025, 3, 30, 0, 0, 0, 0, berlin), "to": time.Date(2025, 3, 31, 0, 0, 0, 0, berlin)},
		{"from": time.Date(2025, 10, 25, 0, 0, 0, 0, berlin), "to": time.Date(2025, 10, 27, 0, 0, 0, 0, berlin)},
	} {
		ok, err := s.AddRow(row)
		require.NoError(t, err)
		require.True(t, ok)
	}

	requireDecimal(t, 2, s.Get(7).Get("minutes"))
	requireDecimal(t, 1, s.Get(6).Get("minutes"))
	require.Equal(t, int64(2), s.Get(7).Get("count"))
	require.Equal(t, int64(0), s.Get(1).Get("count"))
}
