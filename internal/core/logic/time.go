package logic

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/aevon-lab/raster/internal/core/bucket"
	"github.com/aevon-lab/raster/internal/core/coerce"
	rerr "github.com/aevon-lab/raster/internal/core/errors"
)

// Names of the time-based logics, as used in configuration.
const (
	NameMinuteOfDay = "minute_of_day"
	NameDayOfWeek   = "day_of_week"
	NameWeekOfYear  = "week_of_year"
)

const day = 24 * time.Hour

// reference returns the Monday starting ISO week 1 of 2026, a year with 53
// ISO weeks. Canonical buckets are rendered relative to it.
func reference(loc *time.Location) time.Time {
	return time.Date(2025, time.December, 29, 0, 0, 0, 0, loc)
}

// Time projects time.Time values onto a calendar axis.
type Time struct {
	name string
	g    bucket.Granularity
	loc  *time.Location

	// unit is the duration of one axis coordinate; diffUnit the unit of
	// Difference.
	unit     time.Duration
	diffUnit time.Duration

	relative  func(t time.Time) int
	unitStart func(t time.Time) time.Time
	add       func(t time.Time, n int) time.Time
}

var _ Logic[time.Time] = (*Time)(nil)

// NewMinuteOfDay returns a logic over minutes since local midnight, axis
// [0, 1439].
func NewMinuteOfDay(size int, loc *time.Location) (*Time, error) {
	g, err := bucket.NewGranularity(0, 24*60-1, size)
	if err != nil {
		return nil, err
	}
	return &Time{
		name:     NameMinuteOfDay,
		g:        g,
		loc:      orUTC(loc),
		unit:     time.Minute,
		diffUnit: time.Minute,
		relative: func(t time.Time) int {
			return t.Hour()*60 + t.Minute()
		},
		unitStart: func(t time.Time) time.Time {
			return t.Add(-time.Duration(t.Second())*time.Second - time.Duration(t.Nanosecond()))
		},
		add: func(t time.Time, n int) time.Time {
			return t.Add(time.Duration(n) * time.Minute)
		},
	}, nil
}

// NewDayOfWeek returns a logic over ISO weekdays, Monday=1 to Sunday=7.
func NewDayOfWeek(size int, loc *time.Location) (*Time, error) {
	g, err := bucket.NewGranularity(1, 7, size)
	if err != nil {
		return nil, err
	}
	return &Time{
		name:      NameDayOfWeek,
		g:         g,
		loc:       orUTC(loc),
		unit:      day,
		diffUnit:  day,
		relative:  isoWeekday,
		unitStart: midnight,
		add: func(t time.Time, n int) time.Time {
			return t.AddDate(0, 0, n)
		},
	}, nil
}

// NewWeekOfYear returns a logic over ISO week numbers, axis [1, 53].
// Difference is measured in days so partial weeks are not lost.
func NewWeekOfYear(size int, loc *time.Location) (*Time, error) {
	g, err := bucket.NewGranularity(1, 53, size)
	if err != nil {
		return nil, err
	}
	return &Time{
		name:     NameWeekOfYear,
		g:        g,
		loc:      orUTC(loc),
		unit:     7 * day,
		diffUnit: day,
		relative: func(t time.Time) int {
			_, w := t.ISOWeek()
			return w
		},
		unitStart: func(t time.Time) time.Time {
			m := midnight(t)
			return m.AddDate(0, 0, 1-isoWeekday(m))
		},
		add: func(t time.Time, n int) time.Time {
			return t.AddDate(0, 0, 7*n)
		},
	}, nil
}

// NewTime builds one of the time logics by name.
func NewTime(name string, size int, loc *time.Location) (*Time, error) {
	switch name {
	case NameMinuteOfDay:
		return NewMinuteOfDay(size, loc)
	case NameDayOfWeek:
		return NewDayOfWeek(size, loc)
	case NameWeekOfYear:
		return NewWeekOfYear(size, loc)
	default:
		return nil, fmt.Errorf("unknown time logic %q", name)
	}
}

// TimeUnit returns the duration of one axis coordinate of the named logic,
// or zero for an unknown name.
func TimeUnit(name string) time.Duration {
	switch name {
	case NameMinuteOfDay:
		return time.Minute
	case NameDayOfWeek:
		return day
	case NameWeekOfYear:
		return 7 * day
	default:
		return 0
	}
}

// Unit returns the duration of one coordinate on the axis.
func (l *Time) Unit() time.Duration { return l.unit }

// Location is the zone relative values are computed in.
func (l *Time) Location() *time.Location { return l.loc }

func (l *Time) String() string { return l.name + l.g.String() }

func (l *Time) Granularity() bucket.Granularity { return l.g }

func (l *Time) RelativeValue(t time.Time) int {
	return l.relative(t.In(l.loc))
}

func (l *Time) Bucket(t time.Time) bucket.Bucket {
	return l.g.Of(l.RelativeValue(t))
}

func (l *Time) BucketStart(b bucket.Bucket) time.Time {
	return l.add(reference(l.loc), int(b)-l.g.Min())
}

func (l *Time) BucketEnd(b bucket.Bucket) time.Time {
	return l.add(l.BucketStart(b), l.g.Width(b))
}

func (l *Time) AbsoluteBucketStart(t time.Time) time.Time {
	t = t.In(l.loc)
	within := l.g.Offset(l.relative(t)) % l.g.Size()
	return l.add(l.unitStart(t), -within)
}

func (l *Time) AbsoluteBucketEnd(t time.Time) time.Time {
	return l.add(l.AbsoluteBucketStart(t), l.g.Width(l.Bucket(t)))
}

func (l *Time) AdvanceByBucketSize(t time.Time) time.Time {
	return l.add(t.In(l.loc), l.g.Size())
}

func (l *Time) Compare(a, b time.Time) int {
	return a.Compare(b)
}

// Difference counts elapsed minutes on minute_of_day. Day and week axes
// count calendar days, so a 23h or 25h day across a DST change is one day.
func (l *Time) Difference(a, b time.Time) int64 {
	if l.diffUnit >= day {
		return int64(wall(a.In(l.loc)).Sub(wall(b.In(l.loc))) / l.diffUnit)
	}
	return int64(a.Sub(b) / l.diffUnit)
}

// Coerce accepts time.Time values, date strings in any layout dateparse
// recognizes, and integral unix seconds.
func (l *Time) Coerce(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val.In(l.loc), nil
	case *time.Time:
		if val != nil {
			return val.In(l.loc), nil
		}
	case string:
		t, err := dateparse.ParseIn(val, l.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q is not a time: %v", rerr.ErrTypeMismatch, val, err)
		}
		return t.In(l.loc), nil
	default:
		if sec, ok := coerce.Int64(v); ok {
			return time.Unix(sec, 0).In(l.loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %T is not a time", rerr.ErrTypeMismatch, v)
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// wall reads the local clock of t as a UTC instant.
func wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
