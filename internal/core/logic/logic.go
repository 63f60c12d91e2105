// Package logic maps concrete value types onto a bucket axis.
//
// A Logic projects values onto the coordinates of its granularity and back.
// Two kinds of values appear: relative values are wrapped into a single
// cycle of the axis, absolute values are unbounded domain values. Intervals
// are walked in absolute values so that the walk keeps advancing across a
// wraparound boundary.
package logic

import "github.com/aevon-lab/raster/internal/core/bucket"

// Logic maps values of type T to and from bucket coordinates. All methods
// are pure.
type Logic[T any] interface {
	// Granularity is the axis the logic projects onto.
	Granularity() bucket.Granularity

	// RelativeValue projects t onto the coordinate axis, before wraparound.
	RelativeValue(t T) int

	// Bucket returns the canonical bucket containing t.
	Bucket(t T) bucket.Bucket

	// BucketStart and BucketEnd return representative values for the start
	// (inclusive) and end (exclusive) of a canonical bucket.
	BucketStart(b bucket.Bucket) T
	BucketEnd(b bucket.Bucket) T

	// AbsoluteBucketStart and AbsoluteBucketEnd return the unwrapped start
	// and exclusive end of the bucket containing t. A bucket truncated by
	// the end of the axis ends at the cycle boundary.
	AbsoluteBucketStart(t T) T
	AbsoluteBucketEnd(t T) T

	// AdvanceByBucketSize adds exactly one bucket width to t.
	AdvanceByBucketSize(t T) T

	// Compare returns -1, 0 or 1.
	Compare(a, b T) int

	// Difference returns a-b in the logic's natural unit.
	Difference(a, b T) int64

	// Coerce maps a loosely typed row value onto T. It returns an error
	// wrapping errors.ErrTypeMismatch when v has no reading as T.
	Coerce(v any) (T, error)
}
