package bucket

import (
	"fmt"

	rerr "github.com/aevon-lab/raster/internal/core/errors"
)

// Bucket is the canonical id of a slot on a granularity axis. It always lies
// in [Min, Max] at a multiple of Size from Min. Obtain buckets from
// Granularity.Of rather than converting integers directly.
type Bucket int

// Granularity describes a cyclic coordinate axis [min, max] split into
// buckets of size coordinates. The last bucket is truncated when size does
// not divide the domain.
type Granularity struct {
	min  int
	max  int
	size int
}

// NewGranularity validates and returns a granularity.
func NewGranularity(min, max, size int) (Granularity, error) {
	if min > max {
		return Granularity{}, fmt.Errorf("%w: min %d greater than max %d", rerr.ErrInvalidGranularity, min, max)
	}
	if size < 1 {
		return Granularity{}, fmt.Errorf("%w: bucket size must be >= 1, got %d", rerr.ErrInvalidGranularity, size)
	}
	return Granularity{min: min, max: max, size: size}, nil
}

// MustGranularity is like NewGranularity but panics on invalid input.
// Intended for package-level declarations and tests.
func MustGranularity(min, max, size int) Granularity {
	g, err := NewGranularity(min, max, size)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Granularity) Min() int  { return g.min }
func (g Granularity) Max() int  { return g.max }
func (g Granularity) Size() int { return g.size }

// DomainSize is the length of one full cycle of the axis.
func (g Granularity) DomainSize() int {
	return g.max - g.min + 1
}

// Count is the number of buckets on the axis.
func (g Granularity) Count() int {
	return (g.DomainSize() + g.size - 1) / g.size
}

// Offset returns the position of value within one cycle, in [0, DomainSize).
func (g Granularity) Offset(value int) int {
	d := g.DomainSize()
	return ((value-g.min)%d + d) % d
}

// Of maps any integer onto its canonical bucket. Values congruent modulo the
// domain size always map to the same bucket; the function never fails.
//
// Example with (0, 1439, 30): Of(41) = 30, Of(-31) = 1380, Of(1440) = 0.
func (g Granularity) Of(value int) Bucket {
	offset := g.Offset(value)
	return Bucket(g.min + (offset/g.size)*g.size)
}

// Next returns the bucket following b, wrapping at the end of the axis.
func (g Granularity) Next(b Bucket) Bucket {
	return g.Of(int(b) + g.size)
}

// EndOf returns the last coordinate covered by b (inclusive).
func (g Granularity) EndOf(b Bucket) int {
	return min(int(b)+g.size-1, g.max)
}

// Width is the number of coordinates covered by b. Only the trailing bucket
// of an axis whose size does not divide the domain is narrower than Size.
func (g Granularity) Width(b Bucket) int {
	return g.EndOf(b) - int(b) + 1
}

// Index is the zero-based position of b in ascending bucket order.
func (g Granularity) Index(b Bucket) int {
	return (int(b) - g.min) / g.size
}

// Buckets lists every canonical bucket in ascending order.
func (g Granularity) Buckets() []Bucket {
	out := make([]Bucket, 0, g.Count())
	for i := g.min; i <= g.max; i += g.size {
		out = append(out, Bucket(i))
	}
	return out
}

func (g Granularity) String() string {
	return fmt.Sprintf("[%d..%d]/%d", g.min, g.max, g.size)
}
