package logic

import (
	"fmt"

	"github.com/aevon-lab/raster/internal/core/bucket"
	"github.com/aevon-lab/raster/internal/core/coerce"
	rerr "github.com/aevon-lab/raster/internal/core/errors"
)

// NameCyclic is the configuration name of the integer logic.
const NameCyclic = "cyclic"

// Cyclic is the identity logic over int64: a value is its own coordinate.
// Absolute values are plain integers, so intervals may span any number of
// cycles.
type Cyclic struct {
	g bucket.Granularity
}

var _ Logic[int64] = Cyclic{}

// NewCyclic returns an integer logic over g.
func NewCyclic(g bucket.Granularity) Cyclic {
	return Cyclic{g: g}
}

func (c Cyclic) Granularity() bucket.Granularity { return c.g }

func (c Cyclic) RelativeValue(t int64) int { return int(t) }

func (c Cyclic) Bucket(t int64) bucket.Bucket { return c.g.Of(int(t)) }

func (c Cyclic) BucketStart(b bucket.Bucket) int64 { return int64(b) }

func (c Cyclic) BucketEnd(b bucket.Bucket) int64 {
	return int64(b) + int64(c.g.Width(b))
}

func (c Cyclic) AbsoluteBucketStart(t int64) int64 {
	return t - int64(c.g.Offset(int(t))%c.g.Size())
}

func (c Cyclic) AbsoluteBucketEnd(t int64) int64 {
	return c.AbsoluteBucketStart(t) + int64(c.g.Width(c.Bucket(t)))
}

func (c Cyclic) AdvanceByBucketSize(t int64) int64 { return t + int64(c.g.Size()) }

func (c Cyclic) Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (c Cyclic) Difference(a, b int64) int64 { return a - b }

// Coerce accepts any integral number, including numeric strings.
func (c Cyclic) Coerce(v any) (int64, error) {
	n, ok := coerce.Int64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %v (%T) is not an integer", rerr.ErrTypeMismatch, v, v)
	}
	return n, nil
}

func (c Cyclic) String() string { return NameCyclic + c.g.String() }
