package storage

import "github.com/aevon-lab/raster/internal/core/bucket"

// Record is an immutable snapshot of one bucket of one group.
type Record[T any] struct {
	Model  string
	Group  GroupKey
	Bucket bucket.Bucket
	Start  T
	End    T
	Values map[string]any
}

// Get returns the named value.
func (r Record[T]) Get(field string) any {
	return r.Values[field]
}
