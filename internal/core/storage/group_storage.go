package storage

import (
	"log/slog"

	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
)

// Group is one partition of a model's buckets.
type Group[T any] struct {
	Key     GroupKey
	Storage *BucketStorage[T]
}

// GroupStorage partitions a model's buckets by group key. Until the first
// row is accepted it holds an ungrouped placeholder so that the layout can
// be inspected before any data arrives.
type GroupStorage[T any] struct {
	model *model.Model[T]
	logic logic.Logic[T]

	ungrouped *BucketStorage[T]
	groups    map[string]*BucketStorage[T]
	order     []GroupKey
	rows      int
}

// NewGroupStorage materializes the bucket layout of m.
func NewGroupStorage[T any](m *model.Model[T], l logic.Logic[T]) *GroupStorage[T] {
	return &GroupStorage[T]{
		model:     m,
		logic:     l,
		ungrouped: NewBucketStorage(m, l),
		groups:    make(map[string]*BucketStorage[T]),
	}
}

// Model returns the schema the storage was built from.
func (gs *GroupStorage[T]) Model() *model.Model[T] { return gs.model }

// AddEntry extends the model. GROUP entries are accepted until the first
// row is; VALUE entries are rejected because the layout already exists.
func (gs *GroupStorage[T]) AddEntry(e *model.Entry[T]) error {
	return gs.model.AddEntry(e)
}

// KeyOf computes the group key of row. An absent row has the empty key.
func (gs *GroupStorage[T]) KeyOf(row model.ModelData) (GroupKey, error) {
	if row == nil {
		return GroupKey{}, nil
	}
	var start, end T
	var err error
	if raw := gs.model.Start().EvaluateRow(row); raw != nil {
		if start, err = gs.logic.Coerce(raw); err != nil {
			return GroupKey{}, err
		}
	}
	if raw := gs.model.End().EvaluateRow(row); raw != nil {
		if end, err = gs.logic.Coerce(raw); err != nil {
			return GroupKey{}, err
		}
	}
	return gs.keyFor(row, start, end), nil
}

// keyFor evaluates the GROUP entries for row. A DataInvariant entry sees the
// row's own interval, and the resulting value is what every bucket of the
// group stores.
func (gs *GroupStorage[T]) keyFor(row model.ModelData, start, end T) GroupKey {
	groups := gs.model.Groups()
	values := make([]any, len(groups))
	for i, e := range groups {
		switch e.Capability() {
		case model.Invariant:
			values[i] = e.Evaluate()
		case model.DataInvariant:
			values[i] = e.EvaluateInterval(start, end)
		default:
			values[i] = e.EvaluateRow(row)
		}
	}
	return NewGroupKey(values...)
}

// AddRow routes row to the storage of its group, creating the group on
// first sight. Rows the model does not admit create no group.
func (gs *GroupStorage[T]) AddRow(row model.ModelData) (bool, error) {
	start, end, ok, err := gs.model.Admit(row, gs.logic)
	if err != nil || !ok {
		return false, err
	}

	key := gs.keyFor(row, start, end)
	s, exists := gs.groups[key.ID()]
	if !exists {
		s = gs.create(key, row)
	}
	if err := s.add(row, start, end); err != nil {
		return false, err
	}
	if !exists {
		gs.groups[key.ID()] = s
		gs.order = append(gs.order, key)
		slog.Debug("created group", "model", gs.model.Name(), "group", key.String(), "buckets", len(s.buckets))
	}

	if gs.ungrouped != nil {
		gs.ungrouped = nil
		gs.model.Seal()
		slog.Debug("model sealed by first accepted row", "model", gs.model.Name())
	}
	gs.rows++
	return true, nil
}

// create initializes the buckets of a new group and copies the group values
// and every row-derived VALUE into all of them. The group is registered by
// AddRow once the first row was folded in.
func (gs *GroupStorage[T]) create(key GroupKey, row model.ModelData) *BucketStorage[T] {
	s := NewBucketStorage(gs.model, gs.logic)

	groupValues := make(map[string]any)
	for i, e := range gs.model.Groups() {
		groupValues[e.Name()] = key.values[i]
		s.SetAll(e.Name(), key.values[i])
	}

	view := model.Overlay(row, groupValues)
	for _, e := range gs.model.Values() {
		if e.Is(model.IntervalInvariant) || e.Is(model.IntervalAndGroupInvariant) {
			s.SetAll(e.Name(), e.EvaluateRow(view))
		}
	}

	return s
}

// Groups lists the groups in creation order.
func (gs *GroupStorage[T]) Groups() []Group[T] {
	out := make([]Group[T], 0, len(gs.order))
	for _, k := range gs.order {
		out = append(out, Group[T]{Key: k, Storage: gs.groups[k.ID()]})
	}
	return out
}

// Group returns the storage of key.
func (gs *GroupStorage[T]) Group(key GroupKey) (*BucketStorage[T], bool) {
	s, ok := gs.groups[key.ID()]
	return s, ok
}

// Ungrouped returns the placeholder storage, or nil once a row was accepted.
func (gs *GroupStorage[T]) Ungrouped() *BucketStorage[T] { return gs.ungrouped }

// Rows is the number of accepted rows across all groups.
func (gs *GroupStorage[T]) Rows() int { return gs.rows }

// Records snapshots every bucket of every group. Before the first accepted
// row this is the ungrouped placeholder.
func (gs *GroupStorage[T]) Records() []Record[T] {
	if gs.ungrouped != nil {
		return gs.ungrouped.Records(GroupKey{})
	}
	var out []Record[T]
	for _, g := range gs.Groups() {
		out = append(out, g.Storage.Records(g.Key)...)
	}
	return out
}

// Reset drops every group and restores the ungrouped placeholder. The model
// stays sealed.
func (gs *GroupStorage[T]) Reset() {
	gs.groups = make(map[string]*BucketStorage[T])
	gs.order = nil
	gs.rows = 0
	gs.ungrouped = NewBucketStorage(gs.model, gs.logic)
}
