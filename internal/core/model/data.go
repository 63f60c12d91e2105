package model

import "maps"

// ModelData is one input record. A nil ModelData is an absent row.
type ModelData interface {
	// Get returns the named value and whether it is present. A present nil
	// value counts as absent.
	Get(name string) (any, bool)
}

// Row is a map-backed ModelData.
type Row map[string]any

func (r Row) Get(name string) (any, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Overlay returns a ModelData that resolves names in values first and falls
// back to row.
func Overlay(row ModelData, values map[string]any) ModelData {
	return overlay{row: row, values: values}
}

type overlay struct {
	row    ModelData
	values map[string]any
}

func (o overlay) Get(name string) (any, bool) {
	if v, ok := o.values[name]; ok && v != nil {
		return v, true
	}
	if o.row == nil {
		return nil, false
	}
	return o.row.Get(name)
}

// Data holds the fields of one bucket (or one bucket of a group). Values are
// visible in snapshots; state is scratch space owned by aggregate functions
// and never exported.
type Data struct {
	values map[string]any
	state  map[string]any
}

// NewData returns an empty bucket record.
func NewData() *Data {
	return &Data{values: make(map[string]any)}
}

// Get returns the value of field, or nil.
func (d *Data) Get(field string) any {
	return d.values[field]
}

// Set replaces the value of field.
func (d *Data) Set(field string, v any) {
	d.values[field] = v
}

// State returns the auxiliary state stored for field, or nil.
func (d *Data) State(field string) any {
	return d.state[field]
}

// SetState stores auxiliary state for field.
func (d *Data) SetState(field string, v any) {
	if d.state == nil {
		d.state = make(map[string]any)
	}
	d.state[field] = v
}

// Values returns a copy of the visible fields.
func (d *Data) Values() map[string]any {
	return maps.Clone(d.values)
}

// Len is the number of visible fields.
func (d *Data) Len() int {
	return len(d.values)
}
