// Package raster holds several named models over one bucket axis and fans
// every incoming row out to all of them.
package raster

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	rerr "github.com/aevon-lab/raster/internal/core/errors"
	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
	"github.com/aevon-lab/raster/internal/core/storage"
)

// Config is shared by every model of a raster.
type Config[T any] struct {
	Logic  logic.Logic[T]
	Locale language.Tag
}

// Record is a bucket snapshot.
type Record[T any] = storage.Record[T]

// Raster maps model names to their group storages. It is not safe for
// concurrent use.
type Raster[T any] struct {
	id     string
	cfg    Config[T]
	models map[string]*storage.GroupStorage[T]
	order  []string
}

// New returns an empty raster.
func New[T any](cfg Config[T]) *Raster[T] {
	return &Raster[T]{
		id:     uuid.NewString(),
		cfg:    cfg,
		models: make(map[string]*storage.GroupStorage[T]),
	}
}

// ID identifies the raster in logs.
func (r *Raster[T]) ID() string { return r.id }

// Config returns the shared configuration.
func (r *Raster[T]) Config() Config[T] { return r.cfg }

// AddModel registers m and materializes its bucket layout.
func (r *Raster[T]) AddModel(m *model.Model[T]) error {
	if _, exists := r.models[m.Name()]; exists {
		return fmt.Errorf("%w: %q", rerr.ErrDuplicateModel, m.Name())
	}
	r.models[m.Name()] = storage.NewGroupStorage(m, r.cfg.Logic)
	r.order = append(r.order, m.Name())

	slog.Info("Registered model",
		"raster_id", r.id,
		"model", m.Name(),
		"entries", len(m.Entries()),
		"buckets", r.cfg.Logic.Granularity().Count(),
	)
	return nil
}

// AddEntry adds an entry to a registered model.
func (r *Raster[T]) AddEntry(modelName string, e *model.Entry[T]) error {
	gs, err := r.storage(modelName)
	if err != nil {
		return err
	}
	return gs.AddEntry(e)
}

// AddRow offers row to every model in registration order and returns how
// many accepted it. A row may be accepted by some models and rejected by
// others. The first error aborts the fan-out.
func (r *Raster[T]) AddRow(row model.ModelData) (int, error) {
	accepted := 0
	for _, name := range r.order {
		ok, err := r.models[name].AddRow(row)
		if err != nil {
			return accepted, fmt.Errorf("raster %s: %w", r.id, err)
		}
		if ok {
			accepted++
		}
	}
	return accepted, nil
}

// Models lists the model names in registration order.
func (r *Raster[T]) Models() []string {
	return append([]string(nil), r.order...)
}

// Storage returns the group storage of a model.
func (r *Raster[T]) Storage(modelName string) (*storage.GroupStorage[T], error) {
	return r.storage(modelName)
}

// Rows is the number of rows a model accepted.
func (r *Raster[T]) Rows(modelName string) (int, error) {
	gs, err := r.storage(modelName)
	if err != nil {
		return 0, err
	}
	return gs.Rows(), nil
}

// Records snapshots every bucket of every group of one model.
func (r *Raster[T]) Records(modelName string) ([]Record[T], error) {
	gs, err := r.storage(modelName)
	if err != nil {
		return nil, err
	}
	return gs.Records(), nil
}

// AllRecords snapshots every model in registration order.
func (r *Raster[T]) AllRecords() []Record[T] {
	var out []Record[T]
	for _, name := range r.order {
		out = append(out, r.models[name].Records()...)
	}
	return out
}

// Reset clears the data of every model.
func (r *Raster[T]) Reset() {
	for _, name := range r.order {
		r.models[name].Reset()
	}
	slog.Info("Reset raster", "raster_id", r.id, "models", len(r.order))
}

func (r *Raster[T]) storage(modelName string) (*storage.GroupStorage[T], error) {
	gs, ok := r.models[modelName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", rerr.ErrUnknownModel, modelName)
	}
	return gs, nil
}
