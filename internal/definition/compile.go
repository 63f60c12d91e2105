package definition

import (
	"fmt"

	"github.com/aevon-lab/raster/internal/core/condition"
	"github.com/aevon-lab/raster/internal/core/function"
	"github.com/aevon-lab/raster/internal/core/model"
	"github.com/aevon-lab/raster/internal/raster"
)

// Compiler turns definitions into models using a function registry.
type Compiler[T any] struct {
	Registry *function.Registry[T]
	Env      function.Env[T]
}

// NewCompiler returns a compiler over the built-in functions.
func NewCompiler[T any](env function.Env[T]) *Compiler[T] {
	return &Compiler[T]{Registry: function.NewRegistry[T](), Env: env}
}

// Compile builds the model declared by d with all of its entries.
func (c *Compiler[T]) Compile(d Definition) (*model.Model[T], error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	cond, err := condition.Parse(d.Condition)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", d.Name, err)
	}
	start, err := c.entry(d, d.Start, model.IntervalStart)
	if err != nil {
		return nil, err
	}
	end, err := c.entry(d, d.End, model.IntervalEnd)
	if err != nil {
		return nil, err
	}

	m, err := model.NewModel(d.Name, start, end, cond)
	if err != nil {
		return nil, err
	}
	for _, f := range d.Groups {
		if err := c.add(m, d, f, model.Group); err != nil {
			return nil, err
		}
	}
	for _, f := range d.Values {
		if err := c.add(m, d, f, model.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Install compiles every definition and registers it with r.
func (c *Compiler[T]) Install(r *raster.Raster[T], defs []Definition) error {
	for _, d := range defs {
		m, err := c.Compile(d)
		if err != nil {
			return err
		}
		if err := r.AddModel(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler[T]) add(m *model.Model[T], d Definition, f Field, typ model.EntryType) error {
	e, err := c.entry(d, f, typ)
	if err != nil {
		return err
	}
	return m.AddEntry(e)
}

func (c *Compiler[T]) entry(d Definition, f Field, typ model.EntryType) (*model.Entry[T], error) {
	fn, err := c.Registry.Build(f.Function, c.Env, f.Params)
	if err != nil {
		return nil, fmt.Errorf("model %q: entry %q: %w", d.Name, f.Name, err)
	}
	e, err := model.NewEntry[T](f.Name, typ, fn, f.Params)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", d.Name, err)
	}
	return e, nil
}
