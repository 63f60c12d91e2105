package function

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aevon-lab/raster/internal/core/coerce"
	rerr "github.com/aevon-lab/raster/internal/core/errors"
	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
)

// Names of the built-in functions.
const (
	NameConst       = "const"
	NameValue       = "value"
	NameCount       = "count"
	NameIntervalSum = "interval_sum"
	NameSum         = OpSum
	NameMin         = OpMin
	NameMax         = OpMax
	NameAvg         = "avg"
	NameQuantile    = "quantile"
	NameGroup       = "group"
	NameBucketLabel = "bucket_label"
)

// Env is what a factory may bind a function to.
type Env[T any] struct {
	Logic  logic.Logic[T]
	Locale language.Tag
}

// Factory builds a function from declared parameters.
type Factory[T any] func(env Env[T], p model.Params) (model.Function, error)

// Registry maps function names to factories. To add a function: implement
// model.Function plus its strategy interface and register a factory.
type Registry[T any] struct {
	factories map[string]Factory[T]
}

// NewRegistry returns a registry holding the built-in functions.
func NewRegistry[T any]() *Registry[T] {
	r := &Registry[T]{factories: make(map[string]Factory[T])}

	r.Register(NameConst, func(_ Env[T], p model.Params) (model.Function, error) {
		return Const{Value: paramString(p, "value")}, nil
	})
	r.Register(NameValue, func(_ Env[T], p model.Params) (model.Function, error) {
		field, err := requireString(p, "field")
		if err != nil {
			return nil, err
		}
		return Value{Field: field}, nil
	})
	r.Register(NameCount, func(_ Env[T], p model.Params) (model.Function, error) {
		return Count[T]{Field: paramString(p, "field")}, nil
	})
	r.Register(NameIntervalSum, func(env Env[T], _ model.Params) (model.Function, error) {
		return IntervalSum[T]{Logic: env.Logic}, nil
	})
	for _, op := range []string{OpSum, OpMin, OpMax} {
		r.Register(op, func(_ Env[T], p model.Params) (model.Function, error) {
			field, err := requireString(p, "field")
			if err != nil {
				return nil, err
			}
			fold, err := NewFold[T](field, op)
			if err != nil {
				return nil, err
			}
			return fold, nil
		})
	}
	r.Register(NameAvg, func(_ Env[T], p model.Params) (model.Function, error) {
		field, err := requireString(p, "field")
		if err != nil {
			return nil, err
		}
		return Avg[T]{Field: field}, nil
	})
	r.Register(NameQuantile, func(_ Env[T], p model.Params) (model.Function, error) {
		field, err := requireString(p, "field")
		if err != nil {
			return nil, err
		}
		q := paramFloat(p, "q", 0.5)
		if q < 0 || q > 1 {
			return nil, fmt.Errorf("quantile q must be within [0, 1], got %v", q)
		}
		return Quantile[T]{Field: field, Q: q, Accuracy: paramFloat(p, "accuracy", DefaultAccuracy)}, nil
	})
	r.Register(NameGroup, func(env Env[T], p model.Params) (model.Function, error) {
		template, err := requireString(p, "template")
		if err != nil {
			return nil, err
		}
		return NewGroup(template, env.Locale), nil
	})
	r.Register(NameBucketLabel, func(env Env[T], p model.Params) (model.Function, error) {
		label := BucketLabel[T]{
			Logic:   env.Logic,
			Format:  paramString(p, "format"),
			Printer: message.NewPrinter(env.Locale),
		}
		if layout := paramString(p, "layout"); layout != "" {
			label.Render = TimeLayout[T](layout)
		}
		return label, nil
	})
	return r
}

// Register adds or replaces a factory.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.factories[name] = f
}

// Build creates the named function.
func (r *Registry[T]) Build(name string, env Env[T], p model.Params) (model.Function, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", rerr.ErrUnknownFunction, name)
	}
	fn, err := f(env, p)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", name, err)
	}
	return fn, nil
}

// Names lists the registered function names, sorted.
func (r *Registry[T]) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func paramString(p model.Params, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func requireString(p model.Params, key string) (string, error) {
	s := paramString(p, key)
	if s == "" {
		return "", fmt.Errorf("parameter %q is required", key)
	}
	return s, nil
}

func paramFloat(p model.Params, key string, fallback float64) float64 {
	d, ok := coerce.Decimal(p[key])
	if !ok {
		return fallback
	}
	f, _ := d.Float64()
	return f
}

func errUnknownOperator(op string) error {
	return fmt.Errorf("%w: fold operator %q", rerr.ErrUnknownFunction, op)
}
