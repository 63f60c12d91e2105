// Package function is the library of entry functions: constants, row field
// lookups, group labels, bucket labels, and the aggregates folded into
// buckets as intervals are split.
package function

import (
	"fmt"
	"regexp"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
)

// Const yields a fixed string in every bucket.
type Const struct {
	Value string
}

func (c Const) Capability() model.Capability { return model.Invariant }
func (c Const) Initial() any                 { return c.Value }
func (c Const) Evaluate() any                { return c.Value }

// Value looks up a field of the row. It serves interval bounds and group
// key components.
type Value struct {
	Field string
}

func (v Value) Capability() model.Capability { return model.IntervalAndGroupInvariant }
func (v Value) Initial() any                 { return nil }

func (v Value) EvaluateRow(row model.ModelData) any {
	if row == nil {
		return nil
	}
	val, _ := row.Get(v.Field)
	return val
}

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Group renders a label from a template such as "{status} / {role}".
// Placeholders resolve against the row overlaid with the computed group
// values; values are formatted for the printer's locale and missing ones
// render empty.
type Group struct {
	Template string
	Printer  *message.Printer
}

// NewGroup returns a Group formatting for tag.
func NewGroup(template string, tag language.Tag) Group {
	return Group{Template: template, Printer: message.NewPrinter(tag)}
}

func (g Group) Capability() model.Capability { return model.IntervalInvariant }
func (g Group) Initial() any                 { return "" }

func (g Group) EvaluateRow(row model.ModelData) any {
	p := g.Printer
	if p == nil {
		p = message.NewPrinter(language.Und)
	}
	return placeholder.ReplaceAllStringFunc(g.Template, func(tok string) string {
		if row == nil {
			return ""
		}
		v, ok := row.Get(tok[1 : len(tok)-1])
		if !ok {
			return ""
		}
		return p.Sprint(v)
	})
}

// DefaultLabelFormat joins the rendered bounds of a bucket.
const DefaultLabelFormat = "%s - %s"

// BucketLabel renders the absolute start and end of the bucket containing
// the interval start. Formatter takes precedence; otherwise both bounds are
// rendered with Render and combined with Format.
type BucketLabel[T any] struct {
	Logic     logic.Logic[T]
	Format    string
	Render    func(T) string
	Formatter func(start, end T) string
	Printer   *message.Printer
}

func (b BucketLabel[T]) Capability() model.Capability { return model.DataInvariant }
func (b BucketLabel[T]) Initial() any                 { return "" }

func (b BucketLabel[T]) EvaluateInterval(start, _ T) any {
	from := b.Logic.AbsoluteBucketStart(start)
	to := b.Logic.AbsoluteBucketEnd(start)
	if b.Formatter != nil {
		return b.Formatter(from, to)
	}

	p := b.Printer
	if p == nil {
		p = message.NewPrinter(language.Und)
	}
	render := b.Render
	if render == nil {
		render = func(v T) string { return p.Sprint(v) }
	}
	format := b.Format
	if format == "" {
		format = DefaultLabelFormat
	}
	return p.Sprintf(format, render(from), render(to))
}

// TimeLayout renders time.Time bounds with a time layout. Values of any
// other type fall back to fmt.
func TimeLayout[T any](layout string) func(T) string {
	return func(v T) string {
		if t, ok := any(v).(time.Time); ok {
			return t.Format(layout)
		}
		return fmt.Sprint(v)
	}
}
