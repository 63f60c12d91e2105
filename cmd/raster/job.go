package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	corecfg "github.com/aevon-lab/raster/internal/core/config"
	"github.com/aevon-lab/raster/internal/core/function"
	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/core/model"
	"github.com/aevon-lab/raster/internal/definition"
	"github.com/aevon-lab/raster/internal/raster"
)

const maxLineSize = 1 << 20

// Job ingests JSON-lines rows into a raster built from the config and
// writes every record as one JSON line.
type Job struct {
	Config *corecfg.Config
	In     io.Reader
	Out    io.Writer
	Rollup string
}

// Stats summarizes one run.
type Stats struct {
	Lines    int
	Accepted int
	Records  int
}

type recordLine struct {
	Model  string         `json:"model"`
	Group  []any          `json:"group,omitempty"`
	Bucket int            `json:"bucket"`
	Start  any            `json:"start"`
	End    any            `json:"end"`
	Values map[string]any `json:"values"`
}

type totalLine struct {
	Model  string          `json:"model"`
	Rollup string          `json:"rollup"`
	Bucket int             `json:"bucket"`
	Start  any             `json:"start"`
	End    any             `json:"end"`
	Value  decimal.Decimal `json:"value"`
	Groups int             `json:"groups"`
}

type grandTotalLine struct {
	Model   string          `json:"model"`
	Rollup  string          `json:"rollup"`
	Total   decimal.Decimal `json:"total"`
	Buckets int             `json:"buckets"`
}

// Run picks the axis type from the config and executes the job on it.
func (j Job) Run(ctx context.Context) (Stats, error) {
	tag, err := j.Config.Raster.Tag()
	if err != nil {
		return Stats{}, err
	}
	if j.Config.Raster.Cyclic() {
		l, err := j.Config.Raster.CyclicLogic()
		if err != nil {
			return Stats{}, err
		}
		return execute[int64](ctx, j, l, tag)
	}
	l, err := j.Config.Raster.TimeLogic()
	if err != nil {
		return Stats{}, err
	}
	return execute[time.Time](ctx, j, l, tag)
}

func execute[T any](ctx context.Context, j Job, l logic.Logic[T], tag language.Tag) (Stats, error) {
	var stats Stats

	r := raster.New(raster.Config[T]{Logic: l, Locale: tag})
	compiler := definition.NewCompiler(function.Env[T]{Logic: l, Locale: tag})
	if err := compiler.Install(r, j.Config.Definitions); err != nil {
		return stats, fmt.Errorf("failed to install models: %w", err)
	}

	scanner := bufio.NewScanner(j.In)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Lines++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row model.Row
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return stats, fmt.Errorf("line %d: %w", stats.Lines, err)
		}
		n, err := r.AddRow(row)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", stats.Lines, err)
		}
		if n == 0 {
			slog.Debug("Row rejected by every model", "line", stats.Lines)
		}
		stats.Accepted += n
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading input: %w", err)
	}

	enc := json.NewEncoder(j.Out)
	for _, rec := range r.AllRecords() {
		if err := enc.Encode(recordLine{
			Model:  rec.Model,
			Group:  rec.Group.Values(),
			Bucket: int(rec.Bucket),
			Start:  rec.Start,
			End:    rec.End,
			Values: rec.Values,
		}); err != nil {
			return stats, fmt.Errorf("writing record: %w", err)
		}
		stats.Records++
	}

	if j.Rollup != "" {
		for _, name := range r.Models() {
			totals, err := r.Rollup(name, j.Rollup)
			if err != nil {
				return stats, err
			}
			for _, t := range totals {
				if err := enc.Encode(totalLine{
					Model:  name,
					Rollup: j.Rollup,
					Bucket: int(t.Bucket),
					Start:  t.Start,
					End:    t.End,
					Value:  t.Value,
					Groups: t.Groups,
				}); err != nil {
					return stats, fmt.Errorf("writing rollup: %w", err)
				}
			}

			total, buckets, err := r.GrandTotal(name, j.Rollup)
			if err != nil {
				return stats, err
			}
			if err := enc.Encode(grandTotalLine{Model: name, Rollup: j.Rollup, Total: total, Buckets: buckets}); err != nil {
				return stats, fmt.Errorf("writing rollup: %w", err)
			}
		}
	}

	slog.Info("Ingested rows",
		"raster_id", r.ID(),
		"lines", stats.Lines,
		"accepted", stats.Accepted,
		"records", stats.Records,
	)
	return stats, nil
}
