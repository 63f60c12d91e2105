package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	rerr "github.com/aevon-lab/raster/internal/core/errors"
)

const shiftsModel = `
name: shifts
start: from
end: to
values:
  - name: count
    function: count
`

func setup(t *testing.T, cfgYAML string, models map[string]string) string {
	t.Helper()
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	require.NoError(t, os.MkdirAll(modelsDir, 0o755))
	for name, content := range models {
		require.NoError(t, os.WriteFile(filepath.Join(modelsDir, name), []byte(content), 0o644))
	}

	t.Setenv("RASTER_MODELS__DIR", modelsDir)

	cfgPath := filepath.Join(root, "raster.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("name: test\n"+cfgYAML), 0o644))
	return cfgPath
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(setup(t, "", map[string]string{"shifts.yaml": shiftsModel}))
	require.NoError(t, err)

	require.Equal(t, "minute_of_day", cfg.Raster.Logic)
	require.False(t, cfg.Raster.Cyclic())
	require.Equal(t, "text", cfg.Log.Format)
	require.Len(t, cfg.Definitions, 1)
	require.Equal(t, "shifts", cfg.Definitions[0].Name)

	l, err := cfg.Raster.TimeLogic()
	require.NoError(t, err)
	require.Equal(t, 24, l.Granularity().Count())
	require.Equal(t, time.UTC, l.Location())

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, level)

	tag, err := cfg.Raster.Tag()
	require.NoError(t, err)
	require.Equal(t, language.English, tag)
}

func TestLoad_FileValues(t *testing.T) {
	cfgPath := setup(t, `
raster:
  logic: day_of_week
  bucket_size: 1d
  location: Europe/Berlin
  locale: de-DE
models:
  require: [shifts]
log:
  level: debug
  format: json
`, map[string]string{"shifts.yaml": shiftsModel})

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	l, err := cfg.Raster.TimeLogic()
	require.NoError(t, err)
	require.Equal(t, 7, l.Granularity().Count())
	require.Equal(t, "Europe/Berlin", l.Location().String())
	require.Equal(t, []string{"shifts"}, cfg.Models.Require)
	require.Equal(t, "json", cfg.Log.Format)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	cfgPath := setup(t, "raster:\n  bucket_size: 30m\n", map[string]string{"shifts.yaml": shiftsModel})
	t.Setenv("RASTER_RASTER__BUCKET_SIZE", "2h")
	t.Setenv("RASTER_LOG__LEVEL", "warn")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	size, err := cfg.Raster.Size()
	require.NoError(t, err)
	require.Equal(t, 120, size)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Cyclic(t *testing.T) {
	cfg, err := Load(setup(t, `
raster:
  logic: cyclic
  bucket_size: 5
  min: 10
  max: 29
`, map[string]string{"shifts.yaml": shiftsModel}))
	require.NoError(t, err)
	require.True(t, cfg.Raster.Cyclic())

	l, err := cfg.Raster.CyclicLogic()
	require.NoError(t, err)
	require.Equal(t, 4, l.Granularity().Count())
	require.Equal(t, 10, l.Granularity().Min())
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name   string
		cfg    string
		models map[string]string
		want   string
		is     error
	}{
		{
			name:   "unknown logic",
			cfg:    "raster:\n  logic: month_of_year\n",
			models: map[string]string{"shifts.yaml": shiftsModel},
			want:   "unsupported raster.logic",
		},
		{
			name:   "bucket size not a whole unit",
			cfg:    "raster:\n  logic: day_of_week\n  bucket_size: 36h\n",
			models: map[string]string{"shifts.yaml": shiftsModel},
			want:   "invalid raster config",
		},
		{
			name:   "cyclic range inverted",
			cfg:    "raster:\n  logic: cyclic\n  bucket_size: 1\n  min: 5\n  max: 1\n",
			models: map[string]string{"shifts.yaml": shiftsModel},
			is:     rerr.ErrInvalidGranularity,
		},
		{
			name:   "unknown location",
			cfg:    "raster:\n  location: Mars/Olympus_Mons\n",
			models: map[string]string{"shifts.yaml": shiftsModel},
			want:   "invalid raster.location",
		},
		{
			name:   "bad log format",
			cfg:    "log:\n  format: xml\n",
			models: map[string]string{"shifts.yaml": shiftsModel},
			want:   "invalid log.format",
		},
		{
			name:   "bad log level",
			cfg:    "log:\n  level: chatty\n",
			models: map[string]string{"shifts.yaml": shiftsModel},
			want:   "invalid log.level",
		},
		{
			name: "no models",
			want: "no model definitions found",
		},
		{
			name:   "invalid model file",
			models: map[string]string{"bad.yaml": "name: bad\nstart: from\n"},
			want:   "failed to load model definitions",
			is:     rerr.ErrInvalidModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(setup(t, tt.cfg, tt.models))
			require.Error(t, err)
			if tt.want != "" {
				require.Contains(t, err.Error(), tt.want)
			}
			if tt.is != nil {
				require.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}
}

func TestLoad_RequiredModelMissing(t *testing.T) {
	cfgPath := setup(t, "", map[string]string{"shifts.yaml": shiftsModel})
	t.Setenv("RASTER_MODELS__REQUIRE", "cleaners")

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.True(t, errors.Is(err, rerr.ErrUnknownModel), "got %v", err)
}
