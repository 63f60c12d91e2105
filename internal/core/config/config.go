package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/language"

	"github.com/aevon-lab/raster/internal/core/bucket"
	"github.com/aevon-lab/raster/internal/core/logic"
	"github.com/aevon-lab/raster/internal/definition"
)

// Config represents the top-level configuration plus the model definitions
// it points at.
type Config struct {
	Raster RasterConfig `koanf:"raster"`
	Models ModelsConfig `koanf:"models"`
	Log    LogConfig    `koanf:"log"`

	// Definitions is populated by Load after parsing the model files.
	Definitions []definition.Definition `koanf:"-"`
}

// RasterConfig selects the bucket axis shared by all models.
type RasterConfig struct {
	Logic      string `koanf:"logic"`       // minute_of_day | day_of_week | week_of_year | cyclic
	BucketSize string `koanf:"bucket_size"` // axis units ("30") or a duration ("30m", "1d")
	Location   string `koanf:"location"`    // IANA zone for time logics
	Locale     string `koanf:"locale"`      // BCP 47 tag for labels
	Min        int    `koanf:"min"`         // cyclic only
	Max        int    `koanf:"max"`         // cyclic only
}

type ModelsConfig struct {
	Dir     string   `koanf:"dir"`
	Require []string `koanf:"require"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text | json
}

// Cyclic reports whether the raster runs on the integer logic.
func (c RasterConfig) Cyclic() bool { return c.Logic == logic.NameCyclic }

// Size parses the bucket size in units of the configured axis.
func (c RasterConfig) Size() (int, error) {
	return bucket.ParseSize(c.BucketSize, logic.TimeUnit(c.Logic))
}

// Tag parses the locale.
func (c RasterConfig) Tag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid raster.locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// Zone loads the location.
func (c RasterConfig) Zone() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid raster.location %q: %w", c.Location, err)
	}
	return loc, nil
}

// TimeLogic builds the configured time logic.
func (c RasterConfig) TimeLogic() (*logic.Time, error) {
	size, err := c.Size()
	if err != nil {
		return nil, err
	}
	loc, err := c.Zone()
	if err != nil {
		return nil, err
	}
	return logic.NewTime(c.Logic, size, loc)
}

// CyclicLogic builds the integer logic over [Min, Max].
func (c RasterConfig) CyclicLogic() (logic.Cyclic, error) {
	size, err := c.Size()
	if err != nil {
		return logic.Cyclic{}, err
	}
	g, err := bucket.NewGranularity(c.Min, c.Max, size)
	if err != nil {
		return logic.Cyclic{}, err
	}
	return logic.NewCyclic(g), nil
}

// SlogLevel parses the log level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return level, fmt.Errorf("invalid log.level %q: %w", c.Level, err)
	}
	return level, nil
}

func (c *Config) Validate() error {
	switch c.Raster.Logic {
	case logic.NameMinuteOfDay, logic.NameDayOfWeek, logic.NameWeekOfYear:
		if _, err := c.Raster.TimeLogic(); err != nil {
			return fmt.Errorf("invalid raster config: %w", err)
		}
	case logic.NameCyclic:
		if _, err := c.Raster.CyclicLogic(); err != nil {
			return fmt.Errorf("invalid raster config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported raster.logic %q", c.Raster.Logic)
	}
	if _, err := c.Raster.Tag(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Models.Dir) == "" {
		return fmt.Errorf("models.dir is required")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q (must be text or json)", c.Log.Format)
	}
	return nil
}

// Load parses config from file + env, validates it, then loads the model
// definitions.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"raster.logic":       logic.NameMinuteOfDay,
		"raster.bucket_size": "60",
		"raster.location":    "UTC",
		"raster.locale":      "en",
		"raster.min":         0,
		"raster.max":         0,
		"models.dir":         "./config/models",
		"models.require":     []string{},
		"log.level":          "info",
		"log.format":         "text",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("RASTER_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "RASTER_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	defs, err := definition.Load(cfg.Models.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load model definitions: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no model definitions found in %q", cfg.Models.Dir)
	}
	if err := definition.Require(defs, cfg.Models.Require); err != nil {
		return nil, err
	}
	cfg.Definitions = defs

	return &cfg, nil
}
