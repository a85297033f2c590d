// Package config provides configuration management for the petsales CLI.
//
// Values are layered from defaults, an optional YAML file, PETSALES_*
// environment variables and explicitly set flags, then validated.
package config

import (
	"github.com/leapstack-labs/petsales/internal/enrich"
	"github.com/leapstack-labs/petsales/internal/export"
	"github.com/leapstack-labs/petsales/internal/source"
)

// Config holds all CLI configuration options.
type Config struct {
	Source  SourceConfig `koanf:"source" yaml:"source"`
	Output  OutputConfig `koanf:"output" yaml:"output"`
	Enrich  EnrichConfig `koanf:"enrich" yaml:"enrich"`
	Log     LogConfig    `koanf:"log" yaml:"log"`
	Sample  int          `koanf:"sample" yaml:"sample" validate:"gte=0"`
	Verbose bool         `koanf:"verbose" yaml:"verbose"`
}

// SourceConfig addresses the store the join is read from.
type SourceConfig struct {
	Kind string `koanf:"kind" yaml:"kind" validate:"required"`
	Path string `koanf:"path" yaml:"path"`
	DSN  string `koanf:"dsn" yaml:"dsn"`
}

// Reader converts the section to the reader's view of it.
func (s SourceConfig) Reader() source.Config {
	return source.Config{Kind: s.Kind, Path: s.Path, DSN: s.DSN}
}

// OutputConfig controls the exported file.
type OutputConfig struct {
	Path       string `koanf:"path" yaml:"path" validate:"required"`
	Delimiter  string `koanf:"delimiter" yaml:"delimiter" validate:"delimiter"`
	DateFormat string `koanf:"date_format" yaml:"date_format"`
}

// EnrichConfig controls the derived columns.
type EnrichConfig struct {
	Seed        uint64   `koanf:"seed" yaml:"seed"`
	DateLayouts []string `koanf:"date_layouts" yaml:"date_layouts" validate:"dive,required"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=text json"`
}

// Default configuration values.
const (
	DefaultSourceKind = "sqlite"
	DefaultSourcePath = "petstore.db"
	DefaultDelimiter  = ","
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultSample     = 5
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind: DefaultSourceKind,
			Path: DefaultSourcePath,
		},
		Output: OutputConfig{
			Path:       export.DefaultPath,
			Delimiter:  DefaultDelimiter,
			DateFormat: export.DateFormatAuto,
		},
		Enrich: EnrichConfig{
			Seed:        enrich.DefaultSeed,
			DateLayouts: []string{},
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Sample: DefaultSample,
	}
}

// defaultsMap flattens Default for the confmap provider.
func defaultsMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"source.kind":         d.Source.Kind,
		"source.path":         d.Source.Path,
		"source.dsn":          d.Source.DSN,
		"output.path":         d.Output.Path,
		"output.delimiter":    d.Output.Delimiter,
		"output.date_format":  d.Output.DateFormat,
		"enrich.seed":         d.Enrich.Seed,
		"enrich.date_layouts": d.Enrich.DateLayouts,
		"log.level":           d.Log.Level,
		"log.format":          d.Log.Format,
		"sample":              d.Sample,
		"verbose":             d.Verbose,
	}
}
