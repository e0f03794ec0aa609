// Package config loads the pyxrd-models configuration file.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of the pyxrd-models command.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Format is the document format written by export.
	Format string `yaml:"format" validate:"omitempty,oneof=json yaml yml"`

	// StorePath is the badger directory used by import and export.
	StorePath string `yaml:"store_path"`

	// ClassFiles are loaded into the registry before any command runs.
	ClassFiles []string `yaml:"class_files" validate:"dive,required"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{LogLevel: "info", Format: "json"}
}

var validate = validator.New()

// Read decodes a configuration, filling unset fields from Default.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrap(err, "config: decode")
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, errors.Wrap(err, "config: invalid")
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: open")
	}
	defer f.Close()
	return Read(f)
}

// Level returns the slog level for LogLevel.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
