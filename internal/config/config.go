// Package config loads the optional YAML configuration of the polyglot
// command. Command-line flags override every value read here.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FocuswithJustin/Polyglot/core/xliff12"
	"github.com/FocuswithJustin/Polyglot/core/xliff2"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the config path.
const EnvPath = "POLYGLOT_CONFIG"

// DefaultFile is read from the working directory when present.
const DefaultFile = ".polyglot.yaml"

// Config holds defaults for the polyglot command.
type Config struct {
	SourceLanguage string `yaml:"source_language"`
	TargetLanguage string `yaml:"target_language"`

	// XLIFFVersion is "1.2", "2.0", "2.1" or "2.2".
	XLIFFVersion string `yaml:"xliff_version"`
	Indent       string `yaml:"indent"`

	TMPath string `yaml:"tm_path"`

	Log   Log   `yaml:"log"`
	Batch Batch `yaml:"batch"`
}

// Log configures internal/logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Batch bounds translation batches.
type Batch struct {
	MaxItems int `yaml:"max_items"`
	MaxChars int `yaml:"max_chars"`
	Workers  int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		XLIFFVersion: string(xliff2.DefaultVersion),
		Indent:       "  ",
		TMPath:       "polyglot-tm.db",
		Log:          Log{Level: "info", Format: "text"},
		Batch:        Batch{MaxItems: 50, MaxChars: 5000, Workers: 4},
	}
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration. An explicit path must exist; otherwise
// $POLYGLOT_CONFIG and then DefaultFile are tried, falling back to
// Default when neither exists.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w (%s)", err, path)
	}
	return cfg, nil
}

// Validate checks enumerated values and limits.
func (c Config) Validate() error {
	if c.XLIFFVersion != xliff12.Version {
		if _, err := xliff2.ParseVersion(c.XLIFFVersion); err != nil {
			return fmt.Errorf("config: xliff_version: %w", err)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("config: log.format: %w", err)
	}
	if c.Batch.MaxItems < 0 || c.Batch.MaxChars < 0 || c.Batch.Workers < 0 {
		return fmt.Errorf("config: batch limits must not be negative")
	}
	return nil
}
