// Package config loads the engine configuration from an optional YAML file
// and PLATE_RECTIFY_* environment variables.
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/plate-rectify/internal/pipeline"
)

// Environment variables read by Load. They override the file.
const (
	EnvMode        = "PLATE_RECTIFY_MODE"
	EnvConfidence  = "PLATE_RECTIFY_CONFIDENCE"
	EnvStrategy    = "PLATE_RECTIFY_STRATEGY"
	EnvCornerMode  = "PLATE_RECTIFY_CORNER_MODE"
	EnvOutputWidth = "PLATE_RECTIFY_OUTPUT_WIDTH"
	EnvBackend     = "PLATE_RECTIFY_BACKEND"
)

// DefaultOutputWidth is the plate width produced by the command line tool
// unless the file, environment or flags say otherwise.
const DefaultOutputWidth = 768

// Defaults returns pipeline.DefaultConfig with the tool's output width.
func Defaults() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.OutputWidth = DefaultOutputWidth
	return cfg
}

// Load starts from Defaults, overlays the YAML file at path (skipped when
// path is empty), applies environment overrides and validates the result.
// Keys missing from the file keep their defaults.
func Load(path string) (pipeline.Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "failed to read config file")
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func applyEnv(cfg *pipeline.Config) error {
	cfg.Mode = pipeline.Mode(getEnv(EnvMode, string(cfg.Mode)))
	cfg.Quad.Strategy = getEnv(EnvStrategy, cfg.Quad.Strategy)
	cfg.Quad.CornerMode = getEnv(EnvCornerMode, cfg.Quad.CornerMode)
	cfg.Backend = getEnv(EnvBackend, cfg.Backend)

	if v := getEnv(EnvConfidence, ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvConfidence)
		}
		cfg.ConfidenceThreshold = f
	}
	if v := getEnv(EnvOutputWidth, ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvOutputWidth)
		}
		cfg.OutputWidth = n
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Encode writes cfg as YAML to w.
func Encode(w io.Writer, cfg pipeline.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return errors.Wrap(enc.Close(), "failed to encode config")
}

// Write saves cfg as YAML, for producing a starting config file.
func Write(path string, cfg pipeline.Config) error {
	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
