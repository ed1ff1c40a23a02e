// Package config loads estimator configuration from JSON or YAML files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/milosgajdos/go-track/model"
	"gopkg.in/yaml.v3"
)

// maxFileSize is the largest accepted configuration file size
const maxFileSize = 1 * 1024 * 1024

// Format is configuration file format
type Format int

const (
	// JSON is JSON file format
	JSON Format = iota
	// YAML is YAML file format
	YAML
)

// File is the on-disk representation of model.Config.
type File struct {
	Model               string    `json:"model" yaml:"model"`
	Channels            int       `json:"channels" yaml:"channels"`
	SamplingPeriod      float64   `json:"sampling_period" yaml:"sampling_period"`
	Rho                 float64   `json:"rho,omitempty" yaml:"rho,omitempty"`
	ProcessNoiseStd     []float64 `json:"process_noise_std" yaml:"process_noise_std"`
	MeasurementNoiseStd []float64 `json:"measurement_noise_std" yaml:"measurement_noise_std"`
	InitVariance        float64   `json:"init_variance,omitempty" yaml:"init_variance,omitempty"`
}

// FormatOf returns file format of path derived from its extension.
// It returns error if the extension is neither .json, .yaml nor .yml.
func FormatOf(path string) (Format, error) {
	switch ext := filepath.Ext(path); ext {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}
}

// Load loads and validates model configuration from the file stored in path.
// The file format is derived from the file extension.
// It returns error if the file can't be read or decoded, or if it exceeds 1MB.
// Invalid configuration is reported with error wrapping model.ErrInvalidConfig.
func Load(path string) (*model.Config, error) {
	cleanPath := filepath.Clean(path)

	format, err := FormatOf(cleanPath)
	if err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, format)
}

// Parse decodes data in the given format and returns validated model configuration.
// Unknown fields are rejected.
func Parse(data []byte, format Format) (*model.Config, error) {
	f := &File{}

	switch format {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %d", format)
	}

	return f.Config()
}

// Config converts f to model configuration and validates it.
func (f *File) Config() (*model.Config, error) {
	m, err := model.ParseStateModel(f.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}

	c := &model.Config{
		Model:               m,
		Channels:            f.Channels,
		SamplingPeriod:      f.SamplingPeriod,
		Rho:                 f.Rho,
		ProcessNoiseStd:     f.ProcessNoiseStd,
		MeasurementNoiseStd: f.MeasurementNoiseStd,
		InitVariance:        f.InitVariance,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// NewFile returns the on-disk representation of c.
// Caller-seeded initial covariance is not representable and is dropped.
func NewFile(c *model.Config) *File {
	return &File{
		Model:               c.Model.String(),
		Channels:            c.Channels,
		SamplingPeriod:      c.SamplingPeriod,
		Rho:                 c.Rho,
		ProcessNoiseStd:     append([]float64(nil), c.ProcessNoiseStd...),
		MeasurementNoiseStd: append([]float64(nil), c.MeasurementNoiseStd...),
		InitVariance:        c.InitVariance,
	}
}

// Save writes c to path in the format derived from the path extension.
func Save(path string, c *model.Config) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	f := NewFile(c)

	var data []byte
	switch format {
	case JSON:
		data, err = json.MarshalIndent(f, "", "  ")
	case YAML:
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
