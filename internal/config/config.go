// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads halogen settings from a TOML, YAML or JSON file,
// then applies HALOGEN_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds every halogen setting.
type Config struct {
	Output     OutputConfig     `toml:"output" json:"output" yaml:"output"`
	Recording  RecordingConfig  `toml:"recording" json:"recording" yaml:"recording"`
	Hours      HoursConfig      `toml:"hours" json:"hours" yaml:"hours"`
	Raw        RawConfig        `toml:"raw" json:"raw" yaml:"raw"`
	Detections DetectionsConfig `toml:"detections" json:"detections" yaml:"detections"`
	Simulator  SimulatorConfig  `toml:"simulator" json:"simulator" yaml:"simulator"`
	Logging    LoggingConfig    `toml:"logging" json:"logging" yaml:"logging"`
	Catalog    CatalogConfig    `toml:"catalog" json:"catalog" yaml:"catalog"`
	Redis      RedisConfig      `toml:"redis" json:"redis" yaml:"redis"`
}

// OutputConfig controls where files are written.
type OutputConfig struct {
	// BaseDir is the root of the <date>/hour_HH_* tree.
	BaseDir string `toml:"base_dir" json:"base_dir" yaml:"base_dir"`
}

// RecordingConfig describes the emulated device.
type RecordingConfig struct {
	Channels         int     `toml:"channels" json:"channels" yaml:"channels"`
	SamplesPerRecord int     `toml:"samples_per_record" json:"samples_per_record" yaml:"samples_per_record"`
	SampleRateHz     float64 `toml:"sample_rate_hz" json:"sample_rate_hz" yaml:"sample_rate_hz"`
}

// HoursConfig drives the hour generator.
type HoursConfig struct {
	Days        int   `toml:"days" json:"days" yaml:"days"`
	Hours       []int `toml:"hours" json:"hours" yaml:"hours"`
	DurationSec int   `toml:"duration_sec" json:"duration_sec" yaml:"duration_sec"`
	Seed        int64 `toml:"seed" json:"seed" yaml:"seed"`
	Workers     int   `toml:"workers" json:"workers" yaml:"workers"`
}

// RawConfig drives the synthetic sine log generator.
type RawConfig struct {
	Records int `toml:"records" json:"records" yaml:"records"`
}

// DetectionsConfig drives the fake detection pairs generator.
type DetectionsConfig struct {
	Pairs       int   `toml:"pairs" json:"pairs" yaml:"pairs"`
	Days        int   `toml:"days" json:"days" yaml:"days"`
	FilesPerDay int   `toml:"files_per_day" json:"files_per_day" yaml:"files_per_day"`
	Seed        int64 `toml:"seed" json:"seed" yaml:"seed"`
}

// SimulatorConfig tunes the neural simulator.
type SimulatorConfig struct {
	Units int `toml:"units" json:"units" yaml:"units"`
	// SeizureProbability is the onset hazard per second of simulated time.
	SeizureProbability float64 `toml:"seizure_probability" json:"seizure_probability" yaml:"seizure_probability"`
	SeizureDurationMs  float64 `toml:"seizure_duration_ms" json:"seizure_duration_ms" yaml:"seizure_duration_ms"`
	NoiseMicrovolts    float64 `toml:"noise_uv" json:"noise_uv" yaml:"noise_uv"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
}

// CatalogConfig enables the SQLite catalog when Path is set.
type CatalogConfig struct {
	Path string `toml:"path" json:"path" yaml:"path"`
}

// RedisConfig enables the detection stream publisher when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr" json:"addr" yaml:"addr"`
	Password string `toml:"password" json:"password" yaml:"password"`
	DB       int    `toml:"db" json:"db" yaml:"db"`
	Stream   string `toml:"stream" json:"stream" yaml:"stream"`
	MaxLen   int64  `toml:"max_len" json:"max_len" yaml:"max_len"`
}

// Default returns the stock HALO test bench settings.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			BaseDir: "logs",
		},
		Recording: RecordingConfig{
			Channels:         32,
			SamplesPerRecord: 128,
			SampleRateHz:     1000,
		},
		Hours: HoursConfig{
			Days:        4,
			Hours:       []int{0, 6, 12, 18},
			DurationSec: 60,
			Seed:        123,
			Workers:     1,
		},
		Raw: RawConfig{
			Records: 50,
		},
		Detections: DetectionsConfig{
			Pairs:       10,
			Days:        3,
			FilesPerDay: 6,
			Seed:        42,
		},
		Simulator: SimulatorConfig{
			Units:              2,
			SeizureProbability: 0.001,
			SeizureDurationMs:  5000,
			NoiseMicrovolts:    8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Redis: RedisConfig{
			Stream: "halo:detections",
			MaxLen: 100000,
		},
	}
}

// Load reads the file at path over the defaults. An empty path or a missing
// file yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}

	return nil
}

// ApplyEnvOverrides overrides settings from HALOGEN_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	c.Output.BaseDir = getEnv("HALOGEN_OUTPUT_DIR", c.Output.BaseDir)
	c.Logging.Level = getEnv("HALOGEN_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("HALOGEN_LOG_FORMAT", c.Logging.Format)
	c.Catalog.Path = getEnv("HALOGEN_CATALOG_PATH", c.Catalog.Path)
	c.Redis.Addr = getEnv("HALOGEN_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("HALOGEN_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.Stream = getEnv("HALOGEN_REDIS_STREAM", c.Redis.Stream)

	if v := os.Getenv("HALOGEN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("HALOGEN_SEED: %w", err)
		}
		c.Hours.Seed = seed
		c.Detections.Seed = seed
	}
	if v := os.Getenv("HALOGEN_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HALOGEN_WORKERS: %w", err)
		}
		c.Hours.Workers = workers
	}

	return nil
}

// Validate checks settings that would otherwise produce a malformed file.
// Counts are not checked; negative counts generate nothing.
func (c *Config) Validate() error {
	if c.Recording.Channels < 1 || c.Recording.Channels > 32 {
		return fmt.Errorf("recording.channels must be in [1, 32], got %d", c.Recording.Channels)
	}
	if c.Recording.SamplesPerRecord < 1 {
		return fmt.Errorf("recording.samples_per_record must be positive, got %d", c.Recording.SamplesPerRecord)
	}
	if c.Recording.SampleRateHz <= 0 {
		return fmt.Errorf("recording.sample_rate_hz must be positive, got %g", c.Recording.SampleRateHz)
	}
	for _, h := range c.Hours.Hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("hours.hours: %d is not an hour of the day", h)
		}
	}
	if c.Simulator.SeizureProbability < 0 {
		return fmt.Errorf("simulator.seizure_probability must not be negative")
	}
	return nil
}

// ParseHours parses a comma separated hour list such as "00,06,12,18".
func ParseHours(s string) ([]int, error) {
	var hours []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid hour %q: %w", part, err)
		}
		hours = append(hours, h)
	}
	return hours, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
