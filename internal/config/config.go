// Package config loads and validates the pipeline configuration from a
// YAML file, with environment-variable overrides for deployment knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Chunking    ChunkingConfig    `yaml:"chunking"`
	ASR         ASRConfig         `yaml:"asr"`
	Diarization DiarizationConfig `yaml:"diarization"`
	Output      OutputConfig      `yaml:"output"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ChunkingConfig controls the audio chunk plan.
type ChunkingConfig struct {
	// ChunkDuration is the window size in seconds.
	ChunkDuration float64 `yaml:"chunk_duration"`
	// OverlapDuration is the shared span between consecutive windows.
	OverlapDuration float64 `yaml:"overlap_duration"`
}

// ASRConfig points at the speech recognition backend.
type ASRConfig struct {
	URL      string `yaml:"url"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	// Timeout is a Go duration string, e.g. "10m".
	Timeout string `yaml:"timeout"`
}

// DiarizationConfig points at the diarization backend.
type DiarizationConfig struct {
	URL         string  `yaml:"url"`
	MinSpeakers int     `yaml:"min_speakers"`
	MaxSpeakers int     `yaml:"max_speakers"`
	MinDuration float64 `yaml:"min_duration"`
}

// OutputConfig controls artifact placement.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
	Backup bool   `yaml:"backup"`
}

// LogConfig mirrors pkg/logger.Config.
type LogConfig struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"`
	File        string `yaml:"file"`
	WithSource  bool   `yaml:"with_source"`
}

// MetricsConfig controls the optional prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			ChunkDuration:   120,
			OverlapDuration: 15,
		},
		ASR: ASRConfig{
			URL:     "http://localhost:8082",
			Model:   "ggml-base",
			Timeout: "10m",
		},
		Diarization: DiarizationConfig{
			URL:         "http://localhost:8083",
			MinSpeakers: 1,
			MaxSpeakers: 10,
			MinDuration: 0.5,
		},
		Output: OutputConfig{
			Format: "srt",
			Backup: true,
		},
		Log: LogConfig{
			Level:       "info",
			Environment: "dev",
		},
	}
}

// Load reads a YAML configuration file, applies environment overrides and
// validates the result. An empty path yields the defaults (still subject to
// overrides and validation).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv lets deployment environments override the service endpoints and
// log level without editing the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TP_ASR_URL"); v != "" {
		cfg.ASR.URL = v
	}
	if v := os.Getenv("TP_DIARIZATION_URL"); v != "" {
		cfg.Diarization.URL = v
	}
	if v := os.Getenv("TP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate performs comprehensive validation of the configuration.
func Validate(cfg *Config) error {
	if cfg.Chunking.ChunkDuration <= 0 {
		return fmt.Errorf("chunking.chunk_duration must be greater than 0")
	}
	if cfg.Chunking.OverlapDuration < 0 || cfg.Chunking.OverlapDuration >= cfg.Chunking.ChunkDuration {
		return fmt.Errorf("chunking.overlap_duration must be in [0, chunk_duration)")
	}

	if cfg.ASR.URL == "" {
		return fmt.Errorf("asr.url cannot be empty")
	}
	if cfg.ASR.Timeout != "" {
		if _, err := time.ParseDuration(cfg.ASR.Timeout); err != nil {
			return fmt.Errorf("asr.timeout: invalid duration format: %w", err)
		}
	}

	if cfg.Diarization.URL == "" {
		return fmt.Errorf("diarization.url cannot be empty")
	}
	if cfg.Diarization.MinSpeakers < 0 || cfg.Diarization.MaxSpeakers < 0 {
		return fmt.Errorf("diarization speaker bounds cannot be negative")
	}
	if cfg.Diarization.MaxSpeakers > 0 && cfg.Diarization.MinSpeakers > cfg.Diarization.MaxSpeakers {
		return fmt.Errorf("diarization.min_speakers cannot exceed max_speakers")
	}
	if cfg.Diarization.MinDuration < 0 {
		return fmt.Errorf("diarization.min_duration cannot be negative")
	}

	switch cfg.Output.Format {
	case "srt", "vtt", "json", "txt", "text", "":
	default:
		return fmt.Errorf("output.format %q is not supported", cfg.Output.Format)
	}

	return nil
}
