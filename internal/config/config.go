// Package config loads the controller configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/delivery"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/generate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/phrase"
)

// #region types

// Config is the full controller configuration.
type Config struct {
	Gate       gate.GateConfig  `yaml:"gate"`
	Segmenter  phrase.Config    `yaml:"segmenter"`
	Delivery   delivery.Config  `yaml:"delivery"`
	Generation generate.Config  `yaml:"generation"`
	Server     ServerConfig     `yaml:"server"`
	Templates  TemplatesConfig  `yaml:"templates"`
	Labels     LabelsConfig     `yaml:"labels"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds listen addresses.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// TemplatesConfig points at a template file. Empty path uses the built-in bank.
type TemplatesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// LabelsConfig points at an id2label JSON used to decode raw scores.
type LabelsConfig struct {
	Path string `yaml:"path"`
}

// TranscriptConfig enables session recording when DB is set.
type TranscriptConfig struct {
	DB string `yaml:"db"`
}

// LogConfig sets the logger level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// #endregion types

// #region defaults

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gate:       gate.DefaultGateConfig(),
		Segmenter:  phrase.DefaultConfig(),
		Delivery:   delivery.DefaultConfig(),
		Generation: generate.DefaultConfig(),
		Server: ServerConfig{
			HTTPAddr: ":8000",
			GRPCAddr: ":50051",
		},
		Templates: TemplatesConfig{Watch: true},
		Log:       LogConfig{Level: "info"},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML config on top of the defaults and applies env overrides.
// An empty path or a missing file yields defaults plus env.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides applies ASL_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ASL_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddr = v
	}
	if v := os.Getenv("ASL_GRPC_ADDR"); v != "" {
		c.Server.GRPCAddr = v
	}
	if v := os.Getenv("ASL_TEMPLATES"); v != "" {
		c.Templates.Path = v
	}
	if v := os.Getenv("ASL_LABELS"); v != "" {
		c.Labels.Path = v
	}
	if v := os.Getenv("ASL_DB"); v != "" {
		c.Transcript.DB = v
	}
	if v := os.Getenv("ASL_DELIVERY_URL"); v != "" {
		c.Delivery.URL = v
		c.Delivery.Enabled = true
	}
	if v := os.Getenv("ASL_DELIVERY_ENABLED"); v != "" {
		c.Delivery.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("ASL_GENERATION_URL"); v != "" {
		c.Generation.URL = v
		c.Generation.Enabled = true
	}
	if v := os.Getenv("ASL_GENERATION_MODEL"); v != "" {
		c.Generation.Model = v
	}
	if v := os.Getenv("ASL_GENERATION_ENABLED"); v != "" {
		c.Generation.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("ASL_STABLE_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Gate.StableN = n
		}
	}
	if v := os.Getenv("ASL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// #endregion load

// #region validate

// Validate rejects thresholds the gate cannot work with.
func (c *Config) Validate() error {
	if c.Gate.ConfThr < 0 || c.Gate.ConfThr > 1 {
		return fmt.Errorf("gate.conf_thr %v outside [0,1]", c.Gate.ConfThr)
	}
	if c.Gate.MarginThr < 0 || c.Gate.MarginThr > 1 {
		return fmt.Errorf("gate.margin_thr %v outside [0,1]", c.Gate.MarginThr)
	}
	if c.Gate.Cooldown < 0 || c.Gate.MinGapRepeat < 0 {
		return fmt.Errorf("gate durations must not be negative")
	}
	if c.Delivery.Enabled && c.Delivery.URL == "" {
		return fmt.Errorf("delivery enabled without url")
	}
	if c.Generation.Enabled && c.Generation.URL == "" {
		return fmt.Errorf("generation enabled without url")
	}
	if c.Generation.Temperature < 0 || c.Generation.MaxAttempts < 0 {
		return fmt.Errorf("generation temperature and max_attempts must not be negative")
	}
	return nil
}

// Pipeline returns the per-session tuning.
func (c *Config) Pipeline() orchestrator.Config {
	return orchestrator.Config{Gate: c.Gate, Segmenter: c.Segmenter}
}

// #endregion validate
