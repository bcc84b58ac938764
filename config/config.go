// Package config loads the epoch schedule parameters from an external YAML
// file, for deployments that want the schedule externally configurable
// rather than compiled in via epoch.DefaultConfig.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eth2030/valcore/epoch"
	"github.com/eth2030/valcore/internal/log"
	"gopkg.in/yaml.v2"
)

// epochConfigFile mirrors the on-disk YAML shape. Field names are lowercase
// snake_case to match the on-chain EpochConfig naming this module mirrors.
type epochConfigFile struct {
	SlotsPerEpoch            uint64 `yaml:"slots_per_epoch"`
	LeaderScheduleSlotOffset uint64 `yaml:"leader_schedule_slot_offset"`
	Warmup                   bool   `yaml:"warmup"`
}

// LoadEpochConfig reads and validates an epoch.Config from a YAML file at
// path.
func LoadEpochConfig(path string) (epoch.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return epoch.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f epochConfigFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return epoch.Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c := epoch.Config{
		SlotsPerEpoch:            f.SlotsPerEpoch,
		LeaderScheduleSlotOffset: f.LeaderScheduleSlotOffset,
		Warmup:                   f.Warmup,
	}
	if err := c.Prepare(); err != nil {
		return epoch.Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// loggingConfigFile mirrors the on-disk YAML shape for the logging sink. An
// empty Path means "log to stderr", the package default.
type loggingConfigFile struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LoadLogger reads a logging configuration from a YAML file at path and
// constructs the corresponding *log.Logger: stderr if no path is set, or a
// size/age-rotated file sink otherwise.
func LoadLogger(path string) (*log.Logger, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f loggingConfigFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	level, err := parseLevel(f.Level)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	format, err := parseFormat(f.Format)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if f.Path == "" {
		return log.NewWithFormat(level, format), nil
	}
	return log.NewRotatingFile(level, log.RotatingFileConfig{
		Path:       f.Path,
		MaxSizeMB:  f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAgeDays: f.MaxAgeDays,
		Compress:   f.Compress,
		Format:     format,
	}), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// parseFormat maps the YAML "format" field to a log.Format, defaulting to
// JSON when unset (preserving the package default set by log.New).
func parseFormat(s string) (log.Format, error) {
	switch s {
	case "", "json":
		return log.FormatJSON, nil
	case "text":
		return log.FormatText, nil
	case "color":
		return log.FormatColor, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}
