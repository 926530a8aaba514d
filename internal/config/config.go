// Package config provides configuration loading and validation for esoloom.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration, decoded from viper (file, env, flags).
type Config struct {
	// Paths are encounter log files or glob patterns.
	Paths  []string `mapstructure:"paths"`
	Output string   `mapstructure:"output"` // text, json
	// FromStart reads existing log content when no checkpoint exists.
	FromStart  bool   `mapstructure:"from_start"`
	Checkpoint string `mapstructure:"checkpoint"`
	// Catalog is an optional YAML file of ability, item and set names.
	Catalog string `mapstructure:"catalog"`

	ZoneHistory         int               `mapstructure:"zone_history"`
	TrackedBuffs        map[string]string `mapstructure:"tracked_buffs"`
	GroupBuffMinPlayers int               `mapstructure:"group_buff_min_players"`
	RecentReports       int               `mapstructure:"recent_reports"`
	Verbose             bool              `mapstructure:"verbose"`

	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// DashboardConfig controls the web dashboard.
type DashboardConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("from_start", false)
	v.SetDefault("checkpoint", DefaultCheckpoint)
	v.SetDefault("catalog", "")
	v.SetDefault("zone_history", DefaultZoneHistory)
	v.SetDefault("tracked_buffs", DefaultTrackedBuffs())
	v.SetDefault("group_buff_min_players", DefaultGroupBuffMinPlayers)
	v.SetDefault("recent_reports", DefaultRecentReports)
	v.SetDefault("verbose", false)
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.port", DefaultDashboardPort)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors.
func Validate(cfg *Config) error {
	switch strings.ToLower(cfg.Output) {
	case "text", "json":
	default:
		return fmt.Errorf("output: invalid format %q (must be text or json)", cfg.Output)
	}

	if cfg.ZoneHistory < 1 {
		return fmt.Errorf("zone_history: must be at least 1, got %d", cfg.ZoneHistory)
	}
	if cfg.GroupBuffMinPlayers < 1 {
		return fmt.Errorf("group_buff_min_players: must be at least 1, got %d", cfg.GroupBuffMinPlayers)
	}
	if cfg.RecentReports < 1 {
		return fmt.Errorf("recent_reports: must be at least 1, got %d", cfg.RecentReports)
	}

	for id, name := range cfg.TrackedBuffs {
		if _, err := strconv.Atoi(id); err != nil {
			return fmt.Errorf("tracked_buffs: key %q is not an ability id", id)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("tracked_buffs[%s]: name is required", id)
		}
	}

	if cfg.Dashboard.Enabled {
		port, err := strconv.Atoi(cfg.Dashboard.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("dashboard.port: invalid port %q", cfg.Dashboard.Port)
		}
	}
	return nil
}

// BuffIDs returns the tracked buffs keyed by numeric ability id. Invalid keys
// are rejected by Validate.
func (c *Config) BuffIDs() map[int]string {
	out := make(map[int]string, len(c.TrackedBuffs))
	for id, name := range c.TrackedBuffs {
		if n, err := strconv.Atoi(id); err == nil {
			out[n] = name
		}
	}
	return out
}

// RequirePaths fails when no log paths were configured.
func (c *Config) RequirePaths() error {
	if len(c.Paths) == 0 {
		return errors.New("paths: at least one encounter log path is required")
	}
	return nil
}
