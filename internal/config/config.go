// Package config provides Viper-based configuration loading for the simulation server.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds the tick timing and the creature design parameters.
// All durations are milliseconds of simulation time.
type SimulationConfig struct {
	// TickMs is how far simulation time advances per tick.
	TickMs int64 `mapstructure:"tick_ms"`
	// ThinkIntervalMs is how often every creature thinks.
	ThinkIntervalMs int64 `mapstructure:"think_interval_ms"`
	// RealTime paces ticks against the wall clock; off runs them back to back.
	RealTime         bool    `mapstructure:"real_time"`
	InFightMs        int64   `mapstructure:"in_fight_ms"`
	PathRefreshMs    int64   `mapstructure:"path_refresh_ms"`
	MaxSearchDist    int     `mapstructure:"max_search_dist"`
	WalkCacheWidth   int     `mapstructure:"walk_cache_width"`
	WalkCacheHeight  int     `mapstructure:"walk_cache_height"`
	ViewportX        int     `mapstructure:"viewport_x"`
	ViewportY        int     `mapstructure:"viewport_y"`
	SummonLeash      int     `mapstructure:"summon_leash"`
	SummonFloorLeash int     `mapstructure:"summon_floor_leash"`
	SpeedA           float64 `mapstructure:"speed_a"`
	SpeedB           float64 `mapstructure:"speed_b"`
	SpeedC           float64 `mapstructure:"speed_c"`
	// MinSchedulerMs is the shortest delay the scheduler honors.
	MinSchedulerMs int64 `mapstructure:"min_scheduler_ms"`
}

// ContentConfig locates the data files loaded at startup.
type ContentConfig struct {
	MapFile       string `mapstructure:"map_file"`
	TemplatesDir  string `mapstructure:"templates_dir"`
	ConditionsDir string `mapstructure:"conditions_dir"`
	EventsFile    string `mapstructure:"events_file"`
	// ScriptRoot holds one sub-directory of Lua files per script set; empty disables scripting.
	ScriptRoot             string `mapstructure:"script_root"`
	ScriptInstructionLimit int    `mapstructure:"script_instruction_limit"`
	// Spawns lists the creatures placed when the server starts.
	Spawns []SpawnConfig `mapstructure:"spawns"`
}

// SpawnConfig places one creature from a template.
type SpawnConfig struct {
	Template string `mapstructure:"template"`
	X        int    `mapstructure:"x"`
	Y        int    `mapstructure:"y"`
	Z        int    `mapstructure:"z"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Content    ContentConfig    `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	positive := []struct {
		name  string
		value int64
	}{
		{"simulation.tick_ms", s.TickMs},
		{"simulation.think_interval_ms", s.ThinkIntervalMs},
		{"simulation.in_fight_ms", s.InFightMs},
		{"simulation.path_refresh_ms", s.PathRefreshMs},
		{"simulation.max_search_dist", int64(s.MaxSearchDist)},
		{"simulation.walk_cache_width", int64(s.WalkCacheWidth)},
		{"simulation.walk_cache_height", int64(s.WalkCacheHeight)},
		{"simulation.viewport_x", int64(s.ViewportX)},
		{"simulation.viewport_y", int64(s.ViewportY)},
		{"simulation.summon_leash", int64(s.SummonLeash)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0, got %d", p.name, p.value))
		}
	}
	if s.SummonFloorLeash < 0 {
		errs = append(errs, fmt.Sprintf("simulation.summon_floor_leash must be >= 0, got %d", s.SummonFloorLeash))
	}
	if s.MinSchedulerMs < 0 {
		errs = append(errs, fmt.Sprintf("simulation.min_scheduler_ms must be >= 0, got %d", s.MinSchedulerMs))
	}
	if s.TickMs > 0 && s.ThinkIntervalMs > 0 && s.ThinkIntervalMs%s.TickMs != 0 {
		errs = append(errs, fmt.Sprintf("simulation.think_interval_ms (%d) must be a multiple of simulation.tick_ms (%d)", s.ThinkIntervalMs, s.TickMs))
	}
	if s.SpeedA <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.speed_a must be > 0, got %g", s.SpeedA))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.MapFile == "" {
		errs = append(errs, "content.map_file must not be empty")
	}
	if c.TemplatesDir == "" {
		errs = append(errs, "content.templates_dir must not be empty")
	}
	if c.ConditionsDir == "" {
		errs = append(errs, "content.conditions_dir must not be empty")
	}
	if c.ScriptRoot != "" && c.EventsFile == "" {
		errs = append(errs, "content.events_file must be set when content.script_root is")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	for i, sp := range c.Spawns {
		if sp.Template == "" {
			errs = append(errs, fmt.Sprintf("content.spawns[%d].template must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SIM_ prefix
	v.SetEnvPrefix("SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_ms", 50)
	v.SetDefault("simulation.think_interval_ms", 1000)
	v.SetDefault("simulation.real_time", true)
	v.SetDefault("simulation.in_fight_ms", 60000)
	v.SetDefault("simulation.path_refresh_ms", 2000)
	v.SetDefault("simulation.max_search_dist", 12)
	v.SetDefault("simulation.walk_cache_width", 17)
	v.SetDefault("simulation.walk_cache_height", 13)
	v.SetDefault("simulation.viewport_x", 8)
	v.SetDefault("simulation.viewport_y", 6)
	v.SetDefault("simulation.summon_leash", 30)
	v.SetDefault("simulation.summon_floor_leash", 2)
	v.SetDefault("simulation.speed_a", 857.36)
	v.SetDefault("simulation.speed_b", 261.29)
	v.SetDefault("simulation.speed_c", -4795.01)
	v.SetDefault("simulation.min_scheduler_ms", 50)

	v.SetDefault("content.map_file", "content/maps/meadow.yaml")
	v.SetDefault("content.templates_dir", "content/templates")
	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.events_file", "content/events.yaml")
	v.SetDefault("content.script_root", "content/scripts")
	v.SetDefault("content.script_instruction_limit", 100000)
}
