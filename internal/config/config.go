// Package config loads the daemon's JSON settings file. Durations in the
// file are milliseconds. A missing file yields defaults; selected fields can
// be overridden from the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/desk-pet/internal/behavior"
	"github.com/talgya/desk-pet/internal/interaction"
	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/pointer"
)

// Environment overrides.
const (
	EnvDB       = "PETD_DB"
	EnvPort     = "PETD_PORT"
	EnvLogLevel = "PETD_LOG_LEVEL"
)

// Durations are per-state behavior durations in milliseconds.
type Durations struct {
	Walking    int64 `json:"walking"`
	Sleeping   int64 `json:"sleeping"`
	Observing  int64 `json:"observing"`
	Yawning    int64 `json:"yawning"`
	Stretching int64 `json:"stretching"`
}

// Walking tunes the walk step.
type Walking struct {
	Speed          float64 `json:"speed"`
	StepVariation  float64 `json:"stepVariation"`
	BoundaryMargin float64 `json:"boundaryMargin"`
}

// Config mirrors config.json.
type Config struct {
	IdleStateChangeInterval int64                  `json:"idleStateChangeInterval"`
	Durations               Durations              `json:"durations"`
	LongIdleThreshold       int64                  `json:"longIdleThreshold"`
	BehaviorProbabilities   behavior.Probabilities `json:"behaviorProbabilities"`
	Walking                 Walking                `json:"walking"`
	TrackingRadius          float64                `json:"trackingRadius"`
	NeedsTickMs             int64                  `json:"needsTickMs"`
	Seed                    int64                  `json:"seed,omitempty"` // 0 = crypto randomness
	DBPath                  string                 `json:"dbPath"`
	APIPort                 int                    `json:"apiPort"`
	LogLevel                string                 `json:"logLevel"`
}

// NewDefault returns the built-in settings.
func NewDefault() *Config {
	b := behavior.DefaultConfig()
	return &Config{
		IdleStateChangeInterval: b.IdleStateChangeInterval.Milliseconds(),
		Durations: Durations{
			Walking:    b.Durations.Walking.Milliseconds(),
			Sleeping:   b.Durations.Sleeping.Milliseconds(),
			Observing:  b.Durations.Observing.Milliseconds(),
			Yawning:    b.Durations.Yawning.Milliseconds(),
			Stretching: b.Durations.Stretching.Milliseconds(),
		},
		LongIdleThreshold:     b.LongIdleThreshold.Milliseconds(),
		BehaviorProbabilities: b.Probabilities,
		Walking: Walking{
			Speed:          b.Walking.Speed,
			StepVariation:  b.Walking.StepVariation,
			BoundaryMargin: b.Walking.BoundaryMargin,
		},
		TrackingRadius: pointer.DefaultConfig().Radius,
		NeedsTickMs:    needs.DefaultConfig().TickInterval.Milliseconds(),
		DBPath:         "data/pet.db",
		APIPort:        8787,
		LogLevel:       "info",
	}
}

// Load reads filename over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	if filename != "" {
		raw, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("no config file, using defaults", "path", filename)
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := json.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", filename, err)
			}
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.APIPort = port
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Save writes the config as indented JSON.
func Save(cfg *Config, filename string) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, append(raw, '\n'), 0o644)
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// msOr converts v, keeping def when v is not positive.
func msOr(v int64, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return ms(v)
}

// durationOr converts a behavior duration. Zero is meaningful (no automatic
// return to idle), so only negative values fall back to def.
func durationOr(v int64, def time.Duration) time.Duration {
	if v < 0 {
		return def
	}
	return ms(v)
}

// Behavior converts to the state machine's config. Non-positive intervals,
// thresholds and speeds keep their defaults.
func (c *Config) Behavior() behavior.Config {
	b := behavior.DefaultConfig()
	b.IdleStateChangeInterval = msOr(c.IdleStateChangeInterval, b.IdleStateChangeInterval)
	b.Durations = behavior.Durations{
		Walking:    durationOr(c.Durations.Walking, b.Durations.Walking),
		Sleeping:   durationOr(c.Durations.Sleeping, b.Durations.Sleeping),
		Observing:  durationOr(c.Durations.Observing, b.Durations.Observing),
		Yawning:    durationOr(c.Durations.Yawning, b.Durations.Yawning),
		Stretching: durationOr(c.Durations.Stretching, b.Durations.Stretching),
	}
	b.LongIdleThreshold = msOr(c.LongIdleThreshold, b.LongIdleThreshold)
	b.Probabilities = c.BehaviorProbabilities
	if c.Walking.Speed > 0 {
		b.Walking.Speed = c.Walking.Speed
	}
	if c.Walking.StepVariation >= 0 {
		b.Walking.StepVariation = c.Walking.StepVariation
	}
	if c.Walking.BoundaryMargin >= 0 {
		b.Walking.BoundaryMargin = c.Walking.BoundaryMargin
	}
	b.Walking.NoiseSeed = c.Seed
	return b
}

// Needs converts to the needs model config. The tick keeps its 30 s to
// half a minute ratio when the interval is changed.
func (c *Config) Needs() needs.Config {
	n := needs.DefaultConfig()
	n.TickInterval = msOr(c.NeedsTickMs, n.TickInterval)
	n.TickMinutes = n.TickInterval.Minutes()
	return n
}

// Pointer converts to the pointer tracker config.
func (c *Config) Pointer() pointer.Config {
	p := pointer.DefaultConfig()
	if c.TrackingRadius > 0 {
		p.Radius = c.TrackingRadius
	}
	return p
}

// Interaction returns the click detector config. Nothing in it is
// file-tunable.
func (c *Config) Interaction() interaction.Config {
	return interaction.DefaultConfig()
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
