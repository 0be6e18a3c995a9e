// Package config loads querygate configuration.
//
// Values are layered with koanf, lowest to highest precedence:
// built-in defaults, querygate.yaml, QUERYGATE_* environment variables,
// then explicitly set command-line flags.
package config

import (
	"github.com/roach88/querygate/internal/engine"
	"github.com/roach88/querygate/internal/gate"
	"github.com/roach88/querygate/internal/validator"
)

// Default values.
const (
	DefaultStorePath = ".querygate/catalog.db"
	DefaultDriver    = "duckdb"
	DefaultLogLevel  = "info"
	DefaultFormat    = "text"
)

// Config is the resolved configuration.
type Config struct {
	StorePath  string        `koanf:"store_path"`
	SchemaFile string        `koanf:"schema_file"`
	Engine     EngineConfig  `koanf:"engine"`
	Gate       GateConfig    `koanf:"gate"`
	Scoring    ScoringConfig `koanf:"scoring"`
	MaxLimit   int           `koanf:"max_limit"`
	LogLevel   string        `koanf:"log_level"`
	Format     string        `koanf:"format"`
	Verbose    bool          `koanf:"verbose"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// EngineConfig selects the execution engine.
type EngineConfig struct {
	Driver string `koanf:"driver"`
	// DSN is the engine's data source; empty means in-memory.
	DSN string `koanf:"dsn"`
}

// GateConfig holds the confidence gate cut points.
type GateConfig struct {
	BlockThreshold   float64 `koanf:"block_threshold"`
	WarningThreshold float64 `koanf:"warning_threshold"`
}

// ScoringConfig holds the confidence scoring constants.
type ScoringConfig struct {
	CorrectionPenalty float64 `koanf:"correction_penalty"`
	CorrectionCap     float64 `koanf:"correction_cap"`
	ErrorPenalty      float64 `koanf:"error_penalty"`
	ErrorCap          float64 `koanf:"error_cap"`
	Floor             float64 `koanf:"floor"`
	FollowUpBelow     float64 `koanf:"follow_up_below"`
}

// defaults returns the flattened default key set.
func defaults() map[string]any {
	p := validator.DefaultPolicy()
	t := gate.DefaultThresholds()
	return map[string]any{
		"store_path":                 DefaultStorePath,
		"schema_file":                "",
		"engine.driver":              DefaultDriver,
		"engine.dsn":                 "",
		"gate.block_threshold":       t.Block,
		"gate.warning_threshold":     t.Warning,
		"scoring.correction_penalty": p.CorrectionPenalty,
		"scoring.correction_cap":     p.CorrectionCap,
		"scoring.error_penalty":      p.ErrorPenalty,
		"scoring.error_cap":          p.ErrorCap,
		"scoring.floor":              p.Floor,
		"scoring.follow_up_below":    p.FollowUpBelow,
		"max_limit":                  p.MaxLimit,
		"log_level":                  DefaultLogLevel,
		"format":                     DefaultFormat,
		"verbose":                    false,
	}
}

// Policy returns the validator scoring policy.
func (c *Config) Policy() validator.Policy {
	return validator.Policy{
		CorrectionPenalty: c.Scoring.CorrectionPenalty,
		CorrectionCap:     c.Scoring.CorrectionCap,
		ErrorPenalty:      c.Scoring.ErrorPenalty,
		ErrorCap:          c.Scoring.ErrorCap,
		Floor:             c.Scoring.Floor,
		FollowUpBelow:     c.Scoring.FollowUpBelow,
		MaxLimit:          c.MaxLimit,
	}
}

// Thresholds returns the gate thresholds.
func (c *Config) Thresholds() gate.Thresholds {
	return gate.Thresholds{Block: c.Gate.BlockThreshold, Warning: c.Gate.WarningThreshold}
}

// Driver returns the parsed engine driver.
func (c *Config) Driver() (engine.Driver, error) {
	return engine.ParseDriver(c.Engine.Driver)
}
