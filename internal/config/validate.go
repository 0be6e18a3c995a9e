package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate rejects out-of-range or inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Driver(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Thresholds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gate: %w", err))
	}

	s := c.Scoring
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"scoring.correction_penalty", s.CorrectionPenalty},
		{"scoring.correction_cap", s.CorrectionCap},
		{"scoring.error_penalty", s.ErrorPenalty},
		{"scoring.error_cap", s.ErrorCap},
		{"scoring.floor", s.Floor},
		{"scoring.follow_up_below", s.FollowUpBelow},
	} {
		if v.val < 0 || v.val > 1 {
			errs = append(errs, fmt.Errorf("%s must lie in [0,1], got %v", v.name, v.val))
		}
	}
	if s.CorrectionCap+s.ErrorCap > 1 {
		errs = append(errs, fmt.Errorf("scoring caps sum to %v; the score could go negative", s.CorrectionCap+s.ErrorCap))
	}

	if c.MaxLimit <= 0 {
		errs = append(errs, fmt.Errorf("max_limit must be positive, got %d", c.MaxLimit))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("format must be text or json, got %q", c.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
