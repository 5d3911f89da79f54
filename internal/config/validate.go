package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
)

// Validate checks enumerated settings and the reference clock.
func (c *Config) Validate() error {
	if c.Target.Type == "" {
		return fmt.Errorf("target.type is required")
	}
	c.Target.Type = strings.ToLower(c.Target.Type)
	if _, ok := adapter.Get(c.Target.Type); !ok {
		return fmt.Errorf("unknown adapter type %q (available: %s)", c.Target.Type, strings.Join(adapter.ListAdapters(), ", "))
	}
	switch c.Output {
	case OutputAuto, OutputText, OutputJSON:
	default:
		return fmt.Errorf("invalid output %q: expected auto, text or json", c.Output)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: expected text or json", c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Clock(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return lvl, fmt.Errorf("invalid log_level %q: expected debug, info, warn or error", c.LogLevel)
	}
	return lvl, nil
}
