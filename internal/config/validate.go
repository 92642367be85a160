package config

import "fmt"

// Validate ensures the configuration is usable. Bit depth is deliberately not
// rejected here; the orchestrator records and coerces invalid values so the
// failure shows up in the metadata record instead of aborting config load.
func (c *Config) Validate() error {
	if v := c.Params.SampleRate; v != nil && *v <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", *v)
	}
	if v := c.Params.Channels; v != nil && *v <= 0 {
		return fmt.Errorf("config: channels must be positive, got %d", *v)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unsupported log level %q", c.Logging.Level)
	}
	return nil
}
