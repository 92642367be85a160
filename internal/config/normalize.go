package config

import "strings"

func (c *Config) normalize() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = append([]string(nil), DefaultExtensions...)
	}
	normalized := make([]string, 0, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Scan.Extensions = normalized

	if c.Timeouts.VersionProbe <= 0 {
		c.Timeouts.VersionProbe = defaultVersionProbeTimeout
	}
	if c.Timeouts.CapabilityProbe <= 0 {
		c.Timeouts.CapabilityProbe = defaultCapabilityProbeTimeout
	}
	if c.Timeouts.Introspect <= 0 {
		c.Timeouts.Introspect = defaultIntrospectTimeout
	}
	if c.Timeouts.Convert <= 0 {
		c.Timeouts.Convert = defaultConvertTimeout
	}

	if lang := c.Params.AudioLanguage; lang != nil {
		trimmed := strings.TrimSpace(*lang)
		if trimmed == "" {
			c.Params.AudioLanguage = nil
		} else {
			c.Params.AudioLanguage = &trimmed
		}
	}

	if strings.TrimSpace(c.RunIndex.Path) == "" {
		c.RunIndex.Path = defaultRunIndexPath
	}
	expanded, err := expandPath(c.RunIndex.Path)
	if err != nil {
		return err
	}
	c.RunIndex.Path = expanded

	return nil
}
