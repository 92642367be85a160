package config

const (
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultVersionProbeTimeout    = 10
	defaultCapabilityProbeTimeout = 15
	defaultIntrospectTimeout      = 30
	defaultConvertTimeout         = 180
	defaultRunIndexPath           = "~/.local/share/onepass-ingest/runs.db"
)

// DefaultExtensions lists the media extensions scanned in batch mode when the
// configuration does not narrow them.
var DefaultExtensions = []string{
	".mp3", ".m4a", ".wav", ".flac", ".ogg", ".opus", ".aac",
	".mp4", ".mkv", ".mov",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			Recursive:  true,
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Timeouts: Timeouts{
			VersionProbe:    defaultVersionProbeTimeout,
			CapabilityProbe: defaultCapabilityProbeTimeout,
			Introspect:      defaultIntrospectTimeout,
			Convert:         defaultConvertTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		RunIndex: RunIndex{
			Enabled: false,
			Path:    defaultRunIndexPath,
		},
	}
}
