package params

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/config"
)

// The single supported normalization descriptor. Single-pass EBU R128
// loudnorm with fixed parameters; there is no measurement pass and no
// alternate mode.
const (
	NormalizeMode        = "loudnorm_r7_v1"
	NormalizeFiltergraph = "loudnorm=I=-16:LRA=11:TP=-1.5:linear=true:print_format=summary"
	normalizeNotes       = "Single-pass EBU R128 loudnorm with fixed parameters; no measurement pass."
)

// Built-in defaults applied when neither config nor CLI set a field.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultBitDepth   = 16
)

// Source tags record where each resolved field came from.
const (
	SourceDefault = "default"
	SourceConfig  = "config"
	SourceCLI     = "cli"
)

// NormalizeConfig is the fixed, versioned filter descriptor recorded in
// metadata whenever normalization is enabled.
type NormalizeConfig struct {
	Filtergraph string `json:"filtergraph"`
	Mode        string `json:"mode"`
	Notes       string `json:"notes"`
}

// Resolved is the fully-merged parameter set for one invocation. Field order
// is fixed; the params digest depends on it.
type Resolved struct {
	SampleRate       int              `json:"sample_rate"`
	Channels         int              `json:"channels"`
	BitDepth         int              `json:"bit_depth"`
	Normalize        bool             `json:"normalize"`
	NormalizeMode    *string          `json:"normalize_mode"`
	NormalizeConfig  *NormalizeConfig `json:"normalize_config"`
	FFmpegExtraArgs  []string         `json:"ffmpeg_extra_args"`
	AudioStreamIndex *int             `json:"audio_stream_index"`
	AudioLanguage    *string          `json:"audio_language"`
}

// Sources maps resolved field names to their provenance tag.
type Sources map[string]string

// Overrides carries per-invocation CLI values. Nil pointers mean "not set".
type Overrides struct {
	SampleRate       *int
	Channels         *int
	BitDepth         *int
	Normalize        *bool
	FFmpegExtraArgs  []string
	AudioStreamIndex *int
	AudioLanguage    *string
}

// Resolve merges built-in defaults, file configuration, and CLI overrides
// with precedence cli > config > default, evaluated independently per field.
// The normalize descriptor is always derived from the resolved normalize
// flag and its source tag mirrors the flag's source.
func Resolve(cfg *config.Params, cli Overrides) (Resolved, Sources) {
	resolved := Resolved{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BitDepth:   DefaultBitDepth,
	}
	sources := Sources{
		"sample_rate":        SourceDefault,
		"channels":           SourceDefault,
		"bit_depth":          SourceDefault,
		"normalize":          SourceDefault,
		"ffmpeg_extra_args":  SourceDefault,
		"audio_stream_index": SourceDefault,
		"audio_language":     SourceDefault,
	}

	var fileParams config.Params
	if cfg != nil {
		fileParams = *cfg
	}

	resolveInt(&resolved.SampleRate, sources, "sample_rate", fileParams.SampleRate, cli.SampleRate)
	resolveInt(&resolved.Channels, sources, "channels", fileParams.Channels, cli.Channels)
	resolveInt(&resolved.BitDepth, sources, "bit_depth", fileParams.BitDepth, cli.BitDepth)

	switch {
	case cli.Normalize != nil:
		resolved.Normalize = *cli.Normalize
		sources["normalize"] = SourceCLI
	case fileParams.Normalize != nil:
		resolved.Normalize = *fileParams.Normalize
		sources["normalize"] = SourceConfig
	}

	switch {
	case cli.FFmpegExtraArgs != nil:
		resolved.FFmpegExtraArgs = append([]string(nil), cli.FFmpegExtraArgs...)
		sources["ffmpeg_extra_args"] = SourceCLI
	case fileParams.FFmpegExtraArgs != nil:
		resolved.FFmpegExtraArgs = append([]string(nil), fileParams.FFmpegExtraArgs...)
		sources["ffmpeg_extra_args"] = SourceConfig
	default:
		resolved.FFmpegExtraArgs = []string{}
	}

	switch {
	case cli.AudioStreamIndex != nil:
		resolved.AudioStreamIndex = copyInt(cli.AudioStreamIndex)
		sources["audio_stream_index"] = SourceCLI
	case fileParams.AudioStreamIndex != nil:
		resolved.AudioStreamIndex = copyInt(fileParams.AudioStreamIndex)
		sources["audio_stream_index"] = SourceConfig
	}

	switch {
	case cli.AudioLanguage != nil:
		resolved.AudioLanguage = copyString(cli.AudioLanguage)
		sources["audio_language"] = SourceCLI
	case fileParams.AudioLanguage != nil:
		resolved.AudioLanguage = copyString(fileParams.AudioLanguage)
		sources["audio_language"] = SourceConfig
	}

	if resolved.Normalize {
		mode := NormalizeMode
		resolved.NormalizeMode = &mode
		resolved.NormalizeConfig = &NormalizeConfig{
			Filtergraph: NormalizeFiltergraph,
			Mode:        NormalizeMode,
			Notes:       normalizeNotes,
		}
	} else {
		resolved.NormalizeMode = nil
		resolved.NormalizeConfig = nil
	}
	sources["normalize_mode"] = sources["normalize"]
	sources["normalize_config"] = sources["normalize"]

	return resolved, sources
}

func resolveInt(dst *int, sources Sources, name string, cfgValue, cliValue *int) {
	switch {
	case cliValue != nil:
		*dst = *cliValue
		sources[name] = SourceCLI
	case cfgValue != nil:
		*dst = *cfgValue
		sources[name] = SourceConfig
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Digest returns the hex SHA-256 digest of the canonical serialization of the
// resolved parameters. It is stable across machines for identical logical
// parameters.
func (r Resolved) Digest() string {
	serialized, err := json.Marshal(r)
	if err != nil {
		// Resolved contains only marshalable field types.
		panic(err)
	}
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:])
}
