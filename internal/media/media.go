package media

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/media/ffprobe"
)

// CodeNoAudioStreamWarning tags the non-fatal warning emitted when an input
// probes cleanly but contains no audio stream.
const CodeNoAudioStreamWarning faults.Code = "probe_no_audio_stream"

// Stream is the normalized summary of one audio elementary stream. Indexes
// are container stream indexes, not array positions.
type Stream struct {
	Index         int     `json:"index"`
	CodecName     string  `json:"codec_name"`
	SampleRate    int     `json:"sample_rate"`
	Channels      int     `json:"channels"`
	ChannelLayout string  `json:"channel_layout,omitempty"`
	BitRate       int64   `json:"bit_rate"`
	Language      *string `json:"language"`
}

// VideoStream is the normalized summary of one video elementary stream.
type VideoStream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Summary is the normalized introspection result for one input.
type Summary struct {
	Audio      []Stream      `json:"audio_streams"`
	Video      []VideoStream `json:"video_streams"`
	Duration   float64       `json:"duration"`
	FormatName string        `json:"format_name"`
}

// Outcome pairs an optional summary with the faults and warnings the
// introspection produced. A nil Summary always comes with exactly one fault.
type Outcome struct {
	Summary  *Summary
	Faults   []faults.Fault
	Warnings []faults.Fault
}

// Introspect probes an input file and returns its normalized stream summary.
// Every prober failure mode is normalized to a single probe_failed fault with
// the sub-cause recorded in the detail payload.
func Introspect(ctx context.Context, binary, path string, timeout time.Duration) Outcome {
	result, err := ffprobe.Inspect(ctx, binary, path, timeout)
	if err != nil {
		return Outcome{Faults: []faults.Fault{probeFault(err, timeout)}}
	}

	summary := summarize(result)
	outcome := Outcome{Summary: summary}
	if len(summary.Audio) == 0 {
		outcome.Warnings = append(outcome.Warnings, faults.Fault{
			Code:    CodeNoAudioStreamWarning,
			Message: "No audio stream detected in input",
		})
	}
	return outcome
}

// OutputAudio describes the verified attributes of a produced audio file.
type OutputAudio struct {
	CodecName  string  `json:"codec"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Duration   float64 `json:"duration"`
	SizeBytes  int64   `json:"size_bytes"`
}

// IntrospectOutput re-probes a just-produced output file to confirm its
// actual attributes. Callers treat their faults as warnings once conversion
// has already succeeded; this is verification, not a gate.
func IntrospectOutput(ctx context.Context, binary, path string, timeout time.Duration) (*OutputAudio, []faults.Fault) {
	result, err := ffprobe.Inspect(ctx, binary, path, timeout)
	if err != nil {
		return nil, []faults.Fault{probeFault(err, timeout)}
	}

	out := &OutputAudio{
		Duration:  parseFloat(result.Format.Duration),
		SizeBytes: int64(parseFloat(result.Format.Size)),
	}
	for _, stream := range result.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		out.CodecName = stream.CodecName
		out.SampleRate = parseInt(stream.SampleRate)
		out.Channels = stream.Channels
		out.BitDepth = stream.BitsPerSample
		break
	}
	return out, nil
}

func probeFault(err error, timeout time.Duration) faults.Fault {
	switch {
	case errors.Is(err, ffprobe.ErrBinaryMissing):
		return faults.New(faults.CodeProbeFailed, "ffprobe not found in PATH").
			WithHint("Install ffprobe or ensure it is available in PATH.").
			WithDetail(map[string]any{"cause": "probe_missing"})
	case errors.Is(err, ffprobe.ErrTimeout):
		return faults.New(faults.CodeProbeFailed, "ffprobe timed out after %s", timeout).
			WithHint("Retry with a smaller file or raise the introspect timeout.").
			WithDetail(map[string]any{"cause": "probe_timeout"})
	default:
		var exitErr *ffprobe.ExitError
		if errors.As(err, &exitErr) {
			return faults.New(faults.CodeProbeFailed, "ffprobe returned %d", exitErr.Code).
				WithDetail(map[string]any{"cause": "probe_failed", "stderr": exitErr.Stderr})
		}
		var parseErr *ffprobe.ParseError
		if errors.As(err, &parseErr) {
			return faults.New(faults.CodeProbeFailed, "Failed to parse ffprobe JSON output").
				WithDetail(map[string]any{"cause": "probe_parse_error", "error": parseErr.Err.Error()})
		}
		return faults.New(faults.CodeProbeFailed, "ffprobe failed: %v", err).
			WithDetail(map[string]any{"cause": "probe_failed"})
	}
}

func summarize(result ffprobe.Result) *Summary {
	summary := &Summary{
		Audio:      []Stream{},
		Video:      []VideoStream{},
		Duration:   parseFloat(result.Format.Duration),
		FormatName: result.Format.FormatName,
	}
	for _, stream := range result.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "audio":
			summary.Audio = append(summary.Audio, Stream{
				Index:         stream.Index,
				CodecName:     stream.CodecName,
				SampleRate:    parseInt(stream.SampleRate),
				Channels:      stream.Channels,
				ChannelLayout: stream.ChannelLayout,
				BitRate:       int64(parseInt(stream.BitRate)),
				Language:      languageTag(stream.Tags),
			})
		case "video":
			summary.Video = append(summary.Video, VideoStream{
				Index:     stream.Index,
				CodecName: stream.CodecName,
				Width:     stream.Width,
				Height:    stream.Height,
			})
		}
	}
	return summary
}

func languageTag(tags map[string]string) *string {
	if len(tags) == 0 {
		return nil
	}
	for _, key := range []string{"language", "LANGUAGE", "Language"} {
		if value, ok := tags[key]; ok {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				return nil
			}
			return &trimmed
		}
	}
	return nil
}

func parseInt(value string) int {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return parsed
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}
