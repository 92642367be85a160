package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/cmdrun"
)

// ErrBinaryMissing reports that the prober binary could not be resolved.
var ErrBinaryMissing = errors.New("ffprobe not found in PATH")

// ErrTimeout reports that the prober exceeded its bounded timeout.
var ErrTimeout = errors.New("ffprobe timed out")

// ExitError reports a non-zero prober exit with the captured stderr.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffprobe returned %d", e.Code)
}

// ParseError reports unparseable structured output.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse ffprobe output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single elementary stream in the media container.
type Stream struct {
	Index         int               `json:"index"`
	CodecName     string            `json:"codec_name"`
	CodecType     string            `json:"codec_type"`
	SampleRate    string            `json:"sample_rate"`
	Channels      int               `json:"channels"`
	ChannelLayout string            `json:"channel_layout"`
	BitRate       string            `json:"bit_rate"`
	BitsPerSample int               `json:"bits_per_sample"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	Tags          map[string]string `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// Inspect executes ffprobe in structured-output mode against path and decodes
// the JSON response. Failure modes are distinguishable through the returned
// error: ErrBinaryMissing, ErrTimeout, *ExitError, *ParseError.
func Inspect(ctx context.Context, binary, path string, timeout time.Duration) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{}, ErrBinaryMissing
	}

	result, err := cmdrun.Run(ctx, timeout, resolved,
		"-hide_banner", "-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		return Result{}, &ExitError{Code: -1, Stderr: err.Error()}
	}
	if result.TimedOut {
		return Result{}, ErrTimeout
	}
	if result.ExitCode != 0 {
		return Result{}, &ExitError{Code: result.ExitCode, Stderr: result.Stderr}
	}

	var parsed Result
	if err := json.Unmarshal([]byte(result.Stdout), &parsed); err != nil {
		return Result{}, &ParseError{Err: err}
	}
	return parsed, nil
}
