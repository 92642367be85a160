package deps

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/cmdrun"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
)

// ToolInfo describes a detected tool binary. A nil *ToolInfo means the tool
// is absent; every read site must handle that case.
type ToolInfo struct {
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	VersionRaw string            `json:"version_raw"`
	Version    string            `json:"version,omitempty"`
	Build      map[string]string `json:"build,omitempty"`
}

// Required capability tokens. The encoder token is matched by substring in
// the -encoders listing; decoder tokens by word boundary in -decoders.
var requiredCapabilities = map[string]string{
	"pcm_s16le":   "pcm_s16le",
	"decode_mp3":  "mp3",
	"decode_aac":  "aac",
	"decode_flac": "flac",
	"decode_opus": "opus",
}

// Report is the capability report consumed by the orchestrator and recorded
// in metadata. Constructed fresh per run and never mutated afterwards.
type Report struct {
	OK           bool                 `json:"ok"`
	Tools        map[string]*ToolInfo `json:"tools"`
	Capabilities map[string]bool      `json:"capabilities"`
	Errors       []faults.Fault       `json:"errors"`
	Warnings     []faults.Fault       `json:"warnings"`
	CreatedAt    time.Time            `json:"created_at"`
	Platform     map[string]string    `json:"platform"`
}

// ExitCode maps the report to the process exit code for dependency gating.
func (r *Report) ExitCode() int {
	if len(r.Errors) == 0 {
		return faults.ExitSuccess
	}
	return faults.ExitDepsMissing
}

// FFmpegPath returns the detected transcoder path, or the empty string.
func (r *Report) FFmpegPath() string {
	if info := r.Tools["ffmpeg"]; info != nil {
		return info.Path
	}
	return ""
}

// FFprobePath returns the detected prober path, or the empty string.
func (r *Report) FFprobePath() string {
	if info := r.Tools["ffprobe"]; info != nil {
		return info.Path
	}
	return ""
}

// Options configures a capability check.
type Options struct {
	FFmpeg            string
	FFprobe           string
	VersionTimeout    time.Duration
	CapabilityTimeout time.Duration
}

func (o *Options) fill() {
	if o.FFmpeg == "" {
		o.FFmpeg = "ffmpeg"
	}
	if o.FFprobe == "" {
		o.FFprobe = "ffprobe"
	}
	if o.VersionTimeout <= 0 {
		o.VersionTimeout = 10 * time.Second
	}
	if o.CapabilityTimeout <= 0 {
		o.CapabilityTimeout = 15 * time.Second
	}
}

// Check locates and inspects the transcoder and prober binaries and probes
// the transcoder's encoder/decoder listings for the minimal ingest
// capabilities. Tool absence is a reported error, never a panic.
func Check(ctx context.Context, opts Options) *Report {
	opts.fill()

	report := &Report{
		Tools:        map[string]*ToolInfo{"ffmpeg": nil, "ffprobe": nil},
		Capabilities: make(map[string]bool, len(requiredCapabilities)),
		Errors:       []faults.Fault{},
		Warnings:     []faults.Fault{},
		CreatedAt:    time.Now().UTC(),
		Platform: map[string]string{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"go_version": runtime.Version(),
		},
	}
	for key := range requiredCapabilities {
		report.Capabilities[key] = false
	}

	ffmpegInfo, ffmpegFaults := detectTool(ctx, "ffmpeg", opts.FFmpeg, opts.VersionTimeout)
	report.Tools["ffmpeg"] = ffmpegInfo
	report.Errors = append(report.Errors, ffmpegFaults...)

	ffprobeInfo, ffprobeFaults := detectTool(ctx, "ffprobe", opts.FFprobe, opts.VersionTimeout)
	report.Tools["ffprobe"] = ffprobeInfo
	report.Errors = append(report.Errors, ffprobeFaults...)

	if ffmpegInfo != nil && len(ffmpegFaults) == 0 {
		capFaults := detectCapabilities(ctx, ffmpegInfo.Path, opts.CapabilityTimeout, report.Capabilities)
		report.Errors = append(report.Errors, capFaults...)

		for key, supported := range report.Capabilities {
			if !supported {
				report.Errors = append(report.Errors, faults.New(
					faults.CodeDepsInsufficient,
					"ffmpeg missing required capability %q", key,
				).WithHint("Ensure ffmpeg is built with PCM encoders and common audio decoders enabled."))
			}
		}
	}

	report.OK = len(report.Errors) == 0
	return report
}

func detectTool(ctx context.Context, name, binary string, timeout time.Duration) (*ToolInfo, []faults.Fault) {
	path, err := exec.LookPath(binary)
	if err != nil {
		fault := faults.New(faults.CodeDepsMissing, "%s not found in PATH", name).
			WithHint("Install ffmpeg and ensure it is available in PATH.")
		return nil, []faults.Fault{fault}
	}

	result, runErr := cmdrun.Run(ctx, timeout, path, "-version")
	if runErr != nil {
		fault := faults.New(faults.CodeDepsBroken, "%s detection failed: %v", name, runErr).
			WithHint("Reinstall or rebuild ffmpeg.")
		return nil, []faults.Fault{fault}
	}
	if result.TimedOut {
		fault := faults.New(faults.CodeDepsBroken, "%s -version timed out after %s", name, timeout).
			WithHint("Check the installation or raise the version_probe timeout.")
		return nil, []faults.Fault{fault}
	}

	versionRaw := strings.TrimSpace(result.Stdout)
	if versionRaw == "" {
		versionRaw = strings.TrimSpace(result.Stderr)
	}
	info := &ToolInfo{
		Name:       name,
		Path:       path,
		VersionRaw: versionRaw,
		Version:    parseVersion(versionRaw, name),
		Build:      parseBuildInfo(versionRaw),
	}

	if result.ExitCode != 0 {
		fault := faults.New(faults.CodeDepsBroken, "%s returned non-zero exit code: %d", name, result.ExitCode).
			WithHint("Reinstall or rebuild ffmpeg.")
		return info, []faults.Fault{fault}
	}
	return info, nil
}

func detectCapabilities(ctx context.Context, ffmpegPath string, timeout time.Duration, capabilities map[string]bool) []faults.Fault {
	encoders, err := cmdrun.Run(ctx, timeout, ffmpegPath, "-hide_banner", "-encoders")
	if err != nil || encoders.TimedOut || encoders.ExitCode != 0 {
		return []faults.Fault{capabilityFault("ffmpeg -encoders", encoders, err)}
	}
	if strings.Contains(strings.ToLower(encoders.Stdout), requiredCapabilities["pcm_s16le"]) {
		capabilities["pcm_s16le"] = true
	}

	decoders, err := cmdrun.Run(ctx, timeout, ffmpegPath, "-hide_banner", "-decoders")
	if err != nil || decoders.TimedOut || decoders.ExitCode != 0 {
		return []faults.Fault{capabilityFault("ffmpeg -decoders", decoders, err)}
	}
	decoderOutput := strings.ToLower(decoders.Stdout)
	for key, token := range requiredCapabilities {
		if key == "pcm_s16le" {
			continue
		}
		if containsWord(decoderOutput, token) {
			capabilities[key] = true
		}
	}
	return nil
}

func capabilityFault(query string, result cmdrun.Result, err error) faults.Fault {
	switch {
	case err != nil:
		return faults.New(faults.CodeDepsBroken, "%s failed: %v", query, err).
			WithHint("Inspect ffmpeg build or permissions.")
	case result.TimedOut:
		return faults.New(faults.CodeDepsBroken, "%s timed out", query).
			WithHint("Inspect ffmpeg build or permissions.")
	default:
		return faults.New(faults.CodeDepsBroken, "%s returned non-zero exit code", query).
			WithHint("Inspect ffmpeg build or permissions.")
	}
}

// containsWord reports whether token appears in text delimited by
// non-identifier characters, so "opus" does not match "libopusenc".
func containsWord(text, token string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], token)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(token)
		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
