package meta

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/convert"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/deps"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/media"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
)

// SchemaVersion identifies the metadata record shape. Consumers branch on it.
const SchemaVersion = "meta.v1"

// Pipeline identity embedded in every record.
const (
	PipelineName    = "onepass-audioclean-ingest"
	PipelineVersion = "1.0.0"
)

// Canonical artifact names inside a working directory. The audio file is
// named after the input's base name; see AudioFilenameFor.
const (
	MetaFilename       = "meta.json"
	ConvertLogFilename = "convert.log"
)

// AudioFilenameFor derives the output WAV name from the input's base name.
func AudioFilenameFor(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
}

// Record is the complete metadata document. Field order is part of the
// schema; do not reorder.
type Record struct {
	SchemaVersion string          `json:"schema_version"`
	CreatedAt     string          `json:"created_at"`
	Pipeline      Pipeline        `json:"pipeline"`
	Input         InputInfo       `json:"input"`
	Params        params.Resolved `json:"params"`
	ParamsSources params.Sources  `json:"params_sources"`
	Tooling       Tooling         `json:"tooling"`
	Probe         Probe           `json:"probe"`
	Output        Output          `json:"output"`
	Execution     Execution       `json:"execution"`
	Integrity     Integrity       `json:"integrity"`
	Errors        []faults.Fault  `json:"errors"`
	Warnings      []faults.Fault  `json:"warnings"`
	StableFields  StableFields    `json:"stable_fields"`
}

// Pipeline names the producing software.
type Pipeline struct {
	Repo        string `json:"repo"`
	RepoVersion string `json:"repo_version"`
}

// InputInfo describes the source file as observed at assembly time. The
// sha256 slot is a placeholder: input hashing is deliberately not performed.
type InputInfo struct {
	Path       string   `json:"path"`
	Abspath    string   `json:"abspath"`
	SizeBytes  int64    `json:"size_bytes"`
	MtimeEpoch *float64 `json:"mtime_epoch"`
	SHA256     *string  `json:"sha256"`
	Ext        string   `json:"ext"`
}

// Tooling captures the detected external binaries and the host runtime.
type Tooling struct {
	FFmpeg  *deps.ToolInfo `json:"ffmpeg"`
	FFprobe *deps.ToolInfo `json:"ffprobe"`
	Runtime RuntimeInfo    `json:"runtime"`
}

// RuntimeInfo describes the host process. Non-core by contract.
type RuntimeInfo struct {
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Executable string `json:"executable"`
}

// Probe holds both introspection results plus any downgraded probe warnings.
type Probe struct {
	InputProbe  *media.Summary     `json:"input_probe"`
	OutputProbe *media.OutputAudio `json:"output_probe"`
	Warnings    []faults.Fault     `json:"warnings"`
}

// ExpectedAudio is what the planned conversion must produce.
type ExpectedAudio struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// Output describes the working directory layout and the audio attributes,
// both expected (from params) and actual (from the output re-probe).
type Output struct {
	Workdir       string             `json:"workdir"`
	WorkID        *string            `json:"work_id"`
	WorkKey       *string            `json:"work_key"`
	AudioWAV      string             `json:"audio_wav"`
	MetaJSON      string             `json:"meta_json"`
	ConvertLog    string             `json:"convert_log"`
	ExpectedAudio ExpectedAudio      `json:"expected_audio"`
	ActualAudio   *media.OutputAudio `json:"actual_audio"`
}

// Execution records the planned transcoder invocation and whether it was
// planned-only (dry run) or actually executed.
type Execution struct {
	FFmpegCmd         []string `json:"ffmpeg_cmd"`
	FFmpegCmdStr      *string  `json:"ffmpeg_cmd_str"`
	FFmpegFiltergraph *string  `json:"ffmpeg_filtergraph"`
	CmdDigest         *string  `json:"cmd_digest"`
	Planned           bool     `json:"planned"`
}

// Integrity carries the record's content digests. MetaSHA256 stays null: the
// record cannot contain its own hash.
type Integrity struct {
	MetaSHA256        *string `json:"meta_sha256"`
	OutputAudioSHA256 *string `json:"output_audio_sha256"`
	ParamsDigest      string  `json:"params_digest"`
}

// StableFields declares which record fields are reproducible across machines
// and runs. The lists are part of the schema contract and must track the
// record's actual shape.
type StableFields struct {
	Core    []string `json:"core"`
	NonCore []string `json:"non_core"`
	Notes   string   `json:"notes"`
}

// Inputs collects everything Assemble consumes. Nil-able fields absent on a
// failure branch simply stay nil; the record shape is complete regardless.
type Inputs struct {
	InputPath     string
	Workdir       string
	Params        params.Resolved
	ParamsSources params.Sources
	Deps          *deps.Report
	InputProbe    *media.Summary
	OutputProbe   *media.OutputAudio
	ActualAudio   *media.OutputAudio
	Command       *convert.Command
	Planned       bool
	AudioFilename string
	WorkID        *string
	WorkKey       *string
	OutputSHA256  *string
	Errors        []faults.Fault
	Warnings      []faults.Fault
	ProbeWarnings []faults.Fault
	Now           time.Time
}

// Assemble builds a complete, schema-valid record from whatever upstream
// state exists. It never fails: every branch of the pipeline, including total
// dependency absence, yields the same top-level shape.
func Assemble(in Inputs) Record {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	audioName := in.AudioFilename
	if audioName == "" {
		audioName = AudioFilenameFor(in.InputPath)
	}

	record := Record{
		SchemaVersion: SchemaVersion,
		CreatedAt:     now.UTC().Format(time.RFC3339),
		Pipeline:      Pipeline{Repo: PipelineName, RepoVersion: PipelineVersion},
		Input:         inputInfo(in.InputPath),
		Params:        in.Params,
		ParamsSources: in.ParamsSources,
		Tooling:       tooling(in.Deps),
		Probe: Probe{
			InputProbe:  in.InputProbe,
			OutputProbe: in.OutputProbe,
			Warnings:    nonNilFaults(in.ProbeWarnings),
		},
		Output: Output{
			Workdir:    in.Workdir,
			WorkID:     in.WorkID,
			WorkKey:    in.WorkKey,
			AudioWAV:   audioName,
			MetaJSON:   MetaFilename,
			ConvertLog: ConvertLogFilename,
			ExpectedAudio: ExpectedAudio{
				Codec:      "pcm_s16le",
				SampleRate: in.Params.SampleRate,
				Channels:   in.Params.Channels,
				BitDepth:   in.Params.BitDepth,
			},
			ActualAudio: in.ActualAudio,
		},
		Execution: execution(in.Command, in.Planned),
		Integrity: Integrity{
			MetaSHA256:        nil,
			OutputAudioSHA256: in.OutputSHA256,
			ParamsDigest:      in.Params.Digest(),
		},
		Errors:       nonNilFaults(in.Errors),
		Warnings:     nonNilFaults(in.Warnings),
		StableFields: stableFields(),
	}
	return record
}

func inputInfo(path string) InputInfo {
	info := InputInfo{
		Path: path,
		Ext:  filepath.Ext(path),
	}
	if abs, err := filepath.Abs(path); err == nil {
		info.Abspath = abs
	} else {
		info.Abspath = path
	}
	if stat, err := os.Stat(path); err == nil {
		info.SizeBytes = stat.Size()
		mtime := float64(stat.ModTime().UnixNano()) / float64(time.Second)
		info.MtimeEpoch = &mtime
	}
	return info
}

func tooling(report *deps.Report) Tooling {
	t := Tooling{
		Runtime: RuntimeInfo{
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
	}
	if exe, err := os.Executable(); err == nil {
		t.Runtime.Executable = exe
	}
	if report != nil {
		t.FFmpeg = report.Tools["ffmpeg"]
		t.FFprobe = report.Tools["ffprobe"]
	}
	return t
}

func execution(cmd *convert.Command, planned bool) Execution {
	exec := Execution{Planned: planned}
	if cmd != nil {
		exec.FFmpegCmd = cmd.Args
		cmdStr := cmd.String()
		exec.FFmpegCmdStr = &cmdStr
		exec.FFmpegFiltergraph = cmd.Filtergraph
		digest := cmd.Digest()
		exec.CmdDigest = &digest
	}
	return exec
}

func nonNilFaults(list []faults.Fault) []faults.Fault {
	if list == nil {
		return []faults.Fault{}
	}
	return list
}
