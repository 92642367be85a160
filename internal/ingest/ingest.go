package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/convert"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/deps"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/fileutil"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/media"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/media/audio"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/meta"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
)

// Terminal statuses reported in results and manifests.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPlanned = "planned"
)

// Default external-tool timeouts, overridable via Options.
const (
	DefaultIntrospectTimeout = 30 * time.Second
	DefaultConvertTimeout    = 180 * time.Second
)

// Options configures one single-file ingest.
type Options struct {
	InputPath string
	Workdir   string
	Params    params.Resolved
	Sources   params.Sources
	Overwrite bool
	DryRun    bool

	// DepsReport, when non-nil, skips the per-file capability check. Batch
	// runs probe once up front and share the report read-only.
	DepsReport *deps.Report

	// Deps configures the capability check when DepsReport is nil: binary
	// names and probe timeouts from configuration.
	Deps deps.Options

	// WorkID and WorkKey tag batch-derived working directories; both are nil
	// for direct single-file invocations.
	WorkID  *string
	WorkKey *string

	IntrospectTimeout time.Duration
	ConvertTimeout    time.Duration

	Logger *slog.Logger
}

// Result is the structured outcome of one ingest attempt.
type Result struct {
	InputPath      string
	Workdir        string
	AudioPath      string
	MetaPath       string
	LogPath        string
	ExitCode       int
	Status         string
	Message        string
	Errors         []faults.Fault
	Warnings       []faults.Fault
	SelectedStream *media.Stream
	StartedAt      time.Time
	EndedAt        time.Time
}

// DurationMS is the wall-clock attempt duration in milliseconds.
func (r Result) DurationMS() int64 {
	return r.EndedAt.Sub(r.StartedAt).Milliseconds()
}

// Run executes the ingest state machine for a single input. It always writes
// a complete metadata record into the working directory before returning,
// whichever branch terminates the run, and it never panics: unexpected
// failures surface as an internal_error in the result.
func Run(ctx context.Context, opts Options) (result Result) {
	opts.fill()
	startedAt := time.Now()
	logger := opts.Logger

	state := &runState{opts: &opts}

	defer func() {
		if r := recover(); r != nil {
			state.errors = append(state.errors, faults.New(faults.CodeInternal, "Unexpected failure: %v", r))
			state.writeMeta()
			result = state.finish(startedAt)
			if logger != nil {
				logger.Error("ingest panicked", "input", opts.InputPath, "panic", fmt.Sprint(r))
			}
		}
	}()

	// 1. Working directory.
	if err := os.MkdirAll(opts.Workdir, 0o755); err != nil {
		state.errors = append(state.errors, faults.New(faults.CodeOutputNotWritable, "Failed to create workdir %s: %v", opts.Workdir, err).
			WithHint("Check permissions on the output root."))
		state.writeMeta()
		return state.finish(startedAt)
	}

	// 2. Overwrite gate: refuse to touch prior artifacts without consent.
	if !opts.Overwrite && state.hasPriorArtifacts() {
		state.errors = append(state.errors, faults.New(faults.CodeOverwriteConflict, "Workdir already contains outputs; use --overwrite to replace").
			WithHint("Pass --overwrite to allow replacing existing artifacts."))
		state.writeMeta()
		return state.finish(startedAt)
	}

	// 3. Dependency gate.
	report := opts.DepsReport
	if report == nil {
		report = deps.Check(ctx, opts.Deps)
	}
	state.deps = report
	if len(report.Errors) > 0 {
		state.errors = append(state.errors, report.Errors...)
		state.writeMeta()
		return state.finish(startedAt)
	}

	// 4. Input existence.
	if _, err := os.Stat(opts.InputPath); err != nil {
		state.errors = append(state.errors, faults.New(faults.CodeInputNotFound, "Input file not found: %s", opts.InputPath).
			WithHint("Check the path and try again."))
		state.writeMeta()
		return state.finish(startedAt)
	}

	// 5. Bit-depth coercion: self-healing, reported but not terminal.
	if opts.Params.BitDepth != 16 {
		state.errors = append(state.errors, faults.New(faults.CodeInvalidParams, "Only 16-bit PCM output is supported; coerced bit depth %d to 16", opts.Params.BitDepth).
			WithHint("Use --bit-depth 16."))
		opts.Params.BitDepth = 16
		if logger != nil {
			logger.Warn("coerced bit depth to 16", "input", opts.InputPath)
		}
	}

	// 6. Introspection and stream selection.
	outcome := media.Introspect(ctx, report.FFprobePath(), opts.InputPath, opts.IntrospectTimeout)
	state.inputProbe = outcome.Summary
	state.probeWarnings = append(state.probeWarnings, outcome.Warnings...)
	if len(outcome.Faults) > 0 {
		state.errors = append(state.errors, outcome.Faults...)
		state.writeMeta()
		return state.finish(startedAt)
	}

	selection := audio.Select(outcome.Summary.Audio, audio.Preferences{
		Index:    opts.Params.AudioStreamIndex,
		Language: opts.Params.AudioLanguage,
	})
	state.probeWarnings = append(state.probeWarnings, selection.Warnings...)
	if len(selection.Faults) > 0 {
		state.errors = append(state.errors, selection.Faults...)
		state.writeMeta()
		return state.finish(startedAt)
	}
	state.selected = selection.Selected

	// 7. Plan the transcoder invocation.
	var streamIndex *int
	if state.selected != nil {
		idx := state.selected.Index
		streamIndex = &idx
	}
	cmd := convert.Plan(convert.PlanOptions{
		FFmpegPath:  report.FFmpegPath(),
		InputPath:   opts.InputPath,
		OutputPath:  state.audioPath(),
		Params:      opts.Params,
		StreamIndex: streamIndex,
		Overwrite:   opts.Overwrite,
	})
	state.command = &cmd

	// 8. Dry run stops at the plan.
	if opts.DryRun {
		state.planned = true
		state.writeMeta()
		return state.finish(startedAt)
	}

	// 9. Execute.
	if logger != nil {
		logger.Info("converting", "input", opts.InputPath, "output", state.audioPath())
	}
	exec, convertFaults := convert.Run(ctx, cmd, opts.ConvertTimeout, state.logPath())
	if len(convertFaults) == 0 {
		if _, err := os.Stat(state.audioPath()); err != nil {
			convertFaults = append(convertFaults, faults.New(faults.CodeConvertFailed, "ffmpeg exited successfully but produced no output file").
				WithDetail(map[string]any{"stderr": exec.Stderr}))
		}
	}
	if len(convertFaults) > 0 {
		state.errors = append(state.errors, convertFaults...)
		state.writeMeta()
		return state.finish(startedAt)
	}

	// 10. Output verification; failures downgrade to warnings.
	outputProbe, outputFaults := media.IntrospectOutput(ctx, report.FFprobePath(), state.audioPath(), opts.IntrospectTimeout)
	if len(outputFaults) > 0 {
		state.warnings = append(state.warnings, outputFaults...)
	} else {
		if outputProbe.BitDepth == 0 {
			outputProbe.BitDepth = opts.Params.BitDepth
		}
		state.outputProbe = outputProbe
	}
	if digest, err := fileutil.HashFile(state.audioPath()); err == nil {
		state.outputSHA256 = &digest
	}

	// 11. Done.
	state.writeMeta()
	return state.finish(startedAt)
}

func (o *Options) fill() {
	if o.IntrospectTimeout <= 0 {
		o.IntrospectTimeout = DefaultIntrospectTimeout
	}
	if o.ConvertTimeout <= 0 {
		o.ConvertTimeout = DefaultConvertTimeout
	}
}

// runState accumulates everything the metadata assembler and the final
// result need, so every early return shares one exit path.
type runState struct {
	opts *Options

	deps          *deps.Report
	inputProbe    *media.Summary
	outputProbe   *media.OutputAudio
	selected      *media.Stream
	command       *convert.Command
	planned       bool
	outputSHA256  *string
	errors        []faults.Fault
	warnings      []faults.Fault
	probeWarnings []faults.Fault
	metaWritten   bool
}

func (s *runState) audioPath() string {
	return filepath.Join(s.opts.Workdir, meta.AudioFilenameFor(s.opts.InputPath))
}

func (s *runState) metaPath() string {
	return filepath.Join(s.opts.Workdir, meta.MetaFilename)
}

func (s *runState) logPath() string {
	return filepath.Join(s.opts.Workdir, meta.ConvertLogFilename)
}

func (s *runState) hasPriorArtifacts() bool {
	for _, path := range []string{s.audioPath(), s.metaPath(), s.logPath()} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

func (s *runState) writeMeta() {
	if s.metaWritten {
		return
	}
	s.metaWritten = true
	record := meta.Assemble(meta.Inputs{
		InputPath:     s.opts.InputPath,
		Workdir:       s.opts.Workdir,
		Params:        s.opts.Params,
		ParamsSources: s.opts.Sources,
		Deps:          s.deps,
		InputProbe:    s.inputProbe,
		OutputProbe:   s.outputProbe,
		ActualAudio:   s.outputProbe,
		Command:       s.command,
		Planned:       s.planned,
		WorkID:        s.opts.WorkID,
		WorkKey:       s.opts.WorkKey,
		OutputSHA256:  s.outputSHA256,
		Errors:        s.errors,
		Warnings:      s.warnings,
		ProbeWarnings: s.probeWarnings,
		AudioFilename: meta.AudioFilenameFor(s.opts.InputPath),
	})
	if err := meta.Write(record, s.metaPath()); err != nil {
		// The record could not be persisted; the result still carries the
		// full error list so the caller is not blind.
		s.errors = append(s.errors, faults.New(faults.CodeOutputNotWritable, "Failed to write metadata record: %v", err))
	}
}

func (s *runState) finish(startedAt time.Time) Result {
	exitCode := faults.ExitCodeFor(s.errors)
	status := StatusFailed
	message := ""
	switch {
	case exitCode == faults.ExitSuccess && s.planned:
		status = StatusPlanned
		message = "planned"
	case exitCode == faults.ExitSuccess:
		status = StatusSuccess
		message = "ok"
	default:
		if len(s.errors) > 0 {
			message = s.errors[len(s.errors)-1].Message
		} else {
			message = "failed"
		}
	}
	return Result{
		InputPath:      s.opts.InputPath,
		Workdir:        s.opts.Workdir,
		AudioPath:      s.audioPath(),
		MetaPath:       s.metaPath(),
		LogPath:        s.logPath(),
		ExitCode:       exitCode,
		Status:         status,
		Message:        message,
		Errors:         s.errors,
		Warnings:       s.warnings,
		SelectedStream: s.selected,
		StartedAt:      startedAt,
		EndedAt:        time.Now(),
	}
}
