package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/deps"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/fileutil"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/ingest"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/meta"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/runindex"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/scan"
)

// Batch-level exit codes. The dependency-abort code is distinct from the
// partial-failure code so callers can tell "nothing was attempted" apart
// from "some files failed".
const (
	ExitAllSucceeded   = 0
	ExitPartialFailure = 1
	ExitDepsGateFailed = 2
)

const lockFilename = ".ingest.lock"

// Options configures one batch run.
type Options struct {
	Params          params.Resolved
	Sources         params.Sources
	Overwrite       bool
	Recursive       bool
	Extensions      []string
	ContinueOnError bool
	ManifestName    string
	DryRun          bool

	IntrospectTimeout time.Duration
	ConvertTimeout    time.Duration

	// Deps configures the up-front capability check: binary names and probe
	// timeouts from configuration.
	Deps deps.Options

	// RunIndex, when non-nil, receives a history row for this run.
	RunIndex *runindex.Store

	Logger *slog.Logger
}

// Summary is the terminal outcome of a batch run.
type Summary struct {
	RunID        string
	ExitCode     int
	Processed    int
	Succeeded    int
	Failed       int
	ManifestPath string
	StartedAt    time.Time
	EndedAt      time.Time
}

// Run scans inputDir and ingests every discovered file in deterministic
// order, appending one manifest record per file. The dependency gate runs
// once up front: a failed gate aborts before any input is scanned or
// touched, leaving a single summary record in the manifest.
func Run(ctx context.Context, inputDir, outputRoot string, opts Options) (Summary, error) {
	startedAt := time.Now()
	runID := uuid.New().String()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	absInput, err := filepath.Abs(inputDir)
	if err != nil {
		return Summary{RunID: runID}, fmt.Errorf("resolve input dir: %w", err)
	}
	absOutput, err := filepath.Abs(outputRoot)
	if err != nil {
		return Summary{RunID: runID}, fmt.Errorf("resolve output root: %w", err)
	}
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return Summary{RunID: runID}, fmt.Errorf("create output root: %w", err)
	}
	if !fileutil.IsWritableDir(absOutput) {
		return Summary{RunID: runID}, fmt.Errorf("output root %s is not writable", absOutput)
	}

	// One batch at a time per output root.
	lock := flock.New(filepath.Join(absOutput, lockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{RunID: runID}, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !locked {
		return Summary{RunID: runID}, fmt.Errorf("another batch is already running against %s", absOutput)
	}
	defer func() { _ = lock.Unlock() }()

	manifestPath := ManifestPath(absOutput, opts.ManifestName, opts.DryRun)
	writer, err := newManifestWriter(manifestPath)
	if err != nil {
		return Summary{RunID: runID}, err
	}
	defer writer.Close()

	summary := Summary{RunID: runID, ManifestPath: manifestPath, StartedAt: startedAt}

	// Dependency gate before any input is scanned.
	report := deps.Check(ctx, opts.Deps)
	if len(report.Errors) > 0 {
		logger.Error("dependency gate failed, aborting batch", "run_id", runID)
		codes, messages := faults.Summarize(report.Errors)
		exitCode := ExitDepsGateFailed
		endedAt := time.Now()
		record := ManifestRecord{
			SchemaVersion:   ManifestSchemaVersion,
			Status:          ingest.StatusFailed,
			ExitCode:        &exitCode,
			ErrorCodes:      codes,
			ErrorMessages:   messages,
			WarningCodes:    []string{},
			WarningMessages: []string{},
			Message:         "dependency gate failed; no inputs were attempted",
			Input:           ManifestInput{Path: absInput},
			StartedAt:       startedAt.UTC().Format(time.RFC3339),
			EndedAt:         endedAt.UTC().Format(time.RFC3339),
			DurationMS:      endedAt.Sub(startedAt).Milliseconds(),
			ParamsDigest:    opts.Params.Digest(),
		}
		if err := writer.Append(record); err != nil {
			return summary, err
		}
		summary.ExitCode = ExitDepsGateFailed
		summary.EndedAt = endedAt
		recordRun(ctx, logger, opts.RunIndex, absInput, absOutput, opts.DryRun, summary)
		return summary, nil
	}

	entries, err := scan.Inputs(absInput, scan.Options{
		Recursive:  opts.Recursive,
		Extensions: opts.Extensions,
	})
	if err != nil {
		return summary, fmt.Errorf("scan inputs: %w", err)
	}
	if len(entries) == 0 {
		logger.Info("no inputs found", "input_dir", absInput)
	}

	for _, entry := range entries {
		summary.Processed++
		workKey := WorkKey(entry.RelPath, entry.SizeBytes)
		workID := WorkID(workKey)
		workdir := filepath.Join(absOutput, WorkdirName(entry.Path, workID))
		fileStarted := time.Now()

		if opts.DryRun {
			record := planRecord(entry, workdir, workID, workKey, opts.Params, fileStarted)
			if err := writer.Append(record); err != nil {
				return summary, err
			}
			continue
		}

		result := ingest.Run(ctx, ingest.Options{
			InputPath:         entry.Path,
			Workdir:           workdir,
			Params:            opts.Params,
			Sources:           opts.Sources,
			Overwrite:         opts.Overwrite,
			DepsReport:        report,
			WorkID:            &workID,
			WorkKey:           &workKey,
			IntrospectTimeout: opts.IntrospectTimeout,
			ConvertTimeout:    opts.ConvertTimeout,
			Logger:            logger,
		})

		if result.Status == ingest.StatusSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
			summary.ExitCode = ExitPartialFailure
		}

		if err := writer.Append(resultRecord(entry, result, workdir, workID, workKey, opts.Params)); err != nil {
			return summary, err
		}
		logger.Info("file processed",
			"relpath", entry.RelPath,
			"status", result.Status,
			"exit_code", result.ExitCode,
		)

		if result.Status != ingest.StatusSuccess && !opts.ContinueOnError {
			logger.Warn("stopping batch on first failure", "relpath", entry.RelPath)
			break
		}
	}

	summary.EndedAt = time.Now()
	recordRun(ctx, logger, opts.RunIndex, absInput, absOutput, opts.DryRun, summary)
	return summary, nil
}

func planRecord(entry scan.Entry, workdir, workID, workKey string, resolved params.Resolved, started time.Time) ManifestRecord {
	ended := time.Now()
	return ManifestRecord{
		SchemaVersion:   ManifestPlanSchemaVersion,
		Status:          ingest.StatusPlanned,
		ExitCode:        nil,
		ErrorCodes:      []string{},
		ErrorMessages:   []string{},
		WarningCodes:    []string{},
		WarningMessages: []string{},
		Message:         "planned",
		Input: ManifestInput{
			Path:      entry.Path,
			RelPath:   entry.RelPath,
			Ext:       strings.ToLower(filepath.Ext(entry.Path)),
			SizeBytes: entry.SizeBytes,
		},
		Output:       manifestOutput(entry, workdir, workID, workKey),
		StartedAt:    started.UTC().Format(time.RFC3339),
		EndedAt:      ended.UTC().Format(time.RFC3339),
		DurationMS:   ended.Sub(started).Milliseconds(),
		ParamsDigest: resolved.Digest(),
	}
}

func resultRecord(entry scan.Entry, result ingest.Result, workdir, workID, workKey string, resolved params.Resolved) ManifestRecord {
	errorCodes, errorMessages := faults.Summarize(result.Errors)
	warningCodes, warningMessages := faults.Summarize(result.Warnings)
	exitCode := result.ExitCode
	return ManifestRecord{
		SchemaVersion:   ManifestSchemaVersion,
		Status:          result.Status,
		ExitCode:        &exitCode,
		ErrorCodes:      errorCodes,
		ErrorMessages:   errorMessages,
		WarningCodes:    warningCodes,
		WarningMessages: warningMessages,
		Message:         result.Message,
		Input: ManifestInput{
			Path:      entry.Path,
			RelPath:   entry.RelPath,
			Ext:       strings.ToLower(filepath.Ext(entry.Path)),
			SizeBytes: entry.SizeBytes,
		},
		Output:       manifestOutput(entry, workdir, workID, workKey),
		StartedAt:    result.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:      result.EndedAt.UTC().Format(time.RFC3339),
		DurationMS:   result.DurationMS(),
		ParamsDigest: resolved.Digest(),
	}
}

func manifestOutput(entry scan.Entry, workdir, workID, workKey string) ManifestOutput {
	return ManifestOutput{
		Workdir:    workdir,
		WorkID:     workID,
		WorkKey:    workKey,
		AudioWAV:   filepath.Join(workdir, meta.AudioFilenameFor(entry.Path)),
		MetaJSON:   filepath.Join(workdir, meta.MetaFilename),
		ConvertLog: filepath.Join(workdir, meta.ConvertLogFilename),
	}
}

func recordRun(ctx context.Context, logger *slog.Logger, store *runindex.Store, inputDir, outputRoot string, dryRun bool, summary Summary) {
	if store == nil {
		return
	}
	_, err := store.Record(ctx, runindex.Run{
		RunID:        summary.RunID,
		InputDir:     inputDir,
		OutputRoot:   outputRoot,
		ManifestPath: summary.ManifestPath,
		DryRun:       dryRun,
		Processed:    summary.Processed,
		Succeeded:    summary.Succeeded,
		Failed:       summary.Failed,
		ExitCode:     summary.ExitCode,
		StartedAt:    summary.StartedAt,
		EndedAt:      summary.EndedAt,
	})
	if err != nil {
		logger.Warn("failed to record run in index", "error", err)
	}
}
