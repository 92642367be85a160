package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/batch"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/meta"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/testsupport"
)

// runCommand executes the CLI with args and returns stdout plus the exit
// code the process would report.
func runCommand(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return stdout.String(), 0
	}
	var coded *exitCodeError
	if errors.As(err, &coded) {
		return stdout.String(), coded.code
	}
	t.Logf("stderr: %s", stderr.String())
	t.Logf("error: %v", err)
	return stdout.String(), 1
}

func installTools(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	testsupport.FakeFFmpeg(t, dir)
	testsupport.FakeFFprobe(t, dir, testsupport.DefaultProbeJSON)
	testsupport.UseToolDir(t, dir)
	// Keep the default config location out of the real home directory.
	t.Setenv("HOME", t.TempDir())
}

func TestIngestCommandSuccess(t *testing.T) {
	installTools(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp3")
	testsupport.WriteFile(t, input, 1024)
	workdir := filepath.Join(dir, "work")

	_, code := runCommand(t, "ingest", input, "--out", workdir)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(workdir, "clip.wav")); err != nil {
		t.Fatalf("expected audio artifact: %v", err)
	}
	record, err := meta.Read(filepath.Join(workdir, meta.MetaFilename))
	if err != nil {
		t.Fatalf("expected metadata record: %v", err)
	}
	if record.SchemaVersion != meta.SchemaVersion {
		t.Fatalf("unexpected schema version %q", record.SchemaVersion)
	}
}

func TestIngestCommandOverwriteConflictExitCode(t *testing.T) {
	installTools(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp3")
	testsupport.WriteFile(t, input, 1024)
	workdir := filepath.Join(dir, "work")

	if _, code := runCommand(t, "ingest", input, "--out", workdir); code != 0 {
		t.Fatal("first ingest should succeed")
	}
	if _, code := runCommand(t, "ingest", input, "--out", workdir); code != faults.ExitOverwriteConflict {
		t.Fatalf("expected exit %d, got %d", faults.ExitOverwriteConflict, code)
	}
	if _, code := runCommand(t, "ingest", input, "--out", workdir, "--overwrite"); code != 0 {
		t.Fatal("overwrite run should succeed")
	}
}

func TestIngestCommandDryRun(t *testing.T) {
	installTools(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp3")
	testsupport.WriteFile(t, input, 1024)
	workdir := filepath.Join(dir, "work")

	_, code := runCommand(t, "ingest", input, "--out", workdir, "--dry-run", "--normalize")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(workdir, "clip.wav")); !os.IsNotExist(err) {
		t.Fatal("dry run must not produce audio")
	}
	record, err := meta.Read(filepath.Join(workdir, meta.MetaFilename))
	if err != nil {
		t.Fatalf("expected metadata record: %v", err)
	}
	if !record.Execution.Planned || len(record.Execution.FFmpegCmd) == 0 {
		t.Fatalf("expected recorded plan, got %+v", record.Execution)
	}
	if record.Execution.FFmpegFiltergraph == nil {
		t.Fatal("expected normalize filtergraph in the plan")
	}
}

func TestCheckDepsCommandMissingTools(t *testing.T) {
	testsupport.UseToolDir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, code := runCommand(t, "check-deps")
	if code != faults.ExitDepsMissing {
		t.Fatalf("expected exit %d, got %d", faults.ExitDepsMissing, code)
	}
}

func TestBatchCommandPartialFailureExitCode(t *testing.T) {
	dir := t.TempDir()
	testsupport.FakeFFmpegFailing(t, dir)
	testsupport.FakeFFprobe(t, dir, testsupport.DefaultProbeJSON)
	testsupport.UseToolDir(t, dir)
	t.Setenv("HOME", t.TempDir())

	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(inputDir, "bad.mp3"), 100)

	_, code := runCommand(t, "batch", inputDir, outputRoot)
	if code != batch.ExitPartialFailure {
		t.Fatalf("expected exit %d, got %d", batch.ExitPartialFailure, code)
	}
	records, err := batch.ReadManifest(filepath.Join(outputRoot, batch.DefaultManifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(records) != 1 || records[0].Status != "failed" {
		t.Fatalf("unexpected manifest: %+v", records)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	if _, code := runCommand(t, "config", "init", "--path", target); code != 0 {
		t.Fatal("config init failed")
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}
	out, code := runCommand(t, "--config", target, "config", "validate")
	if code != 0 {
		t.Fatalf("config validate failed: %s", out)
	}
}

func TestMetaCommandWritesRecordWithoutConversion(t *testing.T) {
	installTools(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp3")
	testsupport.WriteFile(t, input, 1024)
	workdir := filepath.Join(dir, "work")

	_, code := runCommand(t, "meta", input, "--out", workdir)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	record, err := meta.Read(filepath.Join(workdir, meta.MetaFilename))
	if err != nil {
		t.Fatalf("expected metadata record: %v", err)
	}
	if record.Probe.InputProbe == nil {
		t.Fatal("expected input probe in record")
	}
	if len(record.Execution.FFmpegCmd) != 0 {
		t.Fatal("meta command must not plan a conversion")
	}
	if _, err := os.Stat(filepath.Join(workdir, "clip.wav")); !os.IsNotExist(err) {
		t.Fatal("meta command must not convert")
	}
}
