package convert

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/testsupport"
)

func resolvedDefaults(t *testing.T, normalize bool) params.Resolved {
	t.Helper()
	resolved, _ := params.Resolve(nil, params.Overrides{Normalize: &normalize})
	return resolved
}

func TestPlanArgumentOrder(t *testing.T) {
	cmd := Plan(PlanOptions{
		FFmpegPath: "/usr/bin/ffmpeg",
		InputPath:  "in.mp3",
		OutputPath: "out.wav",
		Params:     resolvedDefaults(t, false),
	})
	want := []string{
		"/usr/bin/ffmpeg", "-hide_banner", "-n", "-i", "in.mp3",
		"-vn", "-ar", "16000", "-ac", "1",
		"-c:a", "pcm_s16le", "-map_metadata", "-1",
		"-fflags", "+bitexact", "-flags:a", "+bitexact",
		"out.wav",
	}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("argv mismatch:\n got %v\nwant %v", cmd.Args, want)
	}
	if cmd.Filtergraph != nil {
		t.Fatalf("expected no filtergraph, got %q", *cmd.Filtergraph)
	}
}

func TestPlanWithNormalizeStreamAndOverwrite(t *testing.T) {
	idx := 2
	resolved := resolvedDefaults(t, true)
	resolved.FFmpegExtraArgs = []string{"-threads", "1"}
	cmd := Plan(PlanOptions{
		FFmpegPath:  "ffmpeg",
		InputPath:   "in.mkv",
		OutputPath:  "out.wav",
		Params:      resolved,
		StreamIndex: &idx,
		Overwrite:   true,
	})
	want := []string{
		"ffmpeg", "-hide_banner", "-y", "-i", "in.mkv",
		"-map", "0:2",
		"-vn", "-ar", "16000", "-ac", "1",
		"-af", params.NormalizeFiltergraph,
		"-c:a", "pcm_s16le", "-map_metadata", "-1",
		"-fflags", "+bitexact", "-flags:a", "+bitexact",
		"-threads", "1",
		"out.wav",
	}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("argv mismatch:\n got %v\nwant %v", cmd.Args, want)
	}
	if cmd.Filtergraph == nil || *cmd.Filtergraph != params.NormalizeFiltergraph {
		t.Fatalf("expected filtergraph %q, got %+v", params.NormalizeFiltergraph, cmd.Filtergraph)
	}
}

func TestPlanDigestIsStable(t *testing.T) {
	opts := PlanOptions{
		FFmpegPath: "ffmpeg",
		InputPath:  "in.mp3",
		OutputPath: "out.wav",
		Params:     resolvedDefaults(t, true),
	}
	first := Plan(opts).Digest()
	second := Plan(opts).Digest()
	if first != second {
		t.Fatalf("digest not stable: %s vs %s", first, second)
	}
	opts.Overwrite = true
	if Plan(opts).Digest() == first {
		t.Fatal("digest should change when argv changes")
	}
}

func TestCommandStringQuotesArguments(t *testing.T) {
	cmd := Command{Args: []string{"ffmpeg", "-i", "my file.mp3", "out.wav"}}
	rendered := cmd.String()
	if !strings.Contains(rendered, "'my file.mp3'") {
		t.Fatalf("expected quoted path, got %q", rendered)
	}
	if !strings.HasPrefix(rendered, "ffmpeg -i ") {
		t.Fatalf("unexpected rendering %q", rendered)
	}
}

func TestRunSuccessWritesOutputAndLog(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := testsupport.FakeFFmpeg(t, dir)
	output := filepath.Join(dir, "out.wav")
	logPath := filepath.Join(dir, "convert.log")

	cmd := Plan(PlanOptions{
		FFmpegPath: ffmpeg,
		InputPath:  filepath.Join(dir, "in.mp3"),
		OutputPath: output,
		Params:     resolvedDefaults(t, false),
	})
	exec, runFaults := Run(context.Background(), cmd, 10*time.Second, logPath)
	if len(runFaults) != 0 {
		t.Fatalf("unexpected faults: %+v", runFaults)
	}
	if exec.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exec.ExitCode)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	transcript, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("expected convert.log: %v", err)
	}
	for _, line := range []string{
		"input: " + filepath.Join(dir, "in.mp3"),
		"output: " + output,
		"exit code: 0",
	} {
		if !strings.Contains(string(transcript), line) {
			t.Fatalf("transcript missing %q:\n%s", line, transcript)
		}
	}
}

func TestRunFailureReportsConvertFault(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := testsupport.FakeFFmpegFailing(t, dir)

	cmd := Plan(PlanOptions{
		FFmpegPath: ffmpeg,
		InputPath:  filepath.Join(dir, "in.mp3"),
		OutputPath: filepath.Join(dir, "out.wav"),
		Params:     resolvedDefaults(t, false),
	})
	exec, runFaults := Run(context.Background(), cmd, 10*time.Second, filepath.Join(dir, "convert.log"))
	if exec.ExitCode == 0 {
		t.Fatal("expected non-zero exit")
	}
	if !faults.HasCode(runFaults, faults.CodeConvertFailed) {
		t.Fatalf("expected convert_failed, got %+v", runFaults)
	}
}

func TestRunMissingBinary(t *testing.T) {
	cmd := Command{Args: []string{"ffmpeg-that-does-not-exist", "-version"}}
	_, runFaults := Run(context.Background(), cmd, time.Second, "")
	if !faults.HasCode(runFaults, faults.CodeConvertFailed) {
		t.Fatalf("expected convert_failed, got %+v", runFaults)
	}
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	slow := testsupport.WriteTool(t, dir, "ffmpeg", "#!/bin/sh\nsleep 5\n")
	cmd := Command{Args: []string{slow, "-i", "in.mp3", "out.wav"}}
	exec, runFaults := Run(context.Background(), cmd, 100*time.Millisecond, "")
	if !exec.TimedOut {
		t.Fatal("expected timeout")
	}
	if !faults.HasCode(runFaults, faults.CodeConvertFailed) {
		t.Fatalf("expected convert_failed, got %+v", runFaults)
	}
}
