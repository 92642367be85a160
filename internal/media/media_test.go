package media

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/testsupport"
)

func TestIntrospectSummarizesStreams(t *testing.T) {
	dir := t.TempDir()
	ffprobe := testsupport.FakeFFprobe(t, dir, testsupport.DefaultProbeJSON)
	input := filepath.Join(dir, "sample.mp3")
	testsupport.WriteFile(t, input, 64)

	outcome := Introspect(context.Background(), ffprobe, input, 5*time.Second)
	if len(outcome.Faults) != 0 {
		t.Fatalf("unexpected faults: %+v", outcome.Faults)
	}
	if outcome.Summary == nil || len(outcome.Summary.Audio) != 1 {
		t.Fatalf("expected one audio stream, got %+v", outcome.Summary)
	}
	stream := outcome.Summary.Audio[0]
	if stream.CodecName != "mp3" || stream.SampleRate != 44100 || stream.Channels != 2 {
		t.Fatalf("unexpected stream: %+v", stream)
	}
	if stream.Language == nil || *stream.Language != "eng" {
		t.Fatalf("expected language eng, got %+v", stream.Language)
	}
	if outcome.Summary.Duration != 12.5 {
		t.Fatalf("expected duration 12.5, got %v", outcome.Summary.Duration)
	}
}

func TestIntrospectNoAudioStreamWarns(t *testing.T) {
	dir := t.TempDir()
	payload := `{"streams": [{"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720}], "format": {"format_name": "mp4", "duration": "3.0"}}`
	ffprobe := testsupport.FakeFFprobe(t, dir, payload)
	input := filepath.Join(dir, "silent.mp4")
	testsupport.WriteFile(t, input, 64)

	outcome := Introspect(context.Background(), ffprobe, input, 5*time.Second)
	if len(outcome.Faults) != 0 {
		t.Fatalf("unexpected faults: %+v", outcome.Faults)
	}
	if !faults.HasCode(outcome.Warnings, CodeNoAudioStreamWarning) {
		t.Fatalf("expected no-audio warning, got %+v", outcome.Warnings)
	}
	if len(outcome.Summary.Audio) != 0 || len(outcome.Summary.Video) != 1 {
		t.Fatalf("unexpected summary: %+v", outcome.Summary)
	}
}

func TestIntrospectMissingBinary(t *testing.T) {
	outcome := Introspect(context.Background(), "ffprobe-that-does-not-exist", "input.mp3", time.Second)
	if outcome.Summary != nil {
		t.Fatal("expected no summary")
	}
	if !faults.HasCode(outcome.Faults, faults.CodeProbeFailed) {
		t.Fatalf("expected probe_failed, got %+v", outcome.Faults)
	}
}

func TestIntrospectProbeExitFailure(t *testing.T) {
	dir := t.TempDir()
	ffprobe := testsupport.WriteTool(t, dir, "ffprobe", `#!/bin/sh
echo "boom: not a media file" >&2
exit 1
`)
	outcome := Introspect(context.Background(), ffprobe, "garbage.bin", 5*time.Second)
	if !faults.HasCode(outcome.Faults, faults.CodeProbeFailed) {
		t.Fatalf("expected probe_failed, got %+v", outcome.Faults)
	}
	stderr, _ := outcome.Faults[0].Detail["stderr"].(string)
	if !strings.Contains(stderr, "boom") {
		t.Fatalf("expected stderr in fault detail, got %+v", outcome.Faults[0].Detail)
	}
}

func TestIntrospectMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	ffprobe := testsupport.FakeFFprobe(t, dir, "{not json")
	outcome := Introspect(context.Background(), ffprobe, "sample.mp3", 5*time.Second)
	if !faults.HasCode(outcome.Faults, faults.CodeProbeFailed) {
		t.Fatalf("expected probe_failed, got %+v", outcome.Faults)
	}
}

func TestIntrospectOutputReadsPCM(t *testing.T) {
	dir := t.TempDir()
	payload := `{"streams": [{"index": 0, "codec_type": "audio", "codec_name": "pcm_s16le", "sample_rate": "16000", "channels": 1, "bits_per_sample": 16}], "format": {"format_name": "wav", "duration": "12.5", "size": "400000"}}`
	ffprobe := testsupport.FakeFFprobe(t, dir, payload)

	output, probeFaults := IntrospectOutput(context.Background(), ffprobe, "out.wav", 5*time.Second)
	if len(probeFaults) != 0 {
		t.Fatalf("unexpected faults: %+v", probeFaults)
	}
	if output == nil || output.CodecName != "pcm_s16le" || output.SampleRate != 16000 || output.Channels != 1 {
		t.Fatalf("unexpected output audio: %+v", output)
	}
	if output.BitDepth != 16 {
		t.Fatalf("expected bit depth 16, got %d", output.BitDepth)
	}
}
