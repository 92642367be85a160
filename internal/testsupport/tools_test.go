package testsupport

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// The stubs must stay runnable when PATH holds nothing but the stub
// directory, since dependency-gate tests rely on exactly that isolation.
func TestFakeFFprobeEmitsJSONWithRestrictedPath(t *testing.T) {
	dir := t.TempDir()
	path := FakeFFprobe(t, dir, "")
	UseToolDir(t, dir)

	out, err := exec.Command(path, "-print_format", "json", "-show_format", "-show_streams", "in.mp3").Output()
	if err != nil {
		t.Fatalf("stub ffprobe failed: %v", err)
	}
	var payload struct {
		Streams []map[string]any `json:"streams"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("stub output is not JSON: %v\n%s", err, out)
	}
	if len(payload.Streams) != 1 {
		t.Fatalf("expected one stream, got %d", len(payload.Streams))
	}
}

func TestFakeFFprobeQuotesPayload(t *testing.T) {
	dir := t.TempDir()
	probeJSON := `{"format": {"tags": {"comment": "it's quoted"}}}`
	path := FakeFFprobe(t, dir, probeJSON)
	UseToolDir(t, dir)

	out, err := exec.Command(path, "in.mp3").Output()
	if err != nil {
		t.Fatalf("stub ffprobe failed: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("payload with quotes did not survive: %v\n%s", err, out)
	}
}

func TestFakeFFmpegWritesOutputWithRestrictedPath(t *testing.T) {
	dir := t.TempDir()
	path := FakeFFmpeg(t, dir)
	UseToolDir(t, dir)

	outFile := filepath.Join(dir, "out.wav")
	if err := exec.Command(path, "-i", "in.mp3", outFile).Run(); err != nil {
		t.Fatalf("stub ffmpeg failed: %v", err)
	}
	if _, err := os.Stat(outFile); err != nil {
		t.Fatalf("expected output artifact: %v", err)
	}
	if _, err := exec.Command(path, "-version").Output(); err != nil {
		t.Fatalf("version query failed: %v", err)
	}
}
