package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// DefaultProbeJSON is the ffprobe payload emitted by FakeFFprobe when the
// caller does not supply one: a single stereo MP3 audio stream.
const DefaultProbeJSON = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mp3",
      "codec_type": "audio",
      "sample_rate": "44100",
      "channels": 2,
      "channel_layout": "stereo",
      "bit_rate": "128000",
      "tags": {"language": "eng"}
    }
  ],
  "format": {"format_name": "mp3", "duration": "12.5", "size": "200000", "bit_rate": "128000"}
}`

// WriteTool writes an executable shell script named name into dir.
func WriteTool(t testing.TB, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write tool %s: %v", name, err)
	}
	return path
}

// UseToolDir makes dir the only PATH entry, so lookups resolve exclusively to
// stub tools (or fail, for missing-dependency tests).
func UseToolDir(t testing.TB, dir string) {
	t.Helper()
	t.Setenv("PATH", dir)
}

// FakeFFmpeg writes a stub ffmpeg that answers version and capability
// queries and, for any other invocation, writes a small file at the last
// argument position.
func FakeFFmpeg(t testing.TB, dir string) string {
	t.Helper()
	script := `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    -version)
      echo "ffmpeg version 7.0.2 Copyright (c) 2000-2024 the FFmpeg developers"
      echo "configuration: --enable-gpl"
      exit 0
      ;;
    -encoders)
      echo " A....D pcm_s16le            PCM signed 16-bit little-endian"
      exit 0
      ;;
    -decoders)
      echo " A....D mp3                  MP3 (MPEG audio layer 3)"
      echo " A....D aac                  AAC (Advanced Audio Coding)"
      echo " A....D flac                 FLAC (Free Lossless Audio Codec)"
      echo " A....D opus                 Opus"
      exit 0
      ;;
  esac
done
for out in "$@"; do :; done
printf 'RIFFfake-wav-data' > "$out"
exit 0
`
	return WriteTool(t, dir, "ffmpeg", script)
}

// FakeFFmpegFailing writes a stub ffmpeg whose conversion invocations fail
// with a diagnostic on stderr, while version and capability queries succeed.
func FakeFFmpegFailing(t testing.TB, dir string) string {
	t.Helper()
	script := `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    -version)
      echo "ffmpeg version 7.0.2"
      exit 0
      ;;
    -encoders)
      echo " A....D pcm_s16le            PCM signed 16-bit little-endian"
      exit 0
      ;;
    -decoders)
      echo " A....D mp3"
      echo " A....D aac"
      echo " A....D flac"
      echo " A....D opus"
      exit 0
      ;;
  esac
done
echo "corrupt input: decode failure" >&2
exit 1
`
	return WriteTool(t, dir, "ffmpeg", script)
}

// FakeFFmpegFailingFor writes a stub ffmpeg that fails conversions whose
// argv mentions marker, while every other invocation behaves like FakeFFmpeg.
func FakeFFmpegFailingFor(t testing.TB, dir, marker string) string {
	t.Helper()
	script := `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    -version)
      echo "ffmpeg version 7.0.2"
      exit 0
      ;;
    -encoders)
      echo " A....D pcm_s16le            PCM signed 16-bit little-endian"
      exit 0
      ;;
    -decoders)
      echo " A....D mp3"
      echo " A....D aac"
      echo " A....D flac"
      echo " A....D opus"
      exit 0
      ;;
    *` + marker + `*)
      echo "corrupt input: decode failure" >&2
      exit 1
      ;;
  esac
done
for out in "$@"; do :; done
printf 'RIFFfake-wav-data' > "$out"
exit 0
`
	return WriteTool(t, dir, "ffmpeg", script)
}

// FakeFFprobe writes a stub ffprobe that answers -version and emits the
// given JSON payload for every probe invocation. The payload is printed with
// the printf builtin so the stub works even when PATH holds no external
// binaries.
func FakeFFprobe(t testing.TB, dir, probeJSON string) string {
	t.Helper()
	if probeJSON == "" {
		probeJSON = DefaultProbeJSON
	}
	script := `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    -version)
      echo "ffprobe version 7.0.2 Copyright (c) 2007-2024 the FFmpeg developers"
      exit 0
      ;;
  esac
done
printf '%s\n' ` + shellSingleQuote(probeJSON) + `
exit 0
`
	return WriteTool(t, dir, "ffprobe", script)
}

func shellSingleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
