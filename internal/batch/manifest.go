package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manifest schema versions. Plan manifests use a distinct version so
// consumers can never confuse a plan with a real run.
const (
	ManifestSchemaVersion     = "manifest.v1"
	ManifestPlanSchemaVersion = "manifest.plan.v1"
	DefaultManifestName       = "manifest.jsonl"
)

// ManifestRecord is one JSONL line of a batch manifest. ExitCode is null for
// plan records, where nothing ran.
type ManifestRecord struct {
	SchemaVersion   string         `json:"schema_version"`
	Status          string         `json:"status"`
	ExitCode        *int           `json:"exit_code"`
	ErrorCodes      []string       `json:"error_codes"`
	ErrorMessages   []string       `json:"error_messages"`
	WarningCodes    []string       `json:"warning_codes"`
	WarningMessages []string       `json:"warning_messages"`
	Message         string         `json:"message"`
	Input           ManifestInput  `json:"input"`
	Output          ManifestOutput `json:"output"`
	StartedAt       string         `json:"started_at"`
	EndedAt         string         `json:"ended_at"`
	DurationMS      int64          `json:"duration_ms"`
	ParamsDigest    string         `json:"params_digest"`
}

// ManifestInput identifies the source file of a manifest record.
type ManifestInput struct {
	Path      string `json:"path"`
	RelPath   string `json:"relpath"`
	Ext       string `json:"ext"`
	SizeBytes int64  `json:"size_bytes"`
}

// ManifestOutput references the record's working-directory artifacts.
type ManifestOutput struct {
	Workdir    string `json:"workdir"`
	WorkID     string `json:"work_id"`
	WorkKey    string `json:"work_key"`
	AudioWAV   string `json:"audio_wav"`
	MetaJSON   string `json:"meta_json"`
	ConvertLog string `json:"convert_log"`
}

// ManifestPath derives the manifest location inside the output root. Dry
// runs use `<name>.plan.jsonl` so plan output never collides with a real
// manifest.
func ManifestPath(outputRoot, name string, dryRun bool) string {
	if name == "" {
		name = DefaultManifestName
	}
	if dryRun {
		name = strings.TrimSuffix(name, ".jsonl") + ".plan.jsonl"
	}
	return filepath.Join(outputRoot, name)
}

// manifestWriter appends JSONL records, flushing after every line so a
// killed process loses at most the in-flight record.
type manifestWriter struct {
	file *os.File
}

func newManifestWriter(path string) (*manifestWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return &manifestWriter{file: file}, nil
}

func (w *manifestWriter) Append(record ManifestRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("serialize manifest record: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("write manifest record: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("flush manifest record: %w", err)
	}
	return nil
}

func (w *manifestWriter) Close() error {
	return w.file.Close()
}

// ReadManifest loads all records from a manifest file, for inspection
// tooling and tests.
func ReadManifest(path string) ([]ManifestRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var records []ManifestRecord
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var record ManifestRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("parse manifest line: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
