package meta

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/convert"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/testsupport"
)

var topLevelFields = []string{
	"schema_version", "created_at", "pipeline", "input", "params",
	"params_sources", "tooling", "probe", "output", "execution",
	"integrity", "errors", "warnings", "stable_fields",
}

func emptyInputs(t *testing.T) Inputs {
	t.Helper()
	resolved, sources := params.Resolve(nil, params.Overrides{})
	return Inputs{
		InputPath:     "missing.mp3",
		Workdir:       t.TempDir(),
		Params:        resolved,
		ParamsSources: sources,
	}
}

func TestAssembleEmptyIsSchemaComplete(t *testing.T) {
	record := Assemble(emptyInputs(t))
	serialized, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(serialized, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range topLevelFields {
		if _, ok := parsed[field]; !ok {
			t.Fatalf("missing top-level field %q", field)
		}
	}
	if record.Errors == nil || record.Warnings == nil {
		t.Fatal("errors and warnings must be non-nil lists")
	}
	if record.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected schema version %q", record.SchemaVersion)
	}
	if record.Integrity.MetaSHA256 != nil {
		t.Fatal("meta_sha256 must stay null")
	}
	if record.Integrity.ParamsDigest == "" {
		t.Fatal("params digest must always be computed")
	}
}

func TestAssembleAfterTotalFailureKeepsShape(t *testing.T) {
	inputs := emptyInputs(t)
	inputs.Errors = []faults.Fault{faults.New(faults.CodeDepsMissing, "ffmpeg not found")}
	record := Assemble(inputs)
	if record.Probe.InputProbe != nil || record.Output.ActualAudio != nil {
		t.Fatal("failure branch must leave nested results null")
	}
	if record.Execution.FFmpegCmd != nil || record.Execution.CmdDigest != nil {
		t.Fatal("no command planned means null execution fields")
	}
	if len(record.Errors) != 1 || record.Errors[0].Code != faults.CodeDepsMissing {
		t.Fatalf("unexpected errors: %+v", record.Errors)
	}
}

func TestAssembleRecordsPlannedCommand(t *testing.T) {
	inputs := emptyInputs(t)
	cmd := convert.Plan(convert.PlanOptions{
		FFmpegPath: "ffmpeg",
		InputPath:  "in.mp3",
		OutputPath: "audio.wav",
		Params:     inputs.Params,
	})
	inputs.Command = &cmd
	inputs.Planned = true
	record := Assemble(inputs)
	if !record.Execution.Planned {
		t.Fatal("expected planned=true")
	}
	if len(record.Execution.FFmpegCmd) == 0 {
		t.Fatal("expected non-empty planned command")
	}
	if record.Execution.CmdDigest == nil || *record.Execution.CmdDigest != cmd.Digest() {
		t.Fatal("command digest mismatch")
	}
	if record.Execution.FFmpegCmdStr == nil || *record.Execution.FFmpegCmdStr == "" {
		t.Fatal("expected rendered command string")
	}
}

func TestAssembleDigestsStableAcrossRuns(t *testing.T) {
	first := Assemble(emptyInputs(t))
	second := Assemble(emptyInputs(t))
	if first.Integrity.ParamsDigest != second.Integrity.ParamsDigest {
		t.Fatal("params digest must be stable for identical logical parameters")
	}
}

func TestAssembleReadsInputStat(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp3")
	testsupport.WriteFile(t, input, 321)

	inputs := emptyInputs(t)
	inputs.InputPath = input
	record := Assemble(inputs)
	if record.Input.SizeBytes != 321 {
		t.Fatalf("expected size 321, got %d", record.Input.SizeBytes)
	}
	if record.Input.MtimeEpoch == nil {
		t.Fatal("expected mtime for existing input")
	}
	if record.Input.Ext != ".mp3" {
		t.Fatalf("unexpected ext %q", record.Input.Ext)
	}
	if record.Input.SHA256 != nil {
		t.Fatal("input sha256 is a placeholder and must stay null")
	}
}

func TestStableFieldsMatchRecordShape(t *testing.T) {
	record := Assemble(emptyInputs(t))
	serialized, _ := json.Marshal(record)
	var parsed map[string]any
	if err := json.Unmarshal(serialized, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	declared := append(append([]string{}, record.StableFields.Core...), record.StableFields.NonCore...)
	for _, path := range declared {
		if !fieldExists(parsed, path) {
			t.Fatalf("stable_fields declares %q but the record has no such field", path)
		}
	}
}

func fieldExists(doc map[string]any, dotted string) bool {
	current := any(doc)
	start := 0
	for i := 0; i <= len(dotted); i++ {
		if i != len(dotted) && dotted[i] != '.' {
			continue
		}
		key := dotted[start:i]
		start = i + 1
		obj, ok := current.(map[string]any)
		if !ok {
			return false
		}
		next, ok := obj[key]
		if !ok {
			return false
		}
		current = next
		if current == nil && i != len(dotted) {
			// Null subtree still counts as present for the leaf itself, but
			// deeper paths under a null cannot be verified structurally.
			return true
		}
	}
	return true
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work", "meta.json")
	record := Assemble(Inputs{
		InputPath: "in.mp3",
		Workdir:   dir,
		Params:    mustResolved(t),
		Now:       time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if err := Write(record, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if loaded.CreatedAt != "2026-05-01T12:00:00Z" {
		t.Fatalf("unexpected created_at %q", loaded.CreatedAt)
	}
	if loaded.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected schema version %q", loaded.SchemaVersion)
	}
}

func TestAudioFilenameFor(t *testing.T) {
	cases := map[string]string{
		"clip.mp3":             "clip.wav",
		"/abs/path/movie.mkv":  "movie.wav",
		"noext":                "noext.wav",
		"dir/archive.tar.flac": "archive.tar.wav",
	}
	for input, want := range cases {
		if got := AudioFilenameFor(input); got != want {
			t.Errorf("AudioFilenameFor(%q) = %q, want %q", input, got, want)
		}
	}
}

func mustResolved(t *testing.T) params.Resolved {
	t.Helper()
	resolved, _ := params.Resolve(nil, params.Overrides{})
	return resolved
}
