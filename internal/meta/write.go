package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Write serializes the record as indented JSON with a trailing newline. The
// parent directory is created if needed.
func Write(record Record, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	serialized, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}
	serialized = append(serialized, '\n')
	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Read loads a previously written record. Used by the meta inspection
// command; unknown fields are ignored for forward compatibility.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading metadata: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("parsing metadata: %w", err)
	}
	return record, nil
}
