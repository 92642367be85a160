// Package scan discovers batch inputs in deterministic path order.
package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one discovered input file.
type Entry struct {
	Path      string // absolute path
	RelPath   string // slash-separated, relative to the scan root
	SizeBytes int64
}

// Options controls a scan.
type Options struct {
	Recursive  bool
	Extensions []string // case-insensitive, with or without leading dot
}

var ignoredNames = map[string]struct{}{
	"__MACOSX":  {},
	".DS_Store": {},
}

// Inputs collects media files under root. Hidden entries and macOS system
// droppings are skipped, matching is extension-based and case-insensitive,
// and the result is sorted by slash-separated relative path so batch order
// is stable across platforms and runs.
func Inputs(root string, opts Options) ([]Entry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	exts := normalizeExts(opts.Extensions)

	var entries []Entry
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == absRoot {
			return nil
		}
		name := d.Name()
		_, ignored := ignoredNames[name]
		hidden := strings.HasPrefix(name, ".")
		if d.IsDir() {
			if ignored || hidden || !opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if ignored || hidden {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			return nil
		}
		if _, ok := exts[ext]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Path:      path,
			RelPath:   filepath.ToSlash(rel),
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})
	return entries, nil
}

func normalizeExts(exts []string) map[string]struct{} {
	normalized := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned == "" {
			continue
		}
		if !strings.HasPrefix(cleaned, ".") {
			cleaned = "." + cleaned
		}
		normalized[cleaned] = struct{}{}
	}
	return normalized
}
