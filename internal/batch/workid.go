package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	workIDLen      = 12
	safeStemMaxLen = 60
)

// WorkKey builds the deterministic identity string for one input: its
// slash-separated path relative to the scan root plus its byte size. A
// changed size changes the key, a moved file changes the key, and the output
// root never participates, so ids survive relocation of the output tree.
func WorkKey(relPath string, sizeBytes int64) string {
	return fmt.Sprintf("%s\n%d", relPath, sizeBytes)
}

// WorkID is the short hex token derived from a work key.
func WorkID(workKey string) string {
	sum := sha256.Sum256([]byte(workKey))
	return hex.EncodeToString(sum[:])[:workIDLen]
}

// WorkdirName derives the per-file working-directory name from the input's
// stem and its work id: `<safe-stem>__<work-id>`.
func WorkdirName(inputPath, workID string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return safeStem(stem) + "__" + workID
}

// safeStem replaces filesystem-hostile runes and bounds the length so the
// directory name stays portable.
func safeStem(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	safe := b.String()
	if len(safe) > safeStemMaxLen {
		safe = safe[:safeStemMaxLen]
	}
	return safe
}
