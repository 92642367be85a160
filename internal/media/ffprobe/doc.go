// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// It has no other repository dependencies beyond the subprocess runner and
// could be extracted as a standalone library. Inspect is the single entry
// point; its error values distinguish a missing binary, a timeout, a non-zero
// exit, and unparseable output so callers can classify the failure.
package ffprobe
