// Package batch applies the ingest pipeline to every media file under an
// input directory, writing an append-only JSONL manifest and deterministic
// per-file working directories.
package batch
