// Package meta assembles and persists the per-ingest metadata record.
//
// Assembly is a pure function of upstream outputs and must succeed on every
// failure branch of the pipeline: the promise is "always leave a record",
// even when nothing else worked.
package meta
