// Package ingest runs the single-file ingest state machine: working
// directory and overwrite gating, dependency and input checks, stream
// selection, command planning, execution, and output verification, with a
// metadata record written on every branch.
package ingest
