// Package media normalizes prober output into the stream summaries the
// stream selector and metadata assembler consume.
//
// Introspect gates the pipeline on the input; IntrospectOutput verifies a
// produced file after a successful conversion, so its failures are reported
// as warnings by callers.
package media
