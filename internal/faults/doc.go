// Package faults defines the flat error taxonomy shared by probing,
// orchestration, and persisted records, plus the exit-code priority mapping.
//
// Every failure is a Fault with a machine code, human message, optional
// remediation hint, and an optional bounded detail payload. The same record
// shape is serialized into meta.json errors/warnings and manifest lines.
package faults
