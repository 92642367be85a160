package faults

// Process exit codes for single-file ingest. These are part of the external
// contract; batch consumers branch on them.
const (
	ExitSuccess           = 0
	ExitGeneralFailed     = 1
	ExitDepsMissing       = 2
	ExitInputNotFound     = 10
	ExitOutputNotWritable = 11
	ExitOverwriteConflict = 12
	ExitInvalidParams     = 13
	ExitProbeFailed       = 20
	ExitConvertFailed     = 21
	ExitNoAudioStream     = 22
	ExitInternal          = 99
)

// ExitCodeFor maps a fault list to a process exit code. When several error
// classes are present the most severe wins: deps > internal > input > output >
// overwrite > params > probe > convert > stream selection > generic failure.
func ExitCodeFor(faults []Fault) int {
	if len(faults) == 0 {
		return ExitSuccess
	}
	switch {
	case HasCode(faults, CodeDepsMissing, CodeDepsBroken, CodeDepsInsufficient):
		return ExitDepsMissing
	case HasCode(faults, CodeInternal):
		return ExitInternal
	case HasCode(faults, CodeInputNotFound, CodeInputInvalid, CodeInputUnsupported):
		return ExitInputNotFound
	case HasCode(faults, CodeOutputNotWritable):
		return ExitOutputNotWritable
	case HasCode(faults, CodeOverwriteConflict):
		return ExitOverwriteConflict
	case HasCode(faults, CodeInvalidParams):
		return ExitInvalidParams
	case HasCode(faults, CodeProbeFailed):
		return ExitProbeFailed
	case HasCode(faults, CodeConvertFailed):
		return ExitConvertFailed
	case HasCode(faults, CodeNoAudioStream, CodeInvalidStreamSelection):
		return ExitNoAudioStream
	default:
		return ExitGeneralFailed
	}
}
