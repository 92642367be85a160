package faults

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Code identifies a failure class. Codes are flat strings so they serialize
// unchanged into meta.json and manifest lines.
type Code string

const (
	CodeDepsMissing      Code = "deps_missing"
	CodeDepsBroken       Code = "deps_broken"
	CodeDepsInsufficient Code = "deps_insufficient"

	CodeInputNotFound    Code = "input_not_found"
	CodeInputInvalid     Code = "input_invalid"
	CodeInputUnsupported Code = "input_unsupported"

	CodeOutputNotWritable Code = "output_not_writable"
	CodeOverwriteConflict Code = "overwrite_conflict"

	CodeInvalidParams Code = "invalid_params"

	CodeProbeFailed Code = "probe_failed"

	CodeConvertFailed          Code = "convert_failed"
	CodeNoAudioStream          Code = "no_audio_stream"
	CodeInvalidStreamSelection Code = "invalid_stream_selection"

	CodeInternal Code = "internal_error"
)

// KnownCodes lists every code that may appear in persisted records.
var KnownCodes = []Code{
	CodeDepsMissing,
	CodeDepsBroken,
	CodeDepsInsufficient,
	CodeInputNotFound,
	CodeInputInvalid,
	CodeInputUnsupported,
	CodeOutputNotWritable,
	CodeOverwriteConflict,
	CodeInvalidParams,
	CodeProbeFailed,
	CodeConvertFailed,
	CodeNoAudioStream,
	CodeInvalidStreamSelection,
	CodeInternal,
}

// Fault is the canonical structured error record used from probing through
// orchestration through persistence.
type Fault struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// New builds a Fault without a hint or detail payload.
func New(code Code, format string, args ...any) Fault {
	return Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithHint attaches a remediation hint.
func (f Fault) WithHint(hint string) Fault {
	f.Hint = hint
	return f
}

// WithDetail attaches a detail payload after bounding its string values.
func (f Fault) WithDetail(detail map[string]any) Fault {
	f.Detail = BoundDetail(detail)
	return f
}

func (f Fault) Error() string {
	if f.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", f.Code, f.Message, f.Hint)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// maxDetailLen bounds string values stored in detail payloads so a noisy
// tool cannot bloat persisted records.
const maxDetailLen = 2000

// maxSummaryLen bounds messages mirrored into manifest lines.
const maxSummaryLen = 200

// BoundDetail truncates long string values, marking the truncation and the
// original length explicitly.
func BoundDetail(detail map[string]any) map[string]any {
	if detail == nil {
		return nil
	}
	bounded := make(map[string]any, len(detail))
	for key, value := range detail {
		if s, ok := value.(string); ok && len(s) > maxDetailLen {
			bounded[key] = fmt.Sprintf("%s... (truncated, original length: %d)", truncateRunes(s, maxDetailLen), len(s))
			continue
		}
		bounded[key] = value
	}
	return bounded
}

// truncateRunes cuts s to at most limit bytes without splitting a UTF-8
// sequence.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Summarize extracts parallel code and message lists for manifest records.
// Messages are truncated to keep lines bounded.
func Summarize(faults []Fault) (codes []string, messages []string) {
	codes = make([]string, 0, len(faults))
	messages = make([]string, 0, len(faults))
	for _, f := range faults {
		codes = append(codes, string(f.Code))
		msg := f.Message
		if len(msg) > maxSummaryLen {
			msg = fmt.Sprintf("%s... (truncated, original length: %d)", truncateRunes(msg, maxSummaryLen), len(msg))
		}
		messages = append(messages, msg)
	}
	return codes, messages
}

// JoinMessages renders a single-line summary of all fault messages.
func JoinMessages(faults []Fault) string {
	parts := make([]string, 0, len(faults))
	for _, f := range faults {
		if strings.TrimSpace(f.Message) != "" {
			parts = append(parts, f.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// HasCode reports whether any fault carries one of the given codes.
func HasCode(faults []Fault, codes ...Code) bool {
	for _, f := range faults {
		for _, code := range codes {
			if f.Code == code {
				return true
			}
		}
	}
	return false
}
