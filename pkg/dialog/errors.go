package dialog

import "go.uber.org/zap"

// ErrorKind classifies the failures the controller recovers from. None of
// them leaves the controller; they label log lines.
type ErrorKind int

const (
	ExtractionFailure ErrorKind = iota + 1
	TranscriptionFailure
	PersistenceFailure
	InvalidOperatorInput
)

func (k ErrorKind) String() string {
	switch k {
	case ExtractionFailure:
		return "extraction_failure"
	case TranscriptionFailure:
		return "transcription_failure"
	case PersistenceFailure:
		return "persistence_failure"
	case InvalidOperatorInput:
		return "invalid_operator_input"
	default:
		return "unknown"
	}
}

func kindField(k ErrorKind) zap.Field {
	return zap.Stringer("error_kind", k)
}
