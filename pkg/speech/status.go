package speech

// RecognitionStatus is the status code the service attaches to phrase and
// session-ended events. Values arrive on the wire as strings.
type RecognitionStatus string

const (
	StatusSuccess               RecognitionStatus = "Success"
	StatusNoMatch               RecognitionStatus = "NoMatch"
	StatusInitialSilenceTimeout RecognitionStatus = "InitialSilenceTimeout"
	StatusBabbleTimeout         RecognitionStatus = "BabbleTimeout"
	StatusEndOfDictation        RecognitionStatus = "EndOfDictation"
	StatusEndOfStream           RecognitionStatus = "EndOfStream"
	StatusError                 RecognitionStatus = "Error"
	StatusInvalidOperation      RecognitionStatus = "InvalidOperation"
	StatusTooManyRequests       RecognitionStatus = "TooManyRequests"
	StatusBadRequest            RecognitionStatus = "BadRequest"
	StatusForbidden             RecognitionStatus = "Forbidden"
)

// ReasonFromStatus maps a service status code to a result outcome. The
// mapping is total: every defined status maps to exactly one reason and
// unknown or future codes fall through to ResultReasonCanceled.
func ReasonFromStatus(status RecognitionStatus) ResultReason {
	switch status {
	case StatusSuccess:
		return ResultReasonRecognizedSpeech
	case StatusNoMatch, StatusInitialSilenceTimeout, StatusBabbleTimeout,
		StatusEndOfDictation, StatusEndOfStream:
		return ResultReasonNoMatch
	default:
		return ResultReasonCanceled
	}
}

// CancellationFromStatus maps a service status code to a cancellation
// reason. Graceful stream termination is distinguished from genuine
// failures; unknown codes are treated as errors.
func CancellationFromStatus(status RecognitionStatus) CancellationReason {
	switch status {
	case StatusEndOfDictation, StatusEndOfStream:
		return CancellationReasonEndOfStream
	default:
		return CancellationReasonError
	}
}

// isTerminalStatus reports whether a session-ended status requires
// cancellation handling. A Success session ending is a no-op for the
// translator: continuous sessions persist across utterance boundaries and
// one-shot completion is driven by phrase events, not by session end.
func isTerminalStatus(status RecognitionStatus) bool {
	return status != StatusSuccess
}
