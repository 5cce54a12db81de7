package speech

import (
	"testing"

	"github.com/matryer/is"
)

var definedStatuses = []RecognitionStatus{
	StatusSuccess,
	StatusNoMatch,
	StatusInitialSilenceTimeout,
	StatusBabbleTimeout,
	StatusEndOfDictation,
	StatusEndOfStream,
	StatusError,
	StatusInvalidOperation,
	StatusTooManyRequests,
	StatusBadRequest,
	StatusForbidden,
}

func TestReasonFromStatusTotality(t *testing.T) {
	is := is.New(t)

	valid := map[ResultReason]bool{
		ResultReasonRecognizedSpeech: true,
		ResultReasonNoMatch:          true,
		ResultReasonCanceled:         true,
	}
	for _, status := range definedStatuses {
		reason := ReasonFromStatus(status)
		is.True(valid[reason]) // every defined status maps to exactly one outcome
	}
}

func TestReasonFromStatusMapping(t *testing.T) {
	is := is.New(t)

	is.Equal(ReasonFromStatus(StatusSuccess), ResultReasonRecognizedSpeech)
	is.Equal(ReasonFromStatus(StatusNoMatch), ResultReasonNoMatch)
	is.Equal(ReasonFromStatus(StatusInitialSilenceTimeout), ResultReasonNoMatch)
	is.Equal(ReasonFromStatus(StatusBabbleTimeout), ResultReasonNoMatch)
	is.Equal(ReasonFromStatus(StatusEndOfDictation), ResultReasonNoMatch)
	is.Equal(ReasonFromStatus(StatusError), ResultReasonCanceled)
	is.Equal(ReasonFromStatus(StatusInvalidOperation), ResultReasonCanceled)
	is.Equal(ReasonFromStatus(StatusTooManyRequests), ResultReasonCanceled)
}

func TestReasonFromStatusUnknownIsCanceled(t *testing.T) {
	is := is.New(t)

	// future service codes must fail safe, never crash or misreport
	is.Equal(ReasonFromStatus(RecognitionStatus("SomeFutureStatus")), ResultReasonCanceled)
	is.Equal(ReasonFromStatus(RecognitionStatus("")), ResultReasonCanceled)
	is.Equal(CancellationFromStatus(RecognitionStatus("SomeFutureStatus")), CancellationReasonError)
}

func TestCancellationFromStatus(t *testing.T) {
	is := is.New(t)

	is.Equal(CancellationFromStatus(StatusEndOfStream), CancellationReasonEndOfStream)
	is.Equal(CancellationFromStatus(StatusEndOfDictation), CancellationReasonEndOfStream)
	is.Equal(CancellationFromStatus(StatusError), CancellationReasonError)
	is.Equal(CancellationFromStatus(StatusForbidden), CancellationReasonError)
	is.Equal(CancellationFromStatus(StatusBadRequest), CancellationReasonError)
}

func TestIsTerminalStatus(t *testing.T) {
	is := is.New(t)

	is.True(!isTerminalStatus(StatusSuccess)) // success session end keeps the session running
	is.True(isTerminalStatus(StatusError))
	is.True(isTerminalStatus(StatusEndOfStream))
	is.True(isTerminalStatus(RecognitionStatus("SomeFutureStatus")))
}
