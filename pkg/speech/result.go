// Package speech implements the client-side session coordinator for a
// streaming speech-recognition service. A Recognizer owns at most one active
// recognition session against an Engine, translates the raw events the engine
// emits into recognition results, and delivers them to a pending one-shot
// completion and to the recognizing/recognized/canceled subscription points.
package speech

// ResultReason classifies the outcome carried by a RecognitionResult.
type ResultReason int

const (
	// ResultReasonRecognizingSpeech marks an interim hypothesis that may
	// still be revised.
	ResultReasonRecognizingSpeech ResultReason = iota + 1

	// ResultReasonRecognizedSpeech marks a final transcript the service
	// will not revise further for this utterance.
	ResultReasonRecognizedSpeech

	// ResultReasonNoMatch marks a completed utterance with no usable
	// speech (silence, babble, end of dictation). Non-canceled success
	// with empty text.
	ResultReasonNoMatch

	// ResultReasonCanceled marks termination due to error or graceful
	// end of stream. ErrorDetails is populated.
	ResultReasonCanceled
)

func (r ResultReason) String() string {
	switch r {
	case ResultReasonRecognizingSpeech:
		return "RecognizingSpeech"
	case ResultReasonRecognizedSpeech:
		return "RecognizedSpeech"
	case ResultReasonNoMatch:
		return "NoMatch"
	case ResultReasonCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// CancellationReason classifies why a recognition was terminated.
type CancellationReason int

const (
	// CancellationReasonError indicates a genuine service, protocol or
	// transport failure.
	CancellationReasonError CancellationReason = iota + 1

	// CancellationReasonEndOfStream indicates the audio stream ended and
	// the session terminated gracefully.
	CancellationReasonEndOfStream
)

func (r CancellationReason) String() string {
	switch r {
	case CancellationReasonError:
		return "Error"
	case CancellationReasonEndOfStream:
		return "EndOfStream"
	default:
		return "Unknown"
	}
}

// RecognitionResult describes one recognition outcome. Results are built
// fresh per raw event and never mutated after dispatch.
//
// Offset and Duration are stream-relative times in 100-nanosecond ticks, as
// reported by the service.
type RecognitionResult struct {
	// Reason is always set on a dispatched result.
	Reason ResultReason

	// Text is the best transcript. Empty for NoMatch and Canceled
	// results.
	Text string

	// Offset is the start of the recognized audio relative to the start
	// of the stream, in ticks.
	Offset uint64

	// Duration is the length of the recognized audio, in ticks.
	Duration uint64

	// JSON carries the raw service payload as an opaque diagnostic blob.
	JSON string

	// ErrorDetails is populated only when Reason is
	// ResultReasonCanceled.
	ErrorDetails string
}

// CancellationDetails describes why a recognition was canceled. It is always
// paired with a RecognitionResult whose Reason is ResultReasonCanceled.
type CancellationDetails struct {
	Reason       CancellationReason
	SessionID    string
	ErrorDetails string
}

// RecognitionEventArgs is delivered to recognizing and recognized handlers.
type RecognitionEventArgs struct {
	SessionID string
	Result    *RecognitionResult
}

// CancellationEventArgs is delivered to canceled handlers.
type CancellationEventArgs struct {
	SessionID string
	Result    *RecognitionResult
	Details   *CancellationDetails
}

// RecognitionHandler receives interim or final recognition events. Handlers
// are invoked synchronously on the goroutine the engine delivers events on;
// panics inside a handler are swallowed at the dispatch site.
type RecognitionHandler func(source *Recognizer, e RecognitionEventArgs)

// CancellationHandler receives cancellation events under the same delivery
// and isolation rules as RecognitionHandler.
type CancellationHandler func(source *Recognizer, e CancellationEventArgs)
