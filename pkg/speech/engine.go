package speech

import (
	"context"
	"net/http"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
)

// RecognitionMode selects the service's segmentation behavior for a session.
type RecognitionMode int

const (
	// RecognitionModeInteractive targets short single-utterance commands
	// and questions. Used by one-shot recognition.
	RecognitionModeInteractive RecognitionMode = iota + 1

	// RecognitionModeConversation targets open-ended multi-utterance
	// speech. Used by continuous recognition.
	RecognitionModeConversation

	// RecognitionModeDictation targets long-form dictation with explicit
	// punctuation.
	RecognitionModeDictation
)

func (m RecognitionMode) String() string {
	switch m {
	case RecognitionModeInteractive:
		return "interactive"
	case RecognitionModeConversation:
		return "conversation"
	case RecognitionModeDictation:
		return "dictation"
	default:
		return "unknown"
	}
}

// EventSink receives the raw events a session emits. The engine must deliver
// events serially, one at a time, in emission order.
type EventSink func(ev RawEvent)

// Connection is the minimal transport surface a session needs. The method
// set matches *websocket.Conn from gorilla so the default factory can return
// one directly.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// ConnectionFactory dials the service endpoint. Construction of factories is
// an external concern; the recognizer only threads the factory through to
// the engine.
type ConnectionFactory func(ctx context.Context, endpoint string, header http.Header) (Connection, error)

// Engine is the protocol engine collaborator. CreateSession fails if the
// config is missing the recognition-language property.
type Engine interface {
	CreateSession(mode RecognitionMode, cfg *Config, source audio.Source, connect ConnectionFactory) (SessionHandle, error)
}

// SessionHandle is the ownership token for one active recognition session:
// transport, audio pump and decoder pipeline. Teardown order is fixed:
// StopAudio silences the pump, then Release frees the session resources.
type SessionHandle interface {
	// Start registers the event sink and begins the session. Events may
	// be delivered from the moment Start returns.
	Start(sink EventSink) error

	// StopAudio signals the audio pump to stop feeding the session.
	StopAudio() error

	// Release frees the session resources. No events may be delivered
	// after Release returns.
	Release() error
}
