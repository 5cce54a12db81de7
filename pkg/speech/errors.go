package speech

import "errors"

// Error classification for the public surface. Operational failures inside a
// session are never surfaced as Go errors from this layer; they arrive as
// Canceled results through the canceled channel and the one-shot pair.
var (
	// ErrRecognizerClosed indicates an operation was invoked on a
	// recognizer after Close.
	ErrRecognizerClosed = errors.New("speech: recognizer is closed")

	// ErrInvalidArgument indicates a nil or blank required argument.
	ErrInvalidArgument = errors.New("speech: invalid argument")

	// ErrSessionSetup indicates the underlying engine failed to create
	// or start a session.
	ErrSessionSetup = errors.New("speech: session setup failed")
)

// IsClosed checks whether an error stems from using a closed recognizer.
func IsClosed(err error) bool {
	return errors.Is(err, ErrRecognizerClosed)
}
