package speech

// RawEventType tags the variants of the RawEvent union.
type RawEventType int

const (
	// RawEventSessionEnded is emitted when the underlying session
	// terminates, successfully or not.
	RawEventSessionEnded RawEventType = iota + 1

	// RawEventSimplePhrase carries a final phrase in simple output
	// format.
	RawEventSimplePhrase

	// RawEventDetailedPhrase carries a final phrase with ranked
	// alternatives.
	RawEventDetailedPhrase

	// RawEventHypothesis carries an interim hypothesis.
	RawEventHypothesis
)

func (t RawEventType) String() string {
	switch t {
	case RawEventSessionEnded:
		return "SessionEnded"
	case RawEventSimplePhrase:
		return "SimplePhrase"
	case RawEventDetailedPhrase:
		return "DetailedPhrase"
	case RawEventHypothesis:
		return "Hypothesis"
	default:
		return "Unknown"
	}
}

// RawEvent is the tagged union the protocol engine delivers to the
// controller's sink. Exactly one payload pointer matching Type is set;
// Status and Err are only meaningful for SessionEnded.
type RawEvent struct {
	Type      RawEventType
	SessionID string

	// Status qualifies SessionEnded events. Phrase payloads carry their
	// own RecognitionStatus.
	Status RecognitionStatus

	// Err carries the transport or service error behind a failed
	// SessionEnded, when one is known.
	Err error

	Simple     *SimplePhrase
	Detailed   *DetailedPhrase
	Hypothesis *Hypothesis
}

// SimplePhrase is the service's simple-format phrase body.
type SimplePhrase struct {
	RecognitionStatus RecognitionStatus `json:"RecognitionStatus"`
	DisplayText       string            `json:"DisplayText"`
	Offset            uint64            `json:"Offset"`
	Duration          uint64            `json:"Duration"`
}

// DetailedPhrase is the service's detailed-format phrase body. NBest is
// ordered best-first; Offset and Duration are authoritative over any outer
// envelope values.
type DetailedPhrase struct {
	RecognitionStatus RecognitionStatus   `json:"RecognitionStatus"`
	Offset            uint64              `json:"Offset"`
	Duration          uint64              `json:"Duration"`
	NBest             []PhraseAlternative `json:"NBest"`
}

// PhraseAlternative is one ranked candidate in a detailed phrase.
type PhraseAlternative struct {
	Confidence float64 `json:"Confidence"`
	Lexical    string  `json:"Lexical"`
	ITN        string  `json:"ITN"`
	MaskedITN  string  `json:"MaskedITN"`
	Display    string  `json:"Display"`
}

// Hypothesis is the service's interim hypothesis body.
type Hypothesis struct {
	Text     string `json:"Text"`
	Offset   uint64 `json:"Offset"`
	Duration uint64 `json:"Duration"`
}
