package speech

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// dispatchChannel names the subscriber channel a translated event targets.
type dispatchChannel int

const (
	channelRecognizing dispatchChannel = iota + 1
	channelRecognized
	channelCanceled
)

// dispatch is one translation output: deliver result (and details, for the
// canceled channel) to channel. completesOneShot marks the actions that may
// consume a pending one-shot completion callback.
type dispatch struct {
	channel          dispatchChannel
	result           *RecognitionResult
	details          *CancellationDetails
	completesOneShot bool
}

// translateEvent converts one raw engine event into zero or more dispatch
// actions. It is pure with respect to controller state: which subscribers
// exist and whether a one-shot callback is pending is the caller's concern.
func translateEvent(ev RawEvent) []dispatch {
	switch ev.Type {
	case RawEventSessionEnded:
		return translateSessionEnded(ev)
	case RawEventSimplePhrase:
		if ev.Simple == nil {
			return nil
		}
		return translatePhrase(ev, ev.Simple.RecognitionStatus,
			ev.Simple.DisplayText, ev.Simple.Offset, ev.Simple.Duration, ev.Simple)
	case RawEventDetailedPhrase:
		if ev.Detailed == nil {
			return nil
		}
		text := ""
		if len(ev.Detailed.NBest) > 0 {
			text = ev.Detailed.NBest[0].Display
		}
		return translatePhrase(ev, ev.Detailed.RecognitionStatus,
			text, ev.Detailed.Offset, ev.Detailed.Duration, ev.Detailed)
	case RawEventHypothesis:
		if ev.Hypothesis == nil {
			return nil
		}
		return []dispatch{{
			channel: channelRecognizing,
			result: &RecognitionResult{
				Reason:   ResultReasonRecognizingSpeech,
				Text:     ev.Hypothesis.Text,
				Offset:   ev.Hypothesis.Offset,
				Duration: ev.Hypothesis.Duration,
				JSON:     marshalPayload(ev.Hypothesis),
			},
		}}
	default:
		return nil
	}
}

func translateSessionEnded(ev RawEvent) []dispatch {
	if !isTerminalStatus(ev.Status) {
		return nil
	}
	errText := ""
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	details := &CancellationDetails{
		Reason:       CancellationFromStatus(ev.Status),
		SessionID:    ev.SessionID,
		ErrorDetails: fmt.Sprintf("%s: %s", ev.Status, errText),
	}
	return []dispatch{{
		channel: channelCanceled,
		result: &RecognitionResult{
			Reason:       ResultReasonCanceled,
			ErrorDetails: details.ErrorDetails,
		},
		details:          details,
		completesOneShot: true,
	}}
}

// translatePhrase handles simple and detailed phrase bodies. For detailed
// phrases the caller has already restricted text to the top alternative;
// text is further suppressed unless the outcome is a recognized transcript.
func translatePhrase(ev RawEvent, status RecognitionStatus, text string, offset, duration uint64, payload any) []dispatch {
	reason := ReasonFromStatus(status)
	if reason != ResultReasonRecognizedSpeech {
		text = ""
	}
	result := &RecognitionResult{
		Reason:   reason,
		Text:     text,
		Offset:   offset,
		Duration: duration,
		JSON:     marshalPayload(payload),
	}
	if reason == ResultReasonCanceled {
		details := &CancellationDetails{
			Reason:       CancellationFromStatus(status),
			SessionID:    ev.SessionID,
			ErrorDetails: fmt.Sprintf("recognition failed with status %s", status),
		}
		result.ErrorDetails = details.ErrorDetails
		return []dispatch{{
			channel:          channelCanceled,
			result:           result,
			details:          details,
			completesOneShot: true,
		}}
	}
	return []dispatch{{
		channel:          channelRecognized,
		result:           result,
		completesOneShot: true,
	}}
}

func marshalPayload(payload any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}
