package wsengine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/speech"
)

// Wire message paths. Text messages carry a header block terminated by a
// blank line followed by a JSON body; binary messages prefix the header
// block with its big-endian length.
const (
	pathSpeechConfig   = "speech.config"
	pathAudio          = "audio"
	pathTurnStart      = "turn.start"
	pathTurnEnd        = "turn.end"
	pathSpeechStart    = "speech.startDetected"
	pathSpeechEnd      = "speech.endDetected"
	pathHypothesis     = "speech.hypothesis"
	pathPhrase         = "speech.phrase"
	headerPath         = "Path"
	headerRequestID    = "X-RequestId"
	headerTimestamp    = "X-Timestamp"
	headerContentType  = "Content-Type"
	jsonContentType    = "application/json; charset=utf-8"
	headerTerminator   = "\r\n\r\n"
	maxHeaderBlockSize = 4096
)

// wireMessage is one parsed service message.
type wireMessage struct {
	Path      string
	RequestID string
	Body      []byte
}

// buildTextMessage frames a JSON-bodied client message.
func buildTextMessage(path, requestID string, body []byte) []byte {
	var b bytes.Buffer
	writeHeaders(&b, path, requestID, jsonContentType)
	b.Write(body)
	return b.Bytes()
}

// buildAudioMessage frames one binary audio chunk: a 2-byte big-endian
// header-block length, the header block, then the chunk. A zero-length
// chunk signals end of audio to the service.
func buildAudioMessage(requestID string, chunk []byte) []byte {
	var headers bytes.Buffer
	fmt.Fprintf(&headers, "%s: %s\r\n", headerPath, pathAudio)
	fmt.Fprintf(&headers, "%s: %s\r\n", headerRequestID, requestID)
	fmt.Fprintf(&headers, "%s: %s\r\n", headerTimestamp, time.Now().UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&headers, "%s: audio/x-wav", headerContentType)

	b := make([]byte, 0, 2+headers.Len()+len(chunk))
	b = binary.BigEndian.AppendUint16(b, uint16(headers.Len()))
	b = append(b, headers.Bytes()...)
	b = append(b, chunk...)
	return b
}

func writeHeaders(b *bytes.Buffer, path, requestID, contentType string) {
	fmt.Fprintf(b, "%s: %s\r\n", headerPath, path)
	fmt.Fprintf(b, "%s: %s\r\n", headerRequestID, requestID)
	fmt.Fprintf(b, "%s: %s\r\n", headerTimestamp, time.Now().UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(b, "%s: %s%s", headerContentType, contentType, headerTerminator)
}

// parseTextMessage splits a service text message into its headers and body.
func parseTextMessage(data []byte) (*wireMessage, error) {
	idx := bytes.Index(data, []byte(headerTerminator))
	if idx < 0 || idx > maxHeaderBlockSize {
		return nil, fmt.Errorf("wsengine: malformed message: missing header terminator")
	}
	msg := &wireMessage{Body: data[idx+len(headerTerminator):]}
	for _, line := range strings.Split(string(data[:idx]), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(name) {
		case headerPath:
			msg.Path = strings.TrimSpace(value)
		case headerRequestID:
			msg.RequestID = strings.TrimSpace(value)
		}
	}
	if msg.Path == "" {
		return nil, fmt.Errorf("wsengine: malformed message: missing Path header")
	}
	return msg, nil
}

// eventFromMessage maps a parsed service message onto the raw event union.
// The second return is false for messages with no event counterpart
// (turn.start, speech boundary detections, unknown paths).
func eventFromMessage(msg *wireMessage, sessionID string) (speech.RawEvent, bool) {
	switch msg.Path {
	case pathHypothesis:
		var h speech.Hypothesis
		if err := json.Unmarshal(msg.Body, &h); err != nil {
			return speech.RawEvent{}, false
		}
		return speech.RawEvent{
			Type:       speech.RawEventHypothesis,
			SessionID:  sessionID,
			Hypothesis: &h,
		}, true

	case pathPhrase:
		var detailed speech.DetailedPhrase
		if err := json.Unmarshal(msg.Body, &detailed); err != nil {
			return speech.RawEvent{}, false
		}
		if len(detailed.NBest) > 0 {
			return speech.RawEvent{
				Type:      speech.RawEventDetailedPhrase,
				SessionID: sessionID,
				Detailed:  &detailed,
			}, true
		}
		var simple speech.SimplePhrase
		if err := json.Unmarshal(msg.Body, &simple); err != nil {
			return speech.RawEvent{}, false
		}
		return speech.RawEvent{
			Type:      speech.RawEventSimplePhrase,
			SessionID: sessionID,
			Simple:    &simple,
		}, true

	case pathTurnEnd:
		return speech.RawEvent{
			Type:      speech.RawEventSessionEnded,
			SessionID: sessionID,
			Status:    speech.StatusSuccess,
		}, true

	default:
		return speech.RawEvent{}, false
	}
}

// speechConfigBody is the client context sent once per connection.
type speechConfigBody struct {
	Context struct {
		System struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"system"`
		Audio struct {
			Source struct {
				SampleRate    int `json:"samplerate"`
				Channels      int `json:"channelcount"`
				BitsPerSample int `json:"bitspersample"`
			} `json:"source"`
		} `json:"audio"`
	} `json:"context"`
}

func buildSpeechConfig(name, version string, sampleRate, channels, bitsPerSample int) ([]byte, error) {
	var body speechConfigBody
	body.Context.System.Name = name
	body.Context.System.Version = version
	body.Context.Audio.Source.SampleRate = sampleRate
	body.Context.Audio.Source.Channels = channels
	body.Context.Audio.Source.BitsPerSample = bitsPerSample
	return json.Marshal(body)
}
