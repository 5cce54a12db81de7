// Package openai provides a Whisper-backed batch engine. It implements the
// same engine contract as the streaming websocket engine but buffers the
// whole audio source, transcribes it in one API call and emits a single
// phrase event. Interim hypotheses are never produced.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio/wav"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/speech"
)

const transcribeTimeout = 60 * time.Second

// ticksPerSecond is the service tick unit, 100ns ticks.
const ticksPerSecond = 10_000_000

// Engine implements speech.Engine against the Whisper transcription API.
type Engine struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewEngine creates a Whisper engine.
func NewEngine(apiKey string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client: openai.NewClient(apiKey),
		model:  openai.Whisper1,
		logger: logger,
	}
}

// CreateSession implements speech.Engine. The connection factory is unused:
// this engine has no streaming transport.
func (e *Engine) CreateSession(mode speech.RecognitionMode, cfg *speech.Config, source audio.Source, connect speech.ConnectionFactory) (speech.SessionHandle, error) {
	if cfg == nil || strings.TrimSpace(cfg.Language()) == "" {
		return nil, fmt.Errorf("openai: config is missing the recognition language")
	}
	if source == nil {
		return nil, fmt.Errorf("openai: audio source is required")
	}
	return &batchSession{
		engine:   e,
		source:   source,
		language: whisperLanguage(cfg.Language()),
		stop:     make(chan struct{}),
	}, nil
}

// whisperLanguage reduces a BCP-47 tag such as "en-US" to the primary
// subtag the transcription API expects.
func whisperLanguage(tag string) string {
	lang, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(lang)
}

// batchSession is one buffered transcription exchange.
type batchSession struct {
	engine   *Engine
	source   audio.Source
	language string

	mu       sync.Mutex
	released bool

	stop     chan struct{}
	stopOnce sync.Once
}

// Start implements speech.SessionHandle. Transcription runs on its own
// goroutine; the resulting phrase and session-ended events are delivered
// serially from that goroutine.
func (s *batchSession) Start(sink speech.EventSink) error {
	go s.run(sink)
	return nil
}

func (s *batchSession) run(sink speech.EventSink) {
	data, err := s.drainSource()
	if err != nil {
		s.emit(sink, speech.RawEvent{
			Type:   speech.RawEventSessionEnded,
			Status: speech.StatusError,
			Err:    fmt.Errorf("reading audio source: %w", err),
		})
		return
	}
	if len(data) == 0 {
		s.emit(sink, speech.RawEvent{
			Type: speech.RawEventSimplePhrase,
			Simple: &speech.SimplePhrase{
				RecognitionStatus: speech.StatusInitialSilenceTimeout,
			},
		})
		s.emit(sink, speech.RawEvent{Type: speech.RawEventSessionEnded, Status: speech.StatusSuccess})
		return
	}

	format := s.source.Format()
	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	resp, err := s.engine.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.engine.model,
		Language: s.language,
		Format:   openai.AudioResponseFormatJSON,
		Reader:   bytes.NewReader(wav.Encode(data, format)),
		FilePath: "audio.wav", // required by the API even for readers
	})
	if err != nil {
		s.emit(sink, speech.RawEvent{
			Type:   speech.RawEventSessionEnded,
			Status: speech.StatusError,
			Err:    fmt.Errorf("transcription failed: %w", err),
		})
		return
	}

	s.engine.logger.Debug("transcription complete", slog.Int("bytes", len(data)))

	status := speech.StatusSuccess
	if strings.TrimSpace(resp.Text) == "" {
		status = speech.StatusNoMatch
	}
	duration := uint64(len(data)) * ticksPerSecond / uint64(format.BytesPerSecond())
	s.emit(sink, speech.RawEvent{
		Type: speech.RawEventSimplePhrase,
		Simple: &speech.SimplePhrase{
			RecognitionStatus: status,
			DisplayText:       resp.Text,
			Duration:          duration,
		},
	})
	s.emit(sink, speech.RawEvent{Type: speech.RawEventSessionEnded, Status: speech.StatusSuccess})
}

// drainSource buffers the audio source until exhaustion or StopAudio.
func (s *batchSession) drainSource() ([]byte, error) {
	var buf bytes.Buffer
	for {
		select {
		case <-s.stop:
			return buf.Bytes(), nil
		default:
		}
		frame, err := s.source.Read()
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		buf.Write(frame.Data)
	}
}

func (s *batchSession) emit(sink speech.EventSink, ev speech.RawEvent) {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return
	}
	sink(ev)
}

// StopAudio implements speech.SessionHandle.
func (s *batchSession) StopAudio() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return s.source.Stop()
}

// Release implements speech.SessionHandle.
func (s *batchSession) Release() error {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
