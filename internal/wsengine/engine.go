// Package wsengine is the reference protocol engine: it speaks the speech
// service's websocket protocol and surfaces service traffic as the raw event
// union the recognizer consumes.
package wsengine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/speech"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/version"
)

const dialTimeout = 10 * time.Second

// Engine implements speech.Engine over the service websocket protocol.
type Engine struct {
	logger *slog.Logger
}

// New creates a websocket protocol engine. A nil logger falls back to
// slog.Default.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// CreateSession implements speech.Engine. It validates the configuration
// and resolves the endpoint; the connection itself is dialed by Start.
func (e *Engine) CreateSession(mode speech.RecognitionMode, cfg *speech.Config, source audio.Source, connect speech.ConnectionFactory) (speech.SessionHandle, error) {
	if cfg == nil || strings.TrimSpace(cfg.Language()) == "" {
		return nil, fmt.Errorf("wsengine: config is missing the recognition language")
	}
	if source == nil {
		return nil, fmt.Errorf("wsengine: audio source is required")
	}
	endpoint, err := resolveEndpoint(mode, cfg)
	if err != nil {
		return nil, err
	}
	if connect == nil {
		connect = DefaultConnectionFactory
	}

	header := http.Header{}
	if token := cfg.GetProperty(speech.PropertyAuthToken); token != "" {
		header.Set("Authorization", "Bearer "+token)
	} else if key := cfg.GetProperty(speech.PropertyKey); key != "" {
		header.Set("Ocp-Apim-Subscription-Key", key)
	} else {
		return nil, fmt.Errorf("wsengine: a subscription key or authorization token is required")
	}
	connectionID := uuid.NewString()
	header.Set("X-ConnectionId", connectionID)

	return &session{
		logger:    e.logger.With(slog.String("session", connectionID)),
		endpoint:  endpoint,
		header:    header,
		connect:   connect,
		source:    source,
		sessionID: connectionID,
		stopPump:  make(chan struct{}),
		pumpDone:  make(chan struct{}),
		readDone:  make(chan struct{}),
	}, nil
}

// resolveEndpoint prefers an explicit endpoint property and otherwise builds
// the regional URL for the recognition mode.
func resolveEndpoint(mode speech.RecognitionMode, cfg *speech.Config) (string, error) {
	format := cfg.OutputFormat().String()
	language := cfg.Language()

	if endpoint := cfg.GetProperty(speech.PropertyEndpoint); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", fmt.Errorf("wsengine: invalid endpoint: %w", err)
		}
		q := u.Query()
		if q.Get("language") == "" {
			q.Set("language", language)
		}
		if q.Get("format") == "" {
			q.Set("format", format)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	region := cfg.GetProperty(speech.PropertyRegion)
	if region == "" {
		return "", fmt.Errorf("wsengine: an endpoint or region is required")
	}
	u := url.URL{
		Scheme: "wss",
		Host:   region + ".stt.speech.microsoft.com",
		Path:   fmt.Sprintf("/speech/recognition/%s/cognitiveservices/v1", mode),
	}
	q := u.Query()
	q.Set("language", language)
	q.Set("format", format)
	if endpointID := cfg.GetProperty(speech.PropertyEndpointID); endpointID != "" {
		q.Set("cid", endpointID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DefaultConnectionFactory dials the endpoint with gorilla/websocket.
func DefaultConnectionFactory(ctx context.Context, endpoint string, header http.Header) (speech.Connection, error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = dialTimeout
	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("wsengine: failed to connect: %w", err)
	}
	return conn, nil
}

// session is one live websocket recognition exchange: a connection, an audio
// pump goroutine and a read loop goroutine. The read loop is the only
// goroutine invoking the sink, which keeps event delivery serialized.
type session struct {
	logger    *slog.Logger
	endpoint  string
	header    http.Header
	connect   speech.ConnectionFactory
	source    audio.Source
	sessionID string

	mu       sync.Mutex
	conn     speech.Connection
	released bool

	stopPump chan struct{}
	stopOnce sync.Once
	pumpDone chan struct{}
	readDone chan struct{}
}

// Start implements speech.SessionHandle.
func (s *session) Start(sink speech.EventSink) error {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := s.connect(ctx, s.endpoint, s.header)
	if err != nil {
		return err
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	format := s.source.Format()
	cfgBody, err := buildSpeechConfig("speech-sdk-go", version.Version,
		format.SampleRate, format.Channels, format.BitsPerSample)
	if err != nil {
		conn.Close()
		return fmt.Errorf("wsengine: building speech.config: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, buildTextMessage(pathSpeechConfig, requestID, cfgBody)); err != nil {
		conn.Close()
		return fmt.Errorf("wsengine: sending speech.config: %w", err)
	}

	// the connection is only published once the goroutines launch, so a
	// failed handshake leaves nothing for Release to wait on
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.logger.Debug("session connected", slog.String("endpoint", s.endpoint))

	go s.pumpAudio(conn, requestID)
	go s.readLoop(conn, sink)
	return nil
}

// pumpAudio streams source frames to the service until the source is
// exhausted or StopAudio is signaled, then sends the end-of-audio marker.
func (s *session) pumpAudio(conn speech.Connection, requestID string) {
	defer close(s.pumpDone)
	for {
		select {
		case <-s.stopPump:
			s.sendAudioEnd(conn, requestID)
			return
		default:
		}

		frame, err := s.source.Read()
		if err == io.EOF {
			s.sendAudioEnd(conn, requestID)
			return
		}
		if err != nil {
			s.logger.Error("reading audio source", slog.String("error", err.Error()))
			s.sendAudioEnd(conn, requestID)
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, buildAudioMessage(requestID, frame.Data)); err != nil {
			// the read loop surfaces the connection failure
			s.logger.Debug("audio write failed", slog.String("error", err.Error()))
			return
		}
	}
}

func (s *session) sendAudioEnd(conn speech.Connection, requestID string) {
	if err := conn.WriteMessage(websocket.BinaryMessage, buildAudioMessage(requestID, nil)); err != nil {
		s.logger.Debug("end-of-audio write failed", slog.String("error", err.Error()))
	}
}

// readLoop parses inbound messages and feeds the sink until the connection
// ends. An unexpected connection failure surfaces as an error-status
// SessionEnded event; events are suppressed once the session is released.
func (s *session) readLoop(conn speech.Connection, sink speech.EventSink) {
	defer close(s.readDone)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if s.isReleased() {
				return
			}
			sink(speech.RawEvent{
				Type:      speech.RawEventSessionEnded,
				SessionID: s.sessionID,
				Status:    speech.StatusError,
				Err:       err,
			})
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		msg, err := parseTextMessage(data)
		if err != nil {
			s.logger.Warn("dropping malformed message", slog.String("error", err.Error()))
			continue
		}
		s.logger.Debug("message received", slog.String("path", msg.Path))
		ev, ok := eventFromMessage(msg, s.sessionID)
		if !ok || s.isReleased() {
			continue
		}
		sink(ev)
	}
}

// StopAudio implements speech.SessionHandle.
func (s *session) StopAudio() error {
	s.stopOnce.Do(func() { close(s.stopPump) })
	return s.source.Stop()
}

// Release implements speech.SessionHandle. It closes the connection and
// waits for the audio pump to drain. The read loop is not waited on, since
// Release may be invoked from inside a sink callback; the released flag
// suppresses any further event delivery instead.
func (s *session) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	conn := s.conn
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stopPump) })
	var err error
	if conn != nil {
		err = conn.Close()
		<-s.pumpDone
	}
	s.logger.Debug("session released")
	return err
}

func (s *session) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
