// Package fake provides a scriptable in-memory engine for exercising the
// recognizer without a live service connection.
package fake

import (
	"fmt"
	"sync"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/speech"
)

// DefaultSessionID is used when no session id is scripted.
const DefaultSessionID = "fake-session"

// Engine is a fake speech.Engine. Each CreateSession call produces a new
// Session that records its lifecycle and exposes Emit for event injection.
// Scripted events, when set, are emitted synchronously from Start.
type Engine struct {
	mu sync.Mutex

	// CreateErr, when set, makes CreateSession fail.
	CreateErr error

	// StartErr, when set, makes Session.Start fail.
	StartErr error

	// Script is emitted from Start on every new session.
	Script []speech.RawEvent

	sessions []*Session
}

// NewEngine creates a fake engine with no scripted events.
func NewEngine() *Engine {
	return &Engine{}
}

// CreateSession implements speech.Engine.
func (e *Engine) CreateSession(mode speech.RecognitionMode, cfg *speech.Config, source audio.Source, connect speech.ConnectionFactory) (speech.SessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	if cfg == nil || cfg.Language() == "" {
		return nil, fmt.Errorf("fake engine: config is missing the recognition language")
	}
	s := &Session{
		Mode:     mode,
		ID:       fmt.Sprintf("%s-%d", DefaultSessionID, len(e.sessions)+1),
		startErr: e.StartErr,
		script:   e.Script,
	}
	e.sessions = append(e.sessions, s)
	return s, nil
}

// Sessions returns every session the engine has created, in order.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Session(nil), e.sessions...)
}

// LastSession returns the most recently created session, or nil.
func (e *Engine) LastSession() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sessions) == 0 {
		return nil
	}
	return e.sessions[len(e.sessions)-1]
}

// Session is a fake speech.SessionHandle recording lifecycle calls.
type Session struct {
	Mode speech.RecognitionMode
	ID   string

	mu           sync.Mutex
	sink         speech.EventSink
	started      bool
	audioStopped bool
	released     bool
	startErr     error
	script       []speech.RawEvent

	// CallOrder records "start", "stopAudio", "release" in invocation
	// order.
	CallOrder []string
}

// Start implements speech.SessionHandle. Scripted events are delivered
// synchronously before Start returns.
func (s *Session) Start(sink speech.EventSink) error {
	s.mu.Lock()
	if s.startErr != nil {
		s.mu.Unlock()
		return s.startErr
	}
	s.started = true
	s.sink = sink
	s.CallOrder = append(s.CallOrder, "start")
	script := s.script
	s.mu.Unlock()

	for _, ev := range script {
		s.Emit(ev)
	}
	return nil
}

// Emit delivers one event to the registered sink. Emitting to a released or
// never-started session is allowed and simply drops the event, mirroring a
// stale handle.
func (s *Session) Emit(ev speech.RawEvent) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		return
	}
	if ev.SessionID == "" {
		ev.SessionID = s.ID
	}
	sink(ev)
}

// StopAudio implements speech.SessionHandle.
func (s *Session) StopAudio() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioStopped = true
	s.CallOrder = append(s.CallOrder, "stopAudio")
	return nil
}

// Release implements speech.SessionHandle.
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.CallOrder = append(s.CallOrder, "release")
	return nil
}

// Started reports whether Start succeeded.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// AudioStopped reports whether StopAudio was called.
func (s *Session) AudioStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioStopped
}

// Released reports whether Release was called.
func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
