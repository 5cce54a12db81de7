package speech

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
)

// Recognizer is the session controller: it owns at most one live session
// against the engine, routes translated events to the registered handlers,
// and holds the clearable one-shot completion slot.
//
// The engine contract guarantees serialized event delivery, so dispatch is
// single-threaded; the internal mutex only protects the controller state
// against callers operating from other goroutines.
type Recognizer struct {
	config  *Config
	source  audio.Source
	engine  Engine
	connect ConnectionFactory
	logger  *slog.Logger

	mu       sync.Mutex
	current  *activeSession
	disposed bool

	// one-shot completion slot: cleared atomically with first use so a
	// second event cannot re-trigger it
	onceResult func(*RecognitionResult)
	onceErr    func(error)

	recognizingHandler RecognitionHandler
	recognizedHandler  RecognitionHandler
	canceledHandler    CancellationHandler
}

// activeSession pairs a live handle with its dispatch identity. Events are
// accepted only while the session is still the recognizer's current one.
type activeSession struct {
	handle  SessionHandle
	oneShot bool
}

// NewRecognizer creates a recognizer. The config must be non-nil and carry a
// non-blank recognition language; engine and source must be non-nil. A nil
// logger falls back to slog.Default.
func NewRecognizer(cfg *Config, source audio.Source, engine Engine, connect ConnectionFactory, logger *slog.Logger) (*Recognizer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config must not be nil", ErrInvalidArgument)
	}
	if strings.TrimSpace(cfg.Language()) == "" {
		return nil, fmt.Errorf("%w: config is missing the recognition language", ErrInvalidArgument)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: engine must not be nil", ErrInvalidArgument)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: audio source must not be nil", ErrInvalidArgument)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{
		config:  cfg,
		source:  source,
		engine:  engine,
		connect: connect,
		logger:  logger,
	}, nil
}

// Recognizing registers the interim-hypothesis handler, replacing any
// previous one. A nil handler unregisters.
func (r *Recognizer) Recognizing(h RecognitionHandler) {
	r.mu.Lock()
	r.recognizingHandler = h
	r.mu.Unlock()
}

// Recognized registers the final-result handler, replacing any previous one.
func (r *Recognizer) Recognized(h RecognitionHandler) {
	r.mu.Lock()
	r.recognizedHandler = h
	r.mu.Unlock()
}

// Canceled registers the cancellation handler, replacing any previous one.
func (r *Recognizer) Canceled(h CancellationHandler) {
	r.mu.Lock()
	r.canceledHandler = h
	r.mu.Unlock()
}

// RecognizeOnce starts a single-utterance recognition. Any active session is
// torn down first. onResult fires at most once, with the recognized,
// no-match or canceled result for the utterance; a failure raised inside
// onResult is forwarded once to onError when supplied. Setup failures are
// returned synchronously.
func (r *Recognizer) RecognizeOnce(onResult func(*RecognitionResult), onError func(error)) error {
	return r.startSession(RecognitionModeInteractive, onResult, onError)
}

// StartContinuousRecognition starts an open-ended recognition session. Any
// active session is torn down first. onStarted is invoked once the session
// is running; a failure raised inside onStarted is forwarded to onError when
// supplied, otherwise discarded.
func (r *Recognizer) StartContinuousRecognition(onStarted func(), onError func(error)) error {
	if err := r.startSession(RecognitionModeConversation, nil, nil); err != nil {
		return err
	}
	r.invokeCallback(onStarted, onError)
	return nil
}

// StopContinuousRecognition tears down the active session. Calling it with
// no session active is a correct no-op. onStopped is invoked after
// teardown; a failure raised inside it is forwarded to onError.
func (r *Recognizer) StopContinuousRecognition(onStopped func(), onError func(error)) error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrRecognizerClosed
	}
	old := r.detachLocked()
	r.mu.Unlock()
	r.releaseSession(old)

	r.invokeCallback(onStopped, onError)
	return nil
}

// Close tears down any active session and permanently disposes the
// recognizer. All further operations fail with ErrRecognizerClosed, as does
// a second Close.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrRecognizerClosed
	}
	old := r.detachLocked()
	r.disposed = true
	r.recognizingHandler, r.recognizedHandler, r.canceledHandler = nil, nil, nil
	r.mu.Unlock()

	r.releaseSession(old)
	r.logger.Debug("recognizer closed")
	return nil
}

// startSession tears down the previous session (if any) and starts a new
// one. Detaching the old session strictly precedes creation of the new one,
// so no stale event can interleave with the new session's events.
func (r *Recognizer) startSession(mode RecognitionMode, onResult func(*RecognitionResult), onError func(error)) error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrRecognizerClosed
	}
	old := r.detachLocked()
	r.mu.Unlock()
	r.releaseSession(old)

	handle, err := r.engine.CreateSession(mode, r.config, r.source, r.connect)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionSetup, err)
	}

	sess := &activeSession{handle: handle, oneShot: mode == RecognitionModeInteractive}
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		r.releaseSession(sess)
		return ErrRecognizerClosed
	}
	r.current = sess
	r.onceResult = onResult
	r.onceErr = onError
	r.mu.Unlock()

	if err := handle.Start(func(ev RawEvent) { r.dispatchEvent(sess, ev) }); err != nil {
		r.mu.Lock()
		var failed *activeSession
		if r.current == sess {
			failed = r.detachLocked()
		}
		r.mu.Unlock()
		r.releaseSession(failed)
		return fmt.Errorf("%w: %v", ErrSessionSetup, err)
	}
	r.logger.Debug("session started", slog.String("mode", mode.String()))
	return nil
}

// dispatchEvent is the sink registered with the session handle. Events from
// a session that is no longer current are dropped.
func (r *Recognizer) dispatchEvent(sess *activeSession, ev RawEvent) {
	r.mu.Lock()
	if r.disposed || r.current != sess {
		r.mu.Unlock()
		return
	}
	actions := translateEvent(ev)

	var onceResult func(*RecognitionResult)
	var onceErr func(error)
	completed := false
	for _, d := range actions {
		if !d.completesOneShot {
			continue
		}
		completed = true
		if r.onceResult != nil {
			onceResult, onceErr = r.onceResult, r.onceErr
			r.onceResult, r.onceErr = nil, nil
		}
	}
	recognizing := r.recognizingHandler
	recognized := r.recognizedHandler
	canceled := r.canceledHandler
	oneShotDone := sess.oneShot && completed
	r.mu.Unlock()

	for _, d := range actions {
		switch d.channel {
		case channelRecognizing:
			r.invokeRecognition(recognizing, RecognitionEventArgs{SessionID: ev.SessionID, Result: d.result})
		case channelRecognized:
			r.invokeRecognition(recognized, RecognitionEventArgs{SessionID: ev.SessionID, Result: d.result})
		case channelCanceled:
			r.invokeCancellation(canceled, CancellationEventArgs{SessionID: ev.SessionID, Result: d.result, Details: d.details})
		}
		if d.completesOneShot && onceResult != nil {
			r.invokeOneShot(onceResult, onceErr, d.result)
			onceResult, onceErr = nil, nil
		}
	}

	// a completed one-shot request returns the controller to idle
	if oneShotDone {
		r.mu.Lock()
		var old *activeSession
		if r.current == sess {
			old = r.detachLocked()
		}
		r.mu.Unlock()
		r.releaseSession(old)
	}
}

// detachLocked clears the current session and the one-shot slot. A detached
// session no longer passes the sink guard, so no further events from it can
// reach a subscriber. Must be called with r.mu held; the returned session
// must then be handed to releaseSession outside the lock.
func (r *Recognizer) detachLocked() *activeSession {
	sess := r.current
	if sess == nil {
		return nil
	}
	r.current = nil
	r.onceResult, r.onceErr = nil, nil
	return sess
}

// releaseSession performs the ordered teardown of a detached session: the
// audio pump is silenced first, then the session resources are released, so
// the pump cannot push data into a session mid-release. Never called with
// r.mu held, since releasing may block briefly.
func (r *Recognizer) releaseSession(sess *activeSession) {
	if sess == nil {
		return
	}
	if err := sess.handle.StopAudio(); err != nil {
		r.logger.Error("stopping session audio", slog.String("error", err.Error()))
	}
	if err := sess.handle.Release(); err != nil {
		r.logger.Error("releasing session", slog.String("error", err.Error()))
	}
	r.logger.Debug("session released")
}

// invokeRecognition delivers args to a subscriber. A panicking subscriber is
// isolated: the failure is logged and discarded so it cannot corrupt the
// dispatch pipeline.
func (r *Recognizer) invokeRecognition(h RecognitionHandler, args RecognitionEventArgs) {
	if h == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("recognition handler panicked", slog.Any("panic", rec))
		}
	}()
	h(r, args)
}

func (r *Recognizer) invokeCancellation(h CancellationHandler, args CancellationEventArgs) {
	if h == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("cancellation handler panicked", slog.Any("panic", rec))
		}
	}()
	h(r, args)
}

// invokeOneShot delivers the completing result. A failure raised inside the
// result callback is forwarded once to the paired error sink when supplied.
func (r *Recognizer) invokeOneShot(onResult func(*RecognitionResult), onError func(error), result *RecognitionResult) {
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("one-shot result callback panicked: %v", rec)
			}
		}()
		onResult(result)
		return nil
	}()
	if err == nil {
		return
	}
	r.logger.Warn("one-shot callback failed", slog.String("error", err.Error()))
	if onError != nil {
		r.invokeError(onError, err)
	}
}

// invokeCallback runs an optional lifecycle callback (onStarted/onStopped),
// forwarding a raised failure to the paired error sink.
func (r *Recognizer) invokeCallback(cb func(), onError func(error)) {
	if cb == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("callback panicked: %v", rec)
			}
		}()
		cb()
		return nil
	}()
	if err != nil && onError != nil {
		r.invokeError(onError, err)
	}
}

func (r *Recognizer) invokeError(onError func(error), cause error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("error callback panicked", slog.Any("panic", rec))
		}
	}()
	onError(cause)
}

// EndpointID returns the custom endpoint id property.
func (r *Recognizer) EndpointID() (string, error) {
	if err := r.checkOpen(); err != nil {
		return "", err
	}
	return r.config.GetProperty(PropertyEndpointID), nil
}

// SetEndpointID sets the custom endpoint id property. Blank input fails.
func (r *Recognizer) SetEndpointID(id string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: endpoint id must not be blank", ErrInvalidArgument)
	}
	r.config.SetProperty(PropertyEndpointID, id)
	return nil
}

// SpeechRecognitionLanguage returns the recognition language. The language
// is read-only after construction.
func (r *Recognizer) SpeechRecognitionLanguage() (string, error) {
	if err := r.checkOpen(); err != nil {
		return "", err
	}
	return r.config.Language(), nil
}

// AuthorizationToken returns the current authorization token property.
func (r *Recognizer) AuthorizationToken() (string, error) {
	if err := r.checkOpen(); err != nil {
		return "", err
	}
	return r.config.GetProperty(PropertyAuthToken), nil
}

// SetAuthorizationToken sets the authorization token property. Blank input
// fails. Token refresh cadence is the caller's concern.
func (r *Recognizer) SetAuthorizationToken(token string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: authorization token must not be blank", ErrInvalidArgument)
	}
	r.config.SetProperty(PropertyAuthToken, token)
	return nil
}

// OutputFormat returns the output format derived from the stored property.
func (r *Recognizer) OutputFormat() (OutputFormat, error) {
	if err := r.checkOpen(); err != nil {
		return OutputFormatSimple, err
	}
	return r.config.OutputFormat(), nil
}

// SetOutputFormat stores the output format property.
func (r *Recognizer) SetOutputFormat(format OutputFormat) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.config.SetProperty(PropertyOutputFormat, format.String())
	return nil
}

func (r *Recognizer) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return ErrRecognizerClosed
	}
	return nil
}
