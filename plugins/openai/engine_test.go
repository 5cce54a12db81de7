package openai

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/speech"
)

func TestWhisperLanguage(t *testing.T) {
	is := is.New(t)

	is.Equal(whisperLanguage("en-US"), "en")
	is.Equal(whisperLanguage("de-DE"), "de")
	is.Equal(whisperLanguage("fr"), "fr")
	is.Equal(whisperLanguage("ZH-cn"), "zh")
}

func TestCreateSessionValidation(t *testing.T) {
	is := is.New(t)

	engine := NewEngine("key", nil)
	source := audio.NewBufferSource(nil, audio.DefaultFormat, 0)

	_, err := engine.CreateSession(speech.RecognitionModeInteractive, nil, source, nil)
	is.True(err != nil) // nil config

	cfg, err := speech.NewConfig("en-US")
	is.NoErr(err)
	_, err = engine.CreateSession(speech.RecognitionModeInteractive, cfg, nil, nil)
	is.True(err != nil) // nil source

	_, err = engine.CreateSession(speech.RecognitionModeInteractive, cfg, source, nil)
	is.NoErr(err)
}

// An empty audio source must resolve without an API call: a silence phrase
// followed by a clean session end.
func TestEmptyAudioResolvesAsSilence(t *testing.T) {
	is := is.New(t)

	engine := NewEngine("unused-key", nil)
	cfg, err := speech.NewConfig("en-US")
	is.NoErr(err)
	source := audio.NewBufferSource(nil, audio.DefaultFormat, 0)

	handle, err := engine.CreateSession(speech.RecognitionModeInteractive, cfg, source, nil)
	is.NoErr(err)

	events := make(chan speech.RawEvent, 4)
	is.NoErr(handle.Start(func(ev speech.RawEvent) { events <- ev }))

	ev := waitEvent(t, events)
	is.Equal(ev.Type, speech.RawEventSimplePhrase)
	is.Equal(ev.Simple.RecognitionStatus, speech.StatusInitialSilenceTimeout)

	ev = waitEvent(t, events)
	is.Equal(ev.Type, speech.RawEventSessionEnded)
	is.Equal(ev.Status, speech.StatusSuccess)

	is.NoErr(handle.StopAudio())
	is.NoErr(handle.Release())
}

func TestReleasedSessionEmitsNothing(t *testing.T) {
	is := is.New(t)

	engine := NewEngine("unused-key", nil)
	cfg, err := speech.NewConfig("en-US")
	is.NoErr(err)
	source := audio.NewBufferSource(nil, audio.DefaultFormat, 0)

	handle, err := engine.CreateSession(speech.RecognitionModeInteractive, cfg, source, nil)
	is.NoErr(err)
	is.NoErr(handle.Release())

	events := make(chan speech.RawEvent, 4)
	is.NoErr(handle.Start(func(ev speech.RawEvent) { events <- ev }))

	select {
	case <-events:
		t.Fatal("released session must not deliver events")
	case <-time.After(100 * time.Millisecond):
	}
}

func waitEvent(t *testing.T, events <-chan speech.RawEvent) speech.RawEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return speech.RawEvent{}
	}
}
