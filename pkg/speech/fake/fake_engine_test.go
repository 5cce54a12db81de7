package fake

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/speech"
)

func TestCreateSessionRequiresLanguage(t *testing.T) {
	is := is.New(t)

	engine := NewEngine()
	_, err := engine.CreateSession(speech.RecognitionModeInteractive, nil, nil, nil)
	is.True(err != nil)
}

func TestScriptedEventsDeliveredOnStart(t *testing.T) {
	is := is.New(t)

	engine := NewEngine()
	engine.Script = []speech.RawEvent{
		{Type: speech.RawEventHypothesis, Hypothesis: &speech.Hypothesis{Text: "a"}},
		{Type: speech.RawEventSimplePhrase, Simple: &speech.SimplePhrase{RecognitionStatus: speech.StatusSuccess}},
	}

	cfg, err := speech.NewConfig("en-US")
	is.NoErr(err)
	handle, err := engine.CreateSession(speech.RecognitionModeConversation, cfg, nil, nil)
	is.NoErr(err)

	var got []speech.RawEvent
	is.NoErr(handle.Start(func(ev speech.RawEvent) { got = append(got, ev) }))

	is.Equal(len(got), 2)
	is.Equal(got[0].SessionID, engine.LastSession().ID) // blank ids are filled in
}

func TestEmitWithoutSinkIsDropped(t *testing.T) {
	is := is.New(t)

	engine := NewEngine()
	cfg, err := speech.NewConfig("en-US")
	is.NoErr(err)
	_, err = engine.CreateSession(speech.RecognitionModeInteractive, cfg, nil, nil)
	is.NoErr(err)

	// no Start, so no sink; Emit must not panic
	engine.LastSession().Emit(speech.RawEvent{Type: speech.RawEventHypothesis})
}

func TestStartErr(t *testing.T) {
	is := is.New(t)

	engine := NewEngine()
	engine.StartErr = errors.New("refused")
	cfg, err := speech.NewConfig("en-US")
	is.NoErr(err)
	handle, err := engine.CreateSession(speech.RecognitionModeInteractive, cfg, nil, nil)
	is.NoErr(err)

	err = handle.Start(func(speech.RawEvent) {})
	is.True(err != nil)
	is.True(!engine.LastSession().Started())
}

func TestSessionsAreOrdered(t *testing.T) {
	is := is.New(t)

	engine := NewEngine()
	cfg, err := speech.NewConfig("en-US")
	is.NoErr(err)
	for i := 0; i < 3; i++ {
		_, err := engine.CreateSession(speech.RecognitionModeInteractive, cfg, nil, nil)
		is.NoErr(err)
	}

	sessions := engine.Sessions()
	is.Equal(len(sessions), 3)
	is.Equal(sessions[2], engine.LastSession())
	is.True(sessions[0].ID != sessions[1].ID)
}
