package router

import (
	"time"

	"github.com/ent0n29/zoya/internal/classify"
	"github.com/ent0n29/zoya/internal/voice"
)

// State is a step of the per-turn state machine.
type State string

const (
	StateReceived   State = "received"
	StateClassified State = "classified"
	StateDispatched State = "dispatched"
	StateTranslated State = "translated"
	StateNormalized State = "normalized"
	StateEmitted    State = "emitted"
)

// Turn is the record of one query through to its emitted reply.
type Turn struct {
	ID                 string
	Query              string
	Language           string
	Mode               string
	Classification     classify.Label
	Backend            string
	RawResponse        string
	TranslatedResponse string
	FinalText          string
	SearchResult       *string
	Failures           []error
	State              State
	States             []State
	StartedAt          time.Time
	Duration           time.Duration
	Playback           *voice.Playback
}

func (t *Turn) advance(s State) {
	if len(t.States) == 0 {
		t.States = append(t.States, StateReceived)
	}
	t.State = s
	t.States = append(t.States, s)
}
