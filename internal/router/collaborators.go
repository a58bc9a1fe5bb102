package router

import (
	"context"

	"github.com/ent0n29/zoya/internal/interactionlog"
	"github.com/ent0n29/zoya/internal/memory"
	"github.com/ent0n29/zoya/internal/search"
	"github.com/ent0n29/zoya/internal/voice"
)

// LanguageModel completes the conversation snapshot. Satisfied by llm.Backend.
type LanguageModel interface {
	Name() string
	Complete(ctx context.Context, messages []memory.Message, language string) (string, error)
}

// WebSearcher is satisfied by search.Searcher.
type WebSearcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}

// Translator must return text unchanged for the source language.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, target string) (string, error)
}

// InteractionLogger is satisfied by interactionlog.Store.
type InteractionLogger interface {
	Record(ctx context.Context, e interactionlog.Entry) error
}

// Emitter hands the final text to the output side. Satisfied by
// *voice.Output.
type Emitter interface {
	Emit(ctx context.Context, text, language string) *voice.Playback
}

// Capabilities records which collaborators were available when the process
// started. It is negotiated once and never re-checked per call.
type Capabilities struct {
	LanguageModel  bool `json:"language_model"`
	Search         bool `json:"search"`
	Translation    bool `json:"translation"`
	SpeechInput    bool `json:"speech_input"`
	SpeechOutput   bool `json:"speech_output"`
	InteractionLog bool `json:"interaction_log"`
}
