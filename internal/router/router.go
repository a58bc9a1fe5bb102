// Package router turns one user query into one emitted reply. It owns the
// per-turn state machine; every backend failure collapses to a fixed
// fallback string so a turn always reaches StateEmitted.
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/classify"
	"github.com/ent0n29/zoya/internal/interactionlog"
	"github.com/ent0n29/zoya/internal/memory"
	"github.com/ent0n29/zoya/internal/observability"
	"github.com/ent0n29/zoya/internal/reliability"
	"github.com/ent0n29/zoya/internal/search"
	"github.com/ent0n29/zoya/internal/textnorm"
	"github.com/ent0n29/zoya/internal/voice"
)

const (
	NotFoundMessage      = "I couldn't find information on that topic."
	CannotProcessMessage = "I couldn't process that request."
)

// Backend names recorded on a turn when no collaborator produced the reply.
const (
	BackendCanned   = "canned"
	BackendFallback = "fallback"
)

const logTimeout = 3 * time.Second

// Config holds the static settings of a router.
type Config struct {
	AssistantName   string
	Language        string
	MaxResults      int
	PersonalFacts   map[string]string
	SearchTriggers  []string
	TranslateSource string
}

// Deps are the collaborators. Any of Model, Search, Translator and Log may be
// nil; the corresponding capability is then unavailable for the router's
// lifetime.
type Deps struct {
	Model      LanguageModel
	Search     WebSearcher
	Translator Translator
	Log        InteractionLogger
	Output     Emitter
	Memory     *memory.Conversation
	Metrics    *observability.Metrics
	Logger     zerolog.Logger
}

// TurnOptions carry per-turn context. Empty fields use the router defaults.
type TurnOptions struct {
	Language string
	Mode     string // text|voice
}

// Router dispatches turns. Turns are processed one at a time in arrival
// order.
type Router struct {
	cfg        Config
	classifier *classify.Classifier
	caps       Capabilities

	model      LanguageModel
	search     WebSearcher
	translator Translator
	log        InteractionLogger
	output     Emitter
	memory     *memory.Conversation
	metrics    *observability.Metrics
	logger     zerolog.Logger

	turnMu   sync.Mutex
	langMu   sync.RWMutex
	language string
}

func New(cfg Config, deps Deps) *Router {
	if cfg.AssistantName == "" {
		cfg.AssistantName = "Zoya"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = search.DefaultMaxResults
	}
	if cfg.TranslateSource == "" {
		cfg.TranslateSource = DefaultLanguage
	}
	language := cfg.Language
	if !Supported(language) {
		language = DefaultLanguage
	}

	conv := deps.Memory
	if conv == nil {
		conv = memory.NewConversation(SystemPrompt(cfg.AssistantName, language))
	}
	output := deps.Output
	if output == nil {
		output = voice.NewOutput(nil, nil, "", nil, deps.Logger)
	}

	r := &Router{
		cfg:        cfg,
		classifier: classify.New(cfg.AssistantName, cfg.PersonalFacts, cfg.SearchTriggers),
		caps: Capabilities{
			LanguageModel:  deps.Model != nil,
			Search:         deps.Search != nil,
			Translation:    deps.Translator != nil,
			InteractionLog: deps.Log != nil,
		},
		model:      deps.Model,
		search:     deps.Search,
		translator: deps.Translator,
		log:        deps.Log,
		output:     output,
		memory:     conv,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	r.SetLanguage(language)
	return r
}

// Capabilities reports which backends the router can use.
func (r *Router) Capabilities() Capabilities { return r.caps }

// Memory exposes the conversation for snapshots.
func (r *Router) Memory() *memory.Conversation { return r.memory }

// Language is the current session language.
func (r *Router) Language() string {
	r.langMu.RLock()
	defer r.langMu.RUnlock()
	return r.language
}

// SetLanguage switches the session language and rewrites the system message.
// Unsupported codes fall back to English.
func (r *Router) SetLanguage(code string) {
	if !Supported(code) {
		code = DefaultLanguage
	}
	r.langMu.Lock()
	r.language = code
	r.langMu.Unlock()
	r.memory.SetSystemMessage(SystemPrompt(r.cfg.AssistantName, code))
	r.metrics.SetConversationMessages(r.memory.Len())
}

// ResetMemory drops every turn and keeps the system message.
func (r *Router) ResetMemory() {
	r.turnMu.Lock()
	defer r.turnMu.Unlock()
	r.memory.Reset()
	r.metrics.SetConversationMessages(r.memory.Len())
	r.logger.Info().Msg("conversation memory cleared")
}

// Handle runs one query through the state machine. The returned turn is
// always in StateEmitted and carries the playback started for it.
func (r *Router) Handle(ctx context.Context, query string, opts TurnOptions) Turn {
	r.turnMu.Lock()
	defer r.turnMu.Unlock()

	turn := Turn{
		ID:        uuid.NewString(),
		Query:     strings.TrimSpace(query),
		Language:  opts.Language,
		Mode:      opts.Mode,
		State:     StateReceived,
		StartedAt: time.Now(),
	}
	if !Supported(turn.Language) {
		turn.Language = r.Language()
	}
	if turn.Mode == "" {
		turn.Mode = "text"
	}
	logger := r.logger.With().Str("turn_id", turn.ID).Str("mode", turn.Mode).Logger()

	stage := time.Now()
	result := r.classifier.Classify(turn.Query)
	turn.Classification = result.Label
	turn.advance(StateClassified)
	r.metrics.ObserveStage("classify", time.Since(stage))

	stage = time.Now()
	switch result.Label {
	case classify.Personal:
		turn.Backend = BackendCanned
		turn.RawResponse = result.Answer
	case classify.Searchable:
		r.dispatchSearch(ctx, &turn)
	default:
		r.dispatchConversation(ctx, &turn)
	}
	turn.advance(StateDispatched)
	r.metrics.ObserveStage("dispatch_"+string(result.Label), time.Since(stage))

	r.record(ctx, &turn, logger)

	response := turn.RawResponse
	if turn.Language != r.cfg.TranslateSource && r.caps.Translation {
		stage = time.Now()
		translated, err := r.call(func() (string, error) {
			return r.translator.Translate(ctx, response, turn.Language)
		})
		if err != nil {
			r.fail(&turn, r.translator.Name(), err, "translation failed, keeping original text")
		} else if strings.TrimSpace(translated) != "" {
			response = translated
		}
		turn.TranslatedResponse = response
		turn.advance(StateTranslated)
		r.metrics.ObserveStage("translate", time.Since(stage))
	}

	stage = time.Now()
	turn.FinalText = textnorm.Normalize(response)
	turn.advance(StateNormalized)
	r.metrics.ObserveStage("normalize", time.Since(stage))

	turn.Playback = r.output.Emit(ctx, turn.FinalText, turn.Language)
	turn.advance(StateEmitted)
	turn.Duration = time.Since(turn.StartedAt)

	r.metrics.ObserveTurn(string(turn.Classification), turn.Backend, turn.Duration)
	r.metrics.SetConversationMessages(r.memory.Len())
	logger.Info().
		Str("classification", string(turn.Classification)).
		Str("backend", turn.Backend).
		Int("failures", len(turn.Failures)).
		Dur("duration", turn.Duration).
		Msg("turn emitted")
	return turn
}

func (r *Router) dispatchSearch(ctx context.Context, turn *Turn) {
	if !r.caps.Search {
		turn.Backend = BackendFallback
		turn.RawResponse = NotFoundMessage
		return
	}
	turn.Backend = r.search.Name()

	var results []search.Result
	_, err := r.call(func() (string, error) {
		var err error
		results, err = r.search.Search(ctx, turn.Query, r.cfg.MaxResults)
		return "", err
	})
	joined := strings.TrimSpace(search.Join(results))
	if err == nil && joined == "" {
		err = reliability.Empty(r.search.Name())
	}
	if err != nil {
		r.fail(turn, r.search.Name(), err, "search failed")
		turn.RawResponse = NotFoundMessage
		return
	}
	turn.SearchResult = &joined
	turn.RawResponse = joined
}

func (r *Router) dispatchConversation(ctx context.Context, turn *Turn) {
	if !r.caps.LanguageModel {
		// Without a model, conversational queries are answered from search.
		r.dispatchSearch(ctx, turn)
		return
	}
	turn.Backend = r.model.Name()

	r.memory.Append(memory.RoleUser, turn.Query)
	snapshot := r.memory.Snapshot()
	text, err := r.call(func() (string, error) {
		return r.model.Complete(ctx, snapshot, turn.Language)
	})
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = reliability.Empty(r.model.Name())
	}
	if err != nil {
		r.fail(turn, r.model.Name(), err, "language model call failed")
		turn.RawResponse = CannotProcessMessage
		return
	}
	r.memory.Append(memory.RoleAssistant, text)
	turn.RawResponse = text
}

// record writes the turn to the interaction log. Failures are logged and
// otherwise ignored.
func (r *Router) record(ctx context.Context, turn *Turn, logger zerolog.Logger) {
	if !r.caps.InteractionLog {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logTimeout)
	defer cancel()
	_, err := r.call(func() (string, error) {
		return "", r.log.Record(ctx, interactionlog.Entry{
			ID:           turn.ID,
			Timestamp:    turn.StartedAt.Format(interactionlog.TimestampLayout),
			Mode:         turn.Mode,
			UserQuery:    turn.Query,
			AIReply:      turn.RawResponse,
			SearchResult: turn.SearchResult,
		})
	})
	if err != nil {
		logger.Warn().Err(err).Msg("interaction log write failed")
		r.metrics.ObserveFailure("interaction_log", string(reliability.KindOf(err)))
	}
}

func (r *Router) fail(turn *Turn, backend string, err error, msg string) {
	kind := reliability.KindOf(err)
	turn.Failures = append(turn.Failures, err)
	r.metrics.ObserveFailure(backend, string(kind))
	r.logger.Warn().Err(err).
		Str("turn_id", turn.ID).
		Str("backend", backend).
		Str("kind", string(kind)).
		Bool("retryable", kind.Retryable()).
		Msg(msg)
}

// call runs fn and converts a panic into a service failure.
func (r *Router) call(fn func() (string, error)) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = ""
			err = reliability.NewFailure("collaborator", reliability.KindService, fmt.Errorf("panic: %v", p))
		}
	}()
	return fn()
}

// FailureKinds lists the kinds of every failure recorded on turn.
func FailureKinds(turn Turn) []reliability.Kind {
	kinds := make([]reliability.Kind, 0, len(turn.Failures))
	for _, err := range turn.Failures {
		kinds = append(kinds, reliability.KindOf(err))
	}
	return kinds
}
