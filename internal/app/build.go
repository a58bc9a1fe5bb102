package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/cache"
	"github.com/ent0n29/zoya/internal/config"
	"github.com/ent0n29/zoya/internal/httpapi"
	"github.com/ent0n29/zoya/internal/interactionlog"
	"github.com/ent0n29/zoya/internal/llm"
	"github.com/ent0n29/zoya/internal/logging"
	"github.com/ent0n29/zoya/internal/observability"
	"github.com/ent0n29/zoya/internal/reliability"
	"github.com/ent0n29/zoya/internal/router"
	"github.com/ent0n29/zoya/internal/search"
	"github.com/ent0n29/zoya/internal/session"
	"github.com/ent0n29/zoya/internal/translate"
	"github.com/ent0n29/zoya/internal/voice"
)

// Capabilities records which collaborators this process negotiated at
// startup.
type Capabilities = router.Capabilities

// Options tune Build for tests and alternate entry points.
type Options struct {
	Logger zerolog.Logger
	// Registerer defaults to the global prometheus registry.
	Registerer prometheus.Registerer
	// DetectSpeaker defaults to voice.DetectSpeakerCommand.
	DetectSpeaker func() (string, bool)
}

// BuildResult holds the shared backends of the process. Routers built from
// it share backends but never memory.
type BuildResult struct {
	Config       config.Config
	Capabilities Capabilities
	Metrics      *observability.Metrics
	Logger       zerolog.Logger

	Model        router.LanguageModel
	Search       router.WebSearcher
	Translator   router.Translator
	Interactions interactionlog.Store
	Recognizer   voice.Recognizer
	Speaker      voice.Speaker
	SpeakerInfo  string

	closers []io.Closer
}

// Build negotiates every capability once. A collaborator that cannot be
// built is logged and left out; only invalid configuration is an error.
func Build(ctx context.Context, cfg config.Config, opts Options) (*BuildResult, error) {
	logger := opts.Logger
	detect := opts.DetectSpeaker
	if detect == nil {
		detect = voice.DetectSpeakerCommand
	}

	res := &BuildResult{
		Config:  cfg,
		Metrics: observability.NewMetrics(cfg.MetricsNamespace, opts.Registerer),
		Logger:  logger,
	}
	capLogger := logging.Component(logger, "capabilities")
	unavailable := func(capability string, err error) {
		capLogger.Warn().
			Str("capability", capability).
			Str("kind", string(reliability.KindOf(err))).
			Err(err).
			Msg("capability unavailable")
	}

	model, err := llm.NewBackend(llm.Config{
		Mode:        cfg.LLMMode,
		APIKey:      cfg.OpenRouterAPIKey,
		Model:       cfg.OpenRouterModel,
		BaseURL:     cfg.OpenRouterBaseURL,
		HTTPURL:     cfg.LLMHTTPURL,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	})
	switch {
	case err == nil:
		res.Model = model
	case reliability.KindOf(err) == reliability.KindUnavailable:
		unavailable("language_model", err)
	default:
		return nil, fmt.Errorf("language model init failed: %w", err)
	}

	var searchCache cache.Cache
	if cfg.SearchCacheSize > 0 || cfg.RedisURL != "" {
		searchCache, err = cache.New(ctx, cache.Config{
			RedisURL: cfg.RedisURL,
			Size:     cfg.SearchCacheSize,
			TTL:      cfg.SearchCacheTTL,
		})
		if err != nil {
			cacheLogger := logging.Component(logger, "cache")
			cacheLogger.Warn().Err(err).Msg("redis unavailable, using in-process cache")
			searchCache = cache.NewLRU(cfg.SearchCacheSize, cfg.SearchCacheTTL)
		}
		res.closers = append(res.closers, searchCache)
	}
	searcher, err := search.NewSearcher(search.Config{
		Mode:    cfg.SearchMode,
		BaseURL: cfg.SearchBaseURL,
		Timeout: cfg.SearchTimeout,
	}, searchCache)
	switch {
	case err == nil:
		if cached, ok := searcher.(*search.Cached); ok {
			cached.WithLogger(logging.Component(logger, "search"))
		}
		res.Search = searcher
	case reliability.KindOf(err) == reliability.KindUnavailable:
		unavailable("search", err)
	default:
		res.Close()
		return nil, fmt.Errorf("search init failed: %w", err)
	}

	if strings.ToLower(strings.TrimSpace(cfg.TranslateMode)) == "off" {
		unavailable("translation", reliability.Unavailable("translate", "disabled by TRANSLATE_MODE=off"))
	} else {
		res.Translator = translate.NewMyMemory(cfg.TranslateBaseURL, cfg.TranslateTimeout)
	}

	if path := strings.TrimSpace(cfg.InteractionLogPath); strings.EqualFold(path, "off") && cfg.DatabaseURL == "" {
		unavailable("interaction_log", reliability.Unavailable("interaction_log", "disabled by INTERACTION_LOG_PATH=off"))
	} else {
		store, err := interactionlog.NewStore(ctx, cfg.DatabaseURL, path)
		if err != nil {
			unavailable("interaction_log", reliability.NewFailure("interaction_log", reliability.KindUnavailable, err))
		} else {
			res.closers = append(res.closers, store)
			if cfg.InteractionLogRedact {
				store = interactionlog.NewRedactingStore(store)
			}
			res.Interactions = store
		}
	}

	recognizer, err := resolveRecognizer(cfg)
	if err != nil {
		unavailable("speech_input", err)
	} else {
		res.Recognizer = recognizer
	}

	speaker, info, err := resolveSpeaker(cfg, detect)
	switch {
	case err == nil:
		res.Speaker = speaker
	case reliability.KindOf(err) == reliability.KindUnavailable:
		unavailable("speech_output", err)
	default:
		res.Close()
		return nil, err
	}
	res.SpeakerInfo = info

	res.Capabilities = Capabilities{
		LanguageModel:  res.Model != nil,
		Search:         res.Search != nil,
		Translation:    res.Translator != nil,
		SpeechInput:    res.Recognizer != nil,
		SpeechOutput:   res.Speaker != nil,
		InteractionLog: res.Interactions != nil,
	}
	logger.Info().
		Interface("capabilities", res.Capabilities).
		Str("speech_output", res.SpeakerInfo).
		Msg("capabilities negotiated")
	return res, nil
}

// NewRouter builds a router with fresh memory around output. A nil output
// gets a silent one.
func (b *BuildResult) NewRouter(output *voice.Output) *router.Router {
	deps := router.Deps{
		Model:      b.Model,
		Search:     b.Search,
		Translator: b.Translator,
		Log:        b.Interactions,
		Metrics:    b.Metrics,
		Logger:     logging.Component(b.Logger, "router"),
	}
	if output != nil {
		deps.Output = output
	}
	return router.New(router.Config{
		AssistantName: b.Config.AssistantName,
		Language:      b.Config.DefaultLanguage,
		MaxResults:    b.Config.SearchMaxResults,
	}, deps)
}

// NewTerminalOutput prints replies to console and speaks them when a speaker
// was negotiated.
func (b *BuildResult) NewTerminalOutput(console io.Writer) *voice.Output {
	return voice.NewOutput(b.Speaker, console, b.Config.AssistantName, nil, logging.Component(b.Logger, "output"))
}

// NewLoop wires an interactive terminal session.
func (b *BuildResult) NewLoop(in io.Reader, out io.Writer) *session.Loop {
	output := b.NewTerminalOutput(out)
	return session.NewLoop(b.NewRouter(output), output, session.LoopConfig{
		In:         in,
		Out:        out,
		Recognizer: b.Recognizer,
		Metrics:    b.Metrics,
		Logger:     logging.Component(b.Logger, "session"),
	})
}

// NewAPI wires the HTTP surface. Remote sessions are text only.
func (b *BuildResult) NewAPI() (*httpapi.Server, *session.Manager) {
	sessions := session.NewManager(b.Config.SessionInactivityTimeout, b.NewRouter)
	sessions.SetExpireHook(func(_ *session.Session) {
		b.Metrics.ObserveSessionEvent("expired")
		b.Metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})
	caps := b.Capabilities
	caps.SpeechInput = false
	caps.SpeechOutput = false
	return httpapi.New(b.Config, sessions, caps, b.Interactions, b.Metrics, logging.Component(b.Logger, "httpapi")), sessions
}

// Close releases caches and stores. Safe to call more than once.
func (b *BuildResult) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
