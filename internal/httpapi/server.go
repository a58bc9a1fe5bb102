package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/config"
	"github.com/ent0n29/zoya/internal/interactionlog"
	"github.com/ent0n29/zoya/internal/observability"
	"github.com/ent0n29/zoya/internal/router"
	"github.com/ent0n29/zoya/internal/session"
)

const turnTimeout = 60 * time.Second

type Server struct {
	cfg          config.Config
	sessions     *session.Manager
	capabilities router.Capabilities
	interactions interactionlog.Store
	metrics      *observability.Metrics
	logger       zerolog.Logger
	upgrader     websocket.Upgrader
}

// New builds the HTTP surface. interactions may be nil when the interaction
// log is unavailable.
func New(cfg config.Config, sessions *session.Manager, caps router.Capabilities, interactions interactionlog.Store, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     sessions,
		capabilities: caps,
		interactions: interactions,
		metrics:      metrics,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/capabilities", s.handleCapabilities)
	r.Get("/v1/stats", s.handleStats)
	r.Post("/v1/sessions", s.handleCreateSession)
	r.Post("/v1/sessions/{id}/turns", s.handleTurn)
	r.Post("/v1/sessions/{id}/reset", s.handleResetSession)
	r.Post("/v1/sessions/{id}/end", s.handleEndSession)
	r.Get("/v1/session/ws", s.handleSessionWS)
	r.Get("/v1/interactions", s.handleListInteractions)
	r.Delete("/v1/interactions", s.handleClearInteractions)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"capabilities":    s.capabilities,
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.capabilities)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	lang := strings.ToLower(strings.TrimSpace(req.Language))
	if lang != "" && !router.Supported(lang) {
		respondError(w, http.StatusBadRequest, "unsupported_language", "language must be one of "+strings.Join(router.Languages, ", "))
		return
	}

	sess := s.sessions.Create(lang)
	s.observeSessions("created")

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		Status:          sess.Status,
		Language:        sess.Language,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.sessions.InactivityTimeout().Milliseconds(),
	})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req session.TurnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "body must be a JSON object with a query")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondError(w, http.StatusBadRequest, "empty_query", "query must not be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()
	turn, err := s.sessions.Turn(ctx, id, req.Query, strings.ToLower(strings.TrimSpace(req.Language)))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.NewTurnResponse(id, turn))
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Reset(id); err != nil {
		respondSessionError(w, err)
		return
	}
	s.metrics.ObserveSessionEvent("reset")
	sess, err := s.sessions.Get(id)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.observeSessions("ended")
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	if s.interactions == nil {
		respondError(w, http.StatusServiceUnavailable, "interaction_log_unavailable", "interaction log is not configured")
		return
	}
	entries, err := s.interactions.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list interactions failed")
		respondError(w, http.StatusInternalServerError, "interaction_log_error", "could not read the interaction log")
		return
	}
	if entries == nil {
		entries = []interactionlog.Entry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"interactions": entries})
}

func (s *Server) handleClearInteractions(w http.ResponseWriter, r *http.Request) {
	if s.interactions == nil {
		respondError(w, http.StatusServiceUnavailable, "interaction_log_unavailable", "interaction log is not configured")
		return
	}
	if err := s.interactions.Clear(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("clear interactions failed")
		respondError(w, http.StatusInternalServerError, "interaction_log_error", "could not clear the interaction log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) observeSessions(event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.ObserveSessionEvent(event)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, session.ErrEnded):
		respondError(w, http.StatusConflict, "session_ended", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
