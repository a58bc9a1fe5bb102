package session

import (
	"time"

	"github.com/ent0n29/zoya/internal/router"
)

// CreateRequest defines payload for creating a new session.
type CreateRequest struct {
	Language string `json:"language"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string    `json:"session_id"`
	Status          Status    `json:"status"`
	Language        string    `json:"language"`
	StartedAt       time.Time `json:"started_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}

// TurnRequest carries one text query. An empty language keeps the session
// language.
type TurnRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

// TurnResponse is the client view of a finished turn.
type TurnResponse struct {
	SessionID      string   `json:"session_id"`
	TurnID         string   `json:"turn_id"`
	Query          string   `json:"query"`
	Classification string   `json:"classification"`
	Backend        string   `json:"backend"`
	Language       string   `json:"language"`
	Reply          string   `json:"reply"`
	Failures       []string `json:"failures,omitempty"`
	DurationMS     int64    `json:"duration_ms"`
}

func NewTurnResponse(sessionID string, t router.Turn) TurnResponse {
	resp := TurnResponse{
		SessionID:      sessionID,
		TurnID:         t.ID,
		Query:          t.Query,
		Classification: string(t.Classification),
		Backend:        t.Backend,
		Language:       t.Language,
		Reply:          t.FinalText,
		DurationMS:     t.Duration.Milliseconds(),
	}
	for _, kind := range router.FailureKinds(t) {
		resp.Failures = append(resp.Failures, string(kind))
	}
	return resp
}
