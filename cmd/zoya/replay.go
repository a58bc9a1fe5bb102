package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/ent0n29/zoya/internal/observability"
	"github.com/ent0n29/zoya/internal/protocol"
	"github.com/ent0n29/zoya/internal/session"
)

var defaultReplayQueries = []string{
	"what is your name",
	"who is the president of France",
	"tell me a joke",
	"how are you today",
}

type replayOptions struct {
	baseURL        string
	language       string
	turns          int
	queries        []string
	interTurnDelay time.Duration
	turnTimeout    time.Duration
}

// replayRecord is one assistant_turn or error_event read off the socket.
type replayRecord struct {
	Type           string `json:"type"`
	Classification string `json:"classification,omitempty"`
	Backend        string `json:"backend,omitempty"`
	Code           string `json:"code,omitempty"`
	Detail         string `json:"detail,omitempty"`
}

func newReplayCmd() *cobra.Command {
	var (
		opts    replayOptions
		rawText string
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay text turns against a running server and report latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.baseURL = strings.TrimRight(strings.TrimSpace(opts.baseURL), "/")
			if opts.baseURL == "" {
				return fmt.Errorf("base-url is required")
			}
			if opts.turns <= 0 {
				return fmt.Errorf("turns must be > 0")
			}
			if opts.turnTimeout < time.Second {
				opts.turnTimeout = time.Second
			}
			opts.queries = splitQueries(rawText)
			if len(opts.queries) == 0 {
				opts.queries = append([]string(nil), defaultReplayQueries...)
			}
			snapshot, err := runReplay(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printReplay(cmd.OutOrStdout(), snapshot)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://127.0.0.1:8080", "server base URL")
	cmd.Flags().StringVar(&opts.language, "lang", "", "session language")
	cmd.Flags().IntVar(&opts.turns, "turns", 10, "number of turns to replay")
	cmd.Flags().StringVar(&rawText, "texts", "", "queries separated by '|' (optional)")
	cmd.Flags().DurationVar(&opts.interTurnDelay, "inter-turn", 100*time.Millisecond, "delay between turns")
	cmd.Flags().DurationVar(&opts.turnTimeout, "turn-timeout", 30*time.Second, "timeout waiting for each reply")
	return cmd
}

func splitQueries(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if q := strings.TrimSpace(part); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func runReplay(ctx context.Context, opts replayOptions, progress io.Writer) (observability.StageSnapshot, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	sessionID, err := createReplaySession(ctx, client, opts.baseURL, opts.language)
	if err != nil {
		return observability.StageSnapshot{}, fmt.Errorf("create session: %w", err)
	}
	defer func() {
		_ = endReplaySession(context.Background(), client, opts.baseURL, sessionID)
	}()

	wsURL, err := wsURLForSession(opts.baseURL, sessionID)
	if err != nil {
		return observability.StageSnapshot{}, fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return observability.StageSnapshot{}, fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	records := make(chan replayRecord, 32)
	readErr := make(chan error, 1)
	go readReplies(conn, records, readErr)

	window := observability.NewStageWindow(opts.turns)
	for i := 0; i < opts.turns; i++ {
		query := opts.queries[i%len(opts.queries)]
		msg := protocol.ClientTurn{
			Type:      protocol.TypeClientTurn,
			SessionID: sessionID,
			Query:     query,
			Language:  opts.language,
		}
		started := time.Now()
		if err := conn.WriteJSON(msg); err != nil {
			return observability.StageSnapshot{}, fmt.Errorf("send turn %d: %w", i+1, err)
		}
		rec, err := awaitReply(ctx, records, readErr, opts.turnTimeout)
		if err != nil {
			return observability.StageSnapshot{}, fmt.Errorf("turn %d: %w", i+1, err)
		}
		elapsed := float64(time.Since(started).Microseconds()) / 1000
		if rec.Type == string(protocol.TypeErrorEvent) {
			window.ObserveIndicator("error_" + rec.Code)
			fmt.Fprintf(progress, "replay: turn %d error_event code=%s detail=%s\n", i+1, rec.Code, rec.Detail)
		} else {
			window.Observe("turn_total", elapsed)
			window.Observe("turn_"+rec.Classification, elapsed)
			window.ObserveIndicator("backend_" + rec.Backend)
		}

		if opts.interTurnDelay > 0 && i < opts.turns-1 {
			select {
			case <-ctx.Done():
				return observability.StageSnapshot{}, ctx.Err()
			case <-time.After(opts.interTurnDelay):
			}
		}
	}
	return window.Snapshot(), nil
}

func printReplay(out io.Writer, snapshot observability.StageSnapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSAMPLES\tAVG_MS\tP50_MS\tP95_MS")
	for _, s := range snapshot.Stages {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\n", s.Stage, s.Samples, s.AvgMS, s.P50MS, s.P95MS)
	}
	for _, ind := range snapshot.Indicators {
		fmt.Fprintf(w, "%s\t%d\t\t\t\n", ind.Name, ind.Count)
	}
	return w.Flush()
}

func createReplaySession(ctx context.Context, client *http.Client, baseURL, language string) (string, error) {
	payload, err := json.Marshal(session.CreateRequest{Language: language})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var created session.CreateResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", err
	}
	if strings.TrimSpace(created.SessionID) == "" {
		return "", fmt.Errorf("missing session_id in response")
	}
	return created.SessionID, nil
}

func endReplaySession(ctx context.Context, client *http.Client, baseURL, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/sessions/"+url.PathEscape(sessionID)+"/end", nil)
	if err != nil {
		return err
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	return nil
}

func wsURLForSession(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/session/ws"
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readReplies forwards replies and errors; system events are skipped.
func readReplies(conn *websocket.Conn, records chan<- replayRecord, readErr chan<- error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErr <- err:
			default:
			}
			return
		}
		var rec replayRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		switch rec.Type {
		case string(protocol.TypeAssistantTurn), string(protocol.TypeErrorEvent):
			records <- rec
		}
	}
}

func awaitReply(ctx context.Context, records <-chan replayRecord, readErr <-chan error, timeout time.Duration) (replayRecord, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case rec := <-records:
		return rec, nil
	case err := <-readErr:
		return replayRecord{}, fmt.Errorf("ws read: %w", err)
	case <-timer.C:
		return replayRecord{}, fmt.Errorf("timeout after %s", timeout)
	case <-ctx.Done():
		return replayRecord{}, ctx.Err()
	}
}
