package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/app"
	"github.com/ent0n29/zoya/internal/interactionlog"
)

// setTestEnv points every backend at an offline mode and the interaction log
// at a temp file.
func setTestEnv(t *testing.T) string {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "zoya_logs.json")
	for key, value := range map[string]string{
		"LLM_MODE":             "mock",
		"OPENROUTER_API_KEY":   "",
		"SEARCH_MODE":          "off",
		"REDIS_URL":            "",
		"TRANSLATE_MODE":       "off",
		"TTS_MODE":             "console",
		"STT_COMMAND":          "",
		"DATABASE_URL":         "",
		"INTERACTION_LOG_PATH": logPath,
		"LOG_LEVEL":            "off",
	} {
		t.Setenv(key, value)
	}

	prev := newRegisterer
	newRegisterer = func() prometheus.Registerer { return prometheus.NewRegistry() }
	t.Cleanup(func() { newRegisterer = prev })
	return logPath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestAskPrintsReply(t *testing.T) {
	setTestEnv(t)
	out, err := execute(t, "", "ask", "what", "is", "your", "name")
	if err != nil {
		t.Fatalf("ask error = %v", err)
	}
	if want := "Zoya: My name is Zoya, your personal AI assistant."; !strings.Contains(out, want) {
		t.Fatalf("ask output = %q, want %q", out, want)
	}
}

func TestAskRejectsUnsupportedLanguage(t *testing.T) {
	setTestEnv(t)
	if _, err := execute(t, "", "ask", "--lang", "de", "hello"); err == nil {
		t.Fatalf("ask --lang de error = nil, want error")
	}
}

func TestLogsListAndClear(t *testing.T) {
	setTestEnv(t)
	if _, err := execute(t, "", "ask", "hello"); err != nil {
		t.Fatalf("ask error = %v", err)
	}

	out, err := execute(t, "", "logs", "list", "--json")
	if err != nil {
		t.Fatalf("logs list error = %v", err)
	}
	var entries []interactionlog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode logs list: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].UserQuery != "hello" || entries[0].AIReply != "I heard you: hello" {
		t.Fatalf("entries = %+v", entries)
	}

	out, err = execute(t, "", "logs", "clear")
	if err != nil {
		t.Fatalf("logs clear error = %v", err)
	}
	if !strings.Contains(out, "Interaction log cleared.") {
		t.Fatalf("logs clear output = %q", out)
	}

	out, err = execute(t, "", "logs", "list")
	if err != nil {
		t.Fatalf("logs list error = %v", err)
	}
	if !strings.Contains(out, "No interactions logged.") {
		t.Fatalf("logs list after clear = %q", out)
	}
}

func TestLogsUnavailableWhenDisabled(t *testing.T) {
	setTestEnv(t)
	t.Setenv("INTERACTION_LOG_PATH", "off")
	if _, err := execute(t, "", "logs", "list"); err == nil {
		t.Fatalf("logs list error = nil, want unavailable error")
	}
}

func TestRootRunsChat(t *testing.T) {
	setTestEnv(t)
	out, err := execute(t, "1\n2\nhello\nexit\n4\n")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	for _, want := range []string{"Language set to English.", "Zoya: I heard you: hello", "Goodbye! Exiting now."} {
		if !strings.Contains(out, want) {
			t.Fatalf("chat output missing %q:\n%s", want, out)
		}
	}
}

func TestReplayReportsLatency(t *testing.T) {
	setTestEnv(t)
	cfg, err := loadConfig(&rootOptions{})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	res, err := app.Build(t.Context(), cfg, app.Options{Logger: zerolog.Nop(), Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(func() { _ = res.Close() })
	api, _ := res.NewAPI()
	ts := httptest.NewServer(api.Router())
	t.Cleanup(ts.Close)

	out, err := execute(t, "", "replay", "--base-url", ts.URL, "--turns", "3", "--inter-turn", "0", "--texts", "what is your name|hello")
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	for _, want := range []string{"turn_total", "turn_personal", "turn_conversational", "backend_canned"} {
		if !strings.Contains(out, want) {
			t.Fatalf("replay output missing %q:\n%s", want, out)
		}
	}
}

func TestWSURLForSession(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{base: "http://127.0.0.1:8080", want: "ws://127.0.0.1:8080/v1/session/ws?session_id=abc"},
		{base: "https://zoya.example/api/", want: "wss://zoya.example/api/v1/session/ws?session_id=abc"},
		{base: "ftp://zoya.example", wantErr: true},
		{base: "http://", wantErr: true},
	}
	for _, tt := range tests {
		got, err := wsURLForSession(tt.base, "abc")
		if (err != nil) != tt.wantErr {
			t.Fatalf("wsURLForSession(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("wsURLForSession(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestSplitQueries(t *testing.T) {
	got := splitQueries(" a | |b|")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitQueries() = %q, want [a b]", got)
	}
}
