package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ent0n29/zoya/internal/memory"
	"github.com/ent0n29/zoya/internal/reliability"
)

func conversation(user string) []memory.Message {
	return []memory.Message{
		{Role: memory.RoleSystem, Content: memory.DefaultSystemMessage},
		{Role: memory.RoleUser, Content: user},
	}
}

func TestNewBackendModes(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		wantName string
		wantKind reliability.Kind
	}{
		{name: "auto with key", cfg: Config{APIKey: "sk-test"}, wantName: "openrouter"},
		{name: "auto with http url", cfg: Config{HTTPURL: "http://localhost:9/chat"}, wantName: "http"},
		{name: "auto without anything", cfg: Config{}, wantKind: reliability.KindUnavailable},
		{name: "openrouter without key", cfg: Config{Mode: "openrouter"}, wantKind: reliability.KindUnavailable},
		{name: "http without url", cfg: Config{Mode: "http"}, wantKind: reliability.KindUnavailable},
		{name: "mock", cfg: Config{Mode: "MOCK"}, wantName: "mock"},
		{name: "off", cfg: Config{Mode: "off", APIKey: "sk-test"}, wantKind: reliability.KindUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := NewBackend(tc.cfg)
			if tc.wantKind != "" {
				if got := reliability.KindOf(err); got != tc.wantKind {
					t.Fatalf("NewBackend() kind = %q, want %q (err=%v)", got, tc.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if b.Name() != tc.wantName {
				t.Fatalf("Name() = %q, want %q", b.Name(), tc.wantName)
			}
		})
	}

	if _, err := NewBackend(Config{Mode: "carrier-pigeon"}); err == nil {
		t.Fatalf("NewBackend(unknown) error = nil")
	}
}

func TestOpenRouterBackendComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Go is a language.  "},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	b, err := NewOpenRouterBackend(Config{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenRouterBackend() error = %v", err)
	}
	text, err := b.Complete(context.Background(), conversation("tell me about go"), "en")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "Go is a language." {
		t.Fatalf("Complete() = %q, want trimmed reply", text)
	}
	if got["model"] != DefaultOpenRouterModel {
		t.Fatalf("model = %v, want %s", got["model"], DefaultOpenRouterModel)
	}
	if got["max_tokens"] != float64(DefaultMaxTokens) {
		t.Fatalf("max_tokens = %v, want %d", got["max_tokens"], DefaultMaxTokens)
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want system and user", got["messages"])
	}
}

func TestOpenRouterBackendFailureKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   reliability.Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key","type":"auth"}}`, want: reliability.KindAuth},
		{name: "bad gateway", status: http.StatusBadGateway, body: `upstream down`, want: reliability.KindNetwork},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom"}}`, want: reliability.KindService},
		{name: "no choices", status: http.StatusOK, body: `{"id":"c1","choices":[]}`, want: reliability.KindEmpty},
		{name: "blank content", status: http.StatusOK, body: `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"   "}}]}`, want: reliability.KindEmpty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			b, err := NewOpenRouterBackend(Config{APIKey: "sk-test", BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("NewOpenRouterBackend() error = %v", err)
			}
			_, err = b.Complete(context.Background(), conversation("hi"), "en")
			if got := reliability.KindOf(err); got != tc.want {
				t.Fatalf("Complete() kind = %q, want %q (err=%v)", got, tc.want, err)
			}
		})
	}
}

func TestHTTPBackendResponseShapes(t *testing.T) {
	cases := []struct {
		name string
		ct   string
		body string
		want string
	}{
		{name: "json object", ct: "application/json", body: `{"text":" hello "}`, want: "hello"},
		{name: "plain text", ct: "text/plain", body: "plain answer\n", want: "plain answer"},
		{name: "sse", ct: "text/event-stream", body: ": keepalive\n\ndata: {\"delta\":\"Hel\"}\n\ndata: {\"delta\":\"lo\"}\n\ndata: [DONE]\n\n", want: "Hello"},
		{name: "ndjson", ct: "application/x-ndjson", body: "{\"delta\":\"Hi\"}\n there\n", want: "Hi there"},
		{name: "sse keeps delta spacing", ct: "text/event-stream", body: "data: {\"delta\":\"Good\"}\r\n\r\ndata: {\"delta\":\" morning \"}\r\n\r\ndata:to you\n\ndata: [DONE]\n\n", want: "Good morning to you"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req httpRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&req)
				w.Header().Set("Content-Type", tc.ct)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			text, err := NewHTTPBackend(srv.URL, 0).Complete(context.Background(), conversation("q"), "fr")
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if text != tc.want {
				t.Fatalf("Complete() = %q, want %q", text, tc.want)
			}
			if req.Language != "fr" || len(req.Messages) != 2 {
				t.Fatalf("request = %+v, want language fr and two messages", req)
			}
		})
	}
}

func TestHTTPBackendFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	_, err := NewHTTPBackend(srv.URL, 0).Complete(context.Background(), conversation("q"), "en")
	srv.Close()
	if got := reliability.KindOf(err); got != reliability.KindAuth {
		t.Fatalf("Complete() kind = %q, want auth", got)
	}

	_, err = NewHTTPBackend(srv.URL, 0).Complete(context.Background(), conversation("q"), "en")
	if got := reliability.KindOf(err); got != reliability.KindNetwork {
		t.Fatalf("Complete() on closed server kind = %q, want network (err=%v)", got, err)
	}
}

func TestMockBackend(t *testing.T) {
	b := NewMockBackend()
	text, err := b.Complete(context.Background(), conversation("hello"), "en")
	if err != nil || text != "I heard you: hello" {
		t.Fatalf("Complete() = %q, %v", text, err)
	}

	msgs := append(conversation("one"), memory.Message{Role: memory.RoleAssistant, Content: "ok"}, memory.Message{Role: memory.RoleUser, Content: "two"})
	text, _ = b.Complete(context.Background(), msgs, "en")
	if !strings.Contains(text, "two") || !strings.Contains(text, "turn 2") {
		t.Fatalf("Complete() = %q, want last user message and turn count", text)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Complete(ctx, conversation("x"), "en"); err == nil {
		t.Fatalf("Complete() with cancelled ctx error = nil")
	}
}
