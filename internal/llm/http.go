package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ent0n29/zoya/internal/memory"
	"github.com/ent0n29/zoya/internal/reliability"
)

// HTTPBackend posts the conversation to a self-hosted endpoint. The reply may
// be plain text, a JSON object, or an SSE/NDJSON stream of deltas.
type HTTPBackend struct {
	url    string
	client *http.Client
}

type httpRequest struct {
	Messages []memory.Message `json:"messages"`
	Language string           `json:"language"`
}

func NewHTTPBackend(url string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPBackend{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

func (b *HTTPBackend) Name() string { return "http" }

func (b *HTTPBackend) Complete(ctx context.Context, messages []memory.Message, language string) (string, error) {
	text, err := b.complete(ctx, messages, language)
	if err != nil {
		var f *reliability.Failure
		if errors.As(err, &f) {
			return "", err
		}
		return "", reliability.NewFailure(b.Name(), reliability.Classify(err), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", reliability.Empty(b.Name())
	}
	return text, nil
}

func (b *HTTPBackend) complete(ctx context.Context, messages []memory.Message, language string) (string, error) {
	payload, err := json.Marshal(httpRequest{Messages: messages, Language: language})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", reliability.NewFailure(b.Name(), reliability.KindForHTTPStatus(res.StatusCode),
			fmt.Errorf("http status %d: %s", res.StatusCode, strings.TrimSpace(string(body))))
	}

	ct := strings.ToLower(res.Header.Get("Content-Type"))
	if strings.Contains(ct, "text/event-stream") || strings.Contains(ct, "application/x-ndjson") {
		return consumeStream(res.Body)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return string(body), nil
	}
	return extractText(obj), nil
}

func consumeStream(body io.Reader) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out strings.Builder
	for scanner.Scan() {
		// Deltas keep their own spacing; only the SSE framing is stripped.
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			line = strings.TrimPrefix(rest, " ")
		}
		if strings.TrimSpace(line) == "[DONE]" {
			break
		}

		delta := line
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err == nil {
			delta = extractText(obj)
		}
		out.WriteString(delta)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read: %w", err)
	}
	return out.String(), nil
}

func extractText(obj map[string]any) string {
	for _, k := range []string{"text", "delta", "reply", "output", "message"} {
		if s, ok := obj[k].(string); ok {
			return s
		}
	}
	return ""
}
