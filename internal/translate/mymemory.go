// Package translate renders English replies in the session language.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ent0n29/zoya/internal/reliability"
)

const (
	DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"
	SourceLanguage     = "en"

	// Texts longer than chunkThreshold runes are sent as chunkSize pieces.
	chunkThreshold = 500
	chunkSize      = 400

	limitExceeded = "QUERY LENGTH LIMIT EXCEEDED"
)

// MyMemory calls the free MyMemory translation API.
type MyMemory struct {
	baseURL string
	client  *http.Client
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

func NewMyMemory(baseURL string, timeout time.Duration) *MyMemory {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultMyMemoryURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MyMemory{
		baseURL: strings.TrimSpace(baseURL),
		client:  &http.Client{Timeout: timeout},
	}
}

func (m *MyMemory) Name() string { return "mymemory" }

// Translate returns text in target. English targets and blank text pass
// through untouched. Long texts are chunked; a failed chunk keeps its
// source text and only a total failure is reported as an error.
func (m *MyMemory) Translate(ctx context.Context, text, target string) (string, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" || target == SourceLanguage || strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := splitRunes(text, chunkThreshold, chunkSize)
	if len(chunks) == 1 {
		return m.translateChunk(ctx, text, target)
	}

	out := make([]string, 0, len(chunks))
	var lastErr error
	translated := 0
	for _, chunk := range chunks {
		t, err := m.translateChunk(ctx, chunk, target)
		if err != nil {
			lastErr = err
			out = append(out, chunk)
			continue
		}
		translated++
		out = append(out, t)
	}
	if translated == 0 {
		return "", lastErr
	}
	return strings.Join(out, " "), nil
}

func (m *MyMemory) translateChunk(ctx context.Context, text, target string) (string, error) {
	q := url.Values{
		"q":        {text},
		"langpair": {SourceLanguage + "|" + target},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", reliability.NewFailure(m.Name(), reliability.KindService, err)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return "", reliability.NewFailure(m.Name(), reliability.Classify(err), err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return "", reliability.NewFailure(m.Name(), reliability.KindForHTTPStatus(res.StatusCode),
			fmt.Errorf("http status %d: %s", res.StatusCode, strings.TrimSpace(string(body))))
	}

	var body myMemoryResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", reliability.NewFailure(m.Name(), reliability.KindService, fmt.Errorf("decode response: %w", err))
	}
	translated := strings.TrimSpace(body.ResponseData.TranslatedText)
	switch {
	case translated == "":
		return "", reliability.Empty(m.Name())
	case strings.Contains(strings.ToUpper(translated), limitExceeded):
		return "", reliability.NewFailure(m.Name(), reliability.KindService, errors.New(translated))
	}
	return translated, nil
}

// splitRunes returns text whole when it has at most threshold runes, and
// size-rune pieces otherwise.
func splitRunes(text string, threshold, size int) []string {
	runes := []rune(text)
	if len(runes) <= threshold {
		return []string{text}
	}
	chunks := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
