package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ent0n29/zoya/internal/reliability"
)

const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) zoya/1.0"

// DuckDuckGo scrapes the key-less HTML endpoint.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
}

func NewDuckDuckGo(baseURL string, timeout time.Duration) *DuckDuckGo {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultDuckDuckGoURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DuckDuckGo{
		baseURL: strings.TrimSpace(baseURL),
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, reliability.NewFailure(d.Name(), reliability.KindService, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	res, err := d.client.Do(req)
	if err != nil {
		return nil, reliability.NewFailure(d.Name(), reliability.Classify(err), err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return nil, reliability.NewFailure(d.Name(), reliability.KindForHTTPStatus(res.StatusCode),
			fmt.Errorf("http status %d: %s", res.StatusCode, strings.TrimSpace(string(body))))
	}

	results, err := parseResults(res.Body, maxResults)
	if err != nil {
		return nil, reliability.NewFailure(d.Name(), reliability.KindService, err)
	}
	if len(results) == 0 {
		return nil, reliability.Empty(d.Name())
	}
	return results, nil
}

func parseResults(r io.Reader, maxResults int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if doc.Find(".anomaly-modal, #challenge-form").Length() > 0 {
		return nil, errors.New("search endpoint returned a challenge page")
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		snippet := collapse(s.Find(".result__snippet").Text())
		if snippet == "" {
			return true
		}
		link := s.Find("a.result__a")
		href, _ := link.Attr("href")
		results = append(results, Result{
			Title:   collapse(link.Text()),
			Snippet: snippet,
			URL:     resolveRedirect(href),
		})
		return len(results) < maxResults
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
