package reliability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestKindForHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want Kind
	}{
		{400, KindService},
		{401, KindAuth},
		{403, KindAuth},
		{429, KindService},
		{500, KindService},
		{502, KindNetwork},
		{503, KindNetwork},
		{504, KindNetwork},
	}
	for _, tc := range cases {
		if got := KindForHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("KindForHTTPStatus(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestKindRetryable(t *testing.T) {
	cases := map[Kind]bool{
		KindUnavailable: false,
		KindAuth:        false,
		KindNetwork:     true,
		KindService:     true,
		KindEmpty:       false,
		KindRecognition: false,
	}
	for kind, want := range cases {
		if got := kind.Retryable(); got != want {
			t.Fatalf("%s.Retryable() = %v, want %v", kind, got, want)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("search: %w", NewFailure("duckduckgo", KindAuth, errors.New("denied")))
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"typed through wrap", wrapped, KindAuth},
		{"empty", Empty("mymemory"), KindEmpty},
		{"unavailable", Unavailable("llm", "no key"), KindUnavailable},
		{"deadline", context.DeadlineExceeded, KindNetwork},
		{"dns", &net.DNSError{Err: "no such host", Name: "example.invalid"}, KindNetwork},
		{"plain", errors.New("boom"), KindService},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestFailureUnwrap(t *testing.T) {
	root := errors.New("root cause")
	f := NewFailure("openrouter", KindService, root)
	if !errors.Is(f, root) {
		t.Fatalf("errors.Is(Failure, root) = false, want true")
	}
	if got := Empty("x").Error(); got != "x: empty" {
		t.Fatalf("Empty().Error() = %q, want %q", got, "x: empty")
	}
}
