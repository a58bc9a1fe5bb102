package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/zoya/internal/interrupt"
	"github.com/ent0n29/zoya/internal/reliability"
)

// MockRecognizer replays scripted transcripts. An empty entry is reported as
// an unrecognised utterance; once the script runs out every capture fails.
type MockRecognizer struct {
	mu      sync.Mutex
	script  []string
	Locales []string
}

func NewMockRecognizer(script ...string) *MockRecognizer {
	return &MockRecognizer{script: append([]string(nil), script...)}
}

func (r *MockRecognizer) Name() string { return "mock" }

func (r *MockRecognizer) Capture(ctx context.Context, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Locales = append(r.Locales, LocaleFor(language))
	if len(r.script) == 0 {
		return "", reliability.NewFailure("mock", reliability.KindRecognition, errors.New("listening timed out"))
	}
	next := r.script[0]
	r.script = r.script[1:]
	if strings.TrimSpace(next) == "" {
		return "", reliability.NewFailure("mock", reliability.KindRecognition, errors.New("could not understand audio"))
	}
	return next, nil
}

// MockSpeaker pretends to speak for a fixed time per utterance and records
// what it was asked to say. It observes the stop flag like a real speaker.
type MockSpeaker struct {
	PerUtterance time.Duration
	PollInterval time.Duration
	Fail         error

	mu     sync.Mutex
	spoken []string
	cut    []string
	stopCh chan struct{}
}

func NewMockSpeaker(perUtterance time.Duration) *MockSpeaker {
	return &MockSpeaker{PerUtterance: perUtterance, PollInterval: 10 * time.Millisecond}
}

func (s *MockSpeaker) Name() string { return "mock" }

func (s *MockSpeaker) Speak(ctx context.Context, text, _ string, stop *interrupt.Signal) error {
	if s.Fail != nil {
		return s.Fail
	}
	if stop.IsSet() {
		s.mu.Lock()
		s.cut = append(s.cut, text)
		s.mu.Unlock()
		return nil
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go func() {
		defer close(done)
		select {
		case <-time.After(s.PerUtterance):
		case <-stopCh:
		}
	}()

	outcome := stop.Wait(ctx, done, s.PollInterval)
	if outcome == interrupt.Completed && stop.IsSet() {
		// Stop closed done before the flag was polled.
		outcome = interrupt.Interrupted
	}
	s.mu.Lock()
	if outcome == interrupt.Completed {
		s.spoken = append(s.spoken, text)
	} else {
		s.cut = append(s.cut, text)
	}
	s.mu.Unlock()
	s.Stop()

	if outcome == interrupt.Cancelled {
		return ctx.Err()
	}
	return nil
}

func (s *MockSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// Spoken lists utterances that played to completion.
func (s *MockSpeaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// Interrupted lists utterances that were cut short.
func (s *MockSpeaker) Interrupted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cut...)
}
