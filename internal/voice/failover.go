package voice

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ent0n29/zoya/internal/interrupt"
)

// FailoverSpeaker prefers the primary speaker and switches to the fallback
// when primary fails. Once the fallback succeeds it stays active until it
// fails; then primary is retried.
type FailoverSpeaker struct {
	primary        Speaker
	fallback       Speaker
	fallbackActive atomic.Bool
}

func NewFailoverSpeaker(primary, fallback Speaker) *FailoverSpeaker {
	return &FailoverSpeaker{primary: primary, fallback: fallback}
}

func (s *FailoverSpeaker) Name() string {
	if s.fallbackActive.Load() {
		return s.fallback.Name()
	}
	return s.primary.Name()
}

func (s *FailoverSpeaker) Speak(ctx context.Context, text, language string, stop *interrupt.Signal) error {
	if s.fallbackActive.Load() {
		fbErr := s.fallback.Speak(ctx, text, language, stop)
		if fbErr == nil || ctx.Err() != nil {
			return fbErr
		}
		prErr := s.primary.Speak(ctx, text, language, stop)
		if prErr == nil {
			s.fallbackActive.Store(false)
			return nil
		}
		return fmt.Errorf("tts fallback failed: %v; tts primary failed: %w", fbErr, prErr)
	}

	prErr := s.primary.Speak(ctx, text, language, stop)
	if prErr == nil || ctx.Err() != nil {
		return prErr
	}
	if stop.IsSet() {
		return nil
	}
	fbErr := s.fallback.Speak(ctx, text, language, stop)
	if fbErr != nil {
		return fmt.Errorf("tts primary failed: %v; tts fallback failed: %w", prErr, fbErr)
	}
	s.fallbackActive.Store(true)
	return nil
}

func (s *FailoverSpeaker) Stop() {
	s.primary.Stop()
	s.fallback.Stop()
}
