// Package interrupt provides the cancellation flag shared between a session
// and its in-flight playback.
package interrupt

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// DefaultPollInterval is used when callers pass a non-positive interval.
	DefaultPollInterval = 100 * time.Millisecond
	// MaxPollInterval bounds how long a cancelled playback may keep running.
	MaxPollInterval = 150 * time.Millisecond
)

// Outcome reports why Wait returned.
type Outcome int

const (
	Completed Outcome = iota
	Interrupted
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Signal is a level-triggered stop flag. Once set it stays set until Clear.
// The zero value is ready to use.
type Signal struct {
	set atomic.Bool
}

func New() *Signal { return &Signal{} }

func (s *Signal) Set() { s.set.Store(true) }

func (s *Signal) Clear() { s.set.Store(false) }

func (s *Signal) IsSet() bool { return s.set.Load() }

// Wait blocks until done is closed, the flag is set, or ctx ends, checking the
// flag every interval. done may be nil when only the flag matters.
func (s *Signal) Wait(ctx context.Context, done <-chan struct{}, interval time.Duration) Outcome {
	interval = ClampInterval(interval)
	if s.IsSet() {
		return Interrupted
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return Completed
		case <-ctx.Done():
			return Cancelled
		case <-ticker.C:
			if s.IsSet() {
				return Interrupted
			}
		}
	}
}

// ClampInterval maps a requested polling interval into (0, MaxPollInterval].
func ClampInterval(interval time.Duration) time.Duration {
	if interval <= 0 {
		return DefaultPollInterval
	}
	if interval > MaxPollInterval {
		return MaxPollInterval
	}
	return interval
}
