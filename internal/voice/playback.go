package voice

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/interrupt"
)

// Playback tracks one emitted response. It is finished once Done is closed.
type Playback struct {
	done    chan struct{}
	outcome interrupt.Outcome
	err     error
	started time.Time
	ended   time.Time
}

func newPlayback() *Playback {
	return &Playback{done: make(chan struct{}), started: time.Now()}
}

func finishedPlayback() *Playback {
	p := newPlayback()
	p.finish(interrupt.Completed, nil)
	return p
}

func (p *Playback) finish(outcome interrupt.Outcome, err error) {
	p.outcome = outcome
	p.err = err
	p.ended = time.Now()
	close(p.done)
}

// Done is closed when playback has ended for any reason.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Wait blocks until the playback ends and reports how it ended.
func (p *Playback) Wait() interrupt.Outcome {
	<-p.done
	return p.outcome
}

// Outcome is only meaningful after Done is closed.
func (p *Playback) Outcome() interrupt.Outcome { return p.outcome }

// Err holds a speaker failure. Text was still printed when this is set.
func (p *Playback) Err() error { return p.err }

// Duration is the wall time between emission and the end of playback.
func (p *Playback) Duration() time.Duration {
	select {
	case <-p.done:
		return p.ended.Sub(p.started)
	default:
		return time.Since(p.started)
	}
}

// Output is the emission end of a session: it prints the reply and, when a
// speaker is configured, plays it on a separate goroutine. At most one
// playback runs at a time.
type Output struct {
	speaker Speaker
	console io.Writer
	label   string
	stop    *interrupt.Signal
	logger  zerolog.Logger

	mu      sync.Mutex
	current *Playback
}

// NewOutput builds an emitter. speaker and console may be nil; with neither,
// Emit only returns a finished playback.
func NewOutput(speaker Speaker, console io.Writer, label string, stop *interrupt.Signal, logger zerolog.Logger) *Output {
	if stop == nil {
		stop = interrupt.New()
	}
	return &Output{
		speaker: speaker,
		console: console,
		label:   label,
		stop:    stop,
		logger:  logger,
	}
}

// Emit prints text and starts playback. If a previous playback is still
// running Emit waits for it first.
func (o *Output) Emit(ctx context.Context, text, language string) *Playback {
	o.mu.Lock()
	defer o.mu.Unlock()

	if prev := o.current; prev != nil {
		select {
		case <-prev.Done():
		case <-ctx.Done():
			return finishedPlayback()
		}
	}

	if o.console != nil {
		if o.label != "" {
			fmt.Fprintf(o.console, "%s: %s\n", o.label, text)
		} else {
			fmt.Fprintln(o.console, text)
		}
	}

	spoken := SpeakableText(text)
	if o.speaker == nil || spoken == "" {
		o.current = finishedPlayback()
		return o.current
	}

	p := newPlayback()
	o.current = p
	go func() {
		err := o.speaker.Speak(ctx, spoken, language, o.stop)
		switch {
		case o.stop.IsSet():
			p.finish(interrupt.Interrupted, nil)
		case ctx.Err() != nil:
			p.finish(interrupt.Cancelled, nil)
		case err != nil:
			o.logger.Warn().Err(err).Str("speaker", o.speaker.Name()).Msg("speech output failed, text output only")
			p.finish(interrupt.Completed, err)
		default:
			p.finish(interrupt.Completed, nil)
		}
	}()
	return p
}

// Interrupt sets the stop flag and asks the speaker to stop immediately.
func (o *Output) Interrupt() {
	o.stop.Set()
	if o.speaker != nil {
		o.speaker.Stop()
	}
}

// Signal exposes the stop flag shared with the session.
func (o *Output) Signal() *interrupt.Signal { return o.stop }

// Speaking reports whether a playback is in flight.
func (o *Output) Speaking() bool {
	o.mu.Lock()
	p := o.current
	o.mu.Unlock()
	if p == nil {
		return false
	}
	select {
	case <-p.Done():
		return false
	default:
		return true
	}
}
