package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/interrupt"
	"github.com/ent0n29/zoya/internal/observability"
	"github.com/ent0n29/zoya/internal/router"
	"github.com/ent0n29/zoya/internal/voice"
)

const (
	FarewellTurn = "Goodbye! Have a nice day!"
	FarewellMenu = "Goodbye! Exiting now."

	// maxMissedUtterances ends a voice session after this many consecutive
	// recognition failures.
	maxMissedUtterances = 3
)

// LoopConfig wires the terminal side of an interactive session.
type LoopConfig struct {
	In         io.Reader
	Out        io.Writer
	Recognizer voice.Recognizer
	Metrics    *observability.Metrics
	Logger     zerolog.Logger
}

// Loop drives the interactive menus and turns of one terminal user.
type Loop struct {
	router     *router.Router
	output     *voice.Output
	recognizer voice.Recognizer
	signal     *interrupt.Signal
	in         io.Reader
	out        io.Writer
	metrics    *observability.Metrics
	logger     zerolog.Logger

	lines     <-chan string
	inputDone bool
	// pending holds lines read while a playback was interrupted, oldest first.
	pending   []string
}

type command int

const (
	commandNone command = iota
	commandExit
	commandStop
	commandReset
)

func parseCommand(line string) command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit", "bye":
		return commandExit
	case "stop":
		return commandStop
	case "reset", "clear memory":
		return commandReset
	default:
		return commandNone
	}
}

// NewLoop builds a loop around r. output must be the emitter r was built
// with so interrupts reach the playback the router started.
func NewLoop(r *router.Router, output *voice.Output, cfg LoopConfig) *Loop {
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	in := cfg.In
	if in == nil {
		in = strings.NewReader("")
	}
	return &Loop{
		router:     r,
		output:     output,
		recognizer: cfg.Recognizer,
		signal:     output.Signal(),
		in:         in,
		out:        out,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Run shows the language menu, then the mode menu until the user exits, the
// input ends or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.lines = readLines(ctx, l.in)
	l.metrics.ObserveSessionEvent("start")
	defer l.metrics.ObserveSessionEvent("end")

	if !l.selectLanguage(ctx) {
		return ctx.Err()
	}

	for {
		l.printMenu("Choose mode:", "Voice", "Text", "Clear memory", "Exit")
		line, ok := l.next(ctx, "Enter choice (1-4): ")
		if !ok {
			return ctx.Err()
		}
		switch strings.TrimSpace(line) {
		case "1":
			if l.recognizer == nil {
				fmt.Fprintln(l.out, "Voice mode is unavailable: no speech recognizer is configured.")
				continue
			}
			if !l.voiceSession(ctx) {
				return ctx.Err()
			}
		case "2":
			if !l.textSession(ctx) {
				return ctx.Err()
			}
		case "3":
			l.router.ResetMemory()
			fmt.Fprintln(l.out, "Memory cleared.")
		case "4":
			l.farewell(ctx, FarewellMenu)
			return nil
		default:
			fmt.Fprintln(l.out, "Invalid choice. Please enter 1, 2, 3 or 4.")
		}
	}
}

func (l *Loop) selectLanguage(ctx context.Context) bool {
	names := make([]string, 0, len(router.Languages))
	for _, code := range router.Languages {
		names = append(names, router.LanguageName(code))
	}
	l.printMenu("Select language:", names...)
	line, ok := l.next(ctx, fmt.Sprintf("Enter choice (1-%d): ", len(names)))
	if !ok {
		return false
	}
	code := router.DefaultLanguage
	if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 1 && n <= len(router.Languages) {
		code = router.Languages[n-1]
	}
	l.router.SetLanguage(code)
	fmt.Fprintf(l.out, "Language set to %s.\n", router.LanguageName(code))
	return true
}

// textSession returns false once input has ended or ctx was cancelled.
func (l *Loop) textSession(ctx context.Context) bool {
	fmt.Fprintln(l.out, "Text mode. Type 'exit' to return to the menu, 'stop' to stop speech.")
	for {
		l.signal.Clear()
		line, ok := l.next(ctx, "You: ")
		if !ok {
			return false
		}
		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if cmd := parseCommand(query); cmd != commandNone {
			if l.runCommand(ctx, cmd) {
				return true
			}
			continue
		}
		if !l.turn(ctx, query, "text") {
			return false
		}
	}
}

// voiceSession returns false only when ctx was cancelled.
func (l *Loop) voiceSession(ctx context.Context) bool {
	fmt.Fprintln(l.out, "Voice mode. Say 'exit' to return to the menu.")
	missed := 0
	for {
		l.signal.Clear()
		if ctx.Err() != nil {
			return false
		}

		var query string
		if len(l.pending) > 0 {
			query = l.popPending()
		} else {
			fmt.Fprintln(l.out, "Listening...")
			heard, err := l.capture(ctx)
			if ctx.Err() != nil {
				return false
			}
			if err != nil {
				missed++
				l.logger.Warn().Err(err).Str("recognizer", l.recognizer.Name()).Msg("speech recognition failed")
				if missed >= maxMissedUtterances {
					fmt.Fprintln(l.out, "No speech detected. Returning to the menu.")
					return true
				}
				fmt.Fprintln(l.out, "Sorry, I didn't catch that.")
				continue
			}
			missed = 0
			query = heard
			fmt.Fprintf(l.out, "You said: %s\n", query)
		}

		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		if cmd := parseCommand(query); cmd != commandNone {
			if l.runCommand(ctx, cmd) {
				return true
			}
			continue
		}
		if !l.turn(ctx, query, "voice") {
			return false
		}
	}
}

// runCommand reports true when the session should return to the mode menu.
func (l *Loop) runCommand(ctx context.Context, cmd command) bool {
	switch cmd {
	case commandExit:
		l.farewell(ctx, FarewellTurn)
		return true
	case commandStop:
		l.interrupt()
	case commandReset:
		l.router.ResetMemory()
		fmt.Fprintln(l.out, "Memory cleared.")
	}
	return false
}

// turn runs one query and waits for its playback. It returns false once ctx
// was cancelled.
func (l *Loop) turn(ctx context.Context, query, mode string) (alive bool) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error().Interface("panic", p).Str("mode", mode).Msg("turn panicked, continuing")
			fmt.Fprintln(l.out, router.CannotProcessMessage)
			alive = ctx.Err() == nil
		}
	}()

	t := l.router.Handle(ctx, query, router.TurnOptions{Mode: mode})
	return l.await(ctx, t.Playback)
}

func (l *Loop) capture(ctx context.Context) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("recognizer panic: %v", p)
		}
	}()
	return l.recognizer.Capture(ctx, l.router.Language())
}

// await blocks until p finishes. A "stop" line interrupts it; any other line
// interrupts it and is queued, in arrival order, for the following turns. It returns false once ctx was
// cancelled.
func (l *Loop) await(ctx context.Context, p *voice.Playback) bool {
	if p == nil {
		return true
	}
	select {
	case <-p.Done():
		return ctx.Err() == nil
	default:
	}
	if len(l.pending) > 0 {
		// Input already queued supersedes this reply.
		l.interrupt()
	}
	for {
		select {
		case <-p.Done():
			return ctx.Err() == nil
		case <-ctx.Done():
			l.interrupt()
			<-p.Done()
			return false
		case line, ok := <-l.input():
			if !ok {
				l.inputDone = true
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			l.interrupt()
			if parseCommand(line) != commandStop {
				l.pending = append(l.pending, line)
			}
		}
	}
}

func (l *Loop) interrupt() {
	l.output.Interrupt()
	l.metrics.ObserveInterrupt()
}

func (l *Loop) farewell(ctx context.Context, text string) {
	l.signal.Clear()
	p := l.output.Emit(ctx, text, l.router.Language())
	select {
	case <-p.Done():
	case <-ctx.Done():
		l.interrupt()
	}
}

// next returns the oldest line held back by an interrupt, or reads a new one.
func (l *Loop) next(ctx context.Context, prompt string) (string, bool) {
	if len(l.pending) > 0 {
		return l.popPending(), true
	}
	if l.inputDone {
		return "", false
	}
	fmt.Fprint(l.out, prompt)
	select {
	case line, ok := <-l.lines:
		if !ok {
			l.inputDone = true
			fmt.Fprintln(l.out)
		}
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

func (l *Loop) popPending() string {
	line := l.pending[0]
	l.pending = l.pending[1:]
	return line
}

// input is nil once the reader has finished so selects skip it.
func (l *Loop) input() <-chan string {
	if l.inputDone {
		return nil
	}
	return l.lines
}

func (l *Loop) printMenu(title string, options ...string) {
	fmt.Fprintln(l.out, title)
	for i, opt := range options {
		fmt.Fprintf(l.out, "%d. %s\n", i+1, opt)
	}
}

// readLines feeds lines from r into the returned channel until r is
// exhausted or ctx ends. A blocked Read outlives ctx until r returns.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
