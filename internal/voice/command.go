package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/zoya/internal/interrupt"
	"github.com/ent0n29/zoya/internal/reliability"
)

// Command templates understand these placeholders. When {text} is absent the
// text is written to the process stdin instead.
const (
	placeholderText   = "{text}"
	placeholderLang   = "{lang}"
	placeholderLocale = "{locale}"
)

// ttsCandidates are probed in order when no TTS command is configured.
var ttsCandidates = []struct {
	bin      string
	template string
}{
	{"espeak-ng", "espeak-ng -v {lang} {text}"},
	{"espeak", "espeak -v {lang} {text}"},
	{"say", "say {text}"},
}

// DetectSpeakerCommand returns the first installed TTS command template.
func DetectSpeakerCommand() (string, bool) {
	for _, c := range ttsCandidates {
		if _, err := exec.LookPath(c.bin); err == nil {
			return c.template, true
		}
	}
	return "", false
}

// CommandSpeaker speaks by running an external TTS program per utterance.
type CommandSpeaker struct {
	args         []string
	pollInterval time.Duration

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSpeaker validates template and checks the program is on PATH.
func NewCommandSpeaker(template string, pollInterval time.Duration) (*CommandSpeaker, error) {
	args := strings.Fields(strings.TrimSpace(template))
	if len(args) == 0 {
		return nil, errors.New("tts command is empty")
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("tts command %q not found: %w", args[0], err)
	}
	return &CommandSpeaker{
		args:         args,
		pollInterval: interrupt.ClampInterval(pollInterval),
	}, nil
}

func (s *CommandSpeaker) Name() string { return "command:" + s.args[0] }

func (s *CommandSpeaker) Speak(ctx context.Context, text, language string, stop *interrupt.Signal) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if stop.IsSet() {
		return nil
	}

	args, useStdin := expandTemplate(s.args, text, language)
	cmd := exec.Command(args[0], args[1:]...)
	if useStdin {
		cmd.Stdin = strings.NewReader(text)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start tts: %w", err)
	}
	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cmd = nil
		s.mu.Unlock()
	}()

	done := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(done)
	}()

	switch stop.Wait(ctx, done, s.pollInterval) {
	case interrupt.Completed:
		if waitErr != nil {
			return fmt.Errorf("tts exited: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
		}
		return nil
	case interrupt.Interrupted:
		killProcess(cmd)
		<-done
		return nil
	default:
		killProcess(cmd)
		<-done
		return ctx.Err()
	}
}

func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	killProcess(cmd)
}

// CommandRecognizer runs an external speech-to-text program that records one
// utterance and prints the transcript on stdout.
type CommandRecognizer struct {
	args    []string
	timeout time.Duration
}

func NewCommandRecognizer(template string, timeout time.Duration) (*CommandRecognizer, error) {
	args := strings.Fields(strings.TrimSpace(template))
	if len(args) == 0 {
		return nil, errors.New("stt command is empty")
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("stt command %q not found: %w", args[0], err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CommandRecognizer{args: args, timeout: timeout}, nil
}

func (r *CommandRecognizer) Name() string { return "command:" + r.args[0] }

func (r *CommandRecognizer) Capture(ctx context.Context, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args, _ := expandTemplate(r.args, "", language)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", reliability.NewFailure(r.Name(), reliability.KindRecognition, fmt.Errorf("listening timed out: %w", ctx.Err()))
		}
		return "", reliability.NewFailure(r.Name(), reliability.KindRecognition, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", reliability.NewFailure(r.Name(), reliability.KindRecognition, errors.New("could not understand audio"))
	}
	return text, nil
}

func expandTemplate(template []string, text, language string) ([]string, bool) {
	out := make([]string, 0, len(template))
	useStdin := true
	for _, a := range template {
		if a == placeholderText {
			out = append(out, text)
			useStdin = false
			continue
		}
		a = strings.ReplaceAll(a, placeholderLang, language)
		a = strings.ReplaceAll(a, placeholderLocale, LocaleFor(language))
		out = append(out, a)
	}
	return out, useStdin
}

func killProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(os.Interrupt)
	_ = cmd.Process.Kill()
}
