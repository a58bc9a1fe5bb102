package app

import (
	"fmt"
	"strings"

	"github.com/ent0n29/zoya/internal/config"
	"github.com/ent0n29/zoya/internal/reliability"
	"github.com/ent0n29/zoya/internal/voice"
)

// resolveSpeaker picks the speech output for TTS_MODE. A missing program is
// reported as unavailable; only an invalid mode is an error.
func resolveSpeaker(cfg config.Config, detect func() (string, bool)) (voice.Speaker, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.TTSMode))
	if mode == "" {
		mode = "auto"
	}

	tryCommand := func(template string) (voice.Speaker, error) {
		s, err := voice.NewCommandSpeaker(template, cfg.TTSPollInterval)
		if err != nil {
			return nil, reliability.NewFailure("tts", reliability.KindUnavailable, err)
		}
		return s, nil
	}

	switch mode {
	case "off", "console":
		return nil, "text output only", reliability.Unavailable("tts", "disabled by TTS_MODE="+mode)
	case "command":
		s, err := tryCommand(cfg.TTSCommand)
		if err != nil {
			return nil, "text output only", err
		}
		return s, s.Name(), nil
	case "auto":
		var primary voice.Speaker
		if strings.TrimSpace(cfg.TTSCommand) != "" {
			if s, err := tryCommand(cfg.TTSCommand); err == nil {
				primary = s
			}
		}
		var fallback voice.Speaker
		if template, ok := detect(); ok && template != strings.TrimSpace(cfg.TTSCommand) {
			if s, err := tryCommand(template); err == nil {
				fallback = s
			}
		}
		switch {
		case primary != nil && fallback != nil:
			return voice.NewFailoverSpeaker(primary, fallback), fmt.Sprintf("%s (automatic %s fallback)", primary.Name(), fallback.Name()), nil
		case primary != nil:
			return primary, primary.Name(), nil
		case fallback != nil:
			return fallback, fallback.Name(), nil
		}
		return nil, "text output only", reliability.Unavailable("tts", "no TTS_COMMAND and no espeak-ng, espeak or say on PATH")
	default:
		return nil, "", fmt.Errorf("invalid TTS_MODE: %q (expected auto|command|console|off)", cfg.TTSMode)
	}
}

// resolveRecognizer builds the speech input from STT_COMMAND.
func resolveRecognizer(cfg config.Config) (voice.Recognizer, error) {
	if strings.TrimSpace(cfg.STTCommand) == "" {
		return nil, reliability.Unavailable("stt", "STT_COMMAND is not set")
	}
	r, err := voice.NewCommandRecognizer(cfg.STTCommand, cfg.STTTimeout)
	if err != nil {
		return nil, reliability.NewFailure("stt", reliability.KindUnavailable, err)
	}
	return r, nil
}
