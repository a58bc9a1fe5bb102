package voice

import (
	"context"

	"github.com/ent0n29/zoya/internal/interrupt"
)

// Recognizer turns one spoken utterance into text. A timeout or an
// unrecognised utterance is reported as a reliability.KindRecognition failure.
type Recognizer interface {
	Name() string
	Capture(ctx context.Context, language string) (string, error)
}

// Speaker renders text as audio. Speak blocks until playback ends or stop is
// set; an interrupted playback returns nil.
type Speaker interface {
	Name() string
	Speak(ctx context.Context, text, language string, stop *interrupt.Signal) error
	// Stop cancels whatever is playing right now without waiting for the next
	// poll of the stop flag.
	Stop()
}

var locales = map[string]string{
	"en": "en-US",
	"hi": "hi-IN",
	"te": "te-IN",
	"ta": "ta-IN",
	"es": "es-ES",
	"fr": "fr-FR",
}

// LocaleFor maps a language code to the recognizer locale, defaulting to en-US.
func LocaleFor(language string) string {
	if l, ok := locales[language]; ok {
		return l
	}
	return "en-US"
}
