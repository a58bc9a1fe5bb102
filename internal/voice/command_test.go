package voice

import (
	"reflect"
	"testing"
)

func TestExpandTemplate(t *testing.T) {
	args, stdin := expandTemplate([]string{"espeak-ng", "-v", "{lang}", "{text}"}, "hola amigo", "es")
	if want := []string{"espeak-ng", "-v", "es", "hola amigo"}; !reflect.DeepEqual(args, want) {
		t.Fatalf("expandTemplate() args = %v, want %v", args, want)
	}
	if stdin {
		t.Fatalf("expandTemplate() stdin = true, want false when {text} is present")
	}

	args, stdin = expandTemplate([]string{"stt", "--locale={locale}"}, "", "ta")
	if want := []string{"stt", "--locale=ta-IN"}; !reflect.DeepEqual(args, want) {
		t.Fatalf("expandTemplate() args = %v, want %v", args, want)
	}
	if !stdin {
		t.Fatalf("expandTemplate() stdin = false, want true without {text}")
	}
}

func TestLocaleFor(t *testing.T) {
	cases := map[string]string{
		"en": "en-US",
		"hi": "hi-IN",
		"te": "te-IN",
		"ta": "ta-IN",
		"es": "es-ES",
		"fr": "fr-FR",
		"de": "en-US",
	}
	for in, want := range cases {
		if got := LocaleFor(in); got != want {
			t.Fatalf("LocaleFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewCommandSpeakerRejectsEmptyAndMissing(t *testing.T) {
	if _, err := NewCommandSpeaker("  ", 0); err == nil {
		t.Fatalf("NewCommandSpeaker(empty) error = nil")
	}
	if _, err := NewCommandRecognizer("definitely-not-a-real-binary-zoya {locale}", 0); err == nil {
		t.Fatalf("NewCommandRecognizer(missing) error = nil")
	}
}
