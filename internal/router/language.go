package router

import "fmt"

// DefaultLanguage is the language replies are produced in before
// translation.
const DefaultLanguage = "en"

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"te": "Telugu",
	"ta": "Tamil",
	"es": "Spanish",
	"fr": "French",
}

// Languages lists the supported codes in menu order.
var Languages = []string{"en", "hi", "te", "ta", "es", "fr"}

// LanguageName returns the English name of a language code, defaulting to
// English.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}

// Supported reports whether code is one of Languages.
func Supported(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// SystemPrompt is the instruction placed at the head of every conversation.
func SystemPrompt(assistantName, language string) string {
	if assistantName == "" {
		assistantName = "Zoya"
	}
	return fmt.Sprintf("You are %s, a helpful AI assistant. Respond concisely and clearly in %s.", assistantName, LanguageName(language))
}
