// Package classify decides which response strategy handles a user query.
package classify

import (
	"strings"
)

// Label names a response strategy.
type Label string

const (
	Personal       Label = "personal"
	Searchable     Label = "searchable"
	Conversational Label = "conversational"
)

// Result is the outcome of classifying one query. Answer is only set for
// Personal results.
type Result struct {
	Label  Label
	Answer string
}

// DefaultTriggers are the general-knowledge phrases that route a query to web
// search.
var DefaultTriggers = []string{
	"who is",
	"what is",
	"when was",
	"where is",
	"capital of",
	"population of",
	"temperature in",
	"weather in",
	"current time in",
}

// DefaultPersonalFacts maps normalized questions about the assistant itself to
// canned answers. "{name}" is replaced with the assistant name.
var DefaultPersonalFacts = map[string]string{
	"what is your name":   "My name is {name}, your personal AI assistant.",
	"what's your name":    "My name is {name}, your personal AI assistant.",
	"who are you":         "I am {name}, your personal AI assistant. I can answer questions, search the web and chat with you.",
	"who created you":     "I was created by a developer as a personal AI assistant project.",
	"who made you":        "I was created by a developer as a personal AI assistant project.",
	"what can you do":     "I can answer general knowledge questions, search the web, translate replies and have a conversation with you.",
	"how are you":         "I am doing great, thank you for asking! How can I help you today?",
	"are you a robot":     "I am an AI assistant, so not exactly a robot, but I am here to help.",

	"what languages do you speak": "I can talk with you in English, Hindi, Telugu, Tamil, Spanish and French.",
}

// Classifier applies the personal-fact table first and the trigger phrases
// second; anything else is conversational.
type Classifier struct {
	facts    map[string]string
	triggers []string
}

// New builds a classifier. Nil facts or triggers fall back to the defaults.
func New(assistantName string, facts map[string]string, triggers []string) *Classifier {
	if facts == nil {
		facts = DefaultPersonalFacts
	}
	if triggers == nil {
		triggers = DefaultTriggers
	}
	name := strings.TrimSpace(assistantName)
	if name == "" {
		name = "Zoya"
	}

	c := &Classifier{
		facts:    make(map[string]string, len(facts)),
		triggers: make([]string, 0, len(triggers)),
	}
	for k, v := range facts {
		c.facts[normalizeKey(k)] = strings.ReplaceAll(v, "{name}", name)
	}
	for _, t := range triggers {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			c.triggers = append(c.triggers, t)
		}
	}
	return c
}

// Classify labels query. Personal matching must run before the trigger scan:
// "what is your name" also contains "what is".
func (c *Classifier) Classify(query string) Result {
	if answer, ok := c.facts[normalizeKey(query)]; ok {
		return Result{Label: Personal, Answer: answer}
	}

	lower := strings.ToLower(query)
	for _, t := range c.triggers {
		if strings.Contains(lower, t) {
			return Result{Label: Searchable}
		}
	}
	return Result{Label: Conversational}
}

// normalizeKey lower-cases, trims and drops a single trailing question mark.
func normalizeKey(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.TrimSuffix(q, "?")
	return strings.TrimSpace(q)
}
