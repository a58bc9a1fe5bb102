package classify

import (
	"strings"
	"testing"
)

func TestClassifyPersonal(t *testing.T) {
	c := New("Zoya", nil, nil)
	cases := []string{
		"what is your name",
		"What is your name?",
		"  WHAT IS YOUR NAME ?  ",
		"who created you?",
		"Who Are You",
	}
	for _, q := range cases {
		got := c.Classify(q)
		if got.Label != Personal {
			t.Fatalf("Classify(%q).Label = %q, want %q", q, got.Label, Personal)
		}
		if got.Answer == "" {
			t.Fatalf("Classify(%q).Answer is empty", q)
		}
	}
}

func TestClassifyPersonalSubstitutesName(t *testing.T) {
	c := New("Nova", nil, nil)
	got := c.Classify("what is your name")
	if !strings.Contains(got.Answer, "Nova") || strings.Contains(got.Answer, "{name}") {
		t.Fatalf("Classify().Answer = %q, want assistant name substituted", got.Answer)
	}
}

func TestClassifyPersonalRequiresExactMatch(t *testing.T) {
	c := New("Zoya", nil, nil)
	// Only one trailing "?" is stripped and the key must match exactly.
	cases := map[string]Label{
		"what is your name??":          Searchable,
		"so what is your name":         Searchable,
		"tell me who created you":      Conversational,
		"what is your name and origin": Searchable,
	}
	for q, want := range cases {
		if got := c.Classify(q).Label; got != want {
			t.Fatalf("Classify(%q).Label = %q, want %q", q, got, want)
		}
	}
}

func TestClassifySearchable(t *testing.T) {
	c := New("Zoya", nil, nil)
	for _, trigger := range DefaultTriggers {
		q := "Hey, " + strings.ToUpper(trigger) + " something"
		got := c.Classify(q)
		if got.Label != Searchable {
			t.Fatalf("Classify(%q).Label = %q, want %q", q, got.Label, Searchable)
		}
		if got.Answer != "" {
			t.Fatalf("Classify(%q).Answer = %q, want empty", q, got.Answer)
		}
	}
	if got := c.Classify("capital of france").Label; got != Searchable {
		t.Fatalf("Classify(capital of france).Label = %q, want %q", got, Searchable)
	}
}

func TestClassifyConversational(t *testing.T) {
	c := New("Zoya", nil, nil)
	for _, q := range []string{"tell me a joke", "", "how do I bake bread", "whois"} {
		if got := c.Classify(q).Label; got != Conversational {
			t.Fatalf("Classify(%q).Label = %q, want %q", q, got, Conversational)
		}
	}
}

func TestClassifyCustomTables(t *testing.T) {
	c := New("Zoya", map[string]string{"Ping?": "pong"}, []string{"  Define "})
	if got := c.Classify("ping"); got.Label != Personal || got.Answer != "pong" {
		t.Fatalf("Classify(ping) = %+v, want personal pong", got)
	}
	if got := c.Classify("please define entropy").Label; got != Searchable {
		t.Fatalf("Classify(define).Label = %q, want %q", got, Searchable)
	}
	if got := c.Classify("what is entropy").Label; got != Conversational {
		t.Fatalf("Classify(what is).Label = %q, want %q with custom triggers", got, Conversational)
	}
}
