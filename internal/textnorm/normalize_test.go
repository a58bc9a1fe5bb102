package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses whitespace and repeated punctuation",
			in:   "  Hello,   world!!  ",
			want: "Hello, world!",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "only disallowed characters",
			in:   "*** ### @@@",
			want: "",
		},
		{
			name: "drops markdown and symbols",
			in:   "**Paris** is the capital of France 🇫🇷 #geo",
			want: "Paris is the capital of France geo",
		},
		{
			name: "keeps accented latin",
			in:   "Très   bien, merci.",
			want: "Très bien, merci.",
		},
		{
			name: "keeps devanagari with vowel signs",
			in:   "नमस्ते   दुनिया!",
			want: "नमस्ते दुनिया!",
		},
		{
			name: "keeps telugu and tamil",
			in:   "నమస్కారం வணக்கம்",
			want: "నమస్కారం வணக்கம்",
		},
		{
			name: "newlines and tabs become single spaces",
			in:   "line one\n\n\tline two",
			want: "line one line two",
		},
		{
			name: "different punctuation marks are kept",
			in:   "Really?! (yes); ok: done.",
			want: "Really?! (yes); ok: done.",
		},
		{
			name: "dropped rune does not split a punctuation run",
			in:   "wow!*!",
			want: "wow!",
		},
		{
			name: "keeps apostrophes in contractions",
			in:   "I couldn't find it, it’s gone.",
			want: "I couldn't find it, it’s gone.",
		},
		{
			name: "keeps digits and underscore",
			in:   "room_42 is on floor 3",
			want: "room_42 is on floor 3",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"  Hello,   world!!  ",
		"a -- b ... c",
		"नमस्ते, दुनिया!!",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}
