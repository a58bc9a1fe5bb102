package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageTurn(t *testing.T) {
	raw := []byte(`{"type":"client_turn","session_id":"s1","query":"what is your name","language":"fr"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	turn, ok := msg.(ClientTurn)
	if !ok {
		t.Fatalf("message type = %T, want ClientTurn", msg)
	}
	if turn.SessionID != "s1" || turn.Query != "what is your name" || turn.Language != "fr" {
		t.Fatalf("unexpected client turn: %+v", turn)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageControl(t *testing.T) {
	for _, action := range []string{ActionStop, ActionReset} {
		raw := []byte(`{"type":"client_control","session_id":"s1","action":"` + action + `"}`)
		msg, err := ParseClientMessage(raw)
		if err != nil {
			t.Fatalf("ParseClientMessage(%s) error = %v", action, err)
		}
		control, ok := msg.(ClientControl)
		if !ok {
			t.Fatalf("message type = %T, want ClientControl", msg)
		}
		if control.SessionID != "s1" || control.Action != action {
			t.Fatalf("unexpected client control: %+v", control)
		}
	}
}

func TestParseClientMessageRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"turn without session", `{"type":"client_turn","query":"hi"}`},
		{"blank query", `{"type":"client_turn","session_id":"s1","query":"   "}`},
		{"control without session", `{"type":"client_control","action":"stop"}`},
		{"unknown action", `{"type":"client_control","session_id":"s1","action":"pause"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseClientMessage([]byte(tc.raw)); err == nil {
				t.Fatalf("ParseClientMessage(%s) error = nil, want error", tc.raw)
			}
		})
	}
}
