package protocol

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		raw  string
		want Inbound
	}{
		{"GAMESTART", GameStart{}},
		{"OPPONENT:3", Opponent{Column: 3}},
		{"OPPONENT:0", Opponent{Column: 0}},
		{"OPPONENT:6\n", Opponent{Column: 6}},
		{"WIN", Outcome{Result: ResultWin}},
		{"LOSS", Outcome{Result: ResultLoss}},
		{"DRAW", Outcome{Result: ResultDraw}},
		{"TERMINATED", Outcome{Result: ResultTerminated}},
		{"ACK", Ack{}},
		{"ACK:ignored", Ack{}},
		{"ID:abc123", Unknown{Raw: "ID:abc123"}},
		{"", Unknown{Raw: ""}},
	}
	for _, tc := range cases {
		got, err := Decode(tc.raw)
		if err != nil {
			t.Fatalf("Decode(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("Decode(%q)=%#v want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestDecode_MalformedOpponent(t *testing.T) {
	for _, raw := range []string{"OPPONENT", "OPPONENT:", "OPPONENT:x", "OPPONENT:-1", "OPPONENT:7", "OPPONENT:3.5"} {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformedMessage) {
			t.Fatalf("Decode(%q): expected ErrMalformedMessage, got %v", raw, err)
		}
	}
}

func TestEncode(t *testing.T) {
	if got := Encode(Play{Column: 4}); got != "PLAY:4" {
		t.Fatalf("Encode=%q", got)
	}
}

func TestEndpoints(t *testing.T) {
	u, err := CreateURL("localhost:3000")
	if err != nil || u != "ws://localhost:3000/create" {
		t.Fatalf("CreateURL=%q err=%v", u, err)
	}
	u, err = JoinURL("wss://games.example.com/", " abc ")
	if err != nil || u != "wss://games.example.com/join/abc" {
		t.Fatalf("JoinURL=%q err=%v", u, err)
	}
	if _, err := CreateURL("  "); !errors.Is(err, ErrEmptyServer) {
		t.Fatalf("expected ErrEmptyServer, got %v", err)
	}
}
