package ws

import (
	"errors"
	"testing"

	"github.com/pokestack/backend/internal/game"
)

func TestDecodeInput(t *testing.T) {
	tests := []struct {
		raw  string
		want game.Input
	}{
		{`{"type":"start"}`, game.Input{Kind: game.InputStart}},
		{`{"type":"restart","data":{}}`, game.Input{Kind: game.InputRestart}},
		{`{"type":"drop","data":{"x":120.5}}`, game.Input{Kind: game.InputDrop, X: 120.5}},
		{`{"type":"move","data":{"x":0}}`, game.Input{Kind: game.InputMove, X: 0}},
		{`{"type":"field","data":{"width":640,"height":960}}`, game.Input{Kind: game.InputField, Width: 640, Height: 960}},
	}
	for _, tt := range tests {
		got, err := decodeInput([]byte(tt.raw))
		if err != nil {
			t.Errorf("decodeInput(%s): %v", tt.raw, err)
			continue
		}
		if got.Kind != tt.want.Kind || got.X != tt.want.X || got.Width != tt.want.Width || got.Height != tt.want.Height {
			t.Errorf("decodeInput(%s) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeInputRejects(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"type":"drop"}`,
		`{"type":"drop","data":{"y":3}}`,
		`{"type":"fly"}`,
	} {
		if _, err := decodeInput([]byte(raw)); err == nil {
			t.Errorf("decodeInput(%s) accepted", raw)
		}
	}
	if _, err := decodeInput([]byte(`{"type":"fly"}`)); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("unknown type err = %v", err)
	}
}
