package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]bool{
		"debug": true,
		"DEBUG": true,
		"info":  false,
		"warn":  false,
		"bogus": false,
	}
	for level, debug := range cases {
		log := New(level)
		if got := log.Core().Enabled(zap.DebugLevel); got != debug {
			t.Fatalf("New(%q) debug enabled=%v; want %v", level, got, debug)
		}
	}
	if New("error").Core().Enabled(zap.WarnLevel) {
		t.Fatalf("error level must not log warnings")
	}
}
