package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevels(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	tests := []struct {
		opts Options
		want zapcore.Level
	}{
		{opts: Options{}, want: zapcore.InfoLevel},
		{opts: Options{Level: "WARN"}, want: zapcore.WarnLevel},
		{opts: Options{Level: "error", Format: "json"}, want: zapcore.ErrorLevel},
		{opts: Options{Level: "error", Verbose: true}, want: zapcore.DebugLevel},
	}
	for _, tc := range tests {
		log, err := New(tc.opts)
		if err != nil {
			t.Fatalf("New(%+v): %v", tc.opts, err)
		}
		if !log.Core().Enabled(tc.want) {
			t.Fatalf("New(%+v): level %s not enabled", tc.opts, tc.want)
		}
		if tc.want > zapcore.DebugLevel && log.Core().Enabled(tc.want-1) {
			t.Fatalf("New(%+v): level below %s enabled", tc.opts, tc.want)
		}
	}
}

func TestBadLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestEnvLevelOverridesVerbose(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	log, err := New(Options{Level: "info", Verbose: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) || !log.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("LOG_LEVEL=warn should win over --verbose")
	}

	t.Setenv("LOG_LEVEL", "loud")
	if _, err := New(Options{Verbose: true}); err == nil {
		t.Fatalf("expected error for unknown LOG_LEVEL")
	}
}
