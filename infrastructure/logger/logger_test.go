package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSetLevelAtRuntime(t *testing.T) {
	l, err := New(Config{Level: "info", Outputs: []string{"stdout"}, Format: "json"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer l.Close()

	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be disabled at info level")
	}

	if err := l.SetLevel("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be enabled after SetLevel")
	}
	if l.Level() != zapcore.DebugLevel {
		t.Errorf("level = %v, want debug", l.Level())
	}

	if err := l.SetLevel("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	l, err := New(Config{Level: "info", Outputs: []string{"stdout"}, Format: "json"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer l.Close()

	if err := l.SetLevel("verbose"); err == nil {
		t.Fatal("unknown level must be rejected")
	}
	if l.Level() != zapcore.InfoLevel {
		t.Errorf("failed SetLevel must not change the level, got %v", l.Level())
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud", Outputs: []string{"stdout"}}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
