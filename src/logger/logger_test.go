package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConsoleLogger_FormatsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapLogger(zap.New(core))

	log.Debug("hidden %d", 1)
	log.Info("job #%d is %s", 42, "running")
	log.Warn("trace reset for job #%d", 42)
	log.Error("boom: %v", "network")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Message != "job #42 is running" {
		t.Errorf("message = %q", entries[0].Message)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("level = %s, want warn", entries[1].Level)
	}
	if !strings.Contains(entries[2].Message, "network") {
		t.Errorf("message = %q", entries[2].Message)
	}
}

func TestNewConsoleLogger_UnknownLevel(t *testing.T) {
	log := NewConsoleLogger("loud")
	if log.sugar == nil {
		t.Fatal("sugar logger is nil")
	}
	if log.sugar.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("unknown level should fall back to info")
	}
}

func TestSilentLogger(t *testing.T) {
	var log Logger = NewSilentLogger()
	log.Info("nothing %s", "here")
	log.Warn("nothing")
	log.Error("nothing")
	log.Debug("nothing")
}
