package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFormatsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("lobby %s created by %s", "ABCD", "c1")
	logger.Warn("rejected: %v", "Lobby is full")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Message != "lobby ABCD created by c1" || entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("entry 0 = %+v", entries[0])
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("entry 1 level = %s", entries[1].Level)
	}
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := NewZapLogger(zap.New(core))

	scoped := base.WithField("conn", "c1").WithFields(map[string]interface{}{"code": "ABCD"})
	scoped.Error("boom")

	if got := scoped.Fields(); got["conn"] != "c1" || got["code"] != "ABCD" {
		t.Fatalf("fields = %v", got)
	}
	if len(base.Fields()) != 0 {
		t.Fatalf("base fields = %v, want none", base.Fields())
	}

	entry := logs.AllUntimed()[0]
	ctx := entry.ContextMap()
	if ctx["conn"] != "c1" || ctx["code"] != "ABCD" {
		t.Fatalf("context = %v", ctx)
	}
}

func TestNilZapLogger(t *testing.T) {
	NewZapLogger(nil).Info("dropped %d", 1)
}
