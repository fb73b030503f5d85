package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/mansion-engine/internal/config"
)

func TestSetup_ProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)
	WithSession(l, "abc").Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if line["session_id"] != "abc" {
		t.Errorf("Expected session_id attribute, got %v", line)
	}
}

func TestSetup_DevelopmentUsesTextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&config.Config{Environment: "development", LogLevel: slog.LevelWarn}, &buf)
	l.Info("dropped")
	WithError(l, errors.New("boom")).Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("Info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "error=boom") {
		t.Errorf("Expected text-format warn line, got %q", out)
	}
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	l, closer, err := ToFile(&config.Config{LogLevel: slog.LevelInfo}, path)
	if err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	l.Info("to disk")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
