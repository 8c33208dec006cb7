package utils

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(LogConfig{Level: "debug", Format: "json"}, "streamseek", "test")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer logger.Close()

	if logger.Level != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", logger.Level)
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want JSON", logger.Formatter)
	}
}

func TestNewLoggerUnknownLevelFallsBack(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(LogConfig{Level: "shout"}, "streamseek", "test")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer logger.Close()

	if logger.Level != logrus.InfoLevel {
		t.Errorf("level = %v, want info fallback", logger.Level)
	}
}

func TestNewLoggerFileSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "streamseek.log")
	logger, err := NewLogger(LogConfig{Level: "info", FileLocation: path}, "streamseek", "test")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestServiceHookAddsFields(t *testing.T) {
	t.Parallel()

	hook := &ServiceHook{Service: "streamseek", Version: "1.0.0", Hostname: "box"}
	entry := logrus.NewEntry(logrus.New())
	entry.Data = logrus.Fields{}

	if err := hook.Fire(entry); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if entry.Data["service"] != "streamseek" || entry.Data["version"] != "1.0.0" || entry.Data["hostname"] != "box" {
		t.Errorf("hook fields = %v", entry.Data)
	}
}
