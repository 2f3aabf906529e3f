package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	testCases := []struct {
		level  string
		format string
		debug  bool
	}{
		{level: "debug", format: "json", debug: true},
		{level: "", format: "", debug: false},
		{level: "warning", format: "console", debug: false},
		{level: "nonsense", format: "json", debug: false},
	}
	for _, testCase := range testCases {
		logger, err := NewLogger(testCase.level, testCase.format)
		if err != nil {
			t.Fatalf("NewLogger(%q, %q): %v", testCase.level, testCase.format, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != testCase.debug {
			t.Fatalf("NewLogger(%q): debug enabled = %v", testCase.level, got)
		}
	}
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	if _, err := NewLogger("info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
