package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(nopSink{})

	logger := New("test")

	SetLevel(Warning)
	logger.Info("hidden message")
	logger.Warning("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Fatalf("expected info message to be filtered out; got %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "[test]") {
		t.Fatalf("expected warning message tagged with the module name; got %q", out)
	}

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("value %d", 42)
	if !strings.Contains(buf.String(), "value 42") {
		t.Fatalf("expected debug message after raising verbosity; got %q", buf.String())
	}
}

func TestPlainFormatForNonTerminalSinks(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(nopSink{})

	SetLevel(Warning)
	New("test").Error("boom")
	if strings.Contains(buf.String(), "\033[") {
		t.Fatalf("expected no color escape codes when logging to a buffer; got %q", buf.String())
	}
}

type nopSink struct{}

func (nopSink) Write(p []byte) (int, error) { return len(p), nil }
