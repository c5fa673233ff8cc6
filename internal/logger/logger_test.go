package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func reset() {
	SetVerbose(false)
	SetQuiet(false)
	SetTimestamps(true)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestDebug_OnlyWhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetTimestamps(false)

	Debug("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}

	SetVerbose(true)
	Debug("shown %d", 2)
	if got := buf.String(); got != "[DEBUG] shown 2\n" {
		t.Errorf("unexpected debug output %q", got)
	}
}

func TestInfo_AlwaysUnlessQuiet(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetTimestamps(false)

	Info("document %s", "d1")
	if !strings.Contains(buf.String(), "[INFO] document d1") {
		t.Errorf("expected info line, got %q", buf.String())
	}

	buf.Reset()
	SetQuiet(true)
	Info("suppressed")
	Warn("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected quiet mode to suppress info and warn, got %q", buf.String())
	}

	Error("boom")
	if !strings.Contains(buf.String(), "[ERROR] boom") {
		t.Errorf("expected error in quiet mode, got %q", buf.String())
	}
}

func TestTimestampPrefix(t *testing.T) {
	defer reset()
	defer func() { now = time.Now }()

	var buf bytes.Buffer
	SetOutput(&buf)
	now = func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }

	Warn("slow model")

	if got := buf.String(); got != "2025-05-01T10:00:00Z [WARN] slow model\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSection_OnlyWhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Section("Analysis")
	if buf.Len() != 0 {
		t.Error("expected no section header when not verbose")
	}

	SetVerbose(true)
	Section("Analysis")
	if !strings.Contains(buf.String(), "=== Analysis ===") {
		t.Errorf("expected section header, got %q", buf.String())
	}
}
