package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerSingleton(t *testing.T) {
	if GetLogger() != GetLogger() {
		t.Error("GetLogger must return the same instance")
	}
}

func TestDebugRespectsVerboseMode(t *testing.T) {
	l := GetLogger()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	defer l.SetOutput(nil)

	SetVerboseMode(false)
	l.Debug("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output without verbose: %q", buf.String())
	}

	SetVerboseMode(true)
	defer SetVerboseMode(false)
	l.Debug("shown %d", 2)
	if !strings.Contains(buf.String(), "[DEBUG] shown 2") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLogLevels(t *testing.T) {
	l := GetLogger()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	defer l.SetOutput(nil)

	Infof("info %s", "msg")
	Warnf("warn msg")
	Errorf("error msg")

	out := buf.String()
	for _, want := range []string{"[INFO] info msg", "[WARN] warn msg", "[ERROR] error msg"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSetOutputNilDiscards(t *testing.T) {
	l := GetLogger()
	l.SetOutput(nil)
	// Must not panic writing to a discarded output.
	l.Info("dropped")
}
