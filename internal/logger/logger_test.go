package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger() (*ConsoleLogger, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &ConsoleLogger{output: out, errOut: errOut}, out, errOut
}

func TestConsoleLogger_Levels(t *testing.T) {
	l, out, errOut := newTestLogger()

	l.Debug("hidden %d", 1)
	if out.Len() != 0 {
		t.Errorf("Debug should be silent without verbose mode, got %q", out.String())
	}

	l.SetVerbose(true)
	l.Debug("visible %d", 2)
	if !strings.Contains(out.String(), "DEBUG visible 2") {
		t.Errorf("Debug output = %q, want DEBUG line", out.String())
	}

	l.Error("boom")
	if !strings.Contains(errOut.String(), "ERROR boom") {
		t.Errorf("Error output = %q, want ERROR line on stderr", errOut.String())
	}
}

func TestConsoleLogger_QuietMode(t *testing.T) {
	l, out, errOut := newTestLogger()
	l.SetQuiet(true)

	l.Info("info")
	l.Warn("warn")
	l.Success("ok")
	if out.Len() != 0 {
		t.Errorf("quiet mode should suppress info/warn/success, got %q", out.String())
	}

	l.Error("still shown")
	if !strings.Contains(errOut.String(), "still shown") {
		t.Error("quiet mode must not suppress errors")
	}
}

func TestWith_PrefixesMessages(t *testing.T) {
	s := With("job abc")
	if s.prefix != "[job abc] " {
		t.Errorf("prefix = %q, want %q", s.prefix, "[job abc] ")
	}
}
