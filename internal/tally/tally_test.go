package tally

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Counts(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Warn("this is a test warning.")
	l.Error("this is a test error.")
	l.Error("this is another test error.")
	l.Info("this is just informative.")
	l.Debug("not counted")

	got := l.Counters()
	want := Counters{Errors: 2, Warnings: 1, Infos: 1}
	if got != want {
		t.Errorf("Counters = %+v, want %+v", got, want)
	}
	out := buf.String()
	if !strings.Contains(out, Prefix) {
		t.Errorf("output missing prefix %q:\n%s", Prefix, out)
	}
	if strings.Contains(out, "not counted") {
		t.Errorf("debug message emitted at info level:\n%s", out)
	}
}

func TestLogger_Verbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	if l.Verbose() {
		t.Fatal("new logger should not be verbose")
	}
	l.SetVerbose(true)
	if !l.Verbose() {
		t.Fatal("SetVerbose(true) did not enable debug")
	}
	l.Debug("this is a test verbose message.")
	if !strings.Contains(buf.String(), "this is a test verbose message.") {
		t.Errorf("expected debug output when verbose, got:\n%s", buf.String())
	}
	if l.Counters() != (Counters{}) {
		t.Errorf("debug changed counters: %+v", l.Counters())
	}
}

func TestLogger_StandardStatus(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Error("e")
	l.Error("e")
	l.Warn("w")
	l.Info("i")

	snap := l.StandardStatus()
	if snap != (Counters{Errors: 2, Warnings: 1, Infos: 1}) {
		t.Errorf("snapshot = %+v", snap)
	}
	for _, want := range []string{"2 errors", "1 warnings", "1 infos"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, buf.String())
		}
	}
	if l.Counters().Infos != 4 {
		t.Errorf("status lines should be counted as infos, got %d", l.Counters().Infos)
	}
}

func TestCounters_String(t *testing.T) {
	c := Counters{Errors: 1, Warnings: 2, Infos: 3}
	if c.String() != "1 errors, 2 warnings, 3 infos" {
		t.Errorf("String() = %q", c.String())
	}
}
