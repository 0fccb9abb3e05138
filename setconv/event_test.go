package setconv

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLogObserver(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	c := New(WithObserver(LogObserver(logger)))
	c.DiffToSet("[edit system]\n-  host-name R1;\n+  host-name R2;")

	entries := hook.AllEntries()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}

	if entries[0].Message != "line consumed" {
		t.Errorf("entries[0].Message = %q, want %q", entries[0].Message, "line consumed")
	}
	if got := entries[1].Data["reason"]; got != "removal" {
		t.Errorf("entries[1] reason = %v, want removal", got)
	}
	last := entries[2]
	if last.Message != "set command emitted" {
		t.Errorf("entries[2].Message = %q, want %q", last.Message, "set command emitted")
	}
	if got := last.Data["command"]; got != "set system host-name R2" {
		t.Errorf("entries[2] command = %v", got)
	}
	if got := last.Data["mode"]; got != "diff" {
		t.Errorf("entries[2] mode = %v, want diff", got)
	}
	if last.Level != log.DebugLevel {
		t.Errorf("entries[2] level = %v, want debug", last.Level)
	}
}
