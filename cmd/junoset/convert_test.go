package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(viper.New())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConvertText(t *testing.T) {
	text := "system {\n    host-name r1;\n    services {\n        ssh;\n    }\n}\n"

	got, err := execute(t, text, "convert", "text", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "set system host-name r1\nset system services ssh\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("convert text mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertDiffFromFile(t *testing.T) {
	diff := "[edit system]\n+  host-name r2;\n-  host-name r1;\n"
	path := filepath.Join(t.TempDir(), "candidate.diff")
	if err := os.WriteFile(path, []byte(diff), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := execute(t, "", "convert", "diff", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "set system host-name r2\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvertMissingFile(t *testing.T) {
	if _, err := execute(t, "", "convert", "text", filepath.Join(t.TempDir(), "missing.config")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunRequiresUsername(t *testing.T) {
	t.Setenv("JUNOSET_USERNAME", "")
	if _, err := execute(t, "", "run", "--csv", filepath.Join(t.TempDir(), "devices.csv")); err == nil {
		t.Fatal("expected error without username")
	}
}
