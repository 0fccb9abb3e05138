package netmigo

import (
	"errors"
	"strings"
	"testing"
)

func TestElementText(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		element string
		want    string
		wantErr bool
	}{
		{
			name: "diff inside configuration-information",
			data: "<configuration-information><configuration-output>\n[edit system]\n" +
				"+  host-name R2;\n</configuration-output></configuration-information>",
			element: "configuration-output",
			want:    "\n[edit system]\n+  host-name R2;\n",
		},
		{
			name:    "set rendering with escaped characters",
			data:    `<configuration-set>set system login message "a &lt; b &amp; c"</configuration-set>`,
			element: "configuration-set",
			want:    `set system login message "a < b & c"`,
		},
		{
			name:    "nested elements contribute their text",
			data:    "<a><configuration-output>x<b>y</b>z</configuration-output><configuration-output>no</configuration-output></a>",
			element: "configuration-output",
			want:    "xyz",
		},
		{
			name:    "missing element",
			data:    "<ok/>",
			element: "configuration-output",
			want:    "",
		},
		{
			name:    "empty reply",
			data:    "",
			element: "configuration-output",
			want:    "",
		},
		{
			name:    "truncated after element opens",
			data:    "<configuration-information><configuration-output>[edit system]",
			element: "configuration-output",
			wantErr: true,
		},
		{
			name:    "mismatched tags before element",
			data:    "<a><b></a><configuration-output>x</configuration-output>",
			element: "configuration-output",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := elementText(tt.data, tt.element)
			if (err != nil) != tt.wantErr {
				t.Fatalf("elementText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("elementText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadRPC(t *testing.T) {
	snippet := "system {\n    login {\n        message \"a < b & c\";\n    }\n}\n"

	tests := []struct {
		name    string
		format  string
		prefix  string
		element string
		wantErr bool
	}{
		{
			name:    "text merge",
			format:  FormatText,
			prefix:  `<load-configuration action="merge" format="text"><configuration-text>`,
			element: "configuration-text",
		},
		{
			name:    "set commands",
			format:  FormatSet,
			prefix:  `<load-configuration action="set" format="text"><configuration-set>`,
			element: "configuration-set",
		},
		{
			name:    "unknown format",
			format:  "xml",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpc, err := loadRPC(snippet, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadRPC() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.HasPrefix(rpc, tt.prefix) {
				t.Errorf("loadRPC() = %q, want prefix %q", rpc, tt.prefix)
			}
			if strings.Contains(rpc, "a < b") || !strings.Contains(rpc, "a &lt; b &amp; c") {
				t.Errorf("loadRPC() did not escape the snippet: %q", rpc)
			}
			got, err := elementText(rpc, tt.element)
			if err != nil {
				t.Fatalf("elementText() error: %v", err)
			}
			if got != snippet {
				t.Errorf("snippet round trip = %q, want %q", got, snippet)
			}
		})
	}
}

func TestJunosSessionNotConnected(t *testing.T) {
	s := &JunosSession{Host: "r1:830"}
	if err := s.Lock(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Lock() error = %v, want %v", err, ErrNotConnected)
	}
	if _, err := s.Diff(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Diff() error = %v, want %v", err, ErrNotConnected)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
