package netmigo

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/sftp"
)

// sftpPipe serves the local file system to an SFTP client over an in-memory pipe.
func sftpPipe(t *testing.T) *sftp.Client {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	server, err := sftp.NewServer(serverConn)
	if err != nil {
		t.Fatalf("sftp.NewServer() error: %v", err)
	}
	go server.Serve()

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	if err != nil {
		t.Fatalf("sftp.NewClientPipe() error: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client
}

const setFile = "set system host-name R1\nset system services ssh\n"

func TestPutSFTP(t *testing.T) {
	client := sftpPipe(t)
	dir := t.TempDir()
	local := filepath.Join(dir, "ntp.set.config")
	if err := os.WriteFile(local, []byte(setFile), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		local        string
		remote       string
		wantFallback bool
		wantErr      bool
	}{
		{"upload", local, filepath.Join(dir, "remote.set.config"), false, false},
		{"missing remote directory", local, filepath.Join(dir, "missing", "remote.set.config"), true, true},
		{"missing local file", filepath.Join(dir, "missing.config"), filepath.Join(dir, "other.set.config"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback, err := putSFTP(client, tt.local, tt.remote)
			if fallback != tt.wantFallback {
				t.Errorf("putSFTP() fallback = %v, want %v", fallback, tt.wantFallback)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("putSFTP() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := os.ReadFile(tt.remote)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != setFile {
				t.Errorf("remote content = %q, want %q", got, setFile)
			}
		})
	}
}

func TestGetSFTP(t *testing.T) {
	client := sftpPipe(t)
	dir := t.TempDir()
	remote := filepath.Join(dir, "remote.set.config")
	if err := os.WriteFile(remote, []byte(setFile), 0o644); err != nil {
		t.Fatal(err)
	}

	local := filepath.Join(dir, "local.set.config")
	fallback, err := getSFTP(client, remote, local)
	if err != nil || fallback {
		t.Fatalf("getSFTP() = %v, %v", fallback, err)
	}
	got, err := os.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != setFile {
		t.Errorf("local content = %q, want %q", got, setFile)
	}

	fallback, err = getSFTP(client, filepath.Join(dir, "missing.set.config"), local)
	if err == nil || !fallback {
		t.Errorf("getSFTP() for missing file = %v, %v, want fallback with error", fallback, err)
	}
}

type failingCloser struct {
	strings.Builder
}

func (f *failingCloser) Close() error { return errors.New("handle close failed") }

func TestCopyAndCloseReportsCloseError(t *testing.T) {
	dst := &failingCloser{}
	err := copyAndClose(dst, strings.NewReader(setFile))
	if !errors.Is(err, errCloseFile) {
		t.Fatalf("copyAndClose() error = %v, want %v", err, errCloseFile)
	}
	if dst.String() != setFile {
		t.Errorf("copied = %q, want %q", dst.String(), setFile)
	}
}

func TestFileTransferNotConnected(t *testing.T) {
	transfer := NewFileTransfer(nil)
	if err := transfer.Put("a.set.config", "/tmp/a.set.config"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Put() error = %v, want %v", err, ErrNotConnected)
	}
	if err := transfer.Get("/tmp/a.set.config", "a.set.config"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Get() error = %v, want %v", err, ErrNotConnected)
	}
	if err := transfer.Remove("/tmp/a.set.config"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Remove() error = %v, want %v", err, ErrNotConnected)
	}
}
