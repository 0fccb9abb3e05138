package workflow

import (
	"fmt"
	"time"

	"github.com/asadarafat/junoset/setconv"
)

// Source selects how the set commands for a snippet are produced.
type Source string

const (
	// SourceDevice asks the device for the candidate rendered as set commands.
	SourceDevice Source = "device"
	// SourceDiff converts the candidate diff with setconv diff mode.
	SourceDiff Source = "diff"
	// SourceText converts the snippet locally with setconv text mode.
	SourceText Source = "text"
)

// ParseSource validates a source name.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceDevice, SourceDiff, SourceText:
		return Source(s), nil
	default:
		return "", fmt.Errorf("unknown source %q, want one of device, diff, text", s)
	}
}

// Default runner configuration values, matching the layout the tool expects.
const (
	DefaultConfigDir = "configs"
	DefaultOutputDir = "output"
	DefaultRemoteDir = "/tmp"
	DefaultSource    = SourceDevice
	DefaultWorkers   = 1
)

// ConfigDir sets the directory holding one sub-directory of snippets per host.
func ConfigDir(dir string) func(*Runner) {
	return func(r *Runner) {
		r.ConfigDir = dir
	}
}

// OutputDir sets where rendered files are saved, one sub-directory per host.
func OutputDir(dir string) func(*Runner) {
	return func(r *Runner) {
		r.OutputDir = dir
	}
}

// RemoteDir sets the device directory used for staging rendered files (default: /tmp).
func RemoteDir(dir string) func(*Runner) {
	return func(r *Runner) {
		r.RemoteDir = dir
	}
}

// WithSource selects how set commands are produced (default: device).
func WithSource(s Source) func(*Runner) {
	return func(r *Runner) {
		r.Source = s
	}
}

// CommitChanges commits the loaded snippet instead of rolling it back.
func CommitChanges(commit bool) func(*Runner) {
	return func(r *Runner) {
		r.Commit = commit
	}
}

// MaxRetries sets the number of retries for device operations (default: 3).
func MaxRetries(retries int) func(*Runner) {
	return func(r *Runner) {
		r.MaxRetries = retries
	}
}

// BackoffMinDelay sets the first retry delay (default: 1s).
func BackoffMinDelay(d time.Duration) func(*Runner) {
	return func(r *Runner) {
		r.Backoff.MinDelay = d
	}
}

// BackoffMaxDelay caps the retry delay (default: 30s).
func BackoffMaxDelay(d time.Duration) func(*Runner) {
	return func(r *Runner) {
		r.Backoff.MaxDelay = d
	}
}

// Workers sets how many devices are processed at once (default: 1).
func Workers(n int) func(*Runner) {
	return func(r *Runner) {
		if n > 0 {
			r.Workers = n
		}
	}
}

// WithObserver receives converter events for diff and text sources.
func WithObserver(o setconv.Observer) func(*Runner) {
	return func(r *Runner) {
		r.converter = setconv.New(setconv.WithObserver(o))
	}
}
