// Package report collects per-file outcomes of a run and renders them as JSON.
package report

import (
	"fmt"
	"os"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Status of one processed configuration file.
type Status string

const (
	StatusOK        Status = "ok"
	StatusNoChanges Status = "no-changes"
	StatusFailed    Status = "failed"
)

// Result is the outcome of one configuration file on one device.
type Result struct {
	Host       string
	File       string
	Status     Status
	RemotePath string
	LocalPath  string
	Commands   int
	Err        error
}

// Report accumulates results. It is safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	devices int
	results []Result
}

// New creates an empty report for devices devices.
func New(devices int) *Report {
	return &Report{devices: devices}
}

// Add records a result.
func (r *Report) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of the recorded results.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Count returns the number of results with status s.
func (r *Report) Count(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// JSON renders the report.
func (r *Report) JSON() (string, error) {
	results := r.Results()

	doc := "{}"
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path, value)
	}

	set("devices", r.devices)
	set("results", []any{})
	for i, res := range results {
		prefix := fmt.Sprintf("results.%d.", i)
		set(prefix+"host", res.Host)
		set(prefix+"file", res.File)
		set(prefix+"status", string(res.Status))
		set(prefix+"commands", res.Commands)
		if res.RemotePath != "" {
			set(prefix+"remote_path", res.RemotePath)
		}
		if res.LocalPath != "" {
			set(prefix+"local_path", res.LocalPath)
		}
		if res.Err != nil {
			set(prefix+"error", res.Err.Error())
		}
	}
	set("totals.ok", r.Count(StatusOK))
	set("totals.no_changes", r.Count(StatusNoChanges))
	set("totals.failed", r.Count(StatusFailed))

	if err != nil {
		return "", fmt.Errorf("failed to build report: %w", err)
	}
	return doc, nil
}

// WriteFile writes the JSON report to path.
func (r *Report) WriteFile(path string) error {
	doc, err := r.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Totals are the per-status counts of a rendered report.
type Totals struct {
	OK        int
	NoChanges int
	Failed    int
}

// Summary reads the totals back from a rendered report.
func Summary(doc string) Totals {
	totals := gjson.Get(doc, "totals")
	return Totals{
		OK:        int(totals.Get("ok").Int()),
		NoChanges: int(totals.Get("no_changes").Int()),
		Failed:    int(totals.Get("failed").Int()),
	}
}
