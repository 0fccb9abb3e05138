// Package workflow stages configuration snippets on Junos devices and
// collects their set command rendering.
//
// For every device in the inventory and every snippet in its config
// directory the runner locks the candidate, loads the snippet, renders set
// commands, stages them on the device, rolls the candidate back (or
// commits it) and finally copies the staged file into the output
// directory.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/asadarafat/junoset/inventory"
	"github.com/asadarafat/junoset/netmigo"
	"github.com/asadarafat/junoset/report"
	"github.com/asadarafat/junoset/setconv"
)

// Session is the candidate configuration workflow of one device.
type Session interface {
	Lock() error
	Load(text, format string) error
	Diff() (string, error)
	SetConfig() (string, error)
	Commit() error
	Rollback() error
	Unlock() error
	DeleteFile(path string) error
	Close() error
}

// Transfer copies files to and from one device.
type Transfer interface {
	Put(localPath, remotePath string) error
	Get(remotePath, localPath string) error
	Close() error
}

// DialFunc opens a session and a transfer to host.
type DialFunc func(ctx context.Context, host string) (Session, Transfer, error)

// JunosDial adapts a netmigo.JunosDialer to a DialFunc.
func JunosDial(d *netmigo.JunosDialer) DialFunc {
	return func(ctx context.Context, host string) (Session, Transfer, error) {
		session, files, err := d.Dial(ctx, host)
		if err != nil {
			return nil, nil, err
		}
		return session, files, nil
	}
}

// Runner processes devices with a shared configuration.
type Runner struct {
	ConfigDir  string
	OutputDir  string
	RemoteDir  string
	Source     Source
	Commit     bool
	MaxRetries int
	Backoff    Backoff
	Workers    int

	dial      DialFunc
	converter *setconv.Converter
}

// New creates a Runner that connects to devices with dial.
func New(dial DialFunc, opts ...func(*Runner)) *Runner {
	r := &Runner{
		ConfigDir:  DefaultConfigDir,
		OutputDir:  DefaultOutputDir,
		RemoteDir:  DefaultRemoteDir,
		Source:     DefaultSource,
		MaxRetries: DefaultMaxRetries,
		Backoff: Backoff{
			MinDelay: DefaultBackoffMinDelay,
			MaxDelay: DefaultBackoffMaxDelay,
			Factor:   DefaultBackoffDelayFactor,
		},
		Workers:   DefaultWorkers,
		dial:      dial,
		converter: setconv.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every device and returns the collected results. The error
// is non-nil only when the run could not start or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, devices []inventory.Device) (*report.Report, error) {
	rep := report.New(len(devices))
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return rep, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs := make(chan inventory.Device)
	var wg sync.WaitGroup
	for i := 0; i < r.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dev := range jobs {
				r.ProcessDevice(ctx, dev, rep)
			}
		}()
	}

feed:
	for _, dev := range devices {
		select {
		case jobs <- dev:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn("Run interrupted")
		return rep, err
	}
	return rep, nil
}

// ProcessDevice handles every snippet of one device.
func (r *Runner) ProcessDevice(ctx context.Context, dev inventory.Device, rep *report.Report) {
	logger := log.WithField("host", dev.Hostname)
	logger.Info("Processing device")

	files, err := inventory.ConfigFiles(r.ConfigDir, dev.Hostname)
	if err != nil {
		logger.Errorf("Failed to list config files: %v", err)
		rep.Add(report.Result{Host: dev.Hostname, Status: report.StatusFailed, Err: err})
		return
	}
	if len(files) == 0 {
		logger.Info("No configuration files found, skipping")
		return
	}

	host := dev.Addr()

	var session Session
	var transfer Transfer
	err = Retry(ctx, dev.Hostname, "connect", r.MaxRetries, r.Backoff, func() error {
		var err error
		session, transfer, err = r.dial(ctx, host)
		return err
	})
	if err != nil {
		logger.Errorf("Cannot connect to %s: %v", host, err)
		for _, f := range files {
			rep.Add(report.Result{Host: dev.Hostname, File: filepath.Base(f), Status: report.StatusFailed, Err: err})
		}
		return
	}
	defer func() {
		logger.Info("Closing connection")
		if err := transfer.Close(); err != nil {
			logger.Warnf("Failed to close file transfer: %v", err)
		}
		if err := session.Close(); err != nil {
			logger.Warnf("Failed to close session: %v", err)
		}
	}()

	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		rep.Add(r.ProcessFile(ctx, dev, session, transfer, f))
	}
}

// ProcessFile loads one snippet, stages its set rendering on the device and
// copies it back into the output directory.
func (r *Runner) ProcessFile(ctx context.Context, dev inventory.Device, session Session, transfer Transfer, configPath string) report.Result {
	name := filepath.Base(configPath)
	setName := inventory.SetFileName(name)
	res := report.Result{Host: dev.Hostname, File: name}
	logger := log.WithFields(log.Fields{"host": dev.Hostname, "file": name})

	fail := func(err error) report.Result {
		logger.Errorf("Error processing config: %v", err)
		res.Status = report.StatusFailed
		res.Err = err
		return res
	}
	retry := func(op string, fn func() error) error {
		return Retry(ctx, dev.Hostname, op, r.MaxRetries, r.Backoff, fn)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fail(fmt.Errorf("failed to read config file: %w", err))
	}
	text := string(data)

	logger.Info("Locking candidate configuration")
	if err := retry("lock", session.Lock); err != nil {
		return fail(err)
	}
	release := func() {
		if err := session.Rollback(); err != nil {
			logger.Warnf("Rollback failed: %v", err)
		}
		if err := session.Unlock(); err != nil {
			logger.Warnf("Unlock failed: %v", err)
		}
	}

	logger.Info("Loading configuration")
	if err := retry("load", func() error { return session.Load(text, netmigo.FormatText) }); err != nil {
		release()
		return fail(err)
	}

	commands, err := r.render(session, text)
	if err != nil {
		release()
		return fail(err)
	}
	res.Commands = countCommands(commands)
	if res.Commands == 0 {
		logger.Infof("No set commands rendered, rolling back")
		release()
		res.Status = report.StatusNoChanges
		res.Err = ErrNoChanges
		return res
	}

	tmp, err := writeTemp(commands)
	if err != nil {
		release()
		return fail(err)
	}
	defer os.Remove(tmp)

	remotePath := path.Join(r.RemoteDir, setName)
	logger.Infof("Saving set commands to %s", remotePath)
	if err := retry("put", func() error { return transfer.Put(tmp, remotePath) }); err != nil {
		release()
		return fail(err)
	}
	res.RemotePath = remotePath

	if r.Commit {
		logger.Info("Committing changes")
		if err := retry("commit", session.Commit); err != nil {
			release()
			return fail(err)
		}
		if err := session.Unlock(); err != nil {
			logger.Warnf("Unlock failed: %v", err)
		}
	} else {
		logger.Info("Rolling back changes")
		release()
	}

	hostDir := filepath.Join(r.OutputDir, dev.Hostname)
	if err := os.MkdirAll(hostDir, 0o755); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}
	localPath := filepath.Join(hostDir, setName)
	logger.Infof("Transferring %s to %s", remotePath, localPath)
	if err := retry("get", func() error { return transfer.Get(remotePath, localPath) }); err != nil {
		return fail(err)
	}
	res.LocalPath = localPath

	if err := session.DeleteFile(remotePath); err != nil {
		logger.Warnf("Could not clean up %s: %v", remotePath, err)
	}

	res.Status = report.StatusOK
	return res
}

func (r *Runner) render(session Session, text string) (string, error) {
	switch r.Source {
	case SourceDiff:
		diff, err := session.Diff()
		if err != nil {
			return "", err
		}
		return r.converter.DiffToSet(diff), nil
	case SourceText:
		return strings.Join(r.converter.TextToSet(text), "\n"), nil
	case SourceDevice, "":
		return session.SetConfig()
	default:
		return "", fmt.Errorf("unknown source %q", r.Source)
	}
}

func countCommands(commands string) int {
	n := 0
	for _, line := range strings.Split(commands, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func writeTemp(commands string) (string, error) {
	f, err := os.CreateTemp("", "junoset-*.set")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if !strings.HasSuffix(commands, "\n") {
		commands += "\n"
	}
	_, err = f.WriteString(commands)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}

// IsNoChanges reports whether err means there was nothing to stage.
func IsNoChanges(err error) bool {
	return errors.Is(err, ErrNoChanges)
}
