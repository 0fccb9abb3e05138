package netmigo

import (
	"fmt"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultReadTimeout bounds ReadUntil when no timeout is configured.
const DefaultReadTimeout = 4 * time.Second

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// cleanOutput strips terminal escape sequences from shell output.
func cleanOutput(output string) string {
	return ansiEscape.ReplaceAllString(output, "")
}

// DeviceConnection represents a device driver with connection and command capabilities.
type DeviceConnection struct {
	Connection  *SSHTransport
	Return      string
	ReadTimeout time.Duration
}

func (d *DeviceConnection) Connect() error {
	if err := d.Connection.Connect(); err != nil {
		log.Errorf("Failed to connect: %v", err)
		return err
	}
	log.Info("Connected successfully")
	return nil
}

func (d *DeviceConnection) ConnectXterm() error {
	if err := d.Connection.ConnectXterm(); err != nil {
		log.Errorf("Failed to connect via Xterm: %v", err)
		return err
	}
	log.Info("Connected via Xterm successfully")
	return nil
}

func (d *DeviceConnection) Disconnect() {
	if d.Connection == nil {
		log.Warn("Disconnect called on a nil connection")
		return
	}
	d.Connection.Disconnect()
	log.Info("Disconnected successfully")
}

func (d *DeviceConnection) SetTimeout(timeout uint8) {
	if d.Connection == nil {
		log.Warn("SetTimeout called on a nil connection")
		return
	}
	d.Connection.SetTimeout(timeout)
	log.Infof("Timeout set to %d seconds", timeout)
}

// FindDevicePrompt reads until pattern (or whatever is available when
// pattern is empty) and returns the first match of regex.
func (d *DeviceConnection) FindDevicePrompt(regex string, pattern string) (string, error) {
	r, err := regexp.Compile(regex)
	if err != nil {
		log.Errorf("Failed to compile regex '%s': %v", regex, err)
		return "", fmt.Errorf("failed to compile regex: %w", err)
	}

	var out string
	if pattern != "" {
		out, err = d.ReadUntil(pattern)
	} else {
		out, err = d.Connection.Read()
	}
	if err != nil {
		log.Errorf("Failed to read prompt: %v", err)
		return "", err
	}

	prompt := r.FindString(cleanOutput(out))
	if prompt == "" {
		log.Errorf("Failed to find prompt, pattern: '%s', output: '%s'", pattern, out)
		return "", fmt.Errorf("failed to find prompt, pattern: %s, output: %s", pattern, out)
	}
	return prompt, nil
}

type readResult struct {
	out string
	err error
}

// ReadUntil accumulates shell output until it matches pattern or the read timeout expires.
func (d *DeviceConnection) ReadUntil(pattern string) (string, error) {
	if d.Connection == nil {
		return "", ErrNotConnected
	}
	r, err := regexp.Compile(pattern)
	if err != nil {
		log.Errorf("Failed to compile regex pattern '%s': %v", pattern, err)
		return "", fmt.Errorf("failed to compile regex: %w", err)
	}

	timeout := d.ReadTimeout
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}

	done := make(chan readResult, 1)
	go func() {
		var result string
		for {
			chunk, err := d.Connection.Read()
			result += cleanOutput(chunk)
			if r.MatchString(result) {
				done <- readResult{out: result}
				return
			}
			if err != nil {
				done <- readResult{out: result, err: fmt.Errorf("failed to read from connection: %w", err)}
				return
			}
		}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			log.Error(res.err)
		}
		return res.out, res.err
	case <-time.After(timeout):
		err := fmt.Errorf("timeout while reading, pattern not found: %s", pattern)
		log.Error(err)
		return "", err
	}
}

func (d *DeviceConnection) SendCommand(cmd string) (string, error) {
	return d.SendCommandPattern(cmd, d.Return)
}

func (d *DeviceConnection) SendCommandPattern(cmd string, expectPattern string) (string, error) {
	if d.Connection == nil {
		log.Error(ErrNotConnected)
		return "", ErrNotConnected
	}
	if _, err := d.Connection.Write(cmd + d.Return); err != nil {
		log.Errorf("Error writing command '%s': %v", cmd, err)
		return "", err
	}
	return d.ReadUntil(expectPattern)
}

func (d *DeviceConnection) SendCommandsSetPattern(cmds []string, expectPattern string) (string, error) {
	var results string
	for _, cmd := range cmds {
		out, err := d.SendCommandPattern(cmd, expectPattern)
		if err != nil {
			log.Errorf("Error sending command '%s': %v", cmd, err)
			return results, err
		}
		results += out
	}
	return results, nil
}
