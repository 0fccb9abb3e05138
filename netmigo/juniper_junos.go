package netmigo

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// CLI prompt modes understood by JUNOSDeviceConnection.SendCommand.
const (
	ModeRunning   = "running"
	ModeCandidate = "candidate"
)

// EnableNETCONFCommand turns on NETCONF over SSH on a Junos device.
const EnableNETCONFCommand = "set system services netconf ssh"

// JUNOSDeviceConnection drives the interactive Junos CLI.
type JUNOSDeviceConnection struct {
	DeviceConnection
	DeviceType string
	Prompt     string

	// lines carries shell output for the life of the shell. stale is set
	// when a command timed out before its output was consumed.
	lines chan string
	stop  chan struct{}
	stale bool
}

func NewJUNOSDeviceConnection(connection *SSHTransport, deviceType string) *JUNOSDeviceConnection {
	return &JUNOSDeviceConnection{
		DeviceConnection: DeviceConnection{
			Connection: connection,
			Return:     "\n",
		},
		DeviceType: deviceType,
	}
}

// InitJUNOSDevice initializes a new JUNOS CLI connection over SSH.
func InitJUNOSDevice(host, username, password string, port uint16) (*JUNOSDeviceConnection, error) {
	connection, err := InitTransport(host, username, password, "ssh", port)
	if err != nil {
		return nil, err
	}
	return NewJUNOSDeviceConnection(connection, "juniper_junos"), nil
}

func (junos *JUNOSDeviceConnection) Connect() error {
	if err := junos.DeviceConnection.ConnectXterm(); err != nil {
		return err
	}

	// Matches prompts like "admin@vmx-ne1>".
	const promptPattern = `[\w\-\.@]+>`
	const expectedPromptSuffix = ">"

	prompt, err := junos.FindDevicePrompt(promptPattern, expectedPromptSuffix)
	if err != nil {
		return err
	}
	junos.Prompt = prompt

	log.Infof("junos.Prompt is: %s", prompt)
	return nil
}

// SendCommand runs command in operational ("running") mode, or inside a
// configure/commit pair in "candidate" mode, and returns the trimmed output.
func (junos *JUNOSDeviceConnection) SendCommand(command string, cliPromptMode string, timeout time.Duration) (string, error) {
	if junos.Connection == nil || junos.Connection.Writer == nil {
		return "", ErrNotConnected
	}

	var input []string
	var endMarker func(string) bool
	var wantMarkers, skipHead, skipTail int

	switch cliPromptMode {
	case ModeRunning:
		input = []string{command + " | no-more", ""}
		prompt := junos.Prompt
		endMarker = func(line string) bool { return strings.Contains(line, prompt) }
		wantMarkers, skipHead, skipTail = 1, 1, 1
	case ModeCandidate:
		input = []string{"configure", command, "commit and-quit"}
		endMarker = func(line string) bool {
			return strings.Contains(line, "[edit]") || strings.Contains(line, "commit complete")
		}
		wantMarkers, skipHead, skipTail = 3, 2, 1
	default:
		log.Infof("Unsupported cliPromptMode: %s", cliPromptMode)
		return "", fmt.Errorf("unsupported cli prompt mode: %s", cliPromptMode)
	}

	lines := junos.shellLines()
	if junos.stale {
		drain(lines)
		junos.stale = false
	}

	log.Infof("Sending command: %s", command)
	for _, in := range input {
		if _, err := fmt.Fprintf(junos.Connection.Writer, "%s\n", in); err != nil {
			log.Errorf("Error writing to stdin: %v", err)
			return "", err
		}
	}

	var outputBuffer bytes.Buffer
	deadline := time.After(timeout)
	seen := 0
read:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				log.Info("Shell closed before the end marker")
				break read
			}
			outputBuffer.WriteString(line + "\n")
			log.Debugf("Received line: %s", line)
			if endMarker(line) {
				seen++
				if seen == wantMarkers {
					log.Infof("Detected end marker %d time(s)", seen)
					break read
				}
			}
		case <-deadline:
			junos.stale = true
			log.Info("Timeout waiting for reading to complete")
			return "", fmt.Errorf("timeout waiting for output of %q", command)
		}
	}

	output := outputBuffer.String()
	log.Debug(output)
	return trimLines(output, skipHead, skipTail), nil
}

// shellLines starts the line reader of the current shell on first use.
// A single reader per shell keeps bytes buffered after one command
// available to the next.
func (junos *JUNOSDeviceConnection) shellLines() <-chan string {
	if junos.lines != nil {
		return junos.lines
	}
	lines := make(chan string, 256)
	stop := make(chan struct{})
	scanner := bufio.NewScanner(junos.Connection.Reader)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- cleanOutput(scanner.Text()):
			case <-stop:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Errorf("Error reading stdout: %v", err)
		}
	}()
	junos.lines, junos.stop = lines, stop
	return lines
}

// drain drops lines already queued by the reader.
func drain(lines <-chan string) {
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Disconnect stops the line reader and closes the connection.
func (junos *JUNOSDeviceConnection) Disconnect() {
	if junos.stop != nil {
		close(junos.stop)
		junos.lines, junos.stop, junos.stale = nil, nil, false
	}
	junos.DeviceConnection.Disconnect()
}

// EnableNETCONF commits the NETCONF over SSH service on the device.
func (junos *JUNOSDeviceConnection) EnableNETCONF(timeout time.Duration) (string, error) {
	out, err := junos.SendCommand(EnableNETCONFCommand, ModeCandidate, timeout)
	if err != nil {
		log.Errorf("Failed to enable NETCONF: %v", err)
		return out, fmt.Errorf("failed to enable NETCONF: %w", err)
	}
	if strings.Contains(out, "error:") {
		return out, fmt.Errorf("failed to enable NETCONF: %s", strings.TrimSpace(out))
	}
	return out, nil
}

// trimLines drops head leading and tail trailing lines, ignoring the empty
// element produced by a final newline.
func trimLines(output string, head, tail int) string {
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	if head+tail >= len(lines) {
		return ""
	}
	return strings.Join(lines[head:len(lines)-tail], "\n")
}
