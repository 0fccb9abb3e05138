package netmigo

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// Default ports per protocol.
const (
	DefaultSSHPort     uint16 = 22
	DefaultNETCONFPort uint16 = 830
)

// DefaultTimeout is the dial timeout in seconds.
const DefaultTimeout uint8 = 6

// SSHTransport represents an SSH connection to a device.
type SSHTransport struct {
	Addr     string
	Username string
	Password string
	Client   *ssh.Client
	Reader   io.Reader
	Writer   io.WriteCloser
	Timeout  uint8

	session *ssh.Session
}

// Supported ciphers for SSH connections.
var ciphers = []string{
	"aes256-ctr", "aes128-ctr", "aes128-cbc", "3des-cbc",
	"aes192-ctr", "aes192-cbc", "aes256-cbc", "aes128-gcm@openssh.com",
}

func NewSSHTransport(hostname, username, password string, port uint16) *SSHTransport {
	return &SSHTransport{
		Addr:     fmt.Sprintf("%s:%d", hostname, port),
		Username: username,
		Password: password,
		Timeout:  DefaultTimeout,
	}
}

func (c *SSHTransport) SetTimeout(timeout uint8) {
	c.Timeout = timeout
}

// ClientConfig builds the SSH client configuration shared by the shell,
// NETCONF and file transfer sessions.
func (c *SSHTransport) ClientConfig() *ssh.ClientConfig {
	sshConfig := &ssh.ClientConfig{
		User:            c.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(c.Password), ssh.KeyboardInteractive(interactiveCallback(c.Password))},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         time.Duration(c.Timeout) * time.Second,
	}
	sshConfig.Ciphers = append(sshConfig.Ciphers, ciphers...)
	return sshConfig
}

// Dial opens the SSH client without starting a shell.
func (c *SSHTransport) Dial() error {
	if c.Client != nil {
		return nil
	}
	conn, err := ssh.Dial("tcp", c.Addr, c.ClientConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to device %s: %w", c.Addr, err)
	}
	c.Client = conn
	return nil
}

// Connect opens an interactive shell on a vt100 pty.
func (c *SSHTransport) Connect() error {
	return c.openShell("vt100", 0, 200)
}

// ConnectXterm opens an interactive shell on a wide xterm pty, which keeps
// the Junos CLI from wrapping long configuration lines.
func (c *SSHTransport) ConnectXterm() error {
	return c.openShell("xterm", 0, 511)
}

func (c *SSHTransport) openShell(term string, height, width int) error {
	if err := c.Dial(); err != nil {
		return err
	}

	session, err := c.Client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to start a new session: %w", err)
	}

	reader, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return fmt.Errorf("failed to attach stdout: %w", err)
	}
	writer, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return fmt.Errorf("failed to attach stdin: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}

	if err := session.RequestPty(term, height, width, modes); err != nil {
		session.Close()
		return fmt.Errorf("failed to request pty: %w", err)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		return fmt.Errorf("failed to invoke shell: %w", err)
	}

	c.session = session
	c.Reader = reader
	c.Writer = writer
	return nil
}

// Disconnect closes the shell, if any, and the SSH connection.
func (c *SSHTransport) Disconnect() {
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	if c.Client == nil {
		return
	}
	if err := c.Client.Close(); err != nil {
		log.Warnf("device close failed: %v", err)
	}
	c.Client = nil
}

// Read reads available shell output.
func (c *SSHTransport) Read() (string, error) {
	if c.Reader == nil {
		return "", ErrNotConnected
	}
	buff := make([]byte, 204800)
	n, err := c.Reader.Read(buff)
	return string(buff[:n]), err
}

// Write sends raw input to the shell.
func (c *SSHTransport) Write(cmd string) (int, error) {
	if c.Writer == nil {
		return 0, ErrNotConnected
	}
	return c.Writer.Write([]byte(cmd))
}

// interactiveCallback answers every keyboard-interactive question with the password.
func interactiveCallback(password string) ssh.KeyboardInteractiveChallenge {
	return func(user, instruction string, questions []string, echos []bool) (answers []string, err error) {
		answers = make([]string, len(questions))
		for n := range questions {
			answers[n] = password
		}
		return answers, nil
	}
}

// InitTransport initializes a transport connection based on the protocol.
// A zero port selects the protocol's default.
func InitTransport(host, username, password, protocol string, port uint16) (*SSHTransport, error) {
	switch protocol {
	case "ssh":
		if port == 0 {
			port = DefaultSSHPort
		}
	case "netconf":
		if port == 0 {
			port = DefaultNETCONFPort
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}
	return NewSSHTransport(host, username, password, port), nil
}
