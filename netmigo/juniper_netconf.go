package netmigo

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Juniper/go-netconf/netconf"
	log "github.com/sirupsen/logrus"
)

// Configuration formats accepted by JunosSession.Load.
const (
	FormatText = "text"
	FormatSet  = "set"
)

// Junos RPCs used by JunosSession.
const (
	rpcLock     = "<lock-configuration/>"
	rpcUnlock   = "<unlock-configuration/>"
	rpcCommit   = "<commit-configuration/>"
	rpcRollback = `<load-configuration compare="rollback" rollback="0"/>`
	rpcDiff     = `<get-configuration compare="rollback" rollback="0" format="text"/>`
	rpcGetSet   = `<get-configuration database="candidate" format="set"/>`
)

// JunosSession is a NETCONF session to a Junos device exposing the
// candidate configuration workflow: lock, load, inspect, commit or roll back.
type JunosSession struct {
	Host    string
	session *netconf.Session
}

// DialJunosSession opens a NETCONF session over conn's SSH settings.
func DialJunosSession(conn *SSHTransport) (*JunosSession, error) {
	timeout := time.Duration(conn.Timeout) * time.Second
	s, err := netconf.DialSSHTimeout(conn.Addr, conn.ClientConfig(), timeout)
	if err != nil {
		log.Errorf("Failed to open NETCONF session to %s: %v", conn.Addr, err)
		return nil, fmt.Errorf("failed to open NETCONF session: %w", err)
	}
	log.Infof("NETCONF session %d opened to %s", s.SessionID, conn.Addr)
	return &JunosSession{Host: conn.Addr, session: s}, nil
}

func (j *JunosSession) exec(op, rpc string) (*netconf.RPCReply, error) {
	if j.session == nil {
		return nil, ErrNotConnected
	}
	reply, err := j.session.Exec(netconf.RawMethod(rpc))
	if err != nil {
		log.Errorf("NETCONF %s failed on %s: %v", op, j.Host, err)
		return reply, fmt.Errorf("failed to %s configuration: %w", op, err)
	}
	return reply, nil
}

func (j *JunosSession) Lock() error {
	_, err := j.exec("lock", rpcLock)
	return err
}

func (j *JunosSession) Unlock() error {
	_, err := j.exec("unlock", rpcUnlock)
	return err
}

func (j *JunosSession) Commit() error {
	_, err := j.exec("commit", rpcCommit)
	return err
}

// Rollback discards candidate changes by reloading rollback 0.
func (j *JunosSession) Rollback() error {
	_, err := j.exec("rollback", rpcRollback)
	return err
}

// Load merges text into the candidate configuration.
func (j *JunosSession) Load(text, format string) error {
	rpc, err := loadRPC(text, format)
	if err != nil {
		return err
	}
	_, err = j.exec("load", rpc)
	return err
}

// Diff returns the candidate changes in "show | compare" form.
func (j *JunosSession) Diff() (string, error) {
	reply, err := j.exec("diff", rpcDiff)
	if err != nil {
		return "", err
	}
	return elementText(reply.Data, "configuration-output")
}

// SetConfig returns the candidate configuration rendered as set commands.
func (j *JunosSession) SetConfig() (string, error) {
	reply, err := j.exec("render", rpcGetSet)
	if err != nil {
		return "", err
	}
	return elementText(reply.Data, "configuration-set")
}

// DeleteFile removes a file from the device file system.
func (j *JunosSession) DeleteFile(path string) error {
	_, err := j.exec("delete file for", "<file-delete><path>"+escape(path)+"</path></file-delete>")
	return err
}

func (j *JunosSession) Close() error {
	if j.session == nil {
		return nil
	}
	err := j.session.Close()
	j.session = nil
	return err
}

func loadRPC(text, format string) (string, error) {
	switch format {
	case FormatText:
		return `<load-configuration action="merge" format="text"><configuration-text>` +
			escape(text) + `</configuration-text></load-configuration>`, nil
	case FormatSet:
		return `<load-configuration action="set" format="text"><configuration-set>` +
			escape(text) + `</configuration-set></load-configuration>`, nil
	default:
		return "", fmt.Errorf("unsupported load format: %s", format)
	}
}

func escape(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// elementText returns the character data of the first element named name in
// data. A reply without that element yields an empty string.
func elementText(data, name string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	depth := 0
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF && depth == 0 {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse NETCONF reply: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth > 0 || t.Name.Local == name {
				depth++
			}
		case xml.EndElement:
			if depth > 0 {
				depth--
				if depth == 0 {
					return b.String(), nil
				}
			}
		case xml.CharData:
			if depth > 0 {
				b.Write(t)
			}
		}
	}
}

// JunosDialer opens NETCONF sessions and file transfers to Junos devices.
type JunosDialer struct {
	Username    string
	Password    string
	NETCONFPort uint16
	SSHPort     uint16
	Timeout     uint8
}

// Dial connects a NETCONF session and an SSH file transfer to host.
func (d *JunosDialer) Dial(ctx context.Context, host string) (*JunosSession, *FileTransfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	nc, err := InitTransport(host, d.Username, d.Password, "netconf", d.NETCONFPort)
	if err != nil {
		return nil, nil, err
	}
	files, err := InitTransport(host, d.Username, d.Password, "ssh", d.SSHPort)
	if err != nil {
		return nil, nil, err
	}
	if d.Timeout != 0 {
		nc.SetTimeout(d.Timeout)
		files.SetTimeout(d.Timeout)
	}

	session, err := DialJunosSession(nc)
	if err != nil {
		return nil, nil, err
	}
	if err := files.Dial(); err != nil {
		session.Close()
		log.Errorf("Failed to open file transfer connection to %s: %v", host, err)
		return nil, nil, err
	}
	return session, NewFileTransfer(files), nil
}
