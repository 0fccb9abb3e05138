package netmigo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	scp "github.com/bramvdbogaerde/go-scp"
	"github.com/bramvdbogaerde/go-scp/auth"
	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// RemoteFileMode is the permission applied to files copied with SCP.
const RemoteFileMode = "0644"

// FileTransfer moves files between the local host and a device, preferring
// SFTP and falling back to SCP when the SFTP subsystem is unavailable.
type FileTransfer struct {
	Connection *SSHTransport
}

// NewFileTransfer creates a FileTransfer over conn.
func NewFileTransfer(conn *SSHTransport) *FileTransfer {
	return &FileTransfer{Connection: conn}
}

// NewSFTPClient creates a new SFTP client using the existing SSH connection.
func (t *FileTransfer) NewSFTPClient() (*sftp.Client, error) {
	if t.Connection == nil || t.Connection.Client == nil {
		log.Error(ErrNotConnected)
		return nil, ErrNotConnected
	}

	sftpClient, err := sftp.NewClient(t.Connection.Client)
	if err != nil {
		log.Errorf("Failed to create SFTP client: %v", err)
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	return sftpClient, nil
}

// Put uploads localFile to remoteFile.
func (t *FileTransfer) Put(localFile, remoteFile string) error {
	sftpClient, err := t.NewSFTPClient()
	if err != nil {
		log.Infof("Failed to establish SFTP session. Fallback to SCP..")
		return t.PutUsingSCP(localFile, remoteFile)
	}
	defer sftpClient.Close()

	fallback, err := putSFTP(sftpClient, localFile, remoteFile)
	if fallback {
		log.Infof("Fallback to SCP..")
		return t.PutUsingSCP(localFile, remoteFile)
	}
	return err
}

// putSFTP uploads localFile over client. fallback reports a failure SCP
// may recover from.
func putSFTP(client *sftp.Client, localFile, remoteFile string) (fallback bool, err error) {
	localFileReader, err := os.Open(localFile)
	if err != nil {
		log.Errorf("Failed to open local file '%s': %v", localFile, err)
		return false, fmt.Errorf("failed to open local file: %w", err)
	}
	defer localFileReader.Close()

	remoteFileWriter, err := client.Create(remoteFile)
	if err != nil {
		log.Errorf("Failed to create remote file '%s': %v", remoteFile, err)
		return true, err
	}

	if err := copyAndClose(remoteFileWriter, localFileReader); err != nil {
		log.Errorf("Failed to copy file from '%s' to '%s': %v", localFile, remoteFile, err)
		return !errors.Is(err, errCloseFile), err
	}

	log.Infof("File transferred successfully using SFTP from '%s' to '%s'", localFile, remoteFile)
	return false, nil
}

var errCloseFile = errors.New("failed to close file")

// copyAndClose copies src into dst and closes dst. The data is only
// stored once the close succeeds.
func copyAndClose(dst io.WriteCloser, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("%w: %v", errCloseFile, err)
	}
	return nil
}

// Get downloads remoteFile to localFile.
func (t *FileTransfer) Get(remoteFile, localFile string) error {
	sftpClient, err := t.NewSFTPClient()
	if err != nil {
		log.Infof("Failed to establish SFTP session. Fallback to SCP..")
		return t.GetUsingSCP(remoteFile, localFile)
	}
	defer sftpClient.Close()

	fallback, err := getSFTP(sftpClient, remoteFile, localFile)
	if fallback {
		log.Infof("Fallback to SCP..")
		return t.GetUsingSCP(remoteFile, localFile)
	}
	return err
}

// getSFTP downloads remoteFile over client. fallback reports a failure SCP
// may recover from.
func getSFTP(client *sftp.Client, remoteFile, localFile string) (fallback bool, err error) {
	remoteFileReader, err := client.Open(remoteFile)
	if err != nil {
		log.Errorf("Failed to open remote file '%s': %v", remoteFile, err)
		return true, err
	}
	defer remoteFileReader.Close()

	localFileWriter, err := os.Create(localFile)
	if err != nil {
		log.Errorf("Failed to create local file '%s': %v", localFile, err)
		return false, fmt.Errorf("failed to create local file: %w", err)
	}

	if err := copyAndClose(localFileWriter, remoteFileReader); err != nil {
		log.Errorf("Failed to copy file from '%s' to '%s': %v", remoteFile, localFile, err)
		return false, fmt.Errorf("failed to copy file via SFTP: %w", err)
	}

	log.Infof("File retrieved successfully from '%s' to '%s'", remoteFile, localFile)
	return false, nil
}

// Remove deletes remoteFile over SFTP.
func (t *FileTransfer) Remove(remoteFile string) error {
	sftpClient, err := t.NewSFTPClient()
	if err != nil {
		return err
	}
	defer sftpClient.Close()

	if err := sftpClient.Remove(remoteFile); err != nil {
		log.Errorf("Failed to remove remote file '%s': %v", remoteFile, err)
		return fmt.Errorf("failed to remove remote file: %w", err)
	}
	return nil
}

// Close releases the underlying SSH connection.
func (t *FileTransfer) Close() error {
	if t.Connection != nil {
		t.Connection.Disconnect()
	}
	return nil
}

func (t *FileTransfer) scpClient() (scp.Client, error) {
	if t.Connection == nil {
		return scp.Client{}, ErrNotConnected
	}
	sshConfig, err := auth.PasswordKey(t.Connection.Username, t.Connection.Password, ssh.InsecureIgnoreHostKey())
	if err != nil {
		log.Errorf("Failed to create SSH config: %v", err)
		return scp.Client{}, fmt.Errorf("failed to create SSH config: %w", err)
	}

	client := scp.NewClient(t.Connection.Addr, &sshConfig)
	if err := client.Connect(); err != nil {
		log.Errorf("Failed to connect via SCP: %v", err)
		return scp.Client{}, fmt.Errorf("failed to connect via SCP: %w", err)
	}
	return client, nil
}

// GetUsingSCP downloads a file from the remote device using SCP.
func (t *FileTransfer) GetUsingSCP(remoteFile, localFile string) error {
	client, err := t.scpClient()
	if err != nil {
		return err
	}
	defer client.Close()

	localFileWriter, err := os.Create(localFile)
	if err != nil {
		log.Errorf("Failed to create local file '%s': %v", localFile, err)
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer localFileWriter.Close()

	if err := client.CopyFromRemote(context.Background(), localFileWriter, remoteFile); err != nil {
		log.Errorf("Failed to copy file via SCP from '%s' to '%s': %v", remoteFile, localFile, err)
		return fmt.Errorf("failed to copy file via SCP: %w", err)
	}

	log.Infof("File retrieved successfully via SCP from '%s' to '%s'", remoteFile, localFile)
	return nil
}

// PutUsingSCP uploads a file to the remote device using SCP.
func (t *FileTransfer) PutUsingSCP(localFile, remoteFile string) error {
	client, err := t.scpClient()
	if err != nil {
		return err
	}
	defer client.Close()

	localFileReader, err := os.Open(localFile)
	if err != nil {
		log.Errorf("Failed to open local file '%s': %v", localFile, err)
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer localFileReader.Close()

	if err := client.CopyFromFile(context.Background(), *localFileReader, remoteFile, RemoteFileMode); err != nil {
		log.Errorf("Failed to copy file via SCP from '%s' to '%s': %v", localFile, remoteFile, err)
		return fmt.Errorf("failed to copy file via SCP: %w", err)
	}

	log.Infof("File transferred successfully via SCP from '%s' to '%s'", localFile, remoteFile)
	return nil
}
