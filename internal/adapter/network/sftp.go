// SPDX-License-Identifier: MPL-2.0

package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// ErrNoSSHAuth is returned when neither a password nor a key file is given.
var ErrNoSSHAuth = errors.New("no SSH authentication method: give a password or key_file")

type (
	// SFTPTarget identifies a remote host and credentials.
	SFTPTarget struct {
		Host     string
		Port     int
		User     string
		Password string
		KeyFile  string
		// KnownHosts verifies the server key. Empty accepts any key.
		KnownHosts string
		Timeout    time.Duration
	}

	// Uploader copies a local file to a remote path.
	Uploader interface {
		Upload(ctx context.Context, target SFTPTarget, localPath, remotePath string) (int64, error)
	}

	// SFTPUploader uploads over SSH with pkg/sftp.
	SFTPUploader struct{}
)

var _ Uploader = SFTPUploader{}

// Upload dials target, creates parent directories, and copies the file,
// preserving its permission bits.
func (SFTPUploader) Upload(ctx context.Context, target SFTPTarget, localPath, remotePath string) (int64, error) {
	config, err := clientConfig(target)
	if err != nil {
		return 0, err
	}

	addr := net.JoinHostPort(target.Host, strconv.Itoa(target.Port))
	dialer := net.Dialer{Timeout: target.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return 0, fmt.Errorf("SSH handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	stop := context.AfterFunc(ctx, func() { _ = sshClient.Close() })
	defer stop()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return 0, fmt.Errorf("start SFTP session: %w", err)
	}
	defer client.Close()

	local, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("open local file: %w", err)
	}
	defer local.Close()
	info, err := local.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat local file: %w", err)
	}

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := client.MkdirAll(dir); err != nil {
			return 0, fmt.Errorf("create remote directory %s: %w", dir, err)
		}
	}
	remote, err := client.Create(remotePath)
	if err != nil {
		return 0, fmt.Errorf("create remote file: %w", err)
	}
	defer remote.Close()

	n, err := io.Copy(remote, local)
	if err != nil {
		return n, fmt.Errorf("copy to %s: %w", remotePath, err)
	}
	// Permission bits are best effort; some servers refuse chmod.
	_ = client.Chmod(remotePath, info.Mode().Perm())
	return n, nil
}

func clientConfig(target SFTPTarget) (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:    target.User,
		Timeout: target.Timeout,
		//nolint:gosec // explicit opt-out when no known_hosts file is configured
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}
	if target.KnownHosts != "" {
		cb, err := knownhosts.New(target.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
		config.HostKeyCallback = cb
	}

	if target.KeyFile != "" {
		key, err := os.ReadFile(target.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}
	if target.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(target.Password))
	}
	if len(config.Auth) == 0 {
		return nil, ErrNoSSHAuth
	}
	return config, nil
}
