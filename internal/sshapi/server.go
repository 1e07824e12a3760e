// SPDX-License-Identifier: MPL-2.0

package sshapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"

	"github.com/omniauto/omniauto/internal/core/serverbase"
	"github.com/omniauto/omniauto/internal/service"
)

// ErrNoAuthMethod is returned by Start when neither a token nor an
// authorized_keys file is configured.
var ErrNoAuthMethod = errors.New("ssh server needs a token or an authorized_keys file")

type (
	// Config configures a Server.
	Config struct {
		Address string
		// HostKeyPath is created with a fresh ed25519 key when missing.
		HostKeyPath string
		// AuthorizedKeys is an OpenSSH authorized_keys file. Listed keys may log in.
		AuthorizedKeys string
		// Token is accepted as the password of any user.
		Token  string
		Logger *log.Logger
	}

	// Server is the SSH action surface.
	Server struct {
		*serverbase.Base

		cfg    Config
		svc    *service.Service
		logger *log.Logger
		keys   []gossh.PublicKey
	}
)

// New builds the server. It does not bind until Start.
func New(svc *service.Service, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("ssh")
	return &Server{
		Base:   serverbase.NewBase(serverbase.WithName("ssh server"), serverbase.WithLogger(logger)),
		cfg:    cfg,
		svc:    svc,
		logger: logger,
	}
}

// Start loads the credentials, binds the configured address and serves
// until Stop.
func (s *Server) Start(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.Token) == "" && s.cfg.AuthorizedKeys == "" {
		return ErrNoAuthMethod
	}
	if s.cfg.AuthorizedKeys != "" {
		keys, err := LoadAuthorizedKeys(s.cfg.AuthorizedKeys)
		if err != nil {
			return err
		}
		s.keys = keys
	}

	opts := []ssh.Option{
		wish.WithAddress(s.cfg.Address),
		wish.WithMiddleware(s.commandMiddleware(), s.logMiddleware()),
	}
	if s.cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(s.cfg.HostKeyPath))
	}
	if len(s.keys) > 0 {
		opts = append(opts, wish.WithPublicKeyAuth(s.publicKeyHandler))
	}
	if s.cfg.Token != "" {
		opts = append(opts, wish.WithPasswordAuth(s.passwordHandler))
	}

	srv, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("create ssh server: %w", err)
	}
	return s.Listen(ctx, s.cfg.Address, srv, func(err error) bool {
		return errors.Is(err, ssh.ErrServerClosed)
	})
}

// Stop closes open sessions and stops the server.
func (s *Server) Stop() error { return s.Shutdown() }

// LoadAuthorizedKeys parses an OpenSSH authorized_keys file. Blank lines and
// comments are skipped; a file without any key is an error.
func LoadAuthorizedKeys(path string) ([]gossh.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authorized keys: %w", err)
	}
	var keys []gossh.PublicKey
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n+1, err)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s: no keys found", path)
	}
	return keys, nil
}

func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Token)) == 1 {
		return true
	}
	s.logger.Warn("rejected password login", "user", ctx.User(), "remote", ctx.RemoteAddr())
	return false
}

func (s *Server) publicKeyHandler(ctx ssh.Context, key ssh.PublicKey) bool {
	for _, k := range s.keys {
		if ssh.KeysEqual(k, key) {
			return true
		}
	}
	s.logger.Warn("rejected public key login", "user", ctx.User(), "remote", ctx.RemoteAddr())
	return false
}
