// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/omniauto/omniauto/internal/core/serverbase"
	"github.com/omniauto/omniauto/internal/service"
)

const (
	// maxBodyBytes caps the params body of one request.
	maxBodyBytes = 1 << 20

	readHeaderTimeout = 10 * time.Second
)

type (
	// Config configures a Server.
	Config struct {
		// Address is host:port. Port 0 picks a free port; see Addr.
		Address string
		// Token, when set, must be presented as "Authorization: Bearer <token>"
		// on every route except /healthz.
		Token  string
		Logger *log.Logger
	}

	// Server is the HTTP action surface.
	Server struct {
		*serverbase.Base

		cfg    Config
		svc    *service.Service
		engine *gin.Engine
		logger *log.Logger
	}
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// New builds the server. It does not bind until Start.
func New(svc *service.Service, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("http")

	s := &Server{
		Base:   serverbase.NewBase(serverbase.WithName("http server"), serverbase.WithLogger(logger)),
		cfg:    cfg,
		svc:    svc,
		logger: logger,
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Start binds the configured address and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s.Listen(ctx, s.cfg.Address, srv, func(err error) bool {
		return errors.Is(err, http.ErrServerClosed)
	})
}

// Stop drains open requests and stops the server.
func (s *Server) Stop() error { return s.Shutdown() }
