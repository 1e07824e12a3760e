// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omniauto/omniauto/internal/config"
	"github.com/omniauto/omniauto/internal/httpapi"
	"github.com/omniauto/omniauto/internal/issue"
	"github.com/omniauto/omniauto/internal/mcpapi"
	"github.com/omniauto/omniauto/internal/sshapi"
)

// hostKeyFile is the SSH host key created in the config directory when
// server.ssh.host_key_path is unset.
const hostKeyFile = "ssh_host_ed25519"

type (
	// actionServer is the lifecycle shared by the HTTP and SSH surfaces.
	actionServer interface {
		Start(ctx context.Context) error
		Stop() error
		Err() <-chan error
		Addr() string
	}

	serveFlags struct {
		addr  string
		token string
	}
)

func newServeCommand(app *App) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve actions to remote callers",
		Long: `Serve actions to remote callers.

Every surface dispatches through the same adapter and risk policy as exec.
The servers run until interrupted.`,
	}

	serveCmd.AddCommand(
		newServeHTTPCommand(app),
		newServeSSHCommand(app),
		newServeMCPCommand(app),
	)
	return serveCmd
}

func newServeHTTPCommand(app *App) *cobra.Command {
	var flags serveFlags

	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Serve actions as a JSON HTTP API",
		Long: `Serve actions as a JSON HTTP API.

  POST /v1/actions/{capability}/{action}   body: parameter object
  POST /v1/execute                         body: {"capability", "action", "params"}
  GET  /v1/capabilities[/{capability}]
  GET  /v1/platform
  GET  /healthz

With a token configured, /v1 requires "Authorization: Bearer <token>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.config().Server.HTTP
			svc, release, err := app.newService()
			if err != nil {
				return app.reportFailure(err)
			}
			defer release()

			srv := httpapi.New(svc, httpapi.Config{
				Address: firstSet(flags.addr, cfg.Address),
				Token:   firstSet(flags.token, cfg.Token),
				Logger:  app.logger,
			})
			return app.runServer(cmd.Context(), "http", srv)
		},
	}
	httpCmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default server.http.address)")
	httpCmd.Flags().StringVar(&flags.token, "token", "", "bearer token required on /v1 (default server.http.token)")
	return httpCmd
}

func newServeSSHCommand(app *App) *cobra.Command {
	var (
		flags          serveFlags
		authorizedKeys string
	)

	sshCmd := &cobra.Command{
		Use:   "ssh",
		Short: "Serve actions over SSH",
		Long: `Serve actions over SSH.

  ssh -p 2222 host filesystem create_folder name=reports
  ssh -p 2222 host capabilities [capability]
  ssh -p 2222 host platform
  ssh -p 2222 host < requests.jsonl   one JSON request per line

Logins need the configured token as password or a key listed in the
authorized_keys file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.config().Server.SSH
			hostKey, err := hostKeyPath(cfg.HostKeyPath)
			if err != nil {
				return app.reportFailure(err)
			}
			svc, release, err := app.newService()
			if err != nil {
				return app.reportFailure(err)
			}
			defer release()

			srv := sshapi.New(svc, sshapi.Config{
				Address:        firstSet(flags.addr, cfg.Address),
				HostKeyPath:    hostKey,
				AuthorizedKeys: firstSet(authorizedKeys, cfg.AuthorizedKeys),
				Token:          firstSet(flags.token, cfg.Token),
				Logger:         app.logger,
			})
			return app.runServer(cmd.Context(), "ssh", srv)
		},
	}
	sshCmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default server.ssh.address)")
	sshCmd.Flags().StringVar(&flags.token, "token", "", "password accepted for any user (default server.ssh.token)")
	sshCmd.Flags().StringVar(&authorizedKeys, "authorized-keys", "", "authorized_keys file (default server.ssh.authorized_keys)")
	return sshCmd
}

func newServeMCPCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve actions as Model Context Protocol tools over stdio",
		Long: `Serve actions as Model Context Protocol tools over stdio.

Every action becomes a tool named <capability>_<action>. The tools
list_capabilities, describe_capability and execute are also provided.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := app.newService()
			if err != nil {
				return app.reportFailure(err)
			}
			defer release()

			srv := mcpapi.New(svc, Version, app.logger)
			app.logger.Info("mcp server ready", "platform", svc.Platform())
			if err := srv.ServeStdio(cmd.Context(), app.stdin, app.stdout); err != nil && cmd.Context().Err() == nil {
				return app.reportFailure(err)
			}
			return nil
		},
	}
}

// runServer starts srv and blocks until ctx ends or the server fails.
func (a *App) runServer(ctx context.Context, surface string, srv actionServer) error {
	if err := srv.Start(ctx); err != nil {
		return a.reportFailure(issue.NewErrorContext().
			WithOperation("start " + surface + " server").
			WithIssue(issue.ServerStartFailedId).
			WithSuggestion("Pick another address with --addr").
			Wrap(err).
			BuildError())
	}
	fmt.Fprintf(a.stderr, "%s serving %s on %s\n", SuccessStyle.Render("✓"), surface, CmdStyle.Render(srv.Addr()))

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-srv.Err():
		if ok {
			serveErr = err
		}
	}
	if err := srv.Stop(); err != nil && serveErr == nil {
		serveErr = err
	}
	if serveErr != nil {
		return a.reportFailure(serveErr)
	}
	return nil
}

func hostKeyPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, hostKeyFile), nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
