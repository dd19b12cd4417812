// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/langchat/internal/backend"
	"github.com/jeranaias/langchat/internal/config"
	"github.com/jeranaias/langchat/internal/server"
)

// shutdownTimeout bounds graceful shutdown of the web host.
const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	Addr  string
	Watch bool
}

func newServeCommand(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page over HTTP",
		Long: `Serve the chat page over HTTP. Each browser session gets its own
conversation. With --watch, edits to the config file apply to new sessions
without a restart.`,
		Example: `  langchat serve
  langchat serve --addr :8080 --protocol queued --base-url https://example.hf.space/gradio_api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the config file when it changes")
	return cmd
}

// watchPath returns the config file to watch, or "" when there is none.
func watchPath(g *globalOptions) string {
	if g.ConfigPath != "" {
		return g.ConfigPath
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func runServe(ctx context.Context, g *globalOptions, opts *serveOptions) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	closer := setupLogging(cfg, false)
	defer closer.Close()

	addr := cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	// Fail fast on a bad backend config rather than on the first request
	if _, err := newBackend(cfg); err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Addr:               addr,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RateBurst:          cfg.Server.RateBurst,
		TrustedProxies:     cfg.Server.TrustedProxies,
		CodeStyle:          cfg.Server.CodeStyle,
		Version:            Version,
		NewBackend: func() (backend.ChatBackend, error) {
			// New sessions follow config reloads
			return newBackend(config.Global())
		},
	})
	if err != nil {
		return &CommandError{Command: "serve", Action: "start", Reason: "cannot create server", Err: err}
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return srv.ListenAndServe()
	})

	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if path := watchPath(g); opts.Watch && path != "" {
		group.Go(func() error {
			return config.Watch(gctx, path, func(next *config.Config) {
				// Flag overrides outlive reloads
				if g.Protocol != "" {
					next.Backend.Protocol = g.Protocol
				}
				if g.BaseURL != "" {
					next.Backend.BaseURL = g.BaseURL
				}
				config.SetGlobal(next)
				log.Info().
					Str("protocol", next.Backend.Protocol).
					Str("base_url", next.Backend.BaseURL).
					Msg("Backend config reloaded; applies to new sessions")
			})
		})
	}

	if err := group.Wait(); err != nil {
		return &CommandError{Command: "serve", Action: "run", Reason: "server stopped", Err: err}
	}
	return nil
}
