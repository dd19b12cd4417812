// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/langchat/internal/backend"
	"github.com/jeranaias/langchat/internal/config"
	"github.com/jeranaias/langchat/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	ConfigPath string
	Protocol   string
	BaseURL    string
	LogLevel   string
}

// loadConfig loads the config file named by --config (or the default
// locations) and applies flag overrides on top. Flags win over env vars,
// which win over the file.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.ConfigPath != "" {
		cfg, err = config.LoadFromPath(g.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &CommandError{Command: "config", Action: "load", Reason: "cannot read configuration", Err: err, Code: ExitConfigError}
	}

	if g.Protocol != "" {
		cfg.Backend.Protocol = g.Protocol
	}
	if g.BaseURL != "" {
		cfg.Backend.BaseURL = g.BaseURL
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, &CommandError{Command: "config", Action: "validate", Reason: "invalid flag value", Err: err, Code: ExitUsageError}
	}

	config.SetGlobal(cfg)
	return cfg, nil
}

// setupLogging configures zerolog for a command. Quiet keeps the console
// clear for hosts that own the terminal.
func setupLogging(cfg *config.Config, quiet bool) io.Closer {
	return logging.Setup(cfg.Log, logging.Options{Quiet: quiet})
}

// =============================================================================
// BACKEND WIRING
// =============================================================================

// backendOptions converts the backend config section.
func backendOptions(cfg config.BackendConfig) (backend.Options, error) {
	protocol, err := backend.ParseProtocol(cfg.Protocol)
	if err != nil {
		return backend.Options{}, err
	}
	return backend.Options{
		Protocol:           protocol,
		BaseURL:            cfg.BaseURL,
		ChatPath:           cfg.ChatPath,
		SubmitPath:         cfg.SubmitPath,
		ResultPath:         cfg.ResultPath,
		SourcesPlaceholder: cfg.SourcesPlaceholder,
		Timeout:            cfg.Timeout(),
		MaxRetries:         cfg.MaxRetries,
	}, nil
}

// newBackend builds the configured backend.
func newBackend(cfg *config.Config) (backend.ChatBackend, error) {
	opts, err := backendOptions(cfg.Backend)
	if err != nil {
		return nil, &CommandError{Command: "backend", Action: "configure", Reason: "bad protocol", Err: err, Code: ExitConfigError}
	}
	b, err := backend.New(opts)
	if err != nil {
		return nil, &CommandError{Command: "backend", Action: "configure", Reason: "cannot create backend", Err: err, Code: ExitConfigError}
	}
	log.Debug().
		Str("protocol", string(opts.Protocol)).
		Str("base_url", opts.BaseURL).
		Msg("Backend configured")
	return b, nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// =============================================================================
// COMMAND TREE
// =============================================================================

// NewRootCommand builds the langchat command tree. With no subcommand the
// terminal UI starts.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "langchat",
		Short: "Chat with a document question-answering backend",
		Long: `langchat is a chat client for document question-answering backends.

It sends each question to a REST or queued (submit + event stream) backend,
renders the markdown reply and lists the cited source documents.

Hosts:
  langchat              Terminal UI (default)
  langchat serve        Web page
  langchat chat         Line-based REPL
  langchat ask "..."    Single question`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), g)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "config file (default ~/.langchat/config.toml)")
	flags.StringVar(&g.Protocol, "protocol", "", "backend protocol: rest or queued")
	flags.StringVar(&g.BaseURL, "base-url", "", "backend base URL")
	flags.StringVar(&g.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.SetVersionTemplate(fmt.Sprintf("langchat {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	root.AddCommand(
		newTUICommand(g),
		newServeCommand(g),
		newAskCommand(g),
		newChatCommand(g),
		newConfigCommand(g),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		DisplayError(err)
		return ExitCode(err)
	}
	return ExitSuccess
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "langchat %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildDate)
		},
	}
}
