// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/langchat/internal/config"
	"github.com/jeranaias/langchat/internal/logging"
	"github.com/jeranaias/langchat/internal/render"
	"github.com/jeranaias/langchat/internal/ui/chat"
	"github.com/jeranaias/langchat/internal/ui/styles"
	"github.com/jeranaias/langchat/internal/widget"
)

func newTUICommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), g)
		},
	}
}

// tuiLogConfig sends TUI logs to a file so the screen stays clean.
func tuiLogConfig(cfg config.LogConfig) config.LogConfig {
	if cfg.File != "" {
		return cfg
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return cfg
	}
	if err := config.EnsureConfigDir(); err != nil {
		return cfg
	}
	cfg.File = filepath.Join(dir, "langchat.log")
	return cfg
}

func runTUI(ctx context.Context, g *globalOptions) error {
	if err := RequiresTTY("start the terminal UI"); err != nil {
		return &CommandError{Command: "tui", Action: "start", Reason: "use `langchat ask` for piped input", Err: err, Code: ExitUsageError}
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	closer := logging.Setup(tuiLogConfig(cfg.Log), logging.Options{Quiet: true})
	defer closer.Close()

	b, err := newBackend(cfg)
	if err != nil {
		return err
	}

	exportDir, err := cfg.ExportDir()
	if err != nil {
		log.Warn().Err(err).Msg("No export directory; using the working directory")
		exportDir = "."
	}

	view := chat.NewProgramView()
	c := widget.New(b,
		widget.WithView(view),
		widget.WithStateListener(view.StateChanged),
	)

	m := chat.New(chat.Options{
		Controller:     c,
		Theme:          styles.NewTheme(cfg.UI.Theme),
		Renderer:       render.NewTerminal(cfg.UI.Theme, cfg.UI.WordWrap),
		ExportDir:      exportDir,
		ShowTimestamps: cfg.UI.ShowTimestamps,
		Title:          "langchat  " + cfg.Backend.BaseURL,
		Context:        ctx,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	view.Attach(p)

	log.Info().Str("base_url", cfg.Backend.BaseURL).Msg("Terminal UI started")
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return &CommandError{Command: "tui", Action: "run", Reason: "terminal UI failed", Err: err}
	}
	return nil
}
