// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/langchat/internal/config"
	"github.com/jeranaias/langchat/internal/export"
	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/render"
	"github.com/jeranaias/langchat/internal/widget"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	c.line.SetCompleter(completeSlash)
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to file with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		log.Debug().Err(err).Msg("Cannot save chat history")
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// slashCommands are completed on tab.
var slashCommands = []string{"/sources", "/source ", "/export ", "/clear", "/help", "/quit"}

func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// LINE VIEW
// =============================================================================

// lineView prints what the controller renders. The user's own line is
// already on screen, so only assistant messages are echoed.
type lineView struct {
	widget.NopView
	out      io.Writer
	renderer *render.Terminal
}

func (v *lineView) AppendMessage(msg model.Message) {
	if msg.Role != model.RoleAssistant {
		return
	}
	fmt.Fprintf(v.out, "\n%s  %s\n%s\n",
		RenderConditional(AssistantStyle, msg.Role.DisplayName()),
		RenderConditional(DimStyle, msg.FormattedTime()),
		v.renderer.Content(msg))
}

func (v *lineView) ShowSources(docs []model.SourceDocument) {
	printSources(v.out, docs)
}

func (v *lineView) ShowModal(index int, doc model.SourceDocument) {
	fmt.Fprintln(v.out)
	printSourceDetail(v.out, index, doc)
}

// =============================================================================
// SESSION
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	Controller *widget.Controller
	Config     *config.Config
	Out        io.Writer
}

// errQuit ends the REPL.
var errQuit = errors.New("quit")

const chatHelp = `Commands:
  /sources             List the sources of the last reply
  /source N            Show source N
  /export [md|html|json]  Export the conversation
  /clear               Start a new conversation
  /quit                Exit`

func newChatCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive line-based chat",
		Long:  "Interactive line-based chat with input history.\n\n" + chatHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, g)
		},
	}
}

func runChat(cmd *cobra.Command, g *globalOptions) error {
	if err := RequiresTTY("chat"); err != nil {
		return &CommandError{Command: "chat", Action: "start", Reason: "use `langchat ask` for piped input", Err: err, Code: ExitUsageError}
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	closer := setupLogging(cfg, g.LogLevel == "")
	defer closer.Close()

	b, err := newBackend(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	view := &lineView{
		out:      out,
		renderer: render.NewTerminal(rendererTheme(cfg.UI.Theme), lineWrap(cfg.UI.WordWrap)),
	}
	session := &ChatSession{
		Controller: widget.New(b, widget.WithView(view)),
		Config:     cfg,
		Out:        out,
	}

	input := NewChatCLI()
	defer input.Close()

	fmt.Fprintln(out, RenderConditional(TitleStyle, "langchat")+" "+RenderConditional(DimStyle, "("+cfg.Backend.BaseURL+")"))
	fmt.Fprintln(out, RenderConditional(DimStyle, "Type /help for commands, /quit to exit."))

	// Main REPL loop using liner for input history
	for {
		line, err := input.ReadInput(RenderConditional(PromptStyle, "you> "))
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed terminal all end the session
			fmt.Fprintln(out)
			return nil
		}

		if err := session.HandleLine(cmd.Context(), line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderConditional(ErrorStyle, "[Error]"), err)
		}
		if cmd.Context().Err() != nil {
			return nil
		}
	}
}

// =============================================================================
// LINE HANDLING
// =============================================================================

// HandleLine processes one line of REPL input: a slash command or a
// question. Returns errQuit when the session should end.
func (s *ChatSession) HandleLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
		return errQuit
	}
	if strings.HasPrefix(line, "/") {
		return s.handleSlash(line)
	}

	// The failure text is already on screen as an assistant message
	if err := s.Controller.Send(ctx, line); err != nil {
		log.Debug().Err(err).Msg("Chat send failed")
	}
	return nil
}

func (s *ChatSession) handleSlash(line string) error {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return errQuit

	case "/help", "/?":
		fmt.Fprintln(s.Out, chatHelp)

	case "/sources":
		docs := s.Controller.Sources()
		if len(docs) == 0 {
			fmt.Fprintln(s.Out, RenderConditional(DimStyle, "No sources yet."))
			return nil
		}
		printSources(s.Out, docs)

	case "/source":
		if len(args) != 1 {
			return fmt.Errorf("usage: /source N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("source number must be a positive integer: %q", args[0])
		}
		if err := s.Controller.OpenSource(n - 1); err != nil {
			return fmt.Errorf("source %d: %w", n, err)
		}

	case "/export":
		format := ""
		if len(args) > 0 {
			format = args[0]
		}
		path, err := s.export(format)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.Out, "%s %s\n", RenderConditional(SuccessStyle, "Exported to"), path)

	case "/clear":
		if err := s.Controller.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, RenderConditional(DimStyle, "Conversation cleared."))

	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}

// export writes the transcript in format to the configured export directory.
func (s *ChatSession) export(format string) (string, error) {
	opts := export.DefaultOptions()
	if s.Config != nil {
		dir, err := s.Config.ExportDir()
		if err != nil {
			return "", err
		}
		opts.OutputDir = dir
		opts.IncludeTimestamps = s.Config.UI.ShowTimestamps
		opts.CodeStyle = s.Config.Server.CodeStyle
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	return export.ToFile(s.Controller.Transcript(), exporter, opts)
}
