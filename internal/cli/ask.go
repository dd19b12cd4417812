// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/render"
	"github.com/jeranaias/langchat/internal/sources"
	"github.com/jeranaias/langchat/internal/widget"
)

// maxStdinQuestion caps a question read from a pipe.
const maxStdinQuestion = 64 * 1024

type askOptions struct {
	JSON bool
}

func newAskCommand(g *globalOptions) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the reply",
		Long: `Ask a single question and print the rendered reply followed by the
numbered source documents. With no arguments the question is read from stdin.`,
		Example: `  langchat ask "How do I load a PDF?"
  echo "What is a retriever?" | langchat ask
  langchat ask --json "What is a retriever?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := questionFromArgs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runAsk(cmd, g, opts, question)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the reply as JSON")
	return cmd
}

// questionFromArgs joins the arguments, or reads stdin when there are none
// and stdin is not a terminal.
func questionFromArgs(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && f == os.Stdin && IsTTY() {
		return "", &CommandError{Command: "ask", Action: "read", Reason: "no question given", Code: ExitUsageError}
	}
	data, err := io.ReadAll(io.LimitReader(stdin, maxStdinQuestion))
	if err != nil {
		return "", &CommandError{Command: "ask", Action: "read", Reason: "cannot read stdin", Err: err}
	}
	question := strings.TrimSpace(string(data))
	if question == "" {
		return "", &CommandError{Command: "ask", Action: "read", Reason: "no question given", Code: ExitUsageError}
	}
	return question, nil
}

func runAsk(cmd *cobra.Command, g *globalOptions, opts *askOptions, question string) error {
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

	c := widget.New(b)
	sendErr := c.Send(cmd.Context(), question)
	out := cmd.OutOrStdout()

	if opts.JSON {
		if sendErr != nil {
			if err := NewJSONErrorResponse("ask", sendErr).Print(out); err != nil {
				return err
			}
			return &CommandError{Command: "ask", Action: "send", Reason: "backend request failed", Err: sendErr, Code: ExitNetworkError}
		}
		reply, _ := c.Transcript().LastAssistantMessage()
		docs := c.Sources()
		if docs == nil {
			docs = []model.SourceDocument{}
		}
		return NewJSONResponse("ask", AskResult{
			Question: question,
			Answer:   reply.Content,
			Sources:  docs,
		}).Print(out)
	}

	renderer := render.NewTerminal(rendererTheme(cfg.UI.Theme), lineWrap(cfg.UI.WordWrap))
	if reply, ok := c.Transcript().LastAssistantMessage(); ok {
		fmt.Fprintln(out, renderer.Content(reply))
	}
	if sendErr != nil {
		return &CommandError{Command: "ask", Action: "send", Reason: "backend request failed", Err: sendErr, Code: ExitNetworkError}
	}

	printSources(out, c.Sources())
	return nil
}

// printSources prints the numbered source list with highlighted URLs.
func printSources(w io.Writer, docs []model.SourceDocument) {
	if len(docs) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderConditional(TitleStyle, "Sources"))
	for i, doc := range docs {
		source := doc.Source
		if ColorsEnabled() {
			source = sources.LinkifyFunc(source, func(url string) string {
				return LinkStyle.Render(url)
			})
		}
		fmt.Fprintf(w, "  %s %s\n", RenderConditional(DimStyle, model.Label(i)), source)
	}
}

// printSourceDetail prints one source the way the modal shows it.
func printSourceDetail(w io.Writer, index int, doc model.SourceDocument) {
	fmt.Fprintln(w, RenderConditional(TitleStyle, model.Label(index)))
	fmt.Fprintln(w, RenderSeparator(40))
	fmt.Fprintln(w, render.SourceDetail(doc))
}
