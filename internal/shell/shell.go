// Package shell provides the interactive host for a command manager. It routes
// input lines through the manager and integrates completion with ishell.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/charmbracelet/log"

	"cmdengine/internal/logger"
	"cmdengine/internal/output"
	"cmdengine/pkg/manager"
)

// Shell built-ins are prefixed with a backslash so they never shadow registered commands.
const (
	builtinHelp = `\help`
	builtinExit = `\exit`
)

// Shell executes lines for one sender.
type Shell struct {
	manager *manager.Manager
	sender  any
	out     io.Writer
	mode    output.Mode
	printer *output.Printer
	style   string
	width   int
	logger  *log.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithOutput sets where results are written. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) { s.out = w }
}

// WithOutputMode sets how results and failures are rendered.
func WithOutputMode(mode output.Mode) Option {
	return func(s *Shell) { s.mode = mode }
}

// WithStyle sets the glamour style for help output.
func WithStyle(style string) Option {
	return func(s *Shell) { s.style = style }
}

// New creates a shell.
func New(m *manager.Manager, sender any, opts ...Option) *Shell {
	s := &Shell{
		manager: m,
		sender:  sender,
		out:     os.Stdout,
		style:   "auto",
		width:   80,
		logger:  logger.NewStyledLogger("Shell"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.printer = output.NewPrinter(output.WithWriter(s.out), output.WithMode(s.mode))
	return s
}

// Process handles one input line and reports whether the shell should keep running.
func (s *Shell) Process(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "%%") {
		return true
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case builtinExit:
		return false
	case builtinHelp:
		root := ""
		if len(fields) > 1 {
			root = fields[1]
		}
		s.help(root)
		return true
	}

	outcome, err := s.manager.Execute(ctx, line, s.sender).Wait(ctx)
	if err != nil {
		s.logger.Error("Command interrupted", "command", line, "error", err)
		s.printer.Error(fmt.Sprintf("Error: %s", err))
		return true
	}
	if outcome.Err != nil {
		s.logger.Debug("Command failed", "command", line, "error", outcome.Err)
		s.printer.Error(s.manager.Format(outcome.Err))
	}
	return true
}

func (s *Shell) help(root string) {
	markdown, err := HelpMarkdown(s.manager, s.sender, root)
	if err != nil {
		s.printer.Error(fmt.Sprintf("Error: %s", err))
		return
	}
	rendered, err := RenderMarkdown(markdown, s.style, s.width)
	if err != nil {
		s.logger.Debug("Falling back to plain help", "error", err)
		rendered = markdown
	}
	s.printer.Println(rendered)
}

// Run starts the interactive loop and blocks until \exit or end of input.
func (s *Shell) Run(ctx context.Context, banner string) {
	sh := ishell.New()
	sh.SetPrompt("cmdengine> ")
	sh.DeleteCmd("exit")
	sh.DeleteCmd("help")
	sh.CustomCompleter(NewCompleter(s.manager, s.sender))

	if banner != "" {
		sh.Println(banner)
	}
	sh.Println(`Type '\help' for commands or '\exit' to quit.`)

	sh.NotFound(func(c *ishell.Context) {
		if !s.Process(ctx, strings.Join(c.RawArgs, " ")) {
			c.Stop()
		}
	})
	sh.Run()
}
