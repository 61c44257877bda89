// Package cobrabridge mirrors root commands of a command tree into a cobra
// command, so every registered command is also reachable from the CLI.
package cobrabridge

import (
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"cmdengine/internal/logger"
	"cmdengine/pkg/manager"
	"cmdengine/pkg/tree"
)

// ErrUnbound is returned by mirrored commands run before Bind.
var ErrUnbound = errors.New("cobra bridge is not bound to a manager")

// Bridge is a tree.RegistrationHandler adding one cobra subcommand per root literal.
type Bridge struct {
	parent *cobra.Command
	sender any

	mu       sync.Mutex
	manager  *manager.Manager
	mirrored map[string]*cobra.Command
	logger   *log.Logger
}

// New creates a bridge adding subcommands to parent on behalf of sender.
func New(parent *cobra.Command, sender any) *Bridge {
	return &Bridge{
		parent:   parent,
		sender:   sender,
		mirrored: make(map[string]*cobra.Command),
		logger:   logger.NewStyledLogger("CobraBridge"),
	}
}

// Bind sets the manager mirrored commands execute through.
func (b *Bridge) Bind(m *manager.Manager) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.manager = m
}

// RegisterCommand implements tree.RegistrationHandler. It refuses roots that
// collide with a subcommand the bridge does not own.
func (b *Bridge) RegisterCommand(cmd *tree.Command) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	root := cmd.Components()[0]
	name := root.Name()
	if existing, ok := b.mirrored[name]; ok {
		if existing.Short == "" {
			existing.Short = cmd.Description()
		}
		return true
	}
	for _, word := range append([]string{name}, root.Aliases()...) {
		if sub, _, err := b.parent.Find([]string{word}); err == nil && sub != b.parent {
			b.logger.Warn("Root collides with an existing subcommand", "root", name, "subcommand", sub.Name())
			return false
		}
	}

	mirror := &cobra.Command{
		Use:                name + " [arguments]",
		Aliases:            root.Aliases(),
		Short:              cmd.Description(),
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(c *cobra.Command, args []string) error {
			return b.run(c, name, args)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return b.complete(name, args, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
	}
	b.parent.AddCommand(mirror)
	b.mirrored[name] = mirror
	b.logger.Debug("Mirrored root command", "root", name)
	return true
}

// UnregisterRootCommand implements tree.RegistrationHandler.
func (b *Bridge) UnregisterRootCommand(root string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if mirror, ok := b.mirrored[root]; ok {
		b.parent.RemoveCommand(mirror)
		delete(b.mirrored, root)
	}
}

// Mirrored returns the names of mirrored roots.
func (b *Bridge) Mirrored() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.mirrored))
	for name := range b.mirrored {
		names = append(names, name)
	}
	return names
}

// SetSender changes the sender mirrored commands execute as.
func (b *Bridge) SetSender(sender any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = sender
}

func (b *Bridge) bound() (*manager.Manager, any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manager, b.sender
}

func (b *Bridge) run(c *cobra.Command, name string, args []string) error {
	m, sender := b.bound()
	if m == nil {
		return ErrUnbound
	}
	line := strings.Join(append([]string{name}, args...), " ")
	outcome, err := m.Execute(c.Context(), line, sender).Wait(c.Context())
	if err != nil {
		return err
	}
	if outcome.Err != nil {
		return errors.New(m.Format(outcome.Err))
	}
	return nil
}

func (b *Bridge) complete(name string, args []string, toComplete string) []string {
	m, sender := b.bound()
	if m == nil {
		return nil
	}
	words := append(append([]string{name}, args...), toComplete)
	return m.Suggest(strings.Join(words, " "), sender)
}
