// Package manager ties the command tree, the parser registry, the execution
// coordinator and the caption registry together behind a line-oriented API.
package manager

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"cmdengine/internal/logger"
	"cmdengine/pkg/arguments"
	"cmdengine/pkg/captions"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/execution"
	"cmdengine/pkg/flags"
	"cmdengine/pkg/tree"
)

// Manager is the entry point for hosts: register commands, execute lines and
// complete partial input. All methods are safe for concurrent use.
type Manager struct {
	tree          *tree.Tree
	parsers       *arguments.Registry
	coordinator   execution.Coordinator
	captions      *captions.Registry
	predicate     cmdtypes.PermissionPredicate
	preprocessors []Preprocessor
	logger        *log.Logger
	handler       tree.RegistrationHandler
}

// Option configures a Manager.
type Option func(*Manager)

// WithCoordinator sets the execution coordinator. The default runs handlers synchronously.
func WithCoordinator(c execution.Coordinator) Option {
	return func(m *Manager) { m.coordinator = c }
}

// WithRegistrationHandler sets the native registration hook.
func WithRegistrationHandler(h tree.RegistrationHandler) Option {
	return func(m *Manager) { m.handler = h }
}

// WithPermissionPredicate sets the permission backend. The default grants everything.
func WithPermissionPredicate(p cmdtypes.PermissionPredicate) Option {
	return func(m *Manager) { m.predicate = p }
}

// WithCaptions sets the caption registry used by Format.
func WithCaptions(c *captions.Registry) Option {
	return func(m *Manager) { m.captions = c }
}

// WithParsers replaces the parser registry.
func WithParsers(r *arguments.Registry) Option {
	return func(m *Manager) { m.parsers = r }
}

// WithLogger sets the manager's logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithPreprocessor appends a preprocessor. Preprocessors run in the order added.
func WithPreprocessor(p Preprocessor) Option {
	return func(m *Manager) { m.preprocessors = append(m.preprocessors, p) }
}

// New creates a manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		parsers:     arguments.NewRegistry(),
		coordinator: execution.NewSynchronous(),
		captions:    captions.NewRegistry(),
		predicate:   cmdtypes.AllowAll,
		logger:      logger.NewStyledLogger("Manager"),
		handler:     tree.NullRegistrationHandler{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.tree = tree.New(m.handler)
	return m
}

// Register builds cmd and inserts it into the tree.
func (m *Manager) Register(b tree.Builder) (*tree.Command, error) {
	cmd, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := m.tree.Insert(cmd); err != nil {
		return nil, err
	}
	m.logger.Debug("Registered command", "command", cmd.RootName(), "syntax", cmd.Usage())
	return cmd, nil
}

// MustRegister is like Register but panics on error.
func (m *Manager) MustRegister(b tree.Builder) *tree.Command {
	cmd, err := m.Register(b)
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", b.Name(), err))
	}
	return cmd
}

// Unregister removes the root command named name, or one of its aliases.
func (m *Manager) Unregister(name string) bool {
	return m.tree.Delete(name)
}

// Execute resolves line for sender and hands the result to the coordinator.
// Resolution failures come back as an already failed future.
func (m *Manager) Execute(ctx context.Context, line string, sender any) *execution.Future {
	cc := cmdtypes.NewCommandContext(sender, m.predicate)
	tokens := Tokenize(line)

	if err := m.preprocess(cc, tokens); err != nil {
		m.logger.Debug("Invocation interrupted", "line", line, "error", err)
		return execution.Failed(err)
	}

	resolved, err := m.tree.Resolve(cc, tokens)
	if err != nil {
		m.logger.Debug("Resolution failed", "line", line, "error", err)
		return execution.Failed(err)
	}
	return m.coordinator.Coordinate(ctx, resolved)
}

// Suggest returns completion candidates for the last token of line. A trailing
// space starts a new, empty token. The context handed to preprocessors carries
// CompletionKey.
func (m *Manager) Suggest(line string, sender any) []string {
	cc := cmdtypes.NewCommandContext(sender, m.predicate)
	cmdtypes.Store(cc, CompletionKey, true)
	tokens := TokenizeForCompletion(line)
	if err := m.preprocess(cc, tokens); err != nil {
		return []string{}
	}
	return m.tree.Suggest(cc, tokens)
}

func (m *Manager) preprocess(cc *cmdtypes.CommandContext, tokens []string) error {
	for _, p := range m.preprocessors {
		if err := p(cc, tokens); err != nil {
			return &cmdtypes.CommandError{Kind: cmdtypes.Interrupted, Index: -1, Cause: err}
		}
	}
	return nil
}

// FlagBuilder starts a flag bound to the manager's parser registry.
func (m *Manager) FlagBuilder(name string) flags.Builder {
	return flags.NewBuilder(m.parsers, name)
}

// Parsers returns the parser registry.
func (m *Manager) Parsers() *arguments.Registry {
	return m.parsers
}

// Captions returns the caption registry.
func (m *Manager) Captions() *captions.Registry {
	return m.captions
}

// Tree returns the command tree.
func (m *Manager) Tree() *tree.Tree {
	return m.tree
}

// Commands lists every registered command.
func (m *Manager) Commands() []*tree.Command {
	return m.tree.Commands()
}

// CanUse reports whether sender holds the permission of cmd.
func (m *Manager) CanUse(sender any, cmd *tree.Command) bool {
	return cmdtypes.NewCommandContext(sender, m.predicate).HasPermission(cmd.Permission())
}

// Format renders err through the caption registry.
func (m *Manager) Format(err error) string {
	return m.captions.Format(err)
}
