package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/flags"
)

// Handler runs a resolved command.
type Handler func(ctx context.Context, cc *cmdtypes.CommandContext) error

// Policy is a per-command scheduling hint for the execution coordinator.
type Policy int

const (
	// PolicyDefault lets the coordinator decide.
	PolicyDefault Policy = iota
	// PolicySynchronous asks for the handler to run on the calling goroutine.
	PolicySynchronous
)

// Build errors.
var (
	ErrNoHandler             = errors.New("command has no handler")
	ErrNoRootLiteral         = errors.New("command must start with a literal")
	ErrRequiredAfterOptional = errors.New("required component follows an optional one")
	ErrFlagGroupNotLast      = errors.New("flag group must be the last component")
	ErrDuplicateArgument     = errors.New("duplicate argument name")
	ErrInvalidComponent      = errors.New("invalid component")
)

// Command is an immutable, fully built command definition.
type Command struct {
	components  []Component
	handler     Handler
	permission  cmdtypes.Permission
	description string
	policy      Policy
}

// Components returns the syntax of the command.
func (c *Command) Components() []Component {
	return append([]Component(nil), c.components...)
}

// Handler returns the command handler.
func (c *Command) Handler() Handler { return c.handler }

// Permission returns the conjunction of every component permission and the
// command's own permission.
func (c *Command) Permission() cmdtypes.Permission { return c.permission }

// Description returns the command description.
func (c *Command) Description() string { return c.description }

// Policy returns the scheduling hint.
func (c *Command) Policy() Policy { return c.policy }

// RootName returns the name of the root literal.
func (c *Command) RootName() string { return c.components[0].name }

// FlagGroup returns the flag group, or nil.
func (c *Command) FlagGroup() *flags.Group {
	last := c.components[len(c.components)-1]
	if last.kind != KindFlagGroup {
		return nil
	}
	return last.flags
}

// Syntax returns the display fragments of every component.
func (c *Command) Syntax() []cmdtypes.SyntaxFragment {
	var result []cmdtypes.SyntaxFragment
	for _, comp := range c.components {
		result = append(result, comp.Syntax()...)
	}
	return result
}

// Usage renders the usage line, e.g. "give <player> [amount] [--force|-f]".
func (c *Command) Usage() string {
	return cmdtypes.RenderUsage(c.Syntax())
}

// attachIndex is the index of the last required component; the command is owned by
// that node and every node after it.
func (c *Command) attachIndex() int {
	idx := 0
	for i, comp := range c.components {
		if comp.kind == KindLiteral || (comp.kind == KindArgument && !comp.optional) {
			idx = i
		}
	}
	return idx
}

// Builder composes a command. It is a value: every method returns a new builder.
type Builder struct {
	components  []Component
	flagList    []*flags.CommandFlag
	permission  cmdtypes.Permission
	description string
	handler     Handler
	policy      Policy
}

// NewBuilder starts a command with root literal name.
func NewBuilder(name string, aliases ...string) Builder {
	return Builder{components: []Component{Literal(name, aliases...)}}
}

// Name returns the root literal name.
func (b Builder) Name() string {
	if len(b.components) == 0 {
		return ""
	}
	return b.components[0].name
}

func (b Builder) clone() Builder {
	b.components = append([]Component(nil), b.components...)
	b.flagList = append([]*flags.CommandFlag(nil), b.flagList...)
	return b
}

// Literal appends a literal.
func (b Builder) Literal(name string, aliases ...string) Builder {
	return b.Then(Literal(name, aliases...))
}

// Required appends a required argument.
func (b Builder) Required(name string, parser arguments.Parser) Builder {
	return b.Then(Required(name, parser))
}

// Optional appends an optional argument.
func (b Builder) Optional(name string, parser arguments.Parser) Builder {
	return b.Then(Optional(name, parser))
}

// OptionalWithDefault appends an optional argument with a default input.
func (b Builder) OptionalWithDefault(name string, parser arguments.Parser, defaultInput string) Builder {
	return b.Then(OptionalWithDefault(name, parser, defaultInput))
}

// Then appends a prepared component.
func (b Builder) Then(c Component) Builder {
	b = b.clone()
	b.components = append(b.components, c)
	return b
}

// Flag adds a flag to the trailing flag group.
func (b Builder) Flag(f ...*flags.CommandFlag) Builder {
	b = b.clone()
	b.flagList = append(b.flagList, f...)
	return b
}

// Permission sets the command's own permission.
func (b Builder) Permission(permission cmdtypes.Permission) Builder {
	b = b.clone()
	b.permission = permission
	return b
}

// Description sets the description.
func (b Builder) Description(description string) Builder {
	b = b.clone()
	b.description = description
	return b
}

// Handler sets the handler.
func (b Builder) Handler(h Handler) Builder {
	b = b.clone()
	b.handler = h
	return b
}

// Synchronous asks coordinators to run the handler on the calling goroutine.
func (b Builder) Synchronous() Builder {
	b = b.clone()
	b.policy = PolicySynchronous
	return b
}

// Build validates the command.
func (b Builder) Build() (*Command, error) {
	if b.handler == nil {
		return nil, ErrNoHandler
	}
	components := append([]Component(nil), b.components...)
	if len(b.flagList) > 0 {
		group, err := flags.NewGroup(b.flagList...)
		if err != nil {
			return nil, err
		}
		components = append(components, FlagGroup(group))
	}
	if err := validateComponents(components); err != nil {
		return nil, err
	}

	perms := make([]cmdtypes.Permission, 0, len(components)+1)
	for _, c := range components {
		perms = append(perms, c.permission)
	}
	perms = append(perms, b.permission)

	return &Command{
		components:  components,
		handler:     b.handler,
		permission:  cmdtypes.And(perms...),
		description: b.description,
		policy:      b.policy,
	}, nil
}

func validateComponents(components []Component) error {
	if len(components) == 0 || components[0].kind != KindLiteral {
		return ErrNoRootLiteral
	}
	names := make(map[string]struct{})
	sawOptional := false
	for i, c := range components {
		switch c.kind {
		case KindLiteral:
			if err := validateWord(c.name); err != nil {
				return err
			}
			for _, a := range c.aliases {
				if err := validateWord(a); err != nil {
					return err
				}
			}
		case KindArgument:
			if c.name == "" || c.parser == nil {
				return fmt.Errorf("%w: argument %q needs a name and a parser", ErrInvalidComponent, c.name)
			}
			if _, dup := names[c.name]; dup {
				return fmt.Errorf("%w: %s", ErrDuplicateArgument, c.name)
			}
			names[c.name] = struct{}{}
			if c.hasDefault {
				if err := checkDefault(c); err != nil {
					return err
				}
			}
		case KindFlagGroup:
			if i != len(components)-1 {
				return ErrFlagGroupNotLast
			}
			if c.flags == nil {
				return fmt.Errorf("%w: empty flag group", ErrInvalidComponent)
			}
			continue
		default:
			return fmt.Errorf("%w: kind %s", ErrInvalidComponent, c.kind)
		}
		if c.optional {
			sawOptional = true
		} else if sawOptional {
			return fmt.Errorf("%w: %s", ErrRequiredAfterOptional, c.name)
		}
	}
	return nil
}

func validateWord(word string) error {
	if word == "" || strings.ContainsAny(word, " \t\n") {
		return fmt.Errorf("%w: literal %q", ErrInvalidComponent, word)
	}
	return nil
}

// checkDefault parses a default input once with an anonymous context so broken
// defaults fail at build time.
func checkDefault(c Component) error {
	cc := cmdtypes.NewCommandContext(nil, nil)
	input := arguments.NewInput(strings.Fields(c.defaultValue))
	if _, err := c.parser.Parse(cc, input); err != nil {
		return fmt.Errorf("%w: default %q for %s: %v", ErrInvalidComponent, c.defaultValue, c.name, err)
	}
	return nil
}
