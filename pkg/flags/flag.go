// Package flags implements named optional arguments: flag definitions, the
// copy-on-write flag builder, flag groups, and flag-mode parsing and completion.
package flags

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
)

// Mode controls how repeated occurrences of a flag are stored.
type Mode int

const (
	// ModeSingle keeps only the last value.
	ModeSingle Mode = iota
	// ModeRepeatable keeps every value in encounter order.
	ModeRepeatable
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeRepeatable {
		return "repeatable"
	}
	return "single"
}

// Build errors.
var (
	ErrAliasTooLong  = errors.New("flag alias must be exactly one character")
	ErrInvalidName   = errors.New("invalid flag name")
	ErrNoParser      = errors.New("no parser for flag type")
	ErrDuplicateFlag = errors.New("duplicate flag in group")
)

// CommandFlag is an immutable flag definition. Two flags are equal when their names are.
type CommandFlag struct {
	name        string
	aliases     []string
	description string
	permission  cmdtypes.Permission
	mode        Mode
	parser      arguments.Parser
}

// Name returns the flag name, used as --name.
func (f *CommandFlag) Name() string { return f.name }

// Aliases returns the single-character aliases, used as -a.
func (f *CommandFlag) Aliases() []string { return append([]string(nil), f.aliases...) }

// Description returns the help text.
func (f *CommandFlag) Description() string { return f.description }

// Permission returns the permission required to use the flag.
func (f *CommandFlag) Permission() cmdtypes.Permission { return f.permission }

// Mode returns the storage mode.
func (f *CommandFlag) Mode() Mode { return f.mode }

// Parser returns the value parser, or nil for a presence flag.
func (f *CommandFlag) Parser() arguments.Parser { return f.parser }

// IsPresence reports whether the flag takes no value.
func (f *CommandFlag) IsPresence() bool { return f.parser == nil }

// Equal reports whether both flags share a name.
func (f *CommandFlag) Equal(other *CommandFlag) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.name == other.name
}

// Syntax renders the flag for usage strings, e.g. "--count|-c".
func (f *CommandFlag) Syntax() cmdtypes.SyntaxFragment {
	minor := make([]string, len(f.aliases))
	for i, a := range f.aliases {
		minor[i] = "-" + a
	}
	return cmdtypes.SyntaxFragment{Major: "--" + f.name, Minor: minor, Mode: cmdtypes.ModeOptional}
}

// Builder builds a CommandFlag. Every With method returns a new builder and leaves
// the receiver untouched, so partially configured builders can be shared.
type Builder struct {
	registry    *arguments.Registry
	name        string
	aliases     []string
	description string
	permission  cmdtypes.Permission
	mode        Mode
	parser      arguments.Parser
	typ         reflect.Type
	parserName  string
	options     arguments.Options
	errs        []error
}

// NewBuilder starts a flag named name whose typed parsers come from registry.
func NewBuilder(registry *arguments.Registry, name string) Builder {
	return Builder{registry: registry, name: name}
}

func (b Builder) clone() Builder {
	b.aliases = append([]string(nil), b.aliases...)
	b.errs = append([]error(nil), b.errs...)
	if b.options != nil {
		opts := make(arguments.Options, len(b.options))
		for k, v := range b.options {
			opts[k] = v
		}
		b.options = opts
	}
	return b
}

// WithAliases adds single-character aliases. Empty strings are skipped; longer
// aliases make Build fail.
func (b Builder) WithAliases(aliases ...string) Builder {
	b = b.clone()
	for _, a := range aliases {
		if a == "" {
			continue
		}
		if utf8.RuneCountInString(a) != 1 {
			b.errs = append(b.errs, fmt.Errorf("%w: %q", ErrAliasTooLong, a))
			continue
		}
		b.aliases = append(b.aliases, a)
	}
	return b
}

// WithDescription sets the help text.
func (b Builder) WithDescription(description string) Builder {
	b = b.clone()
	b.description = description
	return b
}

// WithPermission sets the flag permission.
func (b Builder) WithPermission(permission cmdtypes.Permission) Builder {
	b = b.clone()
	b.permission = permission
	return b
}

// WithParser uses p for the flag value, bypassing the registry.
func (b Builder) WithParser(p arguments.Parser) Builder {
	b = b.clone()
	b.parser = p
	return b
}

// WithType declares the value type. bool declares a presence flag.
func (b Builder) WithType(t reflect.Type) Builder {
	b = b.clone()
	b.typ = t
	return b
}

// WithArgumentType declares the value type T.
func WithArgumentType[T any](b Builder) Builder {
	return b.WithType(reflect.TypeFor[T]())
}

// WithParserName pins a named registry parser, overriding the declared type.
func (b Builder) WithParserName(name string) Builder {
	b = b.clone()
	b.parserName = name
	return b
}

// WithOptions passes options to the registry factory.
func (b Builder) WithOptions(opts arguments.Options) Builder {
	b = b.clone()
	b.options = make(arguments.Options, len(opts))
	for k, v := range opts {
		b.options[k] = v
	}
	return b
}

// AsRepeatable keeps every occurrence of the flag.
func (b Builder) AsRepeatable() Builder {
	b = b.clone()
	b.mode = ModeRepeatable
	return b
}

// Build validates the configuration and resolves the value parser.
func (b Builder) Build() (*CommandFlag, error) {
	if err := validateName(b.name); err != nil {
		return nil, err
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("flag %s: %w", b.name, errors.Join(b.errs...))
	}
	parser, err := b.resolveParser()
	if err != nil {
		return nil, fmt.Errorf("flag %s: %w", b.name, err)
	}
	return &CommandFlag{
		name:        b.name,
		aliases:     append([]string(nil), b.aliases...),
		description: b.description,
		permission:  b.permission,
		mode:        b.mode,
		parser:      parser,
	}, nil
}

func (b Builder) resolveParser() (arguments.Parser, error) {
	if b.parser != nil {
		return b.parser, nil
	}
	if b.parserName != "" {
		if b.registry == nil {
			return nil, fmt.Errorf("%w: no registry for %q", ErrNoParser, b.parserName)
		}
		p, ok := b.registry.CreateNamedParser(b.parserName, b.options)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoParser, b.parserName)
		}
		return p, nil
	}
	t := b.typ
	if t == nil {
		return nil, nil
	}
	if b.mode == ModeRepeatable && t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Kind() == reflect.Bool {
		return nil, nil
	}
	if b.registry == nil {
		return nil, fmt.Errorf("%w: no registry for %s", ErrNoParser, t)
	}
	p, ok := b.registry.CreateParser(t, b.options)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoParser, t)
	}
	return p, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.HasPrefix(name, "-") || strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Group is an ordered set of flags attached to one tree node.
type Group struct {
	flags   []*CommandFlag
	byName  map[string]*CommandFlag
	byAlias map[string]*CommandFlag
}

// NewGroup creates a group. Names and aliases must be unique within the group.
func NewGroup(flags ...*CommandFlag) (*Group, error) {
	g := &Group{
		byName:  make(map[string]*CommandFlag, len(flags)),
		byAlias: make(map[string]*CommandFlag),
	}
	for _, f := range flags {
		if f == nil {
			continue
		}
		if _, dup := g.byName[f.name]; dup {
			return nil, fmt.Errorf("%w: --%s", ErrDuplicateFlag, f.name)
		}
		for _, a := range f.aliases {
			if _, dup := g.byAlias[a]; dup {
				return nil, fmt.Errorf("%w: -%s", ErrDuplicateFlag, a)
			}
		}
		g.byName[f.name] = f
		for _, a := range f.aliases {
			g.byAlias[a] = f
		}
		g.flags = append(g.flags, f)
	}
	return g, nil
}

// Flags returns the flags in declaration order.
func (g *Group) Flags() []*CommandFlag {
	return append([]*CommandFlag(nil), g.flags...)
}

// Len returns the number of flags.
func (g *Group) Len() int { return len(g.flags) }

// Lookup finds a flag by name.
func (g *Group) Lookup(name string) (*CommandFlag, bool) {
	f, ok := g.byName[name]
	return f, ok
}

// LookupAlias finds a flag by alias.
func (g *Group) LookupAlias(alias string) (*CommandFlag, bool) {
	f, ok := g.byAlias[alias]
	return f, ok
}

// Syntax renders every flag as an optional fragment.
func (g *Group) Syntax() []cmdtypes.SyntaxFragment {
	result := make([]cmdtypes.SyntaxFragment, len(g.flags))
	for i, f := range g.flags {
		result[i] = f.Syntax()
	}
	return result
}

// SameDefinition reports whether both flags would parse and gate identically:
// same name, aliases, mode, permission and parser.
func (f *CommandFlag) SameDefinition(other *CommandFlag) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Equal(other) &&
		slices.Equal(f.aliases, other.aliases) &&
		f.mode == other.mode &&
		f.permission.Equal(other.permission) &&
		arguments.SameParser(f.parser, other.parser)
}

// SameDefinitions reports whether both groups hold the same flag definitions in
// the same order. Equal only compares names.
func (g *Group) SameDefinitions(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	return slices.EqualFunc(g.flags, other.flags, (*CommandFlag).SameDefinition)
}

// Equal reports whether both groups hold equal flags in the same order.
func (g *Group) Equal(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.flags) != len(other.flags) {
		return false
	}
	for i := range g.flags {
		if !g.flags[i].Equal(other.flags[i]) {
			return false
		}
	}
	return true
}
