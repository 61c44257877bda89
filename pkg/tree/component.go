// Package tree implements the command tree: command definitions and their builder,
// registration with ambiguity checks, token resolution and completion.
package tree

import (
	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/flags"
)

// ComponentKind is the variant of a command component.
type ComponentKind int

const (
	// KindRoot marks the virtual root node only.
	KindRoot ComponentKind = iota
	// KindLiteral is a fixed word with optional aliases.
	KindLiteral
	// KindArgument is a variable argument parsed by a parser.
	KindArgument
	// KindFlagGroup is the trailing group of named optional flags.
	KindFlagGroup
)

// String returns the kind name.
func (k ComponentKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindLiteral:
		return "literal"
	case KindArgument:
		return "argument"
	case KindFlagGroup:
		return "flags"
	default:
		return "unknown"
	}
}

// FlagGroupName is the name of every flag group component.
const FlagGroupName = "flags"

// Component is one position of a command's syntax. Components are values; the With
// methods return modified copies.
type Component struct {
	kind         ComponentKind
	name         string
	aliases      []string
	parser       arguments.Parser
	optional     bool
	defaultValue string
	hasDefault   bool
	permission   cmdtypes.Permission
	description  string
	flags        *flags.Group
}

// Literal returns a literal component.
func Literal(name string, aliases ...string) Component {
	return Component{kind: KindLiteral, name: name, aliases: append([]string(nil), aliases...)}
}

// Required returns a required argument component.
func Required(name string, parser arguments.Parser) Component {
	return Component{kind: KindArgument, name: name, parser: parser}
}

// Optional returns an optional argument component without a default.
func Optional(name string, parser arguments.Parser) Component {
	return Component{kind: KindArgument, name: name, parser: parser, optional: true}
}

// OptionalWithDefault returns an optional argument whose default input is parsed
// when the argument is omitted.
func OptionalWithDefault(name string, parser arguments.Parser, defaultInput string) Component {
	return Component{
		kind:         KindArgument,
		name:         name,
		parser:       parser,
		optional:     true,
		defaultValue: defaultInput,
		hasDefault:   true,
	}
}

// FlagGroup returns a flag group component.
func FlagGroup(group *flags.Group) Component {
	return Component{kind: KindFlagGroup, name: FlagGroupName, flags: group, optional: true}
}

// WithPermission returns a copy requiring permission.
func (c Component) WithPermission(permission cmdtypes.Permission) Component {
	c.permission = permission
	return c
}

// WithDescription returns a copy with a description.
func (c Component) WithDescription(description string) Component {
	c.description = description
	return c
}

func (c Component) Kind() ComponentKind             { return c.kind }
func (c Component) Name() string                    { return c.name }
func (c Component) Aliases() []string               { return append([]string(nil), c.aliases...) }
func (c Component) Parser() arguments.Parser        { return c.parser }
func (c Component) IsOptional() bool                { return c.optional }
func (c Component) Permission() cmdtypes.Permission { return c.permission }
func (c Component) Description() string             { return c.description }
func (c Component) Flags() *flags.Group             { return c.flags }

// Default returns the default input of an optional argument.
func (c Component) Default() (string, bool) {
	return c.defaultValue, c.hasDefault
}

// Syntax decomposes the component for usage rendering.
func (c Component) Syntax() []cmdtypes.SyntaxFragment {
	switch c.kind {
	case KindLiteral:
		return []cmdtypes.SyntaxFragment{{Major: c.name, Minor: c.Aliases(), Mode: cmdtypes.ModeLiteral}}
	case KindArgument:
		mode := cmdtypes.ModeRequired
		if c.optional {
			mode = cmdtypes.ModeOptional
		}
		return []cmdtypes.SyntaxFragment{{Major: c.name, Mode: mode}}
	case KindFlagGroup:
		if c.flags == nil {
			return nil
		}
		return c.flags.Syntax()
	default:
		return nil
	}
}

// sameAs reports whether two components may share one tree node.
func (c Component) sameAs(other Component) bool {
	if c.kind != other.kind || c.name != other.name {
		return false
	}
	switch c.kind {
	case KindArgument:
		return c.optional == other.optional &&
			c.hasDefault == other.hasDefault &&
			c.defaultValue == other.defaultValue &&
			arguments.SameParser(c.parser, other.parser)
	case KindFlagGroup:
		return c.flags.SameDefinitions(other.flags)
	default:
		return true
	}
}
