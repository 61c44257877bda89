package cmdtypes

import (
	"strings"
)

// ArgumentMode tags a syntax fragment.
type ArgumentMode int

const (
	// ModeLiteral is a fixed literal.
	ModeLiteral ArgumentMode = iota
	// ModeRequired is a required variable argument.
	ModeRequired
	// ModeOptional is an optional variable argument or a flag.
	ModeOptional
)

// String returns the mode name.
func (m ArgumentMode) String() string {
	switch m {
	case ModeLiteral:
		return "literal"
	case ModeRequired:
		return "required"
	case ModeOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// SyntaxFragment is a display-only decomposition of one node: the major part is the
// argument or literal name, the minor parts are its aliases.
type SyntaxFragment struct {
	Major string
	Minor []string
	Mode  ArgumentMode
}

// String renders the fragment as it appears in a usage line.
func (f SyntaxFragment) String() string {
	name := f.Major
	if len(f.Minor) > 0 {
		name += "|" + strings.Join(f.Minor, "|")
	}
	switch f.Mode {
	case ModeLiteral:
		return name
	case ModeRequired:
		return "<" + name + ">"
	default:
		return "[" + name + "]"
	}
}

// RenderUsage joins fragments into a usage line, e.g. "give <player> <item> [amount]".
func RenderUsage(fragments []SyntaxFragment) string {
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.String()
	}
	return strings.Join(parts, " ")
}
