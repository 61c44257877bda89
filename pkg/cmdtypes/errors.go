package cmdtypes

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a command failure.
type Kind int

const (
	// KindUnknown is the zero value and never produced by the engine.
	KindUnknown Kind = iota
	// NoSuchCommand means the first token matched no root literal.
	NoSuchCommand
	// MissingRequiredArgument means input ended before a required node.
	MissingRequiredArgument
	// ArgumentParseFailure wraps a parser failure.
	ArgumentParseFailure
	// UnknownFlag means a flag marker named no registered flag.
	UnknownFlag
	// FlagParseFailure wraps a failure while parsing a flag group.
	FlagParseFailure
	// TooManyArguments means input remained after a command was matched.
	TooManyArguments
	// NoPermission means the sender failed a permission check.
	NoPermission
	// HandlerException wraps an error or panic raised by a handler.
	HandlerException
	// InvalidSyntax means a literal was expected below the root and none matched.
	InvalidSyntax
	// Interrupted means a preprocessor rejected the invocation.
	Interrupted
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	NoSuchCommand:           "no_such_command",
	MissingRequiredArgument: "missing_required_argument",
	ArgumentParseFailure:    "argument_parse_failure",
	UnknownFlag:             "unknown_flag",
	FlagParseFailure:        "flag_parse_failure",
	TooManyArguments:        "too_many_arguments",
	NoPermission:            "no_permission",
	HandlerException:        "handler_exception",
	InvalidSyntax:           "invalid_syntax",
	Interrupted:             "interrupted",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// CommandError is the single error type returned across the resolution and dispatch
// boundary. Inspect it with errors.As.
type CommandError struct {
	Kind Kind
	// Token is the offending token, if any.
	Token string
	// Index is the offending token index, or -1 when input was exhausted.
	Index int
	// Path lists the node names from the root to the node the failure is attached to.
	Path []string
	// Cause is the inner failure for parse and handler failures.
	Cause error
	// Syntax is the usage string of the closest command, when known.
	Syntax string
	// Permission is the denied permission for NoPermission.
	Permission string
	// Closest is the nearest root literal for NoSuchCommand.
	Closest string
}

// Error implements error.
func (e *CommandError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %q", strings.Join(e.Path, " "))
	}
	if e.Token != "" {
		fmt.Fprintf(&b, " (token %d %q)", e.Index, e.Token)
	}
	if e.Permission != "" {
		fmt.Fprintf(&b, " [permission %s]", e.Permission)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the inner cause.
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Is matches another *CommandError of the same kind, so errors.Is(err, &CommandError{Kind: k}) works.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindUnknown if err is not a *CommandError.
func KindOf(err error) Kind {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a *CommandError of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
