package arguments

import (
	"fmt"
	"strings"
	"time"

	"cmdengine/pkg/cmdtypes"
)

// StringMode selects how many tokens a string argument consumes.
type StringMode int

const (
	// StringSingle consumes exactly one token.
	StringSingle StringMode = iota
	// StringGreedy consumes every remaining token, joined by single spaces.
	StringGreedy
	// StringQuoted consumes one token, or a run of tokens enclosed in matching
	// double or single quotes.
	StringQuoted
)

// StringParseError reports malformed string input.
type StringParseError struct {
	Input  string
	Reason string
}

// Error implements error.
func (e *StringParseError) Error() string {
	return fmt.Sprintf("'%s' is not a valid string: %s", e.Input, e.Reason)
}

// StringParser parses text arguments.
type StringParser struct {
	mode StringMode
}

// NewStringParser returns a string parser in the given mode.
func NewStringParser(mode StringMode) *StringParser {
	return &StringParser{mode: mode}
}

// Mode returns the consumption mode.
func (p *StringParser) Mode() StringMode {
	return p.mode
}

// Parse implements Parser.
func (p *StringParser) Parse(_ *cmdtypes.CommandContext, input *Input) (any, error) {
	first, ok := input.Peek()
	if !ok {
		return nil, ErrNoInput
	}
	switch p.mode {
	case StringGreedy:
		tokens := input.Remaining()
		input.Reset(input.Index() + len(tokens))
		return strings.Join(tokens, " "), nil
	case StringQuoted:
		return p.parseQuoted(input, first)
	default:
		input.Pop()
		return first, nil
	}
}

func (p *StringParser) parseQuoted(input *Input, first string) (any, error) {
	if first == "" || (first[0] != '"' && first[0] != '\'') {
		input.Pop()
		return first, nil
	}
	quote := first[0]
	if len(first) >= 2 && first[len(first)-1] == quote {
		input.Pop()
		return first[1 : len(first)-1], nil
	}
	start := input.Index()
	parts := []string{first[1:]}
	input.Pop()
	for {
		tok, ok := input.Pop()
		if !ok {
			input.Reset(start)
			return nil, &StringParseError{Input: first, Reason: "unterminated quote"}
		}
		if tok != "" && tok[len(tok)-1] == quote {
			parts = append(parts, tok[:len(tok)-1])
			return strings.Join(parts, " "), nil
		}
		parts = append(parts, tok)
	}
}

// Suggestions implements Parser. Free text offers no completions.
func (p *StringParser) Suggestions(*cmdtypes.CommandContext, string) []string {
	return []string{}
}

// BooleanParseError reports a token that is not a recognised boolean.
type BooleanParseError struct {
	Input   string
	Liberal bool
}

// Error implements error.
func (e *BooleanParseError) Error() string {
	if e.Liberal {
		return fmt.Sprintf("invalid boolean value '%s' (use true/false, 1/0, yes/no, on/off)", e.Input)
	}
	return fmt.Sprintf("invalid boolean value '%s' (use true/false)", e.Input)
}

// BooleanParser parses booleans. A liberal parser also accepts 1/0, yes/no and on/off.
type BooleanParser struct {
	liberal bool
}

// NewBooleanParser returns a boolean parser.
func NewBooleanParser(liberal bool) *BooleanParser {
	return &BooleanParser{liberal: liberal}
}

// Parse implements Parser and consumes exactly one token.
func (p *BooleanParser) Parse(_ *cmdtypes.CommandContext, input *Input) (any, error) {
	tok, ok := input.Peek()
	if !ok {
		return nil, ErrNoInput
	}
	switch strings.ToLower(tok) {
	case "true":
		input.Pop()
		return true, nil
	case "false":
		input.Pop()
		return false, nil
	}
	if p.liberal {
		switch strings.ToLower(tok) {
		case "1", "yes", "on":
			input.Pop()
			return true, nil
		case "0", "no", "off":
			input.Pop()
			return false, nil
		}
	}
	return nil, &BooleanParseError{Input: tok, Liberal: p.liberal}
}

// Suggestions implements Parser.
func (p *BooleanParser) Suggestions(_ *cmdtypes.CommandContext, partial string) []string {
	candidates := []string{"true", "false"}
	if p.liberal {
		candidates = append(candidates, "yes", "no", "on", "off")
	}
	return filterPrefix(candidates, partial)
}

// EnumParseError reports a token outside the accepted values.
type EnumParseError struct {
	Input  string
	Values []string
}

// Error implements error.
func (e *EnumParseError) Error() string {
	return fmt.Sprintf("invalid value '%s'. Valid values: %s", e.Input, strings.Join(e.Values, ", "))
}

// EnumParser accepts one of a fixed set of values, case-insensitively, and returns
// the canonical spelling.
type EnumParser struct {
	values []string
	index  map[string]string
}

// NewEnumParser returns a parser accepting values.
func NewEnumParser(values ...string) (*EnumParser, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("enum parser has no valid values defined")
	}
	p := &EnumParser{values: append([]string(nil), values...), index: make(map[string]string, len(values))}
	for _, v := range values {
		key := strings.ToLower(v)
		if _, dup := p.index[key]; dup {
			return nil, fmt.Errorf("enum parser: duplicate value %q", v)
		}
		p.index[key] = v
	}
	return p, nil
}

// Values returns the accepted values in declaration order.
func (p *EnumParser) Values() []string {
	return append([]string(nil), p.values...)
}

// Parse implements Parser and consumes exactly one token.
func (p *EnumParser) Parse(_ *cmdtypes.CommandContext, input *Input) (any, error) {
	tok, ok := input.Peek()
	if !ok {
		return nil, ErrNoInput
	}
	v, ok := p.index[strings.ToLower(tok)]
	if !ok {
		return nil, &EnumParseError{Input: tok, Values: p.Values()}
	}
	input.Pop()
	return v, nil
}

// Suggestions implements Parser.
func (p *EnumParser) Suggestions(_ *cmdtypes.CommandContext, partial string) []string {
	return filterPrefix(p.values, partial)
}

// DurationParseError reports a malformed duration.
type DurationParseError struct {
	Input string
	Cause error
}

// Error implements error.
func (e *DurationParseError) Error() string {
	return fmt.Sprintf("'%s' is not a valid duration", e.Input)
}

// Unwrap returns the underlying time.ParseDuration error.
func (e *DurationParseError) Unwrap() error {
	return e.Cause
}

// DurationParser parses Go duration strings such as "1h30m".
type DurationParser struct{}

// NewDurationParser returns a duration parser.
func NewDurationParser() *DurationParser {
	return &DurationParser{}
}

// Parse implements Parser and consumes exactly one token.
func (p *DurationParser) Parse(_ *cmdtypes.CommandContext, input *Input) (any, error) {
	tok, ok := input.Peek()
	if !ok {
		return nil, ErrNoInput
	}
	d, err := time.ParseDuration(tok)
	if err != nil {
		return nil, &DurationParseError{Input: tok, Cause: err}
	}
	input.Pop()
	return d, nil
}

// Suggestions implements Parser. A partial made only of digits is completed with units.
func (p *DurationParser) Suggestions(_ *cmdtypes.CommandContext, partial string) []string {
	if partial == "" {
		return []string{}
	}
	for _, r := range partial {
		if r < '0' || r > '9' {
			return []string{}
		}
	}
	return []string{partial + "ms", partial + "s", partial + "m", partial + "h"}
}
