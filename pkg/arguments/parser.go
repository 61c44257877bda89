// Package arguments provides the argument parser abstraction, the parser registry and
// the standard parsers for primitive types.
package arguments

import (
	"errors"
	"reflect"
	"strings"

	"cmdengine/pkg/cmdtypes"
)

// ErrNoInput is returned by parsers when no token is left to consume.
var ErrNoInput = errors.New("no input was provided")

// Parser parses one variable argument. Implementations must be stateless and safe
// for concurrent use; all per-invocation state arrives through the context.
type Parser interface {
	// Parse consumes zero or more tokens from input and returns the parsed value.
	// On failure the cursor position is irrelevant; the caller records the start index.
	Parse(cc *cmdtypes.CommandContext, input *Input) (any, error)
	// Suggestions returns completion candidates for the partial token. It must not block.
	Suggestions(cc *cmdtypes.CommandContext, partial string) []string
}

// SuggestionFunc produces completion candidates for a partial token.
type SuggestionFunc func(cc *cmdtypes.CommandContext, partial string) []string

// WithSuggestions returns a parser that parses like p but suggests through fn.
func WithSuggestions(p Parser, fn SuggestionFunc) Parser {
	return &suggestingParser{Parser: p, suggest: fn}
}

type suggestingParser struct {
	Parser
	suggest SuggestionFunc
}

func (s *suggestingParser) Suggestions(cc *cmdtypes.CommandContext, partial string) []string {
	return s.suggest(cc, partial)
}

// SameParser reports whether a and b parse identically: the same value, or two
// values of one type with equal configuration. Parsers carrying functions are
// only the same when they are the same value.
func SameParser(a, b Parser) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() && a == b {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Input is a cursor over the tokens of one invocation.
type Input struct {
	tokens []string
	pos    int
}

// NewInput creates a cursor positioned at the first token.
func NewInput(tokens []string) *Input {
	return &Input{tokens: tokens}
}

// Len returns the number of unconsumed tokens.
func (in *Input) Len() int {
	return len(in.tokens) - in.pos
}

// Empty reports whether every token was consumed.
func (in *Input) Empty() bool {
	return in.Len() == 0
}

// Index returns the absolute index of the next token.
func (in *Input) Index() int {
	return in.pos
}

// Peek returns the next token without consuming it.
func (in *Input) Peek() (string, bool) {
	if in.Empty() {
		return "", false
	}
	return in.tokens[in.pos], true
}

// Pop consumes and returns the next token.
func (in *Input) Pop() (string, bool) {
	tok, ok := in.Peek()
	if ok {
		in.pos++
	}
	return tok, ok
}

// Remaining returns the unconsumed tokens without consuming them.
func (in *Input) Remaining() []string {
	return append([]string(nil), in.tokens[in.pos:]...)
}

// Token returns the token at absolute index i, or "" if out of range.
func (in *Input) Token(i int) string {
	if i < 0 || i >= len(in.tokens) {
		return ""
	}
	return in.tokens[i]
}

// Reset moves the cursor to absolute index i.
func (in *Input) Reset(i int) {
	if i < 0 {
		i = 0
	}
	if i > len(in.tokens) {
		i = len(in.tokens)
	}
	in.pos = i
}

// Limit returns a cursor over the same tokens that ends before the last n tokens.
// The suggestion engine uses it to keep parsers away from the partial token.
func (in *Input) Limit(n int) *Input {
	end := len(in.tokens) - n
	if end < in.pos {
		end = in.pos
	}
	return &Input{tokens: in.tokens[:end], pos: in.pos}
}

// filterPrefix keeps candidates starting with partial, case-insensitively.
func filterPrefix(candidates []string, partial string) []string {
	lower := strings.ToLower(partial)
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			result = append(result, c)
		}
	}
	return result
}
