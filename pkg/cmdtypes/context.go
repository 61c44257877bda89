package cmdtypes

import (
	"sync"
)

// Key is a typed key for collaborator-injected values stored in a CommandContext,
// for example a native platform handle stored by a preprocessor.
type Key[T any] struct {
	name string
}

// NewKey creates a typed key. Keys with the same name address the same slot.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name.
func (k Key[T]) Name() string {
	return k.name
}

// CommandContext is the per-invocation state of one resolution and dispatch.
// It holds the sender, parsed arguments keyed by name, the flag context and
// arbitrary collaborator state. It must not outlive the invocation.
type CommandContext struct {
	mu        sync.RWMutex
	sender    any
	predicate PermissionPredicate
	tokens    []string
	arguments map[string]any
	store     map[string]any
	flags     *FlagContext
}

// NewCommandContext creates a context for sender. A nil predicate grants every permission.
func NewCommandContext(sender any, predicate PermissionPredicate) *CommandContext {
	if predicate == nil {
		predicate = AllowAll
	}
	return &CommandContext{
		sender:    sender,
		predicate: predicate,
		arguments: make(map[string]any),
		store:     make(map[string]any),
		flags:     NewFlagContext(),
	}
}

// Sender returns the invoking sender.
func (c *CommandContext) Sender() any {
	return c.sender
}

// HasPermission evaluates permission against the sender.
func (c *CommandContext) HasPermission(permission Permission) bool {
	return permission.Evaluate(c.sender, c.predicate)
}

// SetTokens records the raw input tokens of the invocation.
func (c *CommandContext) SetTokens(tokens []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = append([]string(nil), tokens...)
}

// Tokens returns a copy of the raw input tokens.
func (c *CommandContext) Tokens() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.tokens...)
}

// SetArgument stores a parsed argument value.
func (c *CommandContext) SetArgument(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arguments[name] = value
}

// Argument returns a parsed argument value.
func (c *CommandContext) Argument(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.arguments[name]
	return v, ok
}

// HasArgument reports whether an argument was parsed or defaulted.
func (c *CommandContext) HasArgument(name string) bool {
	_, ok := c.Argument(name)
	return ok
}

// Arguments returns a copy of all parsed arguments.
func (c *CommandContext) Arguments() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]any, len(c.arguments))
	for k, v := range c.arguments {
		result[k] = v
	}
	return result
}

// Flags returns the flag context of the invocation.
func (c *CommandContext) Flags() *FlagContext {
	return c.flags
}

// Set stores a raw collaborator value.
func (c *CommandContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

// Get returns a raw collaborator value.
func (c *CommandContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.store[key]
	return v, ok
}

// Store saves a typed collaborator value.
func Store[T any](c *CommandContext, key Key[T], value T) {
	c.Set(key.name, value)
}

// Load returns a typed collaborator value.
func Load[T any](c *CommandContext, key Key[T]) (T, bool) {
	var zero T
	v, ok := c.Get(key.name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Arg returns the parsed argument name converted to T.
func Arg[T any](c *CommandContext, name string) (T, bool) {
	var zero T
	v, ok := c.Argument(name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// ArgOr returns the parsed argument name or fallback when absent.
func ArgOr[T any](c *CommandContext, name string, fallback T) T {
	if v, ok := Arg[T](c, name); ok {
		return v
	}
	return fallback
}

// SenderAs returns the sender converted to T.
func SenderAs[T any](c *CommandContext) (T, bool) {
	s, ok := c.sender.(T)
	return s, ok
}
