package cmdtypes

import (
	"sync"
)

// FlagContext holds the parsed flags of one invocation. Values are kept per flag
// name in encounter order; single-mode flags keep only their last value.
// Once sealed the context is read-only.
type FlagContext struct {
	mu       sync.RWMutex
	values   map[string][]any
	presence map[string]struct{}
	sealed   bool
}

// NewFlagContext creates an empty flag context.
func NewFlagContext() *FlagContext {
	return &FlagContext{
		values:   make(map[string][]any),
		presence: make(map[string]struct{}),
	}
}

func (f *FlagContext) mustWrite() {
	if f.sealed {
		panic("cmdtypes: write to sealed flag context")
	}
}

// MarkPresent records a valueless flag.
func (f *FlagContext) MarkPresent(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustWrite()
	f.presence[name] = struct{}{}
}

// SetValue stores value as the only value of name (last one wins).
func (f *FlagContext) SetValue(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustWrite()
	f.values[name] = []any{value}
}

// AddValue appends value to the values of name.
func (f *FlagContext) AddValue(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustWrite()
	f.values[name] = append(f.values[name], value)
}

// Seal makes the context immutable. Sealing twice is harmless.
func (f *FlagContext) Seal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sealed = true
}

// Sealed reports whether the context is immutable.
func (f *FlagContext) Sealed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sealed
}

// IsPresent reports whether name was supplied, with or without a value.
func (f *FlagContext) IsPresent(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.presence[name]; ok {
		return true
	}
	return len(f.values[name]) > 0
}

// Count returns how many times name was supplied with a value, or 1 for a present
// valueless flag.
func (f *FlagContext) Count(name string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n := len(f.values[name]); n > 0 {
		return n
	}
	if _, ok := f.presence[name]; ok {
		return 1
	}
	return 0
}

// Value returns the last value of name.
func (f *FlagContext) Value(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	vals := f.values[name]
	if len(vals) == 0 {
		return nil, false
	}
	return vals[len(vals)-1], true
}

// Values returns every value of name in encounter order.
func (f *FlagContext) Values(name string) []any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]any(nil), f.values[name]...)
}

// Names returns the names of every supplied flag.
func (f *FlagContext) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.values)+len(f.presence))
	for name := range f.values {
		names = append(names, name)
	}
	for name := range f.presence {
		if _, dup := f.values[name]; !dup {
			names = append(names, name)
		}
	}
	return names
}

// FlagValue returns the last value of flag name converted to T.
func FlagValue[T any](f *FlagContext, name string) (T, bool) {
	var zero T
	v, ok := f.Value(name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// FlagValues returns all values of flag name that convert to T.
func FlagValues[T any](f *FlagContext, name string) []T {
	raw := f.Values(name)
	result := make([]T, 0, len(raw))
	for _, v := range raw {
		if typed, ok := v.(T); ok {
			result = append(result, typed)
		}
	}
	return result
}
