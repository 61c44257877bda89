package arguments

import (
	"fmt"
	"math"
	"reflect"
	"sync"
	"time"
)

// Option keys understood by the standard parsers.
const (
	OptionMin    = "min"
	OptionMax    = "max"
	OptionGreedy = "greedy"
	OptionQuoted = "quoted"
	OptionValues = "values"
)

// Options configures a parser created through the registry, e.g. {min, max} for
// numeric parsers or {greedy, quoted} for strings.
type Options map[string]any

// Int returns option key as an int64, or fallback.
func (o Options) Int(key string, fallback int64) int64 {
	switch v := o[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return fallback
	}
}

// Float returns option key as a float64, or fallback.
func (o Options) Float(key string, fallback float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// Bool returns option key as a bool, or fallback.
func (o Options) Bool(key string, fallback bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return fallback
}

// Strings returns option key as a string slice.
func (o Options) Strings(key string) []string {
	switch v := o[key].(type) {
	case []string:
		return append([]string(nil), v...)
	default:
		return nil
	}
}

// Factory creates a parser from options.
type Factory func(opts Options) (Parser, error)

// Registry maps semantic types and parser names to parser factories.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Factory
	byName map[string]Factory
}

// NewRegistry creates a registry with the standard parsers pre-registered.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	registerStandard(r)
	return r
}

// NewEmptyRegistry creates a registry without any parser.
func NewEmptyRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Factory),
		byName: make(map[string]Factory),
	}
}

// Register binds factory to t, replacing any previous binding.
func (r *Registry) Register(t reflect.Type, factory Factory) error {
	if t == nil {
		return fmt.Errorf("parser type cannot be nil")
	}
	if factory == nil {
		return fmt.Errorf("parser factory for %s cannot be nil", t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t] = factory
	return nil
}

// RegisterNamed binds factory to name, replacing any previous binding.
func (r *Registry) RegisterNamed(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("parser name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("parser factory %q cannot be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = factory
	return nil
}

// RegisterType binds factory to the type T.
func RegisterType[T any](r *Registry, factory Factory) error {
	return r.Register(reflect.TypeFor[T](), factory)
}

// CreateParser creates a parser for t. It returns false when no factory is bound
// or the factory rejected the options.
func (r *Registry) CreateParser(t reflect.Type, opts Options) (Parser, bool) {
	r.mu.RLock()
	factory, ok := r.byType[t]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	p, err := factory(opts)
	if err != nil {
		return nil, false
	}
	return p, true
}

// CreateNamedParser creates the parser registered under name.
func (r *Registry) CreateNamedParser(name string, opts Options) (Parser, bool) {
	r.mu.RLock()
	factory, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	p, err := factory(opts)
	if err != nil {
		return nil, false
	}
	return p, true
}

// CreateParserFor creates a parser for the type T.
func CreateParserFor[T any](r *Registry, opts Options) (Parser, bool) {
	return r.CreateParser(reflect.TypeFor[T](), opts)
}

// HasType reports whether a factory is bound to t.
func (r *Registry) HasType(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byType[t]
	return ok
}

// Names returns the registered parser names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

func registerStandard(r *Registry) {
	intFactory := func(opts Options) (Parser, error) {
		return NewIntegerParser(
			opts.Int(OptionMin, DefaultIntegerMin),
			opts.Int(OptionMax, DefaultIntegerMax),
		)
	}
	longFactory := func(opts Options) (Parser, error) {
		return NewLongParser(
			opts.Int(OptionMin, DefaultIntegerMin),
			opts.Int(OptionMax, DefaultIntegerMax),
		)
	}
	floatFactory := func(opts Options) (Parser, error) {
		return NewFloatParser(
			opts.Float(OptionMin, -math.MaxFloat64),
			opts.Float(OptionMax, math.MaxFloat64),
		)
	}
	stringFactory := func(opts Options) (Parser, error) {
		mode := StringSingle
		switch {
		case opts.Bool(OptionGreedy, false):
			mode = StringGreedy
		case opts.Bool(OptionQuoted, false):
			mode = StringQuoted
		}
		return NewStringParser(mode), nil
	}
	boolFactory := func(opts Options) (Parser, error) {
		return NewBooleanParser(opts.Bool("liberal", true)), nil
	}
	durationFactory := func(Options) (Parser, error) {
		return NewDurationParser(), nil
	}

	must := func(err error) {
		if err != nil {
			panic(fmt.Sprintf("failed to register standard parser: %v", err))
		}
	}

	must(RegisterType[int](r, intFactory))
	must(RegisterType[int64](r, longFactory))
	must(RegisterType[float64](r, floatFactory))
	must(RegisterType[string](r, stringFactory))
	must(RegisterType[bool](r, boolFactory))
	must(RegisterType[time.Duration](r, durationFactory))

	must(r.RegisterNamed("integer", intFactory))
	must(r.RegisterNamed("positive-integer", func(opts Options) (Parser, error) {
		return NewIntegerParser(1, opts.Int(OptionMax, DefaultIntegerMax))
	}))
	must(r.RegisterNamed("non-negative-integer", func(opts Options) (Parser, error) {
		return NewIntegerParser(0, opts.Int(OptionMax, DefaultIntegerMax))
	}))
	must(r.RegisterNamed("float", floatFactory))
	must(r.RegisterNamed("string", stringFactory))
	must(r.RegisterNamed("greedy-string", func(Options) (Parser, error) {
		return NewStringParser(StringGreedy), nil
	}))
	must(r.RegisterNamed("quoted-string", func(Options) (Parser, error) {
		return NewStringParser(StringQuoted), nil
	}))
	must(r.RegisterNamed("boolean", boolFactory))
	must(r.RegisterNamed("duration", durationFactory))
	must(r.RegisterNamed("enum", func(opts Options) (Parser, error) {
		return NewEnumParser(opts.Strings(OptionValues)...)
	}))
}
