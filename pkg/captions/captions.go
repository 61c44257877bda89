// Package captions turns command failures into user-facing messages through
// overridable templates keyed by failure kind.
package captions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
)

// Template keys beyond the failure kinds, whose keys are cmdtypes.Kind.String().
const (
	KeyDidYouMean         = "did_you_mean"
	KeyUsage              = "usage"
	KeyNumberParseFailure = "argument_parse_failure.number"
	KeyEnumParseFailure   = "argument_parse_failure.enum"
)

var defaults = map[string]string{
	cmdtypes.KindUnknown.String():             "{cause}",
	cmdtypes.NoSuchCommand.String():           "Unknown command '{input}'.",
	cmdtypes.MissingRequiredArgument.String(): "Missing argument. Correct syntax is: {syntax}",
	cmdtypes.ArgumentParseFailure.String():    "Invalid argument '{input}': {cause}",
	cmdtypes.UnknownFlag.String():             "Unknown flag '{input}'.",
	cmdtypes.FlagParseFailure.String():        "Invalid flag usage at '{input}': {cause}",
	cmdtypes.TooManyArguments.String():        "Too many arguments. Correct syntax is: {syntax}",
	cmdtypes.NoPermission.String():            "I'm sorry, but you do not have permission to perform this command.",
	cmdtypes.HandlerException.String():        "An internal error occurred while attempting to perform this command: {cause}",
	cmdtypes.InvalidSyntax.String():           "Invalid command syntax. Correct syntax is: {syntax}",
	cmdtypes.Interrupted.String():             "Command was interrupted: {cause}",
	KeyDidYouMean:                             "Did you mean '{closest}'?",
	KeyUsage:                                  "Usage: {syntax}",
	KeyNumberParseFailure:                     "'{input}' is not a valid number in the range {min} to {max}",
	KeyEnumParseFailure:                       "'{input}' is not one of the following: {values}",
}

// Registry holds message templates. Placeholders are written as {name}.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewRegistry creates a registry holding the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]string, len(defaults))}
	for k, v := range defaults {
		r.templates[k] = v
	}
	return r
}

// Set overrides the template for key.
func (r *Registry) Set(key, template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[key] = template
}

// Template returns the template for key, falling back to the built-in default.
func (r *Registry) Template(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.templates[key]; ok {
		return t
	}
	return defaults[key]
}

// LoadYAML reads a flat mapping of key to template and applies it as overrides.
func (r *Registry) LoadYAML(reader io.Reader) error {
	overrides := make(map[string]string)
	if err := yaml.NewDecoder(reader).Decode(&overrides); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode captions: %w", err)
	}
	for k, v := range overrides {
		r.Set(k, v)
	}
	return nil
}

// LoadFile applies overrides from a YAML file.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open captions file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return r.LoadYAML(f)
}

// Render fills the placeholders of key's template from vars.
func (r *Registry) Render(key string, vars map[string]string) string {
	template := r.Template(key)
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Format renders err for display. Errors that are not command errors render as
// their own message.
func (r *Registry) Format(err error) string {
	if err == nil {
		return ""
	}
	var ce *cmdtypes.CommandError
	if !errors.As(err, &ce) {
		return err.Error()
	}

	vars := map[string]string{
		"input":      ce.Token,
		"index":      strconv.Itoa(ce.Index),
		"path":       strings.Join(ce.Path, " "),
		"syntax":     ce.Syntax,
		"permission": ce.Permission,
		"closest":    ce.Closest,
		"cause":      "",
	}
	if ce.Cause != nil {
		vars["cause"] = ce.Cause.Error()
	}

	key := ce.Kind.String()
	if ce.Kind == cmdtypes.ArgumentParseFailure {
		key = r.causeKey(ce.Cause, vars, key)
	}

	message := r.Render(key, vars)
	if ce.Closest != "" {
		message += " " + r.Render(KeyDidYouMean, vars)
	}
	if ce.Syntax != "" && !strings.Contains(r.Template(key), "{syntax}") && ce.Kind != cmdtypes.NoPermission {
		message += " " + r.Render(KeyUsage, vars)
	}
	return message
}

// causeKey picks a more specific template for well-known parser failures.
func (r *Registry) causeKey(cause error, vars map[string]string, fallback string) string {
	var numErr *arguments.NumberParseError
	if errors.As(cause, &numErr) && numErr.HasRange {
		vars["min"], vars["max"] = numErr.Min, numErr.Max
		return KeyNumberParseFailure
	}
	var enumErr *arguments.EnumParseError
	if errors.As(cause, &enumErr) {
		vars["values"] = strings.Join(enumErr.Values, ", ")
		return KeyEnumParseFailure
	}
	return fallback
}
