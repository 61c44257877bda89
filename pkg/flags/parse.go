package flags

import (
	"errors"
	"fmt"
	"strings"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
)

// Parse errors carried as the Cause of a FlagParseFailure.
var (
	ErrNoFlagStarted = errors.New("expected a flag")
	ErrMissingValue  = errors.New("flag requires a value")
	ErrNotCombinable = errors.New("flag takes a value and cannot be combined")
)

// IsMarker reports whether token opens a flag: --name or -a (or combined -abc).
func IsMarker(token string) bool {
	if strings.HasPrefix(token, "--") {
		return len(token) > 2
	}
	return len(token) > 1 && token[0] == '-'
}

// Parse consumes every remaining token of input as flags of group and records the
// results in the flag context of cc. Failures are *cmdtypes.CommandError values
// without a path; callers attach the node path.
func Parse(cc *cmdtypes.CommandContext, input *arguments.Input, group *Group) error {
	fc := cc.Flags()
	for !input.Empty() {
		index := input.Index()
		token, _ := input.Peek()

		matched, err := match(token, index, group)
		if err != nil {
			return err
		}
		for _, f := range matched {
			if !cc.HasPermission(f.permission) {
				return &cmdtypes.CommandError{
					Kind:       cmdtypes.NoPermission,
					Token:      token,
					Index:      index,
					Permission: f.permission.String(),
				}
			}
		}
		input.Pop()

		if len(matched) > 1 || matched[0].IsPresence() {
			for _, f := range matched {
				recordPresence(fc, f)
			}
			continue
		}

		f := matched[0]
		if input.Empty() {
			return &cmdtypes.CommandError{
				Kind:  cmdtypes.FlagParseFailure,
				Token: token,
				Index: index,
				Cause: fmt.Errorf("%w: --%s", ErrMissingValue, f.name),
			}
		}
		start := input.Index()
		value, err := f.parser.Parse(cc, input)
		if err != nil {
			return &cmdtypes.CommandError{
				Kind:  cmdtypes.FlagParseFailure,
				Token: input.Token(start),
				Index: start,
				Cause: fmt.Errorf("--%s: %w", f.name, err),
			}
		}
		if f.mode == ModeRepeatable {
			fc.AddValue(f.name, value)
		} else {
			fc.SetValue(f.name, value)
		}
	}
	return nil
}

// Presence flags that repeat count their occurrences.
func recordPresence(fc *cmdtypes.FlagContext, f *CommandFlag) {
	if f.mode == ModeRepeatable {
		fc.AddValue(f.name, true)
		return
	}
	fc.MarkPresent(f.name)
}

// match resolves a flag token to the flags it names. A combined alias token such
// as -abc names several presence flags.
func match(token string, index int, group *Group) ([]*CommandFlag, error) {
	if !IsMarker(token) {
		return nil, &cmdtypes.CommandError{
			Kind:  cmdtypes.FlagParseFailure,
			Token: token,
			Index: index,
			Cause: fmt.Errorf("%w, got %q", ErrNoFlagStarted, token),
		}
	}
	unknown := &cmdtypes.CommandError{Kind: cmdtypes.UnknownFlag, Token: token, Index: index}

	if name, ok := strings.CutPrefix(token, "--"); ok {
		f, found := group.Lookup(name)
		if !found {
			return nil, unknown
		}
		return []*CommandFlag{f}, nil
	}

	letters := []rune(token[1:])
	if len(letters) == 1 {
		f, found := group.LookupAlias(string(letters))
		if !found {
			return nil, unknown
		}
		return []*CommandFlag{f}, nil
	}

	result := make([]*CommandFlag, 0, len(letters))
	for _, r := range letters {
		f, found := group.LookupAlias(string(r))
		if !found {
			return nil, unknown
		}
		if !f.IsPresence() {
			return nil, &cmdtypes.CommandError{
				Kind:  cmdtypes.FlagParseFailure,
				Token: token,
				Index: index,
				Cause: fmt.Errorf("%w: -%c", ErrNotCombinable, r),
			}
		}
		result = append(result, f)
	}
	return result, nil
}

// Complete returns completion candidates for partial, given the flag-mode tokens
// already typed before it. When the last consumed token opened a flag that takes
// a value, the flag parser's suggestions are returned; otherwise flag names and
// aliases the sender may use. Single flags already supplied are not offered again.
func Complete(cc *cmdtypes.CommandContext, consumed []string, partial string, group *Group) []string {
	used := make(map[string]struct{})
	input := arguments.NewInput(consumed)
	for !input.Empty() {
		token, _ := input.Pop()
		matched, err := match(token, 0, group)
		if err != nil {
			return []string{}
		}
		for _, f := range matched {
			used[f.name] = struct{}{}
		}
		if len(matched) > 1 || matched[0].IsPresence() {
			continue
		}
		f := matched[0]
		if input.Empty() {
			return f.parser.Suggestions(cc, partial)
		}
		if _, err := f.parser.Parse(cc, input); err != nil {
			return []string{}
		}
	}

	if partial != "" && !strings.HasPrefix(partial, "-") {
		return []string{}
	}
	result := make([]string, 0, group.Len()*2)
	for _, f := range group.flags {
		if _, seen := used[f.name]; seen && f.mode == ModeSingle {
			continue
		}
		if !cc.HasPermission(f.permission) {
			continue
		}
		if name := "--" + f.name; strings.HasPrefix(name, partial) {
			result = append(result, name)
		}
		for _, a := range f.aliases {
			if alias := "-" + a; strings.HasPrefix(alias, partial) {
				result = append(result, alias)
			}
		}
	}
	return result
}
