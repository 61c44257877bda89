package tree

import (
	"strings"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/flags"
)

// Suggest returns completion candidates for the last token of tokens, which may be
// empty. It replays resolution over the preceding tokens and never fails: any
// panic raised by a parser yields an empty result.
func (t *Tree) Suggest(cc *cmdtypes.CommandContext, tokens []string) (result []string) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn("Suggestion failed", "error", r)
			result = []string{}
		}
	}()

	if len(tokens) == 0 {
		tokens = []string{""}
	}
	cc.SetTokens(tokens)
	partial := tokens[len(tokens)-1]
	input := arguments.NewInput(tokens).Limit(1)
	node := t.root

	for !input.Empty() {
		token, _ := input.Peek()
		set := node.snapshot()

		if child, ok := set.literals.Get(token); ok {
			if !cc.HasPermission(child.Permission()) {
				return []string{}
			}
			input.Pop()
			node = child
			continue
		}
		if node == t.root {
			return []string{}
		}
		if flags.IsMarker(token) {
			if group := node.reachableFlagGroup(); group != nil && (knownFlag(group, token) || !accepts(cc, set.argument, input)) {
				return completeFlags(cc, group, input.Remaining(), partial)
			}
		}
		arg := set.argument
		if arg == nil || !cc.HasPermission(arg.Permission()) {
			return []string{}
		}
		value, err := arg.component.parser.Parse(cc, input)
		if err != nil {
			return []string{}
		}
		cc.SetArgument(arg.component.name, value)
		node = arg
	}

	return t.collect(cc, node, partial)
}

// collect gathers candidates for partial below node: literals first in registration
// order, then the argument parser's suggestions, then flags.
func (t *Tree) collect(cc *cmdtypes.CommandContext, node *Node, partial string) []string {
	set := node.snapshot()
	var result []string

	lower := strings.ToLower(partial)
	for pair := set.literals.Oldest(); pair != nil; pair = pair.Next() {
		if !strings.HasPrefix(strings.ToLower(pair.Key), lower) {
			continue
		}
		if cc.HasPermission(pair.Value.Permission()) {
			result = append(result, pair.Key)
		}
	}

	if arg := set.argument; arg != nil && cc.HasPermission(arg.Permission()) {
		result = append(result, arg.component.parser.Suggestions(cc, partial)...)
	}

	if node != t.root {
		if group := node.reachableFlagGroup(); group != nil {
			result = append(result, completeFlags(cc, group, nil, partial)...)
		}
	}
	return dedupe(result)
}

func completeFlags(cc *cmdtypes.CommandContext, group *Node, consumed []string, partial string) []string {
	if !cc.HasPermission(group.Permission()) {
		return []string{}
	}
	return dedupe(flags.Complete(cc, consumed, partial, group.component.flags))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
