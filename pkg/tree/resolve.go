package tree

import (
	"errors"
	"fmt"
	"strings"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/flags"
)

// Resolved is a successfully resolved invocation.
type Resolved struct {
	Command *Command
	Context *cmdtypes.CommandContext
	// Node is the node the input ended on.
	Node *Node
}

// Resolve walks tokens from the root and returns the matched command with its
// arguments and flags recorded in cc. Failures are *cmdtypes.CommandError values.
// Resolution never runs the handler.
func (t *Tree) Resolve(cc *cmdtypes.CommandContext, tokens []string) (*Resolved, error) {
	cc.SetTokens(tokens)
	input := arguments.NewInput(tokens)
	node := t.root

	for !input.Empty() {
		index := input.Index()
		token, _ := input.Peek()
		set := node.snapshot()

		if child, ok := set.literals.Get(token); ok {
			if err := checkAccess(cc, child, token, index); err != nil {
				return nil, err
			}
			input.Pop()
			node = child
			continue
		}

		if node == t.root {
			return nil, &cmdtypes.CommandError{
				Kind:    cmdtypes.NoSuchCommand,
				Token:   token,
				Index:   index,
				Closest: closestLiteral(t.root, token),
			}
		}

		if flags.IsMarker(token) {
			if group := node.reachableFlagGroup(); group != nil && (knownFlag(group, token) || !accepts(cc, set.argument, input)) {
				if err := t.parseFlags(cc, input, group); err != nil {
					return nil, err
				}
				node = group
				break
			}
		}

		if arg := set.argument; arg != nil {
			if err := checkAccess(cc, arg, token, index); err != nil {
				return nil, err
			}
			value, err := arg.component.parser.Parse(cc, input)
			if err != nil {
				return nil, &cmdtypes.CommandError{
					Kind:   cmdtypes.ArgumentParseFailure,
					Token:  token,
					Index:  index,
					Path:   arg.Path(),
					Cause:  err,
					Syntax: arg.usage(),
				}
			}
			cc.SetArgument(arg.component.name, value)
			node = arg
			continue
		}

		kind := cmdtypes.TooManyArguments
		switch {
		case len(set.ordered) == 0 && node.Command() == nil:
			panic(fmt.Sprintf("tree: node %q has neither children nor a command", strings.Join(node.Path(), " ")))
		case node.Command() == nil:
			kind = cmdtypes.InvalidSyntax
		}
		return nil, &cmdtypes.CommandError{
			Kind:   kind,
			Token:  token,
			Index:  index,
			Path:   node.Path(),
			Syntax: node.usage(),
		}
	}

	return t.complete(cc, node)
}

// complete finishes resolution on the node where input ran out.
func (t *Tree) complete(cc *cmdtypes.CommandContext, node *Node) (*Resolved, error) {
	if node == t.root {
		return nil, &cmdtypes.CommandError{Kind: cmdtypes.NoSuchCommand, Index: -1}
	}
	cmd := node.Command()
	if cmd == nil {
		return nil, &cmdtypes.CommandError{
			Kind:   cmdtypes.MissingRequiredArgument,
			Index:  -1,
			Path:   node.Path(),
			Syntax: node.usage(),
		}
	}
	if !cc.HasPermission(cmd.permission) {
		return nil, &cmdtypes.CommandError{
			Kind:       cmdtypes.NoPermission,
			Index:      -1,
			Path:       node.Path(),
			Permission: cmd.permission.String(),
		}
	}
	if err := applyDefaults(cc, cmd); err != nil {
		return nil, err
	}
	cc.Flags().Seal()
	t.logger.Debug("Resolved command", "command", cmd.RootName(), "path", strings.Join(node.Path(), " "))
	return &Resolved{Command: cmd, Context: cc, Node: node}, nil
}

// parseFlags enters flag mode on group. Optional arguments skipped to reach the
// group get their defaults in applyDefaults.
func (t *Tree) parseFlags(cc *cmdtypes.CommandContext, input *arguments.Input, group *Node) error {
	token, _ := input.Peek()
	if err := checkAccess(cc, group, token, input.Index()); err != nil {
		return err
	}
	err := flags.Parse(cc, input, group.component.flags)
	if err == nil {
		return nil
	}
	var ce *cmdtypes.CommandError
	if errors.As(err, &ce) {
		ce.Path = group.Path()
		ce.Syntax = group.usage()
	}
	return err
}

func checkAccess(cc *cmdtypes.CommandContext, node *Node, token string, index int) error {
	perm := node.Permission()
	if cc.HasPermission(perm) {
		return nil
	}
	return &cmdtypes.CommandError{
		Kind:       cmdtypes.NoPermission,
		Token:      token,
		Index:      index,
		Path:       node.Path(),
		Permission: perm.String(),
	}
}

// knownFlag reports whether token names a flag of group, so that a negative
// number can still reach an argument parser.
func knownFlag(group *Node, token string) bool {
	g := group.component.flags
	if name, ok := strings.CutPrefix(token, "--"); ok {
		_, found := g.Lookup(name)
		return found
	}
	for _, r := range token[1:] {
		if _, found := g.LookupAlias(string(r)); !found {
			return false
		}
	}
	return true
}

// accepts reports whether arg would parse the remaining input, without consuming it.
func accepts(cc *cmdtypes.CommandContext, arg *Node, input *arguments.Input) bool {
	if arg == nil {
		return false
	}
	_, err := arg.component.parser.Parse(cc, arguments.NewInput(input.Remaining()))
	return err == nil
}

func applyDefaults(cc *cmdtypes.CommandContext, cmd *Command) error {
	for _, comp := range cmd.components {
		def, ok := comp.Default()
		if !ok || cc.HasArgument(comp.name) {
			continue
		}
		value, err := comp.parser.Parse(cc, arguments.NewInput(strings.Fields(def)))
		if err != nil {
			return &cmdtypes.CommandError{
				Kind:   cmdtypes.ArgumentParseFailure,
				Token:  def,
				Index:  -1,
				Path:   []string{comp.name},
				Cause:  err,
				Syntax: cmd.Usage(),
			}
		}
		cc.SetArgument(comp.name, value)
	}
	return nil
}
