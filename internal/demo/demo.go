// Package demo registers a sample command set used by the cmdengine binary and
// by integration tests. It exercises literals, typed arguments, optional
// defaults, flags and permissions.
package demo

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/flags"
	"cmdengine/pkg/manager"
	"cmdengine/pkg/tree"
)

// Permissions used by the demo commands.
const (
	PermGive      = "demo.give"
	PermBan       = "demo.ban"
	PermBanReason = "demo.ban.reason"
)

// Messenger is implemented by senders that receive command output directly.
type Messenger interface {
	Sendf(format string, args ...any)
}

// Commands writes output to senders implementing Messenger and to a fallback
// writer for every other sender.
type Commands struct {
	out io.Writer
}

// Register adds the demo commands to m.
func Register(m *manager.Manager, out io.Writer) error {
	c := &Commands{out: out}
	builders, err := c.builders(m)
	if err != nil {
		return err
	}
	for _, b := range builders {
		if _, err := m.Register(b); err != nil {
			return fmt.Errorf("register %s: %w", b.Name(), err)
		}
	}
	return nil
}

func (c *Commands) builders(m *manager.Manager) ([]tree.Builder, error) {
	player := arguments.WithSuggestions(arguments.NewStringParser(arguments.StringSingle), suggestPlayers)
	amount, err := arguments.NewIntegerParser(1, 64)
	if err != nil {
		return nil, err
	}
	mode, err := arguments.NewEnumParser("survival", "creative", "adventure", "spectator")
	if err != nil {
		return nil, err
	}
	number, err := arguments.NewFloatParser(-1e9, 1e9)
	if err != nil {
		return nil, err
	}

	force, err := m.FlagBuilder("force").WithAliases("f").WithDescription("Ignore inventory limits").Build()
	if err != nil {
		return nil, err
	}
	reason, err := flags.WithArgumentType[string](m.FlagBuilder("reason")).
		WithAliases("r").
		WithDescription("Reason shown to the player").
		WithPermission(cmdtypes.Perm(PermBanReason)).
		Build()
	if err != nil {
		return nil, err
	}
	silent, err := m.FlagBuilder("silent").WithAliases("s").WithDescription("Do not broadcast").Build()
	if err != nil {
		return nil, err
	}
	label, err := flags.WithArgumentType[[]string](m.FlagBuilder("label")).
		WithAliases("l").
		WithDescription("Attach a label, may be repeated").
		AsRepeatable().
		Build()
	if err != nil {
		return nil, err
	}
	verbose, err := m.FlagBuilder("verbose").WithAliases("v").AsRepeatable().Build()
	if err != nil {
		return nil, err
	}

	return []tree.Builder{
		tree.NewBuilder("give", "g").
			Required("player", player).
			OptionalWithDefault("amount", amount, "1").
			Flag(force).
			Permission(cmdtypes.Perm(PermGive)).
			Description("Give items to a player").
			Handler(c.give),
		tree.NewBuilder("gamemode", "gm").
			Required("mode", mode).
			Optional("target", player).
			Description("Change a game mode").
			Handler(c.gamemode),
		tree.NewBuilder("tp").
			Literal("here").
			Description("Teleport to your own position").
			Handler(c.say("Teleported to yourself")),
		tree.NewBuilder("tp").
			Required("target", player).
			Description("Teleport to a player").
			Handler(c.teleport),
		tree.NewBuilder("ban").
			Required("player", player).
			Flag(reason, silent).
			Permission(cmdtypes.Perm(PermBan)).
			Description("Ban a player").
			Handler(c.ban),
		tree.NewBuilder("echo").
			Required("text", arguments.NewStringParser(arguments.StringGreedy)).
			Description("Print the rest of the line").
			Synchronous().
			Handler(c.echo),
		tree.NewBuilder("note").
			Literal("add").
			Required("text", arguments.NewStringParser(arguments.StringQuoted)).
			Flag(label).
			Description("Store a quoted note").
			Handler(c.note),
		tree.NewBuilder("wait").
			Required("for", arguments.NewDurationParser()).
			Description("Sleep, honouring cancellation").
			Handler(c.wait),
		tree.NewBuilder("math").
			Literal("add").
			Required("a", number).
			Required("b", number).
			Description("Add two numbers").
			Handler(c.add),
		tree.NewBuilder("toggle").
			Required("state", arguments.NewBooleanParser(true)).
			Description("Switch a setting on or off").
			Handler(c.toggle),
		tree.NewBuilder("count").
			Flag(verbose).
			Description("Report the verbosity level").
			Handler(c.count),
	}, nil
}

func suggestPlayers(_ *cmdtypes.CommandContext, partial string) []string {
	var result []string
	for _, name := range []string{"alex", "steve", "notch"} {
		if strings.HasPrefix(name, strings.ToLower(partial)) {
			result = append(result, name)
		}
	}
	return result
}

func (c *Commands) send(cc *cmdtypes.CommandContext, format string, args ...any) {
	if m, ok := cc.Sender().(Messenger); ok {
		m.Sendf(format, args...)
		return
	}
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Commands) say(message string) tree.Handler {
	return func(_ context.Context, cc *cmdtypes.CommandContext) error {
		c.send(cc, "%s", message)
		return nil
	}
}

func (c *Commands) give(_ context.Context, cc *cmdtypes.CommandContext) error {
	player := cmdtypes.ArgOr(cc, "player", "")
	amount := cmdtypes.ArgOr(cc, "amount", 1)
	if cc.Flags().IsPresent("force") {
		c.send(cc, "Force-gave %d item(s) to %s", amount, player)
		return nil
	}
	c.send(cc, "Gave %d item(s) to %s", amount, player)
	return nil
}

func (c *Commands) gamemode(_ context.Context, cc *cmdtypes.CommandContext) error {
	mode := cmdtypes.ArgOr(cc, "mode", "")
	target := cmdtypes.ArgOr(cc, "target", fmt.Sprint(cc.Sender()))
	c.send(cc, "Set %s's game mode to %s", target, mode)
	return nil
}

func (c *Commands) teleport(_ context.Context, cc *cmdtypes.CommandContext) error {
	c.send(cc, "Teleported to %s", cmdtypes.ArgOr(cc, "target", ""))
	return nil
}

func (c *Commands) ban(_ context.Context, cc *cmdtypes.CommandContext) error {
	player := cmdtypes.ArgOr(cc, "player", "")
	reason, ok := cmdtypes.FlagValue[string](cc.Flags(), "reason")
	if !ok {
		reason = "no reason given"
	}
	if cc.Flags().IsPresent("silent") {
		c.send(cc, "Silently banned %s (%s)", player, reason)
		return nil
	}
	c.send(cc, "Banned %s (%s)", player, reason)
	return nil
}

func (c *Commands) echo(_ context.Context, cc *cmdtypes.CommandContext) error {
	c.send(cc, "%s", cmdtypes.ArgOr(cc, "text", ""))
	return nil
}

func (c *Commands) note(_ context.Context, cc *cmdtypes.CommandContext) error {
	text := cmdtypes.ArgOr(cc, "text", "")
	labels := cmdtypes.FlagValues[string](cc.Flags(), "label")
	if len(labels) == 0 {
		c.send(cc, "Noted: %s", text)
		return nil
	}
	c.send(cc, "Noted: %s [%s]", text, strings.Join(labels, ", "))
	return nil
}

func (c *Commands) wait(ctx context.Context, cc *cmdtypes.CommandContext) error {
	d := cmdtypes.ArgOr(cc, "for", time.Duration(0))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		c.send(cc, "Waited %s", d)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Commands) add(_ context.Context, cc *cmdtypes.CommandContext) error {
	a := cmdtypes.ArgOr(cc, "a", 0.0)
	b := cmdtypes.ArgOr(cc, "b", 0.0)
	c.send(cc, "%g", a+b)
	return nil
}

func (c *Commands) toggle(_ context.Context, cc *cmdtypes.CommandContext) error {
	if cmdtypes.ArgOr(cc, "state", false) {
		c.send(cc, "Setting enabled")
		return nil
	}
	c.send(cc, "Setting disabled")
	return nil
}

func (c *Commands) count(_ context.Context, cc *cmdtypes.CommandContext) error {
	c.send(cc, "Verbosity %d", cc.Flags().Count("verbose"))
	return nil
}
