package tree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/flags"
)

func denying(denied ...string) cmdtypes.PermissionPredicate {
	return func(_ any, permission string) bool {
		for _, d := range denied {
			if permission == d {
				return false
			}
		}
		return true
	}
}

// sampleTree registers a small command set used across resolution and completion tests.
func sampleTree(t *testing.T) (*Tree, map[string]*Command) {
	t.Helper()
	registry := arguments.NewRegistry()
	str := arguments.NewStringParser(arguments.StringSingle)
	amount, err := arguments.NewIntegerParser(1, 64)
	require.NoError(t, err)
	mode, err := arguments.NewEnumParser("survival", "creative")
	require.NoError(t, err)

	force, err := flags.NewBuilder(registry, "force").WithAliases("f").Build()
	require.NoError(t, err)
	reason, err := flags.WithArgumentType[string](flags.NewBuilder(registry, "reason").WithAliases("r")).Build()
	require.NoError(t, err)

	tr := New(nil)
	cmds := map[string]*Command{
		"give":   mustInsert(t, tr, NewBuilder("give", "g").Required("player", str).OptionalWithDefault("amount", amount, "1").Flag(force)),
		"gm":     mustInsert(t, tr, NewBuilder("gamemode").Required("mode", mode)),
		"secret": mustInsert(t, tr, NewBuilder("secret").Permission(cmdtypes.Perm("no"))),
		"tphere": mustInsert(t, tr, NewBuilder("tp").Literal("here")),
		"tp":     mustInsert(t, tr, NewBuilder("tp").Required("target", str)),
		"ban":    mustInsert(t, tr, NewBuilder("ban").Required("player", str).Flag(reason)),
		"wait":   mustInsert(t, tr, NewBuilder("wait").Required("for", mustParser(t, registry, "duration"))),
		"team":   mustInsert(t, tr, NewBuilder("team").Literal("add").Required("name", str)),
	}
	return tr, cmds
}

func mustParser(t *testing.T, registry *arguments.Registry, name string) arguments.Parser {
	t.Helper()
	p, ok := registry.CreateNamedParser(name, nil)
	require.True(t, ok, name)
	return p
}

func resolve(tr *Tree, predicate cmdtypes.PermissionPredicate, tokens ...string) (*Resolved, error) {
	return tr.Resolve(cmdtypes.NewCommandContext("tester", predicate), tokens)
}

func TestResolve_Success(t *testing.T) {
	tr, cmds := sampleTree(t)

	tests := []struct {
		name    string
		tokens  []string
		command string
		check   func(t *testing.T, cc *cmdtypes.CommandContext)
	}{
		{
			name: "required and default", tokens: []string{"give", "alex"}, command: "give",
			check: func(t *testing.T, cc *cmdtypes.CommandContext) {
				assert.Equal(t, "alex", cmdtypes.ArgOr(cc, "player", ""))
				assert.Equal(t, 1, cmdtypes.ArgOr(cc, "amount", 0))
			},
		},
		{
			name: "alias and optional", tokens: []string{"g", "alex", "5"}, command: "give",
			check: func(t *testing.T, cc *cmdtypes.CommandContext) {
				assert.Equal(t, 5, cmdtypes.ArgOr(cc, "amount", 0))
			},
		},
		{
			name: "flag after skipped optional", tokens: []string{"give", "alex", "-f"}, command: "give",
			check: func(t *testing.T, cc *cmdtypes.CommandContext) {
				assert.True(t, cc.Flags().IsPresent("force"))
				assert.Equal(t, 1, cmdtypes.ArgOr(cc, "amount", 0))
				assert.True(t, cc.Flags().Sealed())
			},
		},
		{
			name: "flag after optional", tokens: []string{"give", "alex", "3", "--force"}, command: "give",
			check: func(t *testing.T, cc *cmdtypes.CommandContext) {
				assert.Equal(t, 3, cmdtypes.ArgOr(cc, "amount", 0))
				assert.True(t, cc.Flags().IsPresent("force"))
			},
		},
		{name: "literal wins over argument", tokens: []string{"tp", "here"}, command: "tphere"},
		{
			name: "argument when literal misses", tokens: []string{"tp", "steve"}, command: "tp",
			check: func(t *testing.T, cc *cmdtypes.CommandContext) {
				assert.Equal(t, "steve", cmdtypes.ArgOr(cc, "target", ""))
			},
		},
		{
			name: "typed flag", tokens: []string{"ban", "bob", "-r", "spam"}, command: "ban",
			check: func(t *testing.T, cc *cmdtypes.CommandContext) {
				v, _ := cmdtypes.FlagValue[string](cc.Flags(), "reason")
				assert.Equal(t, "spam", v)
			},
		},
		{
			name: "duration", tokens: []string{"wait", "2m"}, command: "wait",
			check: func(t *testing.T, cc *cmdtypes.CommandContext) {
				assert.Equal(t, 2*time.Minute, cmdtypes.ArgOr(cc, "for", time.Duration(0)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolve(tr, nil, tt.tokens...)
			require.NoError(t, err)
			assert.Same(t, cmds[tt.command], res.Command)
			assert.Equal(t, tt.tokens, res.Context.Tokens())
			if tt.check != nil {
				tt.check(t, res.Context)
			}
		})
	}
}

func TestResolve_ExactLiteralPathReturnsRegisteredCommand(t *testing.T) {
	tr := New(nil)
	var cmds []*Command
	for _, path := range [][]string{{"a"}, {"a", "b"}, {"a", "c", "d"}, {"x", "y"}} {
		b := NewBuilder(path[0])
		for _, lit := range path[1:] {
			b = b.Literal(lit)
		}
		cmds = append(cmds, mustInsert(t, tr, b))
	}

	for i, path := range [][]string{{"a"}, {"a", "b"}, {"a", "c", "d"}, {"x", "y"}} {
		res, err := resolve(tr, nil, path...)
		require.NoError(t, err)
		assert.Same(t, cmds[i], res.Command)
	}
}

func TestResolve_Failures(t *testing.T) {
	tr, _ := sampleTree(t)

	tests := []struct {
		name      string
		tokens    []string
		predicate cmdtypes.PermissionPredicate
		kind      cmdtypes.Kind
		index     int
		path      []string
	}{
		{name: "empty input", tokens: nil, kind: cmdtypes.NoSuchCommand, index: -1},
		{name: "unknown root", tokens: []string{"giv"}, kind: cmdtypes.NoSuchCommand, index: 0},
		{name: "missing argument", tokens: []string{"give"}, kind: cmdtypes.MissingRequiredArgument, index: -1, path: []string{"give"}},
		{name: "missing after literal", tokens: []string{"team", "add"}, kind: cmdtypes.MissingRequiredArgument, index: -1, path: []string{"team", "add"}},
		{name: "parse failure", tokens: []string{"give", "alex", "100"}, kind: cmdtypes.ArgumentParseFailure, index: 2, path: []string{"give", "player", "amount"}},
		{name: "enum failure", tokens: []string{"gamemode", "hardcore"}, kind: cmdtypes.ArgumentParseFailure, index: 1, path: []string{"gamemode", "mode"}},
		{name: "too many", tokens: []string{"tp", "here", "now"}, kind: cmdtypes.TooManyArguments, index: 2, path: []string{"tp", "here"}},
		{name: "too many after flags node", tokens: []string{"ban", "bob", "extra"}, kind: cmdtypes.TooManyArguments, index: 2, path: []string{"ban", "player"}},
		{name: "invalid literal", tokens: []string{"team", "remove"}, kind: cmdtypes.InvalidSyntax, index: 1, path: []string{"team"}},
		{name: "unknown flag", tokens: []string{"ban", "bob", "--nope"}, kind: cmdtypes.UnknownFlag, index: 2, path: []string{"ban", "player", "flags"}},
		{name: "flag missing value", tokens: []string{"ban", "bob", "--reason"}, kind: cmdtypes.FlagParseFailure, index: 2, path: []string{"ban", "player", "flags"}},
		{name: "denied root", tokens: []string{"secret"}, predicate: denying("no"), kind: cmdtypes.NoPermission, index: 0, path: []string{"secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(tr, tt.predicate, tt.tokens...)
			var ce *cmdtypes.CommandError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.kind, ce.Kind, ce.Error())
			assert.Equal(t, tt.index, ce.Index)
			if tt.path != nil {
				assert.Equal(t, tt.path, ce.Path)
			}
		})
	}
}

func TestResolve_ClosestRootLiteral(t *testing.T) {
	tr, _ := sampleTree(t)

	_, err := resolve(tr, nil, "gamemod")
	var ce *cmdtypes.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "gamemode", ce.Closest)

	_, err = resolve(tr, nil, "zzzzzzzzzz")
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, ce.Closest)
}

func TestResolve_SyntaxAttached(t *testing.T) {
	tr, _ := sampleTree(t)

	_, err := resolve(tr, nil, "give")
	var ce *cmdtypes.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "give|g <player> [amount] [--force|-f]", ce.Syntax)
}

func TestResolve_PermissionDeniedNeverRunsHandler(t *testing.T) {
	ran := false
	cmd, err := NewBuilder("nuke").
		Permission(cmdtypes.Perm("no")).
		Handler(func(context.Context, *cmdtypes.CommandContext) error {
			ran = true
			return nil
		}).
		Build()
	require.NoError(t, err)

	tr := New(nil)
	require.NoError(t, tr.Insert(cmd))

	_, err = resolve(tr, denying("no"), "nuke")
	assert.True(t, cmdtypes.IsKind(err, cmdtypes.NoPermission))
	assert.False(t, ran)
}

func TestResolve_CommandPermissionNarrowerThanNode(t *testing.T) {
	tr := New(nil)
	mustInsert(t, tr, NewBuilder("warp"))
	mustInsert(t, tr, NewBuilder("warp").Literal("set").Permission(cmdtypes.Perm("warp.set")))

	_, err := resolve(tr, denying("warp.set"), "warp")
	assert.NoError(t, err)

	_, err = resolve(tr, denying("warp.set"), "warp", "set")
	var ce *cmdtypes.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cmdtypes.NoPermission, ce.Kind)
	assert.Equal(t, "warp.set", ce.Permission)
	assert.Equal(t, []string{"warp", "set"}, ce.Path)
}

func TestResolve_NegativeNumberIsNotAFlag(t *testing.T) {
	registry := arguments.NewRegistry()
	verbose, err := flags.NewBuilder(registry, "verbose").WithAliases("v").Build()
	require.NoError(t, err)
	offset, err := arguments.NewIntegerParser(-100, 100)
	require.NoError(t, err)

	tr := New(nil)
	mustInsert(t, tr, NewBuilder("shift").Optional("offset", offset).Flag(verbose))

	res, err := resolve(tr, nil, "shift", "-5")
	require.NoError(t, err)
	assert.Equal(t, -5, cmdtypes.ArgOr(res.Context, "offset", 0))

	res, err = resolve(tr, nil, "shift", "-v")
	require.NoError(t, err)
	assert.False(t, res.Context.HasArgument("offset"))
	assert.True(t, res.Context.Flags().IsPresent("verbose"))

	_, err = resolve(tr, nil, "shift", "--nope")
	assert.True(t, cmdtypes.IsKind(err, cmdtypes.UnknownFlag), "%v", err)
}
