package tree

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/flags"
)

func noop(context.Context, *cmdtypes.CommandContext) error { return nil }

func intParser(t *testing.T) arguments.Parser {
	t.Helper()
	p, err := arguments.NewIntegerParser(arguments.DefaultIntegerMin, arguments.DefaultIntegerMax)
	require.NoError(t, err)
	return p
}

func mustBuild(t *testing.T, b Builder) *Command {
	t.Helper()
	cmd, err := b.Handler(noop).Build()
	require.NoError(t, err)
	return cmd
}

func mustInsert(t *testing.T, tr *Tree, b Builder) *Command {
	t.Helper()
	cmd := mustBuild(t, b)
	require.NoError(t, tr.Insert(cmd))
	return cmd
}

type recordingHandler struct {
	mu           sync.Mutex
	registered   []string
	unregistered []string
	reject       bool
}

func (h *recordingHandler) RegisterCommand(cmd *Command) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered = append(h.registered, cmd.Usage())
	return !h.reject
}

func (h *recordingHandler) UnregisterRootCommand(root string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregistered = append(h.unregistered, root)
}

func TestBuilder_Build(t *testing.T) {
	str := arguments.NewStringParser(arguments.StringSingle)

	tests := []struct {
		name    string
		builder Builder
		wantErr error
	}{
		{name: "valid", builder: NewBuilder("give").Required("player", str).Handler(noop)},
		{name: "no handler", builder: NewBuilder("give"), wantErr: ErrNoHandler},
		{name: "required after optional", builder: NewBuilder("give").Optional("a", str).Required("b", str).Handler(noop), wantErr: ErrRequiredAfterOptional},
		{name: "literal after optional", builder: NewBuilder("give").Optional("a", str).Literal("x").Handler(noop), wantErr: ErrRequiredAfterOptional},
		{name: "duplicate argument", builder: NewBuilder("give").Required("a", str).Required("a", str).Handler(noop), wantErr: ErrDuplicateArgument},
		{name: "flag group not last", builder: NewBuilder("give").Then(FlagGroup(&flags.Group{})).Literal("x").Handler(noop), wantErr: ErrFlagGroupNotLast},
		{name: "blank literal", builder: NewBuilder("give me").Handler(noop), wantErr: ErrInvalidComponent},
		{name: "missing parser", builder: NewBuilder("give").Required("a", nil).Handler(noop), wantErr: ErrInvalidComponent},
		{name: "bad default", builder: NewBuilder("give").OptionalWithDefault("n", intParser(t), "x").Handler(noop), wantErr: ErrInvalidComponent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCommand_PermissionAndUsage(t *testing.T) {
	force, err := flags.NewBuilder(nil, "force").WithAliases("f").Build()
	require.NoError(t, err)

	cmd := mustBuild(t, NewBuilder("give", "g").
		Then(Required("player", arguments.NewStringParser(arguments.StringSingle)).WithPermission(cmdtypes.Perm("give.other"))).
		Optional("amount", intParser(t)).
		Flag(force).
		Permission(cmdtypes.Perm("give")))

	assert.Equal(t, "give|g <player> [amount] [--force|-f]", cmd.Usage())
	assert.Equal(t, "(give.other & give)", cmd.Permission().String())
	assert.Equal(t, "give", cmd.RootName())
	require.NotNil(t, cmd.FlagGroup())
	assert.Equal(t, 1, cmd.FlagGroup().Len())
}

func TestTree_InsertRejectsAmbiguity(t *testing.T) {
	str := arguments.NewStringParser(arguments.StringSingle)
	registry := arguments.NewRegistry()
	intValue, err := flags.WithArgumentType[int](flags.NewBuilder(registry, "value")).Build()
	require.NoError(t, err)
	strValue, err := flags.WithArgumentType[string](flags.NewBuilder(registry, "value")).Build()
	require.NoError(t, err)
	repeatedValue, err := flags.WithArgumentType[int](flags.NewBuilder(registry, "value")).AsRepeatable().Build()
	require.NoError(t, err)
	guardedValue, err := flags.WithArgumentType[int](flags.NewBuilder(registry, "value")).WithPermission(cmdtypes.Perm("admin")).Build()
	require.NoError(t, err)

	tests := []struct {
		name    string
		first   Builder
		second  Builder
		wantErr error
	}{
		{name: "duplicate", first: NewBuilder("a").Literal("b"), second: NewBuilder("a").Literal("b"), wantErr: ErrDuplicateCommand},
		{name: "duplicate via optional", first: NewBuilder("a").Required("x", str).Optional("y", str), second: NewBuilder("a").Required("x", str), wantErr: ErrDuplicateCommand},
		{name: "sibling arguments", first: NewBuilder("a").Required("x", str), second: NewBuilder("a").Required("y", str), wantErr: ErrAmbiguousArgument},
		{name: "required vs optional", first: NewBuilder("a").Required("x", str), second: NewBuilder("a").Optional("x", str), wantErr: ErrAmbiguousArgument},
		{name: "argument parser differs", first: NewBuilder("set").Required("value", intParser(t)), second: NewBuilder("set").Required("value", str).Literal("now"), wantErr: ErrAmbiguousArgument},
		{name: "argument range differs", first: NewBuilder("set").Required("value", intParser(t)), second: NewBuilder("set").Required("value", mustRange(t, 1, 10)).Literal("now"), wantErr: ErrAmbiguousArgument},
		{name: "argument default differs", first: NewBuilder("set").OptionalWithDefault("value", str, "a"), second: NewBuilder("set").OptionalWithDefault("value", str, "b"), wantErr: ErrAmbiguousArgument},
		{name: "flag parser differs", first: NewBuilder("a").Flag(intValue), second: NewBuilder("a").Flag(strValue), wantErr: ErrFlagGroupConflict},
		{name: "flag mode differs", first: NewBuilder("a").Flag(intValue), second: NewBuilder("a").Flag(repeatedValue), wantErr: ErrFlagGroupConflict},
		{name: "flag permission differs", first: NewBuilder("a").Flag(intValue), second: NewBuilder("a").Flag(guardedValue), wantErr: ErrFlagGroupConflict},
		{name: "name shadows alias", first: NewBuilder("a", "b"), second: NewBuilder("b"), wantErr: ErrLiteralConflict},
		{name: "alias collides", first: NewBuilder("a"), second: NewBuilder("b", "a"), wantErr: ErrLiteralConflict},
		{name: "new alias on existing", first: NewBuilder("a").Literal("x"), second: NewBuilder("a", "z").Literal("y"), wantErr: ErrLiteralConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(nil)
			mustInsert(t, tr, tt.first)
			before := tr.Commands()

			err := tr.Insert(mustBuild(t, tt.second))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, tr.Commands(), len(before), "failed insert must not change the tree")
		})
	}
}

func mustRange(t *testing.T, min, max int64) arguments.Parser {
	t.Helper()
	p, err := arguments.NewIntegerParser(min, max)
	require.NoError(t, err)
	return p
}

func TestTree_EquivalentArgumentsShareNode(t *testing.T) {
	tr := New(nil)
	mustInsert(t, tr, NewBuilder("set").Required("value", intParser(t)))
	mustInsert(t, tr, NewBuilder("set").Required("value", intParser(t)).Literal("now"))

	resolved, err := tr.Resolve(cmdtypes.NewCommandContext("tester", nil), []string{"set", "5", "now"})
	require.NoError(t, err)
	assert.Equal(t, "set <value> now", resolved.Command.Usage())

	_, err = tr.Resolve(cmdtypes.NewCommandContext("tester", nil), []string{"set", "abc", "now"})
	assert.True(t, cmdtypes.IsKind(err, cmdtypes.ArgumentParseFailure))
}

func TestTree_LiteralAndArgumentSiblings(t *testing.T) {
	tr := New(nil)
	mustInsert(t, tr, NewBuilder("tp").Literal("here"))
	mustInsert(t, tr, NewBuilder("tp").Required("target", arguments.NewStringParser(arguments.StringSingle)))

	node, ok := tr.NamedNode("tp")
	require.True(t, ok)
	assert.Len(t, node.Children(), 2)
	assert.NotNil(t, node.Argument())
	_, ok = node.Literal("here")
	assert.True(t, ok)
}

func TestTree_SharedPrefix(t *testing.T) {
	tr := New(nil)
	a := mustInsert(t, tr, NewBuilder("team").Literal("add"))
	b := mustInsert(t, tr, NewBuilder("team").Literal("remove"))
	c := mustInsert(t, tr, NewBuilder("team"))

	assert.Len(t, tr.RootNodes(), 1)
	assert.Equal(t, []*Command{c, a, b}, tr.Commands())
}

func TestTree_OptionalAttachesCommandToEveryTrailingNode(t *testing.T) {
	tr := New(nil)
	str := arguments.NewStringParser(arguments.StringSingle)
	cmd := mustInsert(t, tr, NewBuilder("msg").Required("to", str).Optional("text", str))

	root, _ := tr.NamedNode("msg")
	assert.Nil(t, root.Command())
	assert.Same(t, cmd, root.Argument().Command())
	assert.Same(t, cmd, root.Argument().Argument().Command())
	assert.Equal(t, []string{"msg", "to", "text"}, root.Argument().Argument().Path())
}

func TestTree_RegistrationHandler(t *testing.T) {
	handler := &recordingHandler{reject: true}
	tr := New(handler)
	mustInsert(t, tr, NewBuilder("ban", "b"))

	assert.Equal(t, []string{"ban|b"}, handler.registered)

	assert.True(t, tr.Delete("b"))
	assert.False(t, tr.Delete("ban"))
	assert.Equal(t, []string{"ban"}, handler.unregistered)
	assert.Empty(t, tr.RootNodes())
	_, ok := tr.NamedNode("ban")
	assert.False(t, ok)
}

func TestTree_NodePermissionIsDisjunction(t *testing.T) {
	tr := New(nil)
	mustInsert(t, tr, NewBuilder("kit").Literal("a").Permission(cmdtypes.Perm("kit.a")))
	mustInsert(t, tr, NewBuilder("kit").Literal("b").Permission(cmdtypes.Perm("kit.b")))

	root, _ := tr.NamedNode("kit")
	assert.Equal(t, "(kit.a | kit.b)", root.Permission().String())

	mustInsert(t, tr, NewBuilder("kit").Literal("c"))
	assert.True(t, root.Permission().IsEmpty())
}

func TestTree_ConcurrentInsertAndResolve(t *testing.T) {
	tr := New(nil)
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(2)
		go func(name string) {
			defer wg.Done()
			cmd, err := NewBuilder(name).Literal("run").Handler(noop).Build()
			if err == nil {
				err = tr.Insert(cmd)
			}
			assert.NoError(t, err)
		}(name)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = tr.Resolve(cmdtypes.NewCommandContext(nil, nil), []string{"a", "run"})
				_ = tr.Suggest(cmdtypes.NewCommandContext(nil, nil), []string{""})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, tr.Commands(), len(names))
	for _, name := range names {
		_, err := tr.Resolve(cmdtypes.NewCommandContext(nil, nil), []string{name, "run"})
		assert.NoError(t, err, name)
	}
}
