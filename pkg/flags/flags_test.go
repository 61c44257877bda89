package flags

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmdengine/pkg/arguments"
	"cmdengine/pkg/cmdtypes"
)

func mustFlag(t *testing.T, b Builder) *CommandFlag {
	t.Helper()
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

func testGroup(t *testing.T) *Group {
	t.Helper()
	registry := arguments.NewRegistry()
	group, err := NewGroup(
		mustFlag(t, WithArgumentType[int](NewBuilder(registry, "count").WithAliases("c"))),
		mustFlag(t, WithArgumentType[[]string](NewBuilder(registry, "tag").WithAliases("t").AsRepeatable())),
		mustFlag(t, NewBuilder(registry, "force").WithAliases("f")),
		mustFlag(t, WithArgumentType[bool](NewBuilder(registry, "quiet").WithAliases("q"))),
		mustFlag(t, NewBuilder(registry, "verbose").WithAliases("v").AsRepeatable()),
		mustFlag(t, NewBuilder(registry, "admin").WithPermission(cmdtypes.Perm("no"))),
	)
	require.NoError(t, err)
	return group
}

func parse(t *testing.T, group *Group, predicate cmdtypes.PermissionPredicate, tokens ...string) (*cmdtypes.CommandContext, error) {
	t.Helper()
	cc := cmdtypes.NewCommandContext("tester", predicate)
	return cc, Parse(cc, arguments.NewInput(tokens), group)
}

func TestParse_RepeatableKeepsEncounterOrder(t *testing.T) {
	cc, err := parse(t, testGroup(t), nil, "--tag", "a", "-t", "b", "--tag", "c")
	require.NoError(t, err)

	got := cmdtypes.FlagValues[string](cc.Flags(), "tag")
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("tag values mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SingleKeepsLast(t *testing.T) {
	cc, err := parse(t, testGroup(t), nil, "--count", "1", "-c", "2")
	require.NoError(t, err)

	v, ok := cmdtypes.FlagValue[int](cc.Flags(), "count")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Len(t, cc.Flags().Values("count"), 1)
}

func TestParse_Presence(t *testing.T) {
	cc, err := parse(t, testGroup(t), nil, "-fq", "-v", "--verbose", "-v")
	require.NoError(t, err)

	assert.True(t, cc.Flags().IsPresent("force"))
	assert.True(t, cc.Flags().IsPresent("quiet"))
	assert.Equal(t, 3, cc.Flags().Count("verbose"))
	assert.False(t, cc.Flags().IsPresent("count"))
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		kind   cmdtypes.Kind
		index  int
	}{
		{name: "unknown long", tokens: []string{"--nope"}, kind: cmdtypes.UnknownFlag, index: 0},
		{name: "unknown alias", tokens: []string{"-f", "-z"}, kind: cmdtypes.UnknownFlag, index: 1},
		{name: "unknown in combined", tokens: []string{"-fz"}, kind: cmdtypes.UnknownFlag, index: 0},
		{name: "typed in combined", tokens: []string{"-fc"}, kind: cmdtypes.FlagParseFailure, index: 0},
		{name: "positional token", tokens: []string{"--force", "stray"}, kind: cmdtypes.FlagParseFailure, index: 1},
		{name: "missing value", tokens: []string{"--count"}, kind: cmdtypes.FlagParseFailure, index: 0},
		{name: "bad value", tokens: []string{"--count", "many"}, kind: cmdtypes.FlagParseFailure, index: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, testGroup(t), nil, tt.tokens...)
			var ce *cmdtypes.CommandError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.Equal(t, tt.index, ce.Index)
		})
	}
}

func TestParse_FlagPermission(t *testing.T) {
	deny := func(_ any, perm string) bool { return perm != "no" }

	_, err := parse(t, testGroup(t), deny, "--admin")
	var ce *cmdtypes.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cmdtypes.NoPermission, ce.Kind)
	assert.Equal(t, "no", ce.Permission)

	_, err = parse(t, testGroup(t), nil, "--admin")
	assert.NoError(t, err)
}

func TestBuilder_AliasValidation(t *testing.T) {
	_, err := NewBuilder(nil, "long").WithAliases("lo").Build()
	assert.ErrorIs(t, err, ErrAliasTooLong)

	f, err := NewBuilder(nil, "ok").WithAliases("", "o").Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"o"}, f.Aliases())
}

func TestBuilder_CopyOnWrite(t *testing.T) {
	base := NewBuilder(arguments.NewRegistry(), "name").WithAliases("n")
	withDesc := base.WithDescription("described").WithAliases("x")

	a, err := base.Build()
	require.NoError(t, err)
	b, err := withDesc.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"n"}, a.Aliases())
	assert.Empty(t, a.Description())
	assert.Equal(t, []string{"n", "x"}, b.Aliases())
	assert.Equal(t, "described", b.Description())
	assert.True(t, a.Equal(b), "equality is by name")
}

func TestBuilder_ParserResolution(t *testing.T) {
	registry := arguments.NewRegistry()

	tests := []struct {
		name     string
		builder  Builder
		presence bool
		wantErr  error
	}{
		{name: "no type", builder: NewBuilder(registry, "a"), presence: true},
		{name: "bool", builder: WithArgumentType[bool](NewBuilder(registry, "a")), presence: true},
		{name: "int", builder: WithArgumentType[int](NewBuilder(registry, "a"))},
		{name: "repeatable slice", builder: WithArgumentType[[]int](NewBuilder(registry, "a").AsRepeatable())},
		{name: "slice not repeatable", builder: WithArgumentType[[]int](NewBuilder(registry, "a")), wantErr: ErrNoParser},
		{name: "pinned name", builder: WithArgumentType[bool](NewBuilder(registry, "a").WithParserName("duration"))},
		{name: "unknown name", builder: NewBuilder(registry, "a").WithParserName("nope"), wantErr: ErrNoParser},
		{name: "bad name", builder: NewBuilder(registry, "--a"), wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.builder.Build()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.presence, f.IsPresence())
		})
	}
}

func TestNewGroup_Duplicates(t *testing.T) {
	a := mustFlag(t, NewBuilder(nil, "alpha").WithAliases("a"))
	b := mustFlag(t, NewBuilder(nil, "also").WithAliases("a"))

	_, err := NewGroup(a, b)
	assert.ErrorIs(t, err, ErrDuplicateFlag)

	_, err = NewGroup(a, a)
	assert.ErrorIs(t, err, ErrDuplicateFlag)
}

func TestComplete(t *testing.T) {
	deny := func(_ any, perm string) bool { return perm != "no" }

	tests := []struct {
		name     string
		consumed []string
		partial  string
		want     []string
	}{
		{name: "all flags", partial: "", want: []string{"--count", "-c", "--tag", "-t", "--force", "-f", "--quiet", "-q", "--verbose", "-v"}},
		{name: "long prefix", partial: "--v", want: []string{"--verbose"}},
		{name: "value completion", consumed: []string{"--count"}, partial: "", want: []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}},
		{name: "single not repeated", consumed: []string{"--count", "3", "-f"}, partial: "--", want: []string{"--tag", "--quiet", "--verbose"}},
		{name: "positional partial", partial: "x", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := cmdtypes.NewCommandContext("tester", deny)
			got := Complete(cc, tt.consumed, tt.partial, testGroup(t))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Complete mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommandFlag_SameDefinition(t *testing.T) {
	registry := arguments.NewRegistry()
	base := mustFlag(t, WithArgumentType[int](NewBuilder(registry, "count").WithAliases("c")))

	tests := []struct {
		name  string
		other *CommandFlag
		want  bool
	}{
		{name: "rebuilt identically", other: mustFlag(t, WithArgumentType[int](NewBuilder(registry, "count").WithAliases("c"))), want: true},
		{name: "other parser", other: mustFlag(t, WithArgumentType[string](NewBuilder(registry, "count").WithAliases("c")))},
		{name: "other alias", other: mustFlag(t, WithArgumentType[int](NewBuilder(registry, "count").WithAliases("n")))},
		{name: "repeatable", other: mustFlag(t, WithArgumentType[int](NewBuilder(registry, "count").WithAliases("c")).AsRepeatable())},
		{name: "permission", other: mustFlag(t, WithArgumentType[int](NewBuilder(registry, "count").WithAliases("c")).WithPermission(cmdtypes.Perm("admin")))},
		{name: "presence", other: mustFlag(t, NewBuilder(registry, "count").WithAliases("c"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, base.Equal(tt.other), "names match")
			assert.Equal(t, tt.want, base.SameDefinition(tt.other))
		})
	}
}

func TestGroup_SameDefinitions(t *testing.T) {
	assert.True(t, testGroup(t).SameDefinitions(testGroup(t)))
	assert.True(t, (*Group)(nil).SameDefinitions(nil))
	assert.False(t, testGroup(t).SameDefinitions(nil))
}
