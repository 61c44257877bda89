package arguments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmdengine/pkg/cmdtypes"
)

func TestSameParser(t *testing.T) {
	small, err := NewIntegerParser(1, 10)
	require.NoError(t, err)
	smallAgain, err := NewIntegerParser(1, 10)
	require.NoError(t, err)
	large, err := NewIntegerParser(1, 100)
	require.NoError(t, err)
	colors, err := NewEnumParser("red", "green")
	require.NoError(t, err)
	colorsAgain, err := NewEnumParser("red", "green")
	require.NoError(t, err)
	players := func(*cmdtypes.CommandContext, string) []string { return []string{"alex"} }
	suggesting := WithSuggestions(NewStringParser(StringSingle), players)

	tests := []struct {
		name string
		a, b Parser
		want bool
	}{
		{name: "same value", a: small, b: small, want: true},
		{name: "equal configuration", a: small, b: smallAgain, want: true},
		{name: "other range", a: small, b: large},
		{name: "other type", a: small, b: NewStringParser(StringSingle)},
		{name: "enum values", a: colors, b: colorsAgain, want: true},
		{name: "string modes", a: NewStringParser(StringSingle), b: NewStringParser(StringGreedy)},
		{name: "same suggesting parser", a: suggesting, b: suggesting, want: true},
		{name: "separately wrapped", a: suggesting, b: WithSuggestions(NewStringParser(StringSingle), players)},
		{name: "both nil", want: true},
		{name: "one nil", a: small},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameParser(tt.a, tt.b))
		})
	}
}
