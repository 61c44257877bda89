package arguments

import (
	"math"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmdengine/pkg/cmdtypes"
)

func newTestContext() *cmdtypes.CommandContext {
	return cmdtypes.NewCommandContext("tester", nil)
}

func TestIntegerParser_RoundTrip(t *testing.T) {
	p, err := NewLongParser(DefaultIntegerMin, DefaultIntegerMax)
	require.NoError(t, err)

	values := []int64{0, 1, -1, 42, -9001, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64}
	for _, v := range values {
		t.Run(strconv.FormatInt(v, 10), func(t *testing.T) {
			input := NewInput([]string{strconv.FormatInt(v, 10), "rest"})
			got, err := p.Parse(newTestContext(), input)
			require.NoError(t, err)
			assert.Equal(t, v, got)
			assert.Equal(t, 1, input.Index(), "exactly one token consumed")
		})
	}
}

func TestIntegerParser_ReturnsInt(t *testing.T) {
	p, err := NewIntegerParser(DefaultIntegerMin, DefaultIntegerMax)
	require.NoError(t, err)

	got, err := p.Parse(newTestContext(), NewInput([]string{"17"}))
	require.NoError(t, err)
	assert.Equal(t, 17, got)
}

func TestIntegerParser_Range(t *testing.T) {
	tests := []struct {
		name    string
		min     int64
		max     int64
		input   string
		wantErr bool
	}{
		{name: "below min", min: 5, max: DefaultIntegerMax, input: "4", wantErr: true},
		{name: "at min", min: 5, max: DefaultIntegerMax, input: "5"},
		{name: "above max", min: DefaultIntegerMin, max: 5, input: "6", wantErr: true},
		{name: "at max", min: DefaultIntegerMin, max: 5, input: "5"},
		{name: "not a number", min: DefaultIntegerMin, max: DefaultIntegerMax, input: "abc", wantErr: true},
		{name: "overflow", min: DefaultIntegerMin, max: DefaultIntegerMax, input: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewIntegerParser(tt.min, tt.max)
			require.NoError(t, err)

			input := NewInput([]string{tt.input})
			_, err = p.Parse(newTestContext(), input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var numErr *NumberParseError
			require.ErrorAs(t, err, &numErr)
			assert.Equal(t, tt.input, numErr.Input)
			assert.Equal(t, 0, input.Index(), "failed parse must not consume")
		})
	}
}

func TestIntegerParser_RangeMessage(t *testing.T) {
	p, err := NewIntegerParser(5, 10)
	require.NoError(t, err)

	_, err = p.Parse(newTestContext(), NewInput([]string{"4"}))
	require.Error(t, err)
	assert.Equal(t, "'4' is not a valid integer in the range [5, 10]", err.Error())
}

func TestNewIntegerParser_InvalidRange(t *testing.T) {
	_, err := NewIntegerParser(10, 1)
	assert.Error(t, err)
}

func TestIntegerParser_NoInput(t *testing.T) {
	p, err := NewIntegerParser(DefaultIntegerMin, DefaultIntegerMax)
	require.NoError(t, err)

	_, err = p.Parse(newTestContext(), NewInput(nil))
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestIntegerParser_Suggestions(t *testing.T) {
	unbounded, err := NewIntegerParser(DefaultIntegerMin, DefaultIntegerMax)
	require.NoError(t, err)
	positive, err := NewIntegerParser(3, 100)
	require.NoError(t, err)

	tests := []struct {
		name    string
		parser  *IntegerParser
		partial string
		want    []string
	}{
		{name: "empty", parser: unbounded, partial: "", want: []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}},
		{name: "minus", parser: unbounded, partial: "-", want: []string{"0", "-1", "-2", "-3", "-4", "-5", "-6", "-7", "-8", "-9"}},
		{name: "full number", parser: unbounded, partial: "12", want: []string{}},
		{name: "garbage", parser: unbounded, partial: "x", want: []string{}},
		{name: "range filtered", parser: positive, partial: "", want: []string{"3", "4", "5", "6", "7", "8", "9"}},
		{name: "range filters negatives", parser: positive, partial: "-", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.parser.Suggestions(newTestContext(), tt.partial)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Suggestions(%q) mismatch (-want +got):\n%s", tt.partial, diff)
			}
		})
	}
}

func TestFloatParser_Parse(t *testing.T) {
	p, err := NewFloatParser(0, 1)
	require.NoError(t, err)

	got, err := p.Parse(newTestContext(), NewInput([]string{"0.25"}))
	require.NoError(t, err)
	assert.Equal(t, 0.25, got)

	for _, bad := range []string{"1.5", "NaN", "Inf", "nope"} {
		_, err := p.Parse(newTestContext(), NewInput([]string{bad}))
		var numErr *NumberParseError
		assert.ErrorAs(t, err, &numErr, bad)
	}
}
