package arguments

import (
	"fmt"
	"math"
	"strconv"

	"cmdengine/pkg/cmdtypes"
)

// Default integer bounds.
const (
	DefaultIntegerMin int64 = math.MinInt64
	DefaultIntegerMax int64 = math.MaxInt64
)

// NumberParseError reports a token that is not a number or lies outside the
// configured inclusive range.
type NumberParseError struct {
	Input string
	Type  string
	Min   string
	Max   string
	// HasRange is true when at least one bound differs from the type default.
	HasRange bool
}

// Error implements error.
func (e *NumberParseError) Error() string {
	if e.HasRange {
		return fmt.Sprintf("'%s' is not a valid %s in the range [%s, %s]", e.Input, e.Type, e.Min, e.Max)
	}
	return fmt.Sprintf("'%s' is not a valid %s", e.Input, e.Type)
}

// IntegerParser parses signed integers within an inclusive range.
type IntegerParser struct {
	min  int64
	max  int64
	wide bool
}

// NewIntegerParser returns a parser producing int values in [min, max].
func NewIntegerParser(min, max int64) (*IntegerParser, error) {
	if min > max {
		return nil, fmt.Errorf("integer parser: min %d is greater than max %d", min, max)
	}
	return &IntegerParser{min: min, max: max}, nil
}

// NewLongParser returns a parser producing int64 values in [min, max].
func NewLongParser(min, max int64) (*IntegerParser, error) {
	p, err := NewIntegerParser(min, max)
	if err != nil {
		return nil, err
	}
	p.wide = true
	return p, nil
}

// Min returns the inclusive lower bound.
func (p *IntegerParser) Min() int64 { return p.min }

// Max returns the inclusive upper bound.
func (p *IntegerParser) Max() int64 { return p.max }

// HasRange reports whether the parser narrows the default range.
func (p *IntegerParser) HasRange() bool {
	return p.min != DefaultIntegerMin || p.max != DefaultIntegerMax
}

// Parse implements Parser and consumes exactly one token.
func (p *IntegerParser) Parse(_ *cmdtypes.CommandContext, input *Input) (any, error) {
	tok, ok := input.Peek()
	if !ok {
		return nil, ErrNoInput
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || n < p.min || n > p.max {
		return nil, p.failure(tok)
	}
	if !p.wide && (n < math.MinInt || n > math.MaxInt) {
		return nil, p.failure(tok)
	}
	input.Pop()
	if p.wide {
		return n, nil
	}
	return int(n), nil
}

func (p *IntegerParser) failure(tok string) error {
	return &NumberParseError{
		Input:    tok,
		Type:     "integer",
		Min:      strconv.FormatInt(p.min, 10),
		Max:      strconv.FormatInt(p.max, 10),
		HasRange: p.HasRange(),
	}
}

// Suggestions implements Parser. An empty partial yields the digits 0..9 and "-"
// yields 0,-1..-9; any other partial yields nothing. Candidates outside the range
// are dropped.
func (p *IntegerParser) Suggestions(_ *cmdtypes.CommandContext, partial string) []string {
	var sign int64
	switch partial {
	case "":
		sign = 1
	case "-":
		sign = -1
	default:
		return []string{}
	}
	result := make([]string, 0, 10)
	for digit := int64(0); digit <= 9; digit++ {
		n := sign * digit
		if n < p.min || n > p.max {
			continue
		}
		result = append(result, strconv.FormatInt(n, 10))
	}
	return result
}

// FloatParser parses floating point numbers within an inclusive range.
type FloatParser struct {
	min float64
	max float64
}

// NewFloatParser returns a parser producing float64 values in [min, max].
func NewFloatParser(min, max float64) (*FloatParser, error) {
	if min > max {
		return nil, fmt.Errorf("float parser: min %g is greater than max %g", min, max)
	}
	return &FloatParser{min: min, max: max}, nil
}

// Parse implements Parser and consumes exactly one token.
func (p *FloatParser) Parse(_ *cmdtypes.CommandContext, input *Input) (any, error) {
	tok, ok := input.Peek()
	if !ok {
		return nil, ErrNoInput
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < p.min || f > p.max {
		return nil, &NumberParseError{
			Input:    tok,
			Type:     "number",
			Min:      strconv.FormatFloat(p.min, 'g', -1, 64),
			Max:      strconv.FormatFloat(p.max, 'g', -1, 64),
			HasRange: p.min != -math.MaxFloat64 || p.max != math.MaxFloat64,
		}
	}
	input.Pop()
	return f, nil
}

// Suggestions implements Parser. Floats offer no completions.
func (p *FloatParser) Suggestions(*cmdtypes.CommandContext, string) []string {
	return []string{}
}
