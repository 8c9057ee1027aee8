package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTruncatesToMicroUnits(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"1", 1_000_000},
		{"1.5", 1_500_000},
		{"1.1234567", 1_123_456},
		{"0.000001", 1},
		{"0.0000009", 0},
		{"-2.25", -2_250_000},
		{"-0.0000019", -1},
		{"1752000000000", 1_752_000_000_000_000_000},
	}
	for _, tc := range cases {
		got, err := Parse(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got.Micros(), "input %q", tc.input)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3", "1,5"} {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseRejectsOverflow(t *testing.T) {
	_, err := Parse("99999999999999999999")
	assert.Error(t, err)
}

func TestStringIsSignPreservingInverse(t *testing.T) {
	for _, s := range []string{"1.5", "-2.25", "0", "0.000001", "-0.000001", "3452.054794"} {
		amount := MustParse(s)
		assert.Equal(t, s, amount.String())
	}
}

func TestScaleByRatioFloors(t *testing.T) {
	a := FromMicros(10)

	half, err := a.ScaleByRatio(1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), half.Micros())

	neg, err := FromMicros(-10).ScaleByRatio(1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(-4), neg.Micros(), "floor division rounds toward negative infinity")
}

func TestScaleByRatioRejectsNonPositiveDenominator(t *testing.T) {
	_, err := FromMicros(1).ScaleByRatio(1, 0)
	assert.Error(t, err)
	_, err = FromMicros(1).ScaleByRatio(1, -5)
	assert.Error(t, err)
}

func TestScaleByRatioAvoidsIntermediateOverflow(t *testing.T) {
	a := MustParse("1752000000000")
	scaled, err := a.ScaleByRatio(720_000, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, MustParse("1261440000000"), scaled)
}

func TestMulRateFloors(t *testing.T) {
	gross := MustParse("600")
	fee := gross.MulRate(decimal.RequireFromString("0.02"))
	assert.Equal(t, MustParse("12"), fee)

	odd := FromMicros(99)
	assert.Equal(t, int64(1), odd.MulRate(decimal.RequireFromString("0.02")).Micros())
}

func TestArithmeticAndComparison(t *testing.T) {
	a := MustParse("10")
	b := MustParse("4")

	assert.Equal(t, MustParse("14"), a.Add(b))
	assert.Equal(t, MustParse("6"), a.Sub(b))
	assert.Equal(t, MustParse("-10"), a.Neg())
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(MustParse("10")))
	assert.True(t, Zero.IsZero())
	assert.True(t, b.Sub(a).IsNegative())
}

func TestJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(MustParse("12.345678"))
	require.NoError(t, err)
	assert.Equal(t, `"12.345678"`, string(raw))

	var decoded Amount
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, MustParse("12.345678"), decoded)

	require.NoError(t, json.Unmarshal([]byte(`0.25`), &decoded))
	assert.Equal(t, MustParse("0.25"), decoded)
}
