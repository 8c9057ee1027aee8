// Package money provides the fixed-point currency type used by every
// allocation and settlement computation in the platform.
//
// Values are held as an integer count of micro-units (10^-6 of the display
// unit). Ratio scaling multiplies before floor-dividing so no rounding error
// ever accumulates; native floating point is never used for currency.
package money

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 6

// Amount is a currency value in micro-units.
type Amount struct {
	micros int64
}

// Zero is the zero amount.
var Zero = Amount{}

// FromMicros builds an Amount from a raw micro-unit count.
func FromMicros(micros int64) Amount {
	return Amount{micros: micros}
}

// Parse reads a decimal string into an Amount. A missing fractional part is
// treated as zero and fractional digits beyond the micro-unit scale are
// truncated, never rounded.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	shifted := d.Shift(Scale).Truncate(0)
	raw := shifted.BigInt()
	if !raw.IsInt64() {
		return Amount{}, fmt.Errorf("amount %q overflows micro-unit range", s)
	}
	return Amount{micros: raw.Int64()}, nil
}

// MustParse is Parse for trusted literals (config defaults, tests).
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount as a sign-preserving decimal string with
// trailing zeros trimmed.
func (a Amount) String() string {
	return decimal.New(a.micros, -Scale).String()
}

// Micros returns the raw micro-unit count.
func (a Amount) Micros() int64 {
	return a.micros
}

func (a Amount) Add(b Amount) Amount {
	return Amount{micros: a.micros + b.micros}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{micros: a.micros - b.micros}
}

func (a Amount) Neg() Amount {
	return Amount{micros: -a.micros}
}

// Cmp returns -1, 0 or +1 comparing a against b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.micros < b.micros:
		return -1
	case a.micros > b.micros:
		return 1
	default:
		return 0
	}
}

func (a Amount) IsZero() bool {
	return a.micros == 0
}

func (a Amount) IsNegative() bool {
	return a.micros < 0
}

// ScaleByRatio returns a * num / den using integer multiply-then-floor-divide.
// The denominator must be positive; callers guard the zero case explicitly.
func (a Amount) ScaleByRatio(num, den int64) (Amount, error) {
	if den <= 0 {
		return Amount{}, fmt.Errorf("scale ratio denominator must be positive, got %d", den)
	}
	product := new(big.Int).Mul(big.NewInt(a.micros), big.NewInt(num))
	quotient := new(big.Int).Div(product, big.NewInt(den))
	if !quotient.IsInt64() {
		return Amount{}, fmt.Errorf("scale %s by %d/%d overflows micro-unit range", a, num, den)
	}
	return Amount{micros: quotient.Int64()}, nil
}

// MulRate multiplies by an exact decimal rate and floors to micro-units.
// Used for tax, interest, fee and bonus rates.
func (a Amount) MulRate(rate decimal.Decimal) Amount {
	product := decimal.NewFromInt(a.micros).Mul(rate).Floor()
	return Amount{micros: product.IntPart()}
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
