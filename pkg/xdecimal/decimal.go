// Package xdecimal implements the arbitrary-precision signed decimal
// arithmetic the swap math is built on: at least 40 significant digits,
// default rounding toward zero, and deterministic results across
// platforms. It is a thin, purpose-built layer over
// github.com/shopspring/decimal, which does not itself expose Sqrt, Pow,
// or a fixed minimum precision.
package xdecimal

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the minimum number of significant fractional digits carried
// through division and sqrt. 40 digits are needed downstream; the margin
// keeps chained operations from eroding below that.
const Precision = 50

// ArithmeticErrorKind distinguishes the hard arithmetic failures.
type ArithmeticErrorKind string

const (
	DivisionByZero ArithmeticErrorKind = "division_by_zero"
	NegativeRoot   ArithmeticErrorKind = "negative_root"
)

// ArithmeticError is returned by Div and Sqrt on invalid input.
type ArithmeticError struct {
	Kind ArithmeticErrorKind
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("xdecimal: %s", e.Kind)
}

// Decimal is an arbitrary-precision signed decimal value.
type Decimal struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Decimal{d: decimal.Zero}

// New constructs a Decimal from a string, e.g. "0.0025".
func New(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("xdecimal: invalid literal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// MustNew is New but panics on a malformed literal; intended for constants.
func MustNew(s string) Decimal {
	d, err := New(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewFromInt builds an exact integral Decimal.
func NewFromInt(v int64) Decimal {
	return Decimal{d: decimal.NewFromInt(v)}
}

// NewFromUint64 builds an exact, non-negative integral Decimal.
func NewFromUint64(v uint64) Decimal {
	return Decimal{d: decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)}
}

// NewFromBigInt builds an exact integral Decimal from an arbitrary-precision
// integer, the on-ramp for 128-bit on-chain quantities (sqrt-price,
// liquidity) that don't fit a uint64.
func NewFromBigInt(v *big.Int) Decimal {
	return Decimal{d: decimal.NewFromBigInt(v, 0)}
}

func (a Decimal) String() string { return a.d.String() }

func (a Decimal) Add(b Decimal) Decimal { return Decimal{d: a.d.Add(b.d)} }
func (a Decimal) Sub(b Decimal) Decimal { return Decimal{d: a.d.Sub(b.d)} }
func (a Decimal) Mul(b Decimal) Decimal { return Decimal{d: a.d.Mul(b.d)} }

// Div performs a / b, rounded toward zero to Precision fractional digits.
// Division by zero fails with ArithmeticError{DivisionByZero}.
func (a Decimal) Div(b Decimal) (Decimal, error) {
	if b.d.IsZero() {
		return Decimal{}, &ArithmeticError{Kind: DivisionByZero}
	}
	// Compute with guard digits, then truncate toward zero to Precision.
	// DivRound alone rounds half-away-from-zero, which would break the
	// round-toward-zero default.
	q := a.d.DivRound(b.d, int32(Precision+10))
	return Decimal{d: q.Truncate(int32(Precision))}, nil
}

// MustDiv is Div but panics on division by zero; used only where a zero
// divisor has already been excluded by a precondition check.
func (a Decimal) MustDiv(b Decimal) Decimal {
	q, err := a.Div(b)
	if err != nil {
		panic(err)
	}
	return q
}

// Abs returns |a|.
func (a Decimal) Abs() Decimal { return Decimal{d: a.d.Abs()} }

// Floor rounds toward negative infinity.
func (a Decimal) Floor() Decimal {
	t := a.d.Truncate(0)
	if a.d.Sign() < 0 && t.Cmp(a.d) != 0 {
		t = t.Sub(decimal.NewFromInt(1))
	}
	return Decimal{d: t}
}

// Ceil rounds toward positive infinity.
func (a Decimal) Ceil() Decimal {
	t := a.d.Truncate(0)
	if a.d.Sign() > 0 && t.Cmp(a.d) != 0 {
		t = t.Add(decimal.NewFromInt(1))
	}
	return Decimal{d: t}
}

// Uint64 converts an integral, non-negative Decimal to a uint64. It reports
// false if the value is negative, fractional, or does not fit.
func (a Decimal) Uint64() (uint64, bool) {
	if a.IsNegative() {
		return 0, false
	}
	t := a.d.Truncate(0)
	if t.Cmp(a.d) != 0 {
		return 0, false
	}
	bi := t.BigInt()
	if !bi.IsUint64() {
		return 0, false
	}
	return bi.Uint64(), true
}

// Float64 returns the nearest float64 approximation. It exists only for
// seeding iterative algorithms (Newton's method, tick-index search) that
// then refine the result back to full Decimal precision; never use it for
// a value that crosses a leg boundary.
func (a Decimal) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// IsZero, IsPositive, IsNegative are the sign predicates.
func (a Decimal) IsZero() bool     { return a.d.IsZero() }
func (a Decimal) IsPositive() bool { return a.d.Sign() > 0 }
func (a Decimal) IsNegative() bool { return a.d.Sign() < 0 }

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Decimal) Compare(b Decimal) int { return a.d.Cmp(b.d) }

// Min and Max are total-order min/max.
func Min(a, b Decimal) Decimal {
	if a.Compare(b) <= 0 {
		return a
	}
	return b
}

func Max(a, b Decimal) Decimal {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

var epsilon = decimal.New(1, -int32(Precision+5))

// Sqrt computes the non-negative square root via Newton's method, rounded
// toward zero to Precision digits. Negative input fails with
// ArithmeticError{NegativeRoot}.
func (a Decimal) Sqrt() (Decimal, error) {
	if a.IsNegative() {
		return Decimal{}, &ArithmeticError{Kind: NegativeRoot}
	}
	if a.IsZero() {
		return Zero, nil
	}

	// Seed the iteration from a float64 estimate; Newton's method then
	// refines it to full decimal precision regardless of how rough the
	// seed is, so float64's limited range only bears on convergence speed.
	f, _ := a.d.Float64()
	guess := decimal.NewFromFloat(math.Sqrt(math.Abs(f)))
	if guess.IsZero() {
		guess = decimal.NewFromInt(1)
	}

	two := decimal.NewFromInt(2)
	x := guess
	for i := 0; i < 200; i++ {
		quot := a.d.DivRound(x, int32(Precision+10))
		next := x.Add(quot).DivRound(two, int32(Precision+10))
		delta := next.Sub(x).Abs()
		x = next
		if delta.Cmp(epsilon) < 0 {
			break
		}
	}
	return Decimal{d: x.Truncate(int32(Precision))}, nil
}

// Pow raises a to an integer power exponent (the only shape the kernels in
// this module need: tick/bin exponents are always whole numbers). A
// non-integer exponent is evaluated via a float64 bridge through exp/ln,
// an approximation boundary documented in DESIGN.md.
func (a Decimal) Pow(exponent Decimal) Decimal {
	if exponent.d.Truncate(0).Cmp(exponent.d) == 0 {
		return a.powInt(exponent.d.IntPart())
	}
	af, _ := a.d.Float64()
	ef, _ := exponent.d.Float64()
	return Decimal{d: decimal.NewFromFloat(math.Pow(af, ef))}
}

func (a Decimal) powInt(n int64) Decimal {
	neg := n < 0
	if neg {
		n = -n
	}
	result := decimal.NewFromInt(1)
	base := a.d
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	out := Decimal{d: result}
	if !neg {
		return out
	}
	one := NewFromInt(1)
	div, err := one.Div(out)
	if err != nil {
		return Zero
	}
	return div
}
