// CLMM/Whirlpool kernel: a single-tick approximation built on the standard
// virtual-reserve identity (x = L/sqrtP, y = L*sqrtP), so the trade can be
// priced through the same CPMM closed form and report mid-price, execution
// price, and price impact alongside the output. Price is defined purely as
// (sqrt_price_x64/2^64)^2, with no extra decimal scaling.
package amm

import (
	"trianglearb/pkg/xdecimal"
)

var (
	q64 = xdecimal.NewFromInt(2).Pow(xdecimal.NewFromInt(64))

	// tickBase is 1.0001, the logarithmic tick spacing constant.
	tickBase = xdecimal.MustNew("1.0001")

	// DefaultTickBoundaryThreshold is the fractional liquidity change that
	// implies a price move of roughly half a tick: sqrt(1.0001) - 1.
	DefaultTickBoundaryThreshold = mustHalfTickThreshold()
)

func mustHalfTickThreshold() xdecimal.Decimal {
	sqrtTick, err := tickBase.Sqrt()
	if err != nil {
		panic(err)
	}
	return sqrtTick.Sub(xdecimal.NewFromInt(1))
}

// SqrtPriceX64ToPrice converts a Q64.64 sqrt-price to price: (s/2^64)^2.
func SqrtPriceX64ToPrice(sqrtPriceX64 xdecimal.Decimal) (xdecimal.Decimal, error) {
	sqrtPrice, err := sqrtPriceX64.Div(q64)
	if err != nil {
		return xdecimal.Decimal{}, err
	}
	return sqrtPrice.Mul(sqrtPrice), nil
}

// PriceToSqrtPriceX64 converts a price to its Q64.64 sqrt-price representation.
func PriceToSqrtPriceX64(price xdecimal.Decimal) (xdecimal.Decimal, error) {
	sqrtPrice, err := price.Sqrt()
	if err != nil {
		return xdecimal.Decimal{}, err
	}
	return sqrtPrice.Mul(q64), nil
}

// TickToPrice computes 1.0001^tick exactly (integer exponent).
func TickToPrice(tick int32) xdecimal.Decimal {
	return tickBase.Pow(xdecimal.NewFromInt(int64(tick)))
}

// PriceToTick computes floor(ln(price) / ln(1.0001)) for price > 0, by
// bracketing a float64-seeded estimate with exact Decimal comparisons so the
// round-trip law TickToPrice(PriceToTick(p)) <= p < TickToPrice(PriceToTick(p)+1)
// holds exactly rather than only approximately.
func PriceToTick(price xdecimal.Decimal) int32 {
	if !price.IsPositive() {
		return 0
	}
	pf, _ := priceFloat64(price)
	guess := int32(logFloat(pf) / logFloat(1.0001))

	for TickToPrice(guess).Compare(price) > 0 {
		guess--
	}
	for TickToPrice(guess + 1).Compare(price) <= 0 {
		guess++
	}
	return guess
}

// CLMMResult extends SwapOutcome with the mandatory tick-crossing signal.
type CLMMResult struct {
	SwapOutcome
	CrossedTickBoundary bool
}

// CLMM evaluates the single-tick approximation. threshold is the
// configurable crossed-tick-boundary cutoff; DefaultTickBoundaryThreshold
// flags trades that would move the price by half a tick or more.
func CLMM(sqrtPriceX64, liquidity, dxHuman, feeFraction, threshold xdecimal.Decimal) (CLMMResult, error) {
	if !sqrtPriceX64.IsPositive() || !liquidity.IsPositive() {
		return CLMMResult{}, &KernelError{Kind: DivisionByZero, Msg: "clmm requires positive sqrt_price_x64 and liquidity"}
	}

	sqrtPrice, err := sqrtPriceX64.Div(q64)
	if err != nil {
		return CLMMResult{}, err
	}

	// Virtual reserves implied by the current tick's liquidity: the
	// standard identity L = sqrt(x*y), price = y/x gives x = L/sqrtP,
	// y = L*sqrtP. Pricing the trade against these with the CPMM kernel is
	// the single-tick approximation: liquidity is treated as constant, so
	// the result is only valid while the trade stays within the tick.
	xVirtual, err := liquidity.Div(sqrtPrice)
	if err != nil {
		return CLMMResult{}, err
	}
	yVirtual := liquidity.Mul(sqrtPrice)

	outcome, err := CPMM(xVirtual, yVirtual, dxHuman, feeFraction)
	if err != nil {
		return CLMMResult{}, err
	}

	feePaid := dxHuman.Mul(feeFraction)
	dxAfterFee := dxHuman.Sub(feePaid)
	fractionalChange, err := dxAfterFee.Div(liquidity)
	if err != nil {
		return CLMMResult{}, err
	}

	return CLMMResult{
		SwapOutcome:         outcome,
		CrossedTickBoundary: fractionalChange.Compare(threshold) >= 0,
	}, nil
}
