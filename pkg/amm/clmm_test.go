package amm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trianglearb/pkg/xdecimal"
)

func TestTickPriceRoundTripLaw(t *testing.T) {
	ticks := []int32{-50000, -1, 0, 1, 12345, 87654}
	for _, tick := range ticks {
		price := TickToPrice(tick)
		got := PriceToTick(price)
		require.Equal(t, tick, got, "PriceToTick(TickToPrice(tick)) must recover tick exactly")

		require.True(t, TickToPrice(got).Compare(price) <= 0)
		require.True(t, TickToPrice(got+1).Compare(price) > 0)
	}
}

func TestSqrtPriceX64RoundTrip(t *testing.T) {
	price := xdecimal.MustNew("150.25")
	sqrtX64, err := PriceToSqrtPriceX64(price)
	require.NoError(t, err)

	back, err := SqrtPriceX64ToPrice(sqrtX64)
	require.NoError(t, err)

	diff := back.Sub(price).Abs()
	require.True(t, diff.Compare(xdecimal.MustNew("0.0000001")) < 0, "sqrt-price round trip should recover the original price, got %s want %s", back, price)
}

func TestCLMMSingleTickApproximatesCPMM(t *testing.T) {
	// liquidity=1_000_000, sqrt_price=10 (price=100) implies virtual
	// reserves x=100_000, y=10_000_000; pricing a small trade through CLMM
	// should match CPMM over those virtual reserves.
	liquidity := xdecimal.MustNew("1000000")
	sqrtPrice := xdecimal.MustNew("10")
	sqrtPriceX64 := sqrtPrice.Mul(q64)

	fee := xdecimal.MustNew("0.003")
	dx := xdecimal.MustNew("10")

	res, err := CLMM(sqrtPriceX64, liquidity, dx, fee, DefaultTickBoundaryThreshold)
	require.NoError(t, err)
	require.False(t, res.CrossedTickBoundary)

	xVirtual, err := liquidity.Div(sqrtPrice)
	require.NoError(t, err)
	yVirtual := liquidity.Mul(sqrtPrice)
	want, err := CPMM(xVirtual, yVirtual, dx, fee)
	require.NoError(t, err)

	require.Equal(t, 0, res.DyHuman.Compare(want.DyHuman))
}

func TestCLMMFlagsCrossedTickBoundary(t *testing.T) {
	liquidity := xdecimal.MustNew("100")
	sqrtPrice := xdecimal.MustNew("1")
	sqrtPriceX64 := sqrtPrice.Mul(q64)
	fee := xdecimal.Zero

	// dx comparable in magnitude to liquidity should cross the boundary.
	res, err := CLMM(sqrtPriceX64, liquidity, xdecimal.MustNew("50"), fee, DefaultTickBoundaryThreshold)
	require.NoError(t, err)
	require.True(t, res.CrossedTickBoundary)
}

func TestCLMMRejectsNonPositiveState(t *testing.T) {
	fee := xdecimal.MustNew("0.003")
	_, err := CLMM(xdecimal.Zero, xdecimal.MustNew("1"), xdecimal.MustNew("1"), fee, DefaultTickBoundaryThreshold)
	require.Error(t, err)
}
