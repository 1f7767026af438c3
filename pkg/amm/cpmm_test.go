package amm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trianglearb/pkg/xdecimal"
)

func TestCPMMBasicSwap(t *testing.T) {
	x := xdecimal.MustNew("1000")
	y := xdecimal.MustNew("1000")
	dx := xdecimal.MustNew("10")
	fee := xdecimal.MustNew("0.003")

	out, err := CPMM(x, y, dx, fee)
	require.NoError(t, err)

	// dx_after_fee = 10 - 0.03 = 9.97; dy = 1000*9.97/1009.97
	require.True(t, out.DyHuman.IsPositive())
	require.True(t, out.DyHuman.Compare(dx) < 0, "output must be less than input at parity reserves plus fee")
	require.Equal(t, 0, out.FeePaidHuman.Compare(xdecimal.MustNew("0.03")), "fee paid should be dx * fee_fraction")
}

func TestCPMMNoOutputSideDraining(t *testing.T) {
	x := xdecimal.MustNew("1000")
	y := xdecimal.MustNew("500")
	dx := xdecimal.MustNew("1")
	fee := xdecimal.Zero

	out, err := CPMM(x, y, dx, fee)
	require.NoError(t, err)
	require.True(t, out.DyHuman.IsPositive())
	require.True(t, out.DyHuman.Compare(y) < 0, "a CPMM leg must never drain or exceed the output reserve")
}

func TestCPMMRejectsNonPositiveInputs(t *testing.T) {
	fee := xdecimal.MustNew("0.003")
	_, err := CPMM(xdecimal.Zero, xdecimal.MustNew("1"), xdecimal.MustNew("1"), fee)
	require.Error(t, err)

	_, err = CPMM(xdecimal.MustNew("1"), xdecimal.MustNew("1"), xdecimal.Zero, fee)
	require.Error(t, err)
}

// TestCPMMMatchesBasicSwapScenario pins down the concrete x=1000, y=2000,
// fee=0.0025, dx=10 example: dy = 798000/40399 ~= 19.75296418228174, mid_price = 2.
func TestCPMMMatchesBasicSwapScenario(t *testing.T) {
	x := xdecimal.MustNew("1000")
	y := xdecimal.MustNew("2000")
	dx := xdecimal.MustNew("10")
	fee := xdecimal.MustNew("0.0025")

	out, err := CPMM(x, y, dx, fee)
	require.NoError(t, err)

	// dx_after_fee = 9.975; dy = 2000*9.975/1009.975 = 798000/40399.
	want := xdecimal.MustNew("19.75296418228174")
	diff := out.DyHuman.Sub(want).Abs()
	require.True(t, diff.Compare(xdecimal.MustNew("0.00000001")) < 0, "dy = %s, want ~%s", out.DyHuman, want)

	require.Equal(t, 0, out.MidPrice.Compare(xdecimal.MustNew("2")))

	execPrice, err := out.DyHuman.Div(dx)
	require.NoError(t, err)
	require.Equal(t, 0, out.ExecPrice.Compare(execPrice))
}

func TestCPMMPriceImpactGrowsWithSize(t *testing.T) {
	x := xdecimal.MustNew("1000")
	y := xdecimal.MustNew("1000")
	fee := xdecimal.Zero

	small, err := CPMM(x, y, xdecimal.MustNew("1"), fee)
	require.NoError(t, err)
	large, err := CPMM(x, y, xdecimal.MustNew("500"), fee)
	require.NoError(t, err)

	require.True(t, large.PriceImpactPct.Compare(small.PriceImpactPct) > 0, "a larger trade against the same reserves must show more price impact")
}
