package atomicunit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trianglearb/pkg/xdecimal"
)

func TestToHumanExact(t *testing.T) {
	require.Equal(t, "1", ToHuman(1_000_000_000, 9).String())
	require.Equal(t, "1.5", ToHuman(1_500_000, 6).String())
}

func TestToAtomicFloors(t *testing.T) {
	v, err := ToAtomic(xdecimal.MustNew("1.999999999"), 6)
	require.NoError(t, err)
	require.Equal(t, Atomic(1999999), v, "ToAtomic must floor, never round")
}

func TestToAtomicRejectsNegative(t *testing.T) {
	_, err := ToAtomic(xdecimal.MustNew("-1"), 6)
	require.Error(t, err)
	var ue *UnitError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, NegativeAtomic, ue.Kind)
}

func TestRoundTripAtPrecisionBoundary(t *testing.T) {
	const decimals = 9
	original := Atomic(123456789)
	human := ToHuman(original, decimals)
	back, err := ToAtomic(human, decimals)
	require.NoError(t, err)
	require.Equal(t, original, back)
}

func TestToAtomicOverflowIsPrecisionLoss(t *testing.T) {
	huge := xdecimal.MustNew("99999999999999999999999999999999")
	_, err := ToAtomic(huge, 18)
	require.Error(t, err)
	var ue *UnitError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, PrecisionLoss, ue.Kind)
}

func TestToAtomicClampsAtZero(t *testing.T) {
	v, err := ToAtomic(xdecimal.Zero, 6)
	require.NoError(t, err)
	require.Equal(t, Atomic(0), v)
}
