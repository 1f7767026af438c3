package cycle

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"trianglearb/pkg"
	"trianglearb/pkg/xdecimal"
)

var ray = solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")

func u64p(v uint64) *uint64 { return &v }

func poolXY(id string, x, y pkg.Mint, xReserve, yReserve uint64) *pkg.Pool {
	return &pkg.Pool{
		PoolID:      id,
		Kind:        pkg.KindCpmm,
		MintX:       x,
		MintY:       y,
		DecimalsX:   9,
		DecimalsY:   9,
		FeeFraction: xdecimal.Zero,
		XReserve:    u64p(xReserve),
		YReserve:    u64p(yReserve),
	}
}

func TestIndexBuildsBothDirectionsAndOrdersByPoolID(t *testing.T) {
	p1 := poolXY("pool-b", pkg.WSOL, pkg.USDC, 1000, 1000)
	p2 := poolXY("pool-a", pkg.WSOL, pkg.USDC, 2000, 2000)

	idx := NewIndex([]*pkg.Pool{p1, p2})

	forward := idx.PoolsFor(pkg.WSOL, pkg.USDC, 10)
	require.Len(t, forward, 2)
	require.Equal(t, "pool-a", forward[0].PoolID)
	require.Equal(t, "pool-b", forward[1].PoolID)

	reverse := idx.PoolsFor(pkg.USDC, pkg.WSOL, 10)
	require.Len(t, reverse, 2)
}

func TestIndexPoolsForRespectsMax(t *testing.T) {
	idx := NewIndex([]*pkg.Pool{
		poolXY("p1", pkg.WSOL, pkg.USDC, 1000, 1000),
		poolXY("p2", pkg.WSOL, pkg.USDC, 1000, 1000),
		poolXY("p3", pkg.WSOL, pkg.USDC, 1000, 1000),
	})
	require.Len(t, idx.PoolsFor(pkg.WSOL, pkg.USDC, 2), 2)
}

func TestCandidateIntermediatesFindsSharedNeighbor(t *testing.T) {
	idx := NewIndex([]*pkg.Pool{
		poolXY("pool-ab", pkg.WSOL, ray, 1000, 1000),
		poolXY("pool-bc", ray, pkg.USDC, 1000, 1000),
	})
	candidates := CandidateIntermediates(idx, pkg.WSOL, pkg.USDC)
	require.Len(t, candidates, 1)
	require.True(t, candidates[0].Equals(ray))
}

func TestCandidateIntermediatesExcludesAAndC(t *testing.T) {
	idx := NewIndex([]*pkg.Pool{
		poolXY("pool-direct", pkg.WSOL, pkg.USDC, 1000, 1000),
	})
	candidates := CandidateIntermediates(idx, pkg.WSOL, pkg.USDC)
	require.Empty(t, candidates, "a direct A<->C edge is not itself a candidate intermediate")
}

func TestFilterMedianOutliersDropsStaleQuote(t *testing.T) {
	good1 := poolXY("good-1", pkg.WSOL, pkg.USDC, 1_000_000_000, 150_000_000_000) // price 150
	good2 := poolXY("good-2", pkg.WSOL, pkg.USDC, 1_000_000_000, 152_000_000_000) // price 152
	stale := poolXY("stale", pkg.WSOL, pkg.USDC, 1_000_000_000, 1_500_000_000)    // price 1.5, way off
	unrelated := poolXY("unrelated", pkg.WSOL, ray, 1_000_000_000, 1_000_000_000)

	out := FilterMedianOutliers([]*pkg.Pool{good1, good2, stale, unrelated}, [2]pkg.Mint{pkg.WSOL, pkg.USDC}, xdecimal.MustNew("2.0"))

	ids := make(map[string]bool)
	for _, p := range out {
		ids[p.PoolID] = true
	}
	require.True(t, ids["good-1"])
	require.True(t, ids["good-2"])
	require.True(t, ids["unrelated"], "pools for unrelated pairs must pass through untouched")
	require.False(t, ids["stale"], "a pool priced 100x off the SOL/USDC median must be dropped")
}

func TestFilterMedianOutliersPassesThroughWhenNoSolUsdcPools(t *testing.T) {
	p := poolXY("pool-1", pkg.WSOL, ray, 1000, 1000)
	out := FilterMedianOutliers([]*pkg.Pool{p}, [2]pkg.Mint{pkg.WSOL, pkg.USDC}, xdecimal.MustNew("2.0"))
	require.Len(t, out, 1)
}
