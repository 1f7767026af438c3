package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"trianglearb/pkg"
	"trianglearb/pkg/xdecimal"
)

func u64p(v uint64) *uint64           { return &v }
func u128p(v uint64) *uint128.Uint128 { u := uint128.From64(v); return &u }

func basePool() *pkg.Pool {
	return &pkg.Pool{
		PoolID:      "pool-1",
		Dex:         "raydium",
		Kind:        pkg.KindCpmm,
		MintX:       pkg.WSOL,
		MintY:       pkg.USDC,
		DecimalsX:   9,
		DecimalsY:   6,
		FeeFraction: xdecimal.MustNew("0.003"),
	}
}

type fakeOracle struct {
	balances map[string]*uint64
	err      error
	calls    int
}

func (f *fakeOracle) FetchVaultBalances(ctx context.Context, addresses []string) (map[string]*uint64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.balances, nil
}

func TestEnrichPrefersVaultOracle(t *testing.T) {
	vx, vy := "vaultX111111111111111111111111", "vaultY111111111111111111111111"
	p := basePool()
	p.VaultXAddr = &vx
	p.VaultYAddr = &vy
	p.XReserve = u64p(999) // cache present but must be overridden by the oracle
	p.YReserve = u64p(999)

	oracle := &fakeOracle{balances: map[string]*uint64{vx: u64p(1000), vy: u64p(2000)}}
	e := New(oracle, nil, 0, nil)

	out := e.EnrichAll(context.Background(), []*pkg.Pool{p})
	require.Len(t, out, 1)
	require.Equal(t, pkg.ReserveSourceVault, out[0].ReserveSource)
	require.Equal(t, uint64(1000), *out[0].XReserve)
	require.Equal(t, uint64(2000), *out[0].YReserve)

	// the input pool itself must be untouched
	require.Equal(t, uint64(999), *p.XReserve)
}

func TestEnrichFallsBackToCacheWhenOracleFails(t *testing.T) {
	vx, vy := "vaultX111111111111111111111111", "vaultY111111111111111111111111"
	p := basePool()
	p.VaultXAddr = &vx
	p.VaultYAddr = &vy
	p.XReserve = u64p(111)
	p.YReserve = u64p(222)

	oracle := &fakeOracle{err: errors.New("rpc timeout")}
	e := New(oracle, nil, 0, nil)

	out := e.EnrichAll(context.Background(), []*pkg.Pool{p})
	require.Equal(t, pkg.ReserveSourceCache, out[0].ReserveSource)
	require.Equal(t, uint64(111), *out[0].XReserve)
}

func TestEnrichFallsBackToQuoterForClmm(t *testing.T) {
	p := basePool()
	p.Kind = pkg.KindWhirlpool
	p.SqrtPriceX64 = u128p(1 << 40)
	p.Liquidity = u128p(1_000_000)

	e := New(nil, &fakeQuoterStub{}, 0, nil)
	out := e.EnrichAll(context.Background(), []*pkg.Pool{p})
	require.Equal(t, pkg.ReserveSourceQuoter, out[0].ReserveSource)
}

type fakeQuoterStub struct{}

func (f *fakeQuoterStub) Quote(ctx context.Context, poolID string, inMint, outMint pkg.Mint, dxAtomic uint64) (*pkg.QuoterResult, error) {
	return &pkg.QuoterResult{DyAtomic: 1}, nil
}

func TestEnrichMarksNoneWhenNoSourceAvailable(t *testing.T) {
	p := basePool()

	e := New(nil, nil, 0, nil)
	out := e.EnrichAll(context.Background(), []*pkg.Pool{p})
	require.Equal(t, pkg.ReserveSourceNone, out[0].ReserveSource)
	require.Nil(t, out[0].XReserve)
}

func TestEnrichAllIsConcurrentAndPreservesOrder(t *testing.T) {
	pools := make([]*pkg.Pool, 50)
	for i := range pools {
		p := basePool()
		p.PoolID = string(rune('a' + i%26))
		p.XReserve = u64p(uint64(i + 1))
		p.YReserve = u64p(uint64(i + 1))
		pools[i] = p
	}

	e := New(nil, nil, 4, nil)
	out := e.EnrichAll(context.Background(), pools)
	require.Len(t, out, len(pools))
	for i, p := range out {
		require.Equal(t, pools[i].PoolID, p.PoolID)
		require.Equal(t, pkg.ReserveSourceCache, p.ReserveSource)
	}
}
