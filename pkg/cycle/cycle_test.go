package cycle

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"trianglearb/pkg"
	"trianglearb/pkg/swap"
	"trianglearb/pkg/xdecimal"
)

func TestConfigValidateRejectsEqualStartAndPivot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PivotToken = cfg.StartToken
	err := cfg.Validate()
	require.Error(t, err)
	var ce *pkg.ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestConfigValidateRejectsZeroInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputAtomic = 0
	require.Error(t, cfg.Validate())
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

// TestSearchFindsProfitableTriangle builds three zero-fee CPMM pools whose
// cross rates disagree (WSOL->RAY at 2, RAY->USDC at 3, USDC->WSOL at 0.2,
// a round-trip multiplier of 1.2) and checks the engine surfaces it as a
// passing cycle ranked first.
func TestSearchFindsProfitableTriangle(t *testing.T) {
	poolAB := &pkg.Pool{
		PoolID: "pool-ab", Kind: pkg.KindCpmm,
		MintX: pkg.WSOL, MintY: ray, DecimalsX: 9, DecimalsY: 6,
		FeeFraction: xdecimal.Zero,
		XReserve:    u64p(1_000_000 * 1_000_000_000),
		YReserve:    u64p(2_000_000 * 1_000_000),
	}
	poolBC := &pkg.Pool{
		PoolID: "pool-bc", Kind: pkg.KindCpmm,
		MintX: ray, MintY: pkg.USDC, DecimalsX: 6, DecimalsY: 6,
		FeeFraction: xdecimal.Zero,
		XReserve:    u64p(1_000_000 * 1_000_000),
		YReserve:    u64p(3_000_000 * 1_000_000),
	}
	poolCA := &pkg.Pool{
		PoolID: "pool-ca", Kind: pkg.KindCpmm,
		MintX: pkg.USDC, MintY: pkg.WSOL, DecimalsX: 6, DecimalsY: 9,
		FeeFraction: xdecimal.Zero,
		XReserve:    u64p(1_000_000 * 1_000_000),
		YReserve:    u64p(200_000 * 1_000_000_000),
	}

	cfg := DefaultConfig()
	cfg.InputAtomic = 1000 * 1_000_000_000 // 1000 WSOL, 0.1% of pool_ab's A-side reserve
	cfg.ThresholdPct = xdecimal.MustNew("0.1")

	engine := New(swap.New(nil), nil)
	result, err := engine.Search(context.Background(), cfg, []*pkg.Pool{poolAB, poolBC, poolCA}, [2]pkg.Mint{pkg.WSOL, pkg.USDC})
	require.NoError(t, err)
	require.NotEmpty(t, result.Cycles)

	top := result.Cycles[0]
	require.True(t, top.Passes, "a ~20%% cross-rate misalignment should clear the default 0.1%% threshold")
	require.True(t, top.RawProfitPct.IsPositive())
	require.True(t, top.RawProfitPct.Compare(xdecimal.MustNew("10")) > 0, "round-trip multiplier of 1.2 should yield well over 10%% raw profit, got %s", top.RawProfitPct)
	require.True(t, top.RawProfitPct.Compare(xdecimal.MustNew("25")) < 0, "slippage should keep profit below the frictionless 20%%, got %s", top.RawProfitPct)
	require.True(t, top.NetAfterCostsPct.Compare(top.RawProfitPct) <= 0, "analytical slippage cost must never increase net profit")
	require.True(t, top.NetAfterCostsPct.IsPositive(), "the cross-rate misalignment should survive analytical cost deduction")

	require.Equal(t, 1, result.Stats.TriplesConsidered)
	require.Equal(t, 0, result.Stats.SwapErrors+result.Stats.ArithmeticErrors+result.Stats.UnitErrors)
}

func TestSearchReturnsEmptyWhenNoDirectEdgeBetweenStartAndPivot(t *testing.T) {
	poolAB := &pkg.Pool{
		PoolID: "pool-ab", Kind: pkg.KindCpmm,
		MintX: pkg.WSOL, MintY: ray, DecimalsX: 9, DecimalsY: 6,
		FeeFraction: xdecimal.MustNew("0.003"),
		XReserve:    u64p(1_000_000_000_000),
		YReserve:    u64p(1_000_000_000),
	}
	engine := New(swap.New(nil), nil)
	result, err := engine.Search(context.Background(), DefaultConfig(), []*pkg.Pool{poolAB}, [2]pkg.Mint{pkg.WSOL, pkg.USDC})
	require.NoError(t, err)
	require.Empty(t, result.Cycles)
}

func TestSearchRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRoutes = 0
	engine := New(swap.New(nil), nil)
	_, err := engine.Search(context.Background(), cfg, nil, [2]pkg.Mint{pkg.WSOL, pkg.USDC})
	require.Error(t, err)
}

func TestSearchTruncatesToMaxRoutes(t *testing.T) {
	rayB := solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	pools := []*pkg.Pool{
		{PoolID: "ab-1", Kind: pkg.KindCpmm, MintX: pkg.WSOL, MintY: ray, DecimalsX: 9, DecimalsY: 6, FeeFraction: xdecimal.MustNew("0.003"), XReserve: u64p(1_000_000_000_000), YReserve: u64p(150_000_000_000)},
		{PoolID: "bc-1", Kind: pkg.KindCpmm, MintX: ray, MintY: pkg.USDC, DecimalsX: 6, DecimalsY: 6, FeeFraction: xdecimal.MustNew("0.003"), XReserve: u64p(1_000_000_000_000), YReserve: u64p(150_000_000_000)},
		{PoolID: "ca-1", Kind: pkg.KindCpmm, MintX: pkg.USDC, MintY: pkg.WSOL, DecimalsX: 6, DecimalsY: 9, FeeFraction: xdecimal.MustNew("0.003"), XReserve: u64p(150_000_000_000), YReserve: u64p(1_000_000_000_000)},
		{PoolID: "ab-2", Kind: pkg.KindCpmm, MintX: pkg.WSOL, MintY: rayB, DecimalsX: 9, DecimalsY: 6, FeeFraction: xdecimal.MustNew("0.003"), XReserve: u64p(1_000_000_000_000), YReserve: u64p(150_000_000_000)},
		{PoolID: "bc-2", Kind: pkg.KindCpmm, MintX: rayB, MintY: pkg.USDC, DecimalsX: 6, DecimalsY: 6, FeeFraction: xdecimal.MustNew("0.003"), XReserve: u64p(1_000_000_000_000), YReserve: u64p(150_000_000_000)},
		{PoolID: "ca-2", Kind: pkg.KindCpmm, MintX: pkg.USDC, MintY: pkg.WSOL, DecimalsX: 6, DecimalsY: 9, FeeFraction: xdecimal.MustNew("0.003"), XReserve: u64p(150_000_000_000), YReserve: u64p(1_000_000_000_000)},
	}

	cfg := DefaultConfig()
	cfg.MaxRoutes = 1

	engine := New(swap.New(nil), nil)
	result, err := engine.Search(context.Background(), cfg, pools, [2]pkg.Mint{pkg.WSOL, pkg.USDC})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
}
