// Package cycle implements the cycle engine: pair index, candidate
// intermediate enumeration, triple enumeration, simulation via the swap
// contract layer, safety bounds, cost-aware ranking, and deterministic
// truncation. The search fans out over candidate intermediate tokens with
// a bounded worker pool; each worker's results are collected over a
// buffered channel guarded by a sync.WaitGroup.
package cycle

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"trianglearb/pkg"
	"trianglearb/pkg/atomicunit"
	"trianglearb/pkg/swap"
	"trianglearb/pkg/xdecimal"
)

// Stats summarizes a run's per-error-kind counts; a run always produces a
// ranked list plus this summary, never an abort on a single bad triple.
type Stats struct {
	TriplesConsidered int
	SwapErrors        int
	ArithmeticErrors  int
	UnitErrors        int
	SafetyBoundDrops  int
}

// Result is a search run's full output.
type Result struct {
	Cycles []pkg.CycleResult
	Stats  Stats
}

// Engine drives the cycle search over a fixed, already-enriched pool set.
type Engine struct {
	Swapper *swap.Swapper
	Logger  *zap.Logger
}

// New constructs an Engine. A nil logger defaults to zap.NewNop().
func New(swapper *swap.Swapper, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Swapper: swapper, Logger: logger}
}

// Search enumerates and ranks triangular cycles. pools must already be
// normalized and enriched; solUSDCPair names the (SOL, USDC) ordered pair
// used by the median sanity filter ahead of indexing.
func (e *Engine) Search(ctx context.Context, cfg Config, pools []*pkg.Pool, solUSDCPair [2]pkg.Mint) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	filtered := FilterMedianOutliers(pools, solUSDCPair, cfg.MedianOutlierFactor)
	filtered = applyTVLFilter(filtered, cfg.MinTVL)
	idx := NewIndex(filtered)

	a, c := cfg.StartToken, cfg.PivotToken
	if !idx.hasEdge(a, c) || !idx.hasEdge(c, a) {
		return Result{}, nil
	}

	candidates := CandidateIntermediates(idx, a, c)

	type workItem struct {
		b pkg.Mint
	}
	type workResult struct {
		cycles []pkg.CycleResult
		stats  Stats
	}

	items := make(chan workItem)
	results := make(chan workResult, len(candidates))
	var wg sync.WaitGroup

	workers := cfg.concurrency()
	if workers > len(candidates)+1 {
		workers = len(candidates) + 1
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range items {
				select {
				case <-ctx.Done():
					return
				default:
				}
				cycles, stats := e.searchIntermediate(ctx, cfg, idx, a, c, item.b)
				results <- workResult{cycles: cycles, stats: stats}
			}
		}()
	}

	go func() {
		defer close(items)
		for _, b := range candidates {
			select {
			case <-ctx.Done():
				return
			case items <- workItem{b: b}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []pkg.CycleResult
	var stats Stats
	for r := range results {
		all = append(all, r.cycles...)
		stats.TriplesConsidered += r.stats.TriplesConsidered
		stats.SwapErrors += r.stats.SwapErrors
		stats.ArithmeticErrors += r.stats.ArithmeticErrors
		stats.UnitErrors += r.stats.UnitErrors
		stats.SafetyBoundDrops += r.stats.SafetyBoundDrops
	}

	sort.Slice(all, func(i, j int) bool {
		ci, cj := all[i], all[j]
		if cmp := ci.NetAfterCostsPct.Compare(cj.NetAfterCostsPct); cmp != 0 {
			return cmp > 0
		}
		return tieBreakKey(ci) < tieBreakKey(cj)
	})

	if len(all) > cfg.MaxRoutes {
		all = all[:cfg.MaxRoutes]
	}

	return Result{Cycles: all, Stats: stats}, nil
}

func tieBreakKey(c pkg.CycleResult) string {
	return c.Legs[0].PoolID + c.Legs[1].PoolID + c.Legs[2].PoolID
}

// searchIntermediate enumerates every (p_AB, p_BC, p_CA) triple for one
// candidate B and simulates each.
func (e *Engine) searchIntermediate(ctx context.Context, cfg Config, idx *Index, a, c, b pkg.Mint) ([]pkg.CycleResult, Stats) {
	var stats Stats
	var out []pkg.CycleResult

	abPools := idx.PoolsFor(a, b, cfg.MaxPoolsPerLeg)
	bcPools := idx.PoolsFor(b, c, cfg.MaxPoolsPerLeg)
	caPools := idx.PoolsFor(c, a, cfg.MaxPoolsPerLeg)

	for _, pAB := range abPools {
		for _, pBC := range bcPools {
			for _, pCA := range caPools {
				select {
				case <-ctx.Done():
					return out, stats
				default:
				}

				stats.TriplesConsidered++
				result, err := e.simulateTriple(ctx, cfg, pAB, pBC, pCA, a, b, c)
				if err != nil {
					switch err.(type) {
					case *pkg.SwapError:
						stats.SwapErrors++
					case *pkg.ArithmeticError:
						stats.ArithmeticErrors++
					case *pkg.UnitError:
						stats.UnitErrors++
					}
					e.Logger.Debug("triple discarded", zap.String("pool_ab", pAB.PoolID), zap.String("pool_bc", pBC.PoolID), zap.String("pool_ca", pCA.PoolID), zap.Error(err))
					continue
				}
				if result == nil {
					stats.SafetyBoundDrops++
					continue
				}
				out = append(out, *result)
			}
		}
	}
	return out, stats
}

// simulateTriple runs the three legs, applies the safety bounds, and
// computes net_after_costs_pct. A nil result with a nil error means the
// triple was dropped by a safety bound, not an error.
func (e *Engine) simulateTriple(ctx context.Context, cfg Config, pAB, pBC, pCA *pkg.Pool, a, b, c pkg.Mint) (*pkg.CycleResult, error) {
	leg1, err := e.Swapper.ProcessSwap(ctx, pAB, cfg.InputAtomic, a, b)
	if err != nil {
		return nil, err
	}
	leg2, err := e.Swapper.ProcessSwap(ctx, pBC, leg1.DyAtomic, b, c)
	if err != nil {
		return nil, err
	}
	leg3, err := e.Swapper.ProcessSwap(ctx, pCA, leg2.DyAtomic, c, a)
	if err != nil {
		return nil, err
	}

	inputAtomic := cfg.InputAtomic
	outputAtomic := leg3.DyAtomic

	profitPct, err := rawProfitPct(inputAtomic, outputAtomic)
	if err != nil {
		return nil, err
	}

	if profitPct.Compare(cfg.MaxProfitPct) > 0 {
		return nil, nil
	}
	negLossBound := cfg.MaxLossPct.Mul(xdecimal.NewFromInt(-1))
	if profitPct.Compare(negLossBound) < 0 {
		return nil, nil
	}

	netAfterCostsPct, err := e.netAfterCostsPct(ctx, pAB, pBC, pCA, a, b, c, leg1, leg2, leg3, profitPct)
	if err != nil {
		return nil, err
	}

	passes := netAfterCostsPct.Compare(cfg.ThresholdPct) >= 0

	return &pkg.CycleResult{
		Legs:             [3]pkg.SwapLegResult{leg1, leg2, leg3},
		InputAtomic:      inputAtomic,
		OutputAtomic:     outputAtomic,
		RawProfitPct:     profitPct,
		NetAfterCostsPct: netAfterCostsPct,
		Passes:           passes,
	}, nil
}

func rawProfitPct(inputAtomic, outputAtomic uint64) (xdecimal.Decimal, error) {
	diff := xdecimal.NewFromUint64(outputAtomic).Sub(xdecimal.NewFromUint64(inputAtomic))
	ratio, err := diff.Div(xdecimal.NewFromUint64(inputAtomic))
	if err != nil {
		return xdecimal.Decimal{}, err
	}
	return ratio.Mul(xdecimal.NewFromInt(100)), nil
}

// netAfterCostsPct aggregates each leg's analytical total cost back into
// the starting token A using the later legs' mid-prices, then expresses
// the aggregate as a percentage of the A-denominated input and subtracts
// it from the raw profit percentage.
func (e *Engine) netAfterCostsPct(ctx context.Context, pAB, pBC, pCA *pkg.Pool, a, b, c pkg.Mint, leg1, leg2, leg3 pkg.SwapLegResult, profitPct xdecimal.Decimal) (xdecimal.Decimal, error) {
	cost1, err := e.Swapper.AnalyticalCost(ctx, pAB, leg1.DxAtomic, a, b)
	if err != nil {
		return xdecimal.Decimal{}, err
	}
	cost2, err := e.Swapper.AnalyticalCost(ctx, pBC, leg2.DxAtomic, b, c)
	if err != nil {
		return xdecimal.Decimal{}, err
	}
	cost3, err := e.Swapper.AnalyticalCost(ctx, pCA, leg3.DxAtomic, c, a)
	if err != nil {
		return xdecimal.Decimal{}, err
	}

	// Leg 3 costs are already denominated in A.
	totalCostA := cost3.TotalCostOutHuman

	// Leg 2 costs are in C; leg3.mid_price is A per C (pool p_CA oriented
	// C->A), so multiplying converts C -> A directly.
	cost2InA := cost2.TotalCostOutHuman.Mul(leg3.MidPrice)
	totalCostA = totalCostA.Add(cost2InA)

	// Leg 1 costs are in B; leg2.mid_price is C per B, leg3.mid_price is A
	// per C, so chaining both reaches A.
	cost1InC := cost1.TotalCostOutHuman.Mul(leg2.MidPrice)
	cost1InA := cost1InC.Mul(leg3.MidPrice)
	totalCostA = totalCostA.Add(cost1InA)

	inputDecimals := pAB.DecimalsX
	if !leg1.InMint.Equals(pAB.MintX) {
		inputDecimals = pAB.DecimalsY
	}
	inputHumanA := atomicunit.ToHuman(leg1.DxAtomic, inputDecimals)
	if !inputHumanA.IsPositive() {
		return profitPct, nil
	}

	costPctRatio, err := totalCostA.Div(inputHumanA)
	if err != nil {
		return xdecimal.Decimal{}, err
	}
	costPct := costPctRatio.Mul(xdecimal.NewFromInt(100))

	return profitPct.Sub(costPct), nil
}

// applyTVLFilter drops pools below MinTVL, approximating a pool's dollar
// TVL as twice its USDC-denominated side. Pools whose TVL cannot be
// estimated (no usable reserves, or no USDC side) pass through unfiltered
// rather than being silently excluded. min_volume_24h has no carrier in
// the canonical pool record and is accepted but not enforced; see
// DESIGN.md.
func applyTVLFilter(pools []*pkg.Pool, minTVL xdecimal.Decimal) []*pkg.Pool {
	if !minTVL.IsPositive() {
		return pools
	}
	out := make([]*pkg.Pool, 0, len(pools))
	for _, p := range pools {
		tvl, ok := estimateTVLHuman(p)
		if !ok || tvl.Compare(minTVL) >= 0 {
			out = append(out, p)
		}
	}
	return out
}

func estimateTVLHuman(p *pkg.Pool) (xdecimal.Decimal, bool) {
	if !p.HasXY() {
		return xdecimal.Decimal{}, false
	}
	switch {
	case p.MintY.Equals(pkg.USDC):
		return atomicunit.ToHuman(*p.YReserve, p.DecimalsY).Mul(xdecimal.NewFromInt(2)), true
	case p.MintX.Equals(pkg.USDC):
		return atomicunit.ToHuman(*p.XReserve, p.DecimalsX).Mul(xdecimal.NewFromInt(2)), true
	default:
		return xdecimal.Decimal{}, false
	}
}
