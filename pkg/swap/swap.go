// Package swap implements the swap contract layer: ProcessSwap, which
// propagates an atomic amount through one pool leg, and AnalyticalCost,
// which computes what the trade gave up versus an infinitesimal-size
// mid-price execution for ranking only. The two are kept as separate
// exported functions with distinct return types and no shared mutable
// state: dy_atomic from ProcessSwap is ground truth for propagation and
// must never have AnalyticalCost subtracted from it, because it already
// reflects fee and slippage.
package swap

import (
	"context"

	"trianglearb/pkg"
	"trianglearb/pkg/amm"
	"trianglearb/pkg/atomicunit"
	"trianglearb/pkg/xdecimal"
)

// Swapper binds the optional external SwapQuoter used for CLMM/Whirlpool
// legs.
type Swapper struct {
	Quoter                pkg.SwapQuoter
	TickBoundaryThreshold xdecimal.Decimal
}

// New constructs a Swapper with the default tick-boundary threshold; callers
// needing a different cutoff set TickBoundaryThreshold directly.
func New(quoter pkg.SwapQuoter) *Swapper {
	return &Swapper{Quoter: quoter, TickBoundaryThreshold: amm.DefaultTickBoundaryThreshold}
}

type direction struct {
	forward                 bool
	inDecimals, outDecimals uint8
}

func resolveDirection(p *pkg.Pool, inMint, outMint pkg.Mint) (direction, error) {
	switch {
	case inMint.Equals(p.MintX) && outMint.Equals(p.MintY):
		return direction{forward: true, inDecimals: p.DecimalsX, outDecimals: p.DecimalsY}, nil
	case inMint.Equals(p.MintY) && outMint.Equals(p.MintX):
		return direction{forward: false, inDecimals: p.DecimalsY, outDecimals: p.DecimalsX}, nil
	default:
		return direction{}, &pkg.SwapError{Kind: pkg.SwapMintMismatch, PoolID: p.PoolID}
	}
}

// legMath is the shared, purely-computational core both ProcessSwap and
// AnalyticalCost draw on: resolve direction, run the right kernel, and
// return dx_human/dy_human/mid/exec/impact/fee. Neither caller mutates
// this result or feeds it back in; it's recomputed fresh each call.
func (s *Swapper) legMath(ctx context.Context, p *pkg.Pool, dxAtomic uint64, dir direction) (amm.SwapOutcome, pkg.LegSource, error) {
	dxHuman := atomicunit.ToHuman(dxAtomic, dir.inDecimals)

	switch p.Kind {
	case pkg.KindCpmm, pkg.KindDlmm:
		if !p.HasXY() {
			return amm.SwapOutcome{}, "", &pkg.SwapError{Kind: pkg.SwapMissingReserves, PoolID: p.PoolID}
		}
	}

	switch p.Kind {
	case pkg.KindCpmm:
		xHuman := atomicunit.ToHuman(*p.XReserve, p.DecimalsX)
		yHuman := atomicunit.ToHuman(*p.YReserve, p.DecimalsY)
		if !dir.forward {
			xHuman, yHuman = yHuman, xHuman
		}
		out, err := amm.CPMM(xHuman, yHuman, dxHuman, p.FeeFraction)
		return out, pkg.LegSourceMath, wrapKernelErr(p, err)

	case pkg.KindDlmm:
		if p.ActiveBinID == nil || p.BinStepBps == nil {
			return amm.SwapOutcome{}, "", &pkg.SwapError{Kind: pkg.SwapMissingReserves, PoolID: p.PoolID}
		}
		activePrice := amm.BinPriceFromID(*p.ActiveBinID, *p.BinStepBps)
		availableOut := atomicunit.ToHuman(*p.YReserve, p.DecimalsY)
		if !dir.forward {
			availableOut = atomicunit.ToHuman(*p.XReserve, p.DecimalsX)
		}
		out, err := amm.DLMMSingleBin(activePrice, availableOut, dxHuman, p.FeeFraction, dir.forward)
		return out, pkg.LegSourceMath, wrapKernelErr(p, err)

	case pkg.KindClmm, pkg.KindWhirlpool:
		return s.legMathClmm(p, dxHuman, dir)

	default:
		return amm.SwapOutcome{}, "", &pkg.SwapError{Kind: pkg.SwapMissingReserves, PoolID: p.PoolID}
	}
}

// legMathClmm prices the single-tick approximation directly; it is only
// reached when no SwapQuoter is bound, since ProcessSwap and AnalyticalCost
// both delegate to the quoter first when one is available.
func (s *Swapper) legMathClmm(p *pkg.Pool, dxHuman xdecimal.Decimal, dir direction) (amm.SwapOutcome, pkg.LegSource, error) {
	if !p.HasClmmState() {
		return amm.SwapOutcome{}, "", &pkg.SwapError{Kind: pkg.SwapMissingReserves, PoolID: p.PoolID}
	}

	sqrtPriceX64 := xdecimal.NewFromBigInt(p.SqrtPriceX64.Big())
	liquidity := xdecimal.NewFromBigInt(p.Liquidity.Big())
	if !dir.forward {
		// mint_y -> mint_x: invert price by swapping the virtual-reserve
		// roles, same direction-handling convention as CPMM.
		price, err := amm.SqrtPriceX64ToPrice(sqrtPriceX64)
		if err != nil {
			return amm.SwapOutcome{}, "", wrapKernelErr(p, err)
		}
		inv, err := xdecimal.NewFromInt(1).Div(price)
		if err != nil {
			return amm.SwapOutcome{}, "", wrapKernelErr(p, err)
		}
		invSqrtX64, err := amm.PriceToSqrtPriceX64(inv)
		if err != nil {
			return amm.SwapOutcome{}, "", wrapKernelErr(p, err)
		}
		sqrtPriceX64 = invSqrtX64
	}

	res, err := amm.CLMM(sqrtPriceX64, liquidity, dxHuman, p.FeeFraction, s.TickBoundaryThreshold)
	if err != nil {
		return amm.SwapOutcome{}, "", wrapKernelErr(p, err)
	}
	if res.CrossedTickBoundary {
		return amm.SwapOutcome{}, "", &pkg.SwapError{Kind: pkg.SwapNeedsQuoter, PoolID: p.PoolID}
	}
	return res.SwapOutcome, pkg.LegSourceMath, nil
}

// wrapUnitErr lifts an atomicunit.UnitError into the pkg-level UnitError
// category so the engine's per-kind stats see it.
func wrapUnitErr(err error) error {
	ue, ok := err.(*atomicunit.UnitError)
	if !ok {
		return err
	}
	kind := pkg.UnitNegativeAtomic
	if ue.Kind == atomicunit.PrecisionLoss {
		kind = pkg.UnitPrecisionLoss
	}
	return &pkg.UnitError{Kind: kind}
}

// wrapKernelErr turns a kernel-level precondition failure (amm.KernelError,
// xdecimal.ArithmeticError) into the pkg-level ArithmeticError category:
// these are hard in-kernel failures, distinct from a SwapError, and cause
// the engine to discard the current triple.
func wrapKernelErr(p *pkg.Pool, err error) error {
	if err == nil {
		return nil
	}
	kind := pkg.ArithmeticDivisionByZero
	switch e := err.(type) {
	case *amm.KernelError:
		if e.Kind == amm.DivisionByZero {
			kind = pkg.ArithmeticDivisionByZero
		}
	case *xdecimal.ArithmeticError:
		if e.Kind == xdecimal.NegativeRoot {
			kind = pkg.ArithmeticNegativeRoot
		}
	}
	return &pkg.ArithmeticError{Kind: kind}
}

// ProcessSwap propagates dxAtomic through one pool leg. The returned
// DyAtomic is already net of fee and slippage; callers must never re-apply
// AnalyticalCost to it.
func (s *Swapper) ProcessSwap(ctx context.Context, p *pkg.Pool, dxAtomic uint64, inMint, outMint pkg.Mint) (pkg.SwapLegResult, error) {
	dir, err := resolveDirection(p, inMint, outMint)
	if err != nil {
		return pkg.SwapLegResult{}, err
	}

	if (p.Kind == pkg.KindClmm || p.Kind == pkg.KindWhirlpool) && s.Quoter != nil {
		return s.processSwapViaQuoter(ctx, p, dxAtomic, inMint, outMint, dir)
	}

	outcome, source, err := s.legMath(ctx, p, dxAtomic, dir)
	if err != nil {
		return pkg.SwapLegResult{}, err
	}

	dxHuman := atomicunit.ToHuman(dxAtomic, dir.inDecimals)
	dyAtomic, err := atomicunit.ToAtomic(outcome.DyHuman, dir.outDecimals)
	if err != nil {
		return pkg.SwapLegResult{}, wrapUnitErr(err)
	}
	if dyAtomic == 0 && dxAtomic > 0 {
		return pkg.SwapLegResult{}, &pkg.SwapError{Kind: pkg.SwapZeroOutput, PoolID: p.PoolID}
	}

	return pkg.SwapLegResult{
		PoolID:         p.PoolID,
		InMint:         inMint,
		OutMint:        outMint,
		DxAtomic:       dxAtomic,
		DyAtomic:       dyAtomic,
		DxHuman:        dxHuman,
		DyHuman:        outcome.DyHuman,
		FeePaidInHuman: outcome.FeePaidHuman,
		MidPrice:       outcome.MidPrice,
		ExecPrice:      outcome.ExecPrice,
		PriceImpactPct: outcome.PriceImpactPct,
		Source:         source,
	}, nil
}

func (s *Swapper) processSwapViaQuoter(ctx context.Context, p *pkg.Pool, dxAtomic uint64, inMint, outMint pkg.Mint, dir direction) (pkg.SwapLegResult, error) {
	res, err := s.Quoter.Quote(ctx, p.PoolID, inMint, outMint, dxAtomic)
	if err != nil {
		return pkg.SwapLegResult{}, &pkg.SwapError{Kind: pkg.SwapNeedsQuoter, PoolID: p.PoolID}
	}
	if res.DyAtomic == 0 && dxAtomic > 0 {
		return pkg.SwapLegResult{}, &pkg.SwapError{Kind: pkg.SwapZeroOutput, PoolID: p.PoolID}
	}

	dxHuman := atomicunit.ToHuman(dxAtomic, dir.inDecimals)
	dyHuman := atomicunit.ToHuman(res.DyAtomic, res.OutDecimals)

	leg := pkg.SwapLegResult{
		PoolID:   p.PoolID,
		InMint:   inMint,
		OutMint:  outMint,
		DxAtomic: dxAtomic,
		DyAtomic: res.DyAtomic,
		DxHuman:  dxHuman,
		DyHuman:  dyHuman,
		Source:   pkg.LegSourceQuoter,
	}
	if res.FeePaidHuman != nil {
		leg.FeePaidInHuman = *res.FeePaidHuman
	}
	if res.MidPrice != nil {
		leg.MidPrice = *res.MidPrice
	}
	if res.ExecPrice != nil {
		leg.ExecPrice = *res.ExecPrice
	}
	if res.PriceImpactPct != nil {
		leg.PriceImpactPct = *res.PriceImpactPct
	}
	return leg, nil
}

// AnalyticalCost splits what the trade gave up versus an infinitesimal
// mid-price execution into fee and slippage components, denominated in the
// leg's output token. Ranking only: it must never be subtracted from a
// leg's DyAtomic.
func (s *Swapper) AnalyticalCost(ctx context.Context, p *pkg.Pool, dxAtomic uint64, inMint, outMint pkg.Mint) (pkg.CostBreakdown, error) {
	dir, err := resolveDirection(p, inMint, outMint)
	if err != nil {
		return pkg.CostBreakdown{}, err
	}

	var outcome amm.SwapOutcome
	if (p.Kind == pkg.KindClmm || p.Kind == pkg.KindWhirlpool) && s.Quoter != nil {
		leg, err := s.processSwapViaQuoter(ctx, p, dxAtomic, inMint, outMint, dir)
		if err != nil {
			return pkg.CostBreakdown{}, err
		}
		outcome = amm.SwapOutcome{DyHuman: leg.DyHuman, MidPrice: leg.MidPrice}
	} else {
		outcome, _, err = s.legMath(ctx, p, dxAtomic, dir)
		if err != nil {
			return pkg.CostBreakdown{}, err
		}
	}

	dxHuman := atomicunit.ToHuman(dxAtomic, dir.inDecimals)
	idealOutAtMid := dxHuman.Mul(outcome.MidPrice)
	feeCostOut := dxHuman.Mul(p.FeeFraction).Mul(outcome.MidPrice)
	slippageCostOut := xdecimal.Max(xdecimal.Zero, idealOutAtMid.Sub(feeCostOut).Sub(outcome.DyHuman))

	return pkg.CostBreakdown{
		FeeCostOutHuman:      feeCostOut,
		SlippageCostOutHuman: slippageCostOut,
		TotalCostOutHuman:    feeCostOut.Add(slippageCostOut),
	}, nil
}
