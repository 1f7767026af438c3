// DLMM kernel: single-bin and multi-bin walk over a discrete-bin liquidity
// book, where each bin quotes a constant price and holds a finite reserve
// on each side.
package amm

import (
	"sort"

	"trianglearb/pkg/xdecimal"
)

// Bin is one discretized liquidity bin: a constant price and the reserve
// available on each side, in human units.
type Bin struct {
	BinID         int32
	Price         xdecimal.Decimal // mint_y per mint_x, this bin's constant price
	ReserveXHuman xdecimal.Decimal
	ReserveYHuman xdecimal.Decimal
}

// BinPriceFromID computes price = (1 + bin_step)^bin_id.
func BinPriceFromID(binID int32, binStepBps uint32) xdecimal.Decimal {
	binStep, err := xdecimal.NewFromInt(int64(binStepBps)).Div(xdecimal.NewFromInt(10000))
	if err != nil {
		return xdecimal.Zero
	}
	base := xdecimal.NewFromInt(1).Add(binStep)
	return base.Pow(xdecimal.NewFromInt(int64(binID)))
}

// BinIDFromPrice computes floor(ln(price)/ln(1+bin_step)) exactly, the same
// float64-seed-then-bracket approach PriceToTick uses.
func BinIDFromPrice(price xdecimal.Decimal, binStepBps uint32) int32 {
	if !price.IsPositive() {
		return 0
	}
	binStep, err := xdecimal.NewFromInt(int64(binStepBps)).Div(xdecimal.NewFromInt(10000))
	if err != nil {
		return 0
	}
	base := xdecimal.NewFromInt(1).Add(binStep)

	pf := price.Float64()
	bf := base.Float64()
	guess := int32(logFloat(pf) / logFloat(bf))

	at := func(id int32) xdecimal.Decimal { return base.Pow(xdecimal.NewFromInt(int64(id))) }
	for at(guess).Compare(price) > 0 {
		guess--
	}
	for at(guess + 1).Compare(price) <= 0 {
		guess++
	}
	return guess
}

// DLMMSingleBin converts dx entirely at the active bin's price, capped by
// the available out-side reserve.
func DLMMSingleBin(activeBinPrice, availableOutHuman, dxHuman, feeFraction xdecimal.Decimal, xToY bool) (SwapOutcome, error) {
	if !dxHuman.IsPositive() {
		return SwapOutcome{}, &KernelError{Kind: DivisionByZero, Msg: "dlmm requires positive dx"}
	}

	feePaid := dxHuman.Mul(feeFraction)
	dxAfterFee := dxHuman.Sub(feePaid)

	// Orient the bin price to out-per-in so the reported mid-price has the
	// same meaning in both directions.
	midPrice := activeBinPrice
	if !xToY {
		inv, err := xdecimal.NewFromInt(1).Div(activeBinPrice)
		if err != nil {
			return SwapOutcome{}, err
		}
		midPrice = inv
	}

	idealOut := dxAfterFee.Mul(midPrice)
	dyHuman := xdecimal.Min(idealOut, availableOutHuman)

	return finishDLMMOutcome(midPrice, dxHuman, dxAfterFee, dyHuman)
}

// DLMMMultiBinWalk walks bins sorted by price (descending for x->y,
// ascending for y->x), consuming the remaining post-fee input at each bin's
// constant price and carrying the residual forward when a bin's out-side
// reserve is exhausted. Fee is computed once on dx at the start.
//
// Mid-price is the entry (first-consumed) bin's price, not an average over
// the bins touched: averaging would fold the walk's marginal cost into the
// reference price that price impact is measured against.
func DLMMMultiBinWalk(bins []Bin, dxHuman, feeFraction xdecimal.Decimal, xToY bool) (SwapOutcome, error) {
	if !dxHuman.IsPositive() {
		return SwapOutcome{}, &KernelError{Kind: DivisionByZero, Msg: "dlmm requires positive dx"}
	}
	if len(bins) == 0 {
		return SwapOutcome{}, &KernelError{Kind: DivisionByZero, Msg: "dlmm requires at least one bin"}
	}

	ordered := make([]Bin, len(bins))
	copy(ordered, bins)
	if xToY {
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Price.Compare(ordered[j].Price) > 0 })
	} else {
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Price.Compare(ordered[j].Price) < 0 })
	}

	feePaid := dxHuman.Mul(feeFraction)
	remaining := dxHuman.Sub(feePaid)
	totalOut := xdecimal.Zero

	// mid_price is the entry bin's price oriented to out-per-in.
	entryPrice := ordered[0].Price
	if !xToY {
		inv, err := xdecimal.NewFromInt(1).Div(entryPrice)
		if err != nil {
			return SwapOutcome{}, err
		}
		entryPrice = inv
	}

	for _, bin := range ordered {
		if !remaining.IsPositive() {
			break
		}

		available := bin.ReserveYHuman
		if !xToY {
			available = bin.ReserveXHuman
		}
		if !available.IsPositive() {
			continue
		}

		var theoreticalOut xdecimal.Decimal
		var err error
		if xToY {
			theoreticalOut = remaining.Mul(bin.Price)
		} else {
			theoreticalOut, err = remaining.Div(bin.Price)
			if err != nil {
				return SwapOutcome{}, err
			}
		}

		if theoreticalOut.Compare(available) <= 0 {
			totalOut = totalOut.Add(theoreticalOut)
			remaining = xdecimal.Zero
			break
		}

		// Bin exhausted: consume all of its available out-side reserve and
		// carry the unconverted remainder to the next bin.
		totalOut = totalOut.Add(available)
		var consumed xdecimal.Decimal
		if xToY {
			consumed, err = available.Div(bin.Price)
		} else {
			consumed = available.Mul(bin.Price)
		}
		if err != nil {
			return SwapOutcome{}, err
		}
		remaining = remaining.Sub(consumed)
	}

	return finishDLMMOutcome(entryPrice, dxHuman, dxHuman.Sub(feePaid), totalOut)
}

func finishDLMMOutcome(midPrice, dxHuman, dxAfterFee, dyHuman xdecimal.Decimal) (SwapOutcome, error) {
	feePaid := dxHuman.Sub(dxAfterFee)

	execPrice, err := dyHuman.Div(dxHuman)
	if err != nil {
		return SwapOutcome{}, err
	}

	var priceImpactPct xdecimal.Decimal
	if dxAfterFee.IsPositive() {
		slippageOnlyExec, err := dyHuman.Div(dxAfterFee)
		if err != nil {
			return SwapOutcome{}, err
		}
		ratio, err := midPrice.Sub(slippageOnlyExec).Abs().Div(midPrice)
		if err != nil {
			return SwapOutcome{}, err
		}
		priceImpactPct = ratio.Mul(xdecimal.NewFromInt(100))
	}

	return SwapOutcome{
		DyHuman:        dyHuman,
		FeePaidHuman:   feePaid,
		MidPrice:       midPrice,
		ExecPrice:      execPrice,
		PriceImpactPct: priceImpactPct,
	}, nil
}
