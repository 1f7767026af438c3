// Package amm implements the AMM swap kernels: the CPMM closed form, a
// CLMM/Whirlpool single-tick approximation with an explicit tick-boundary
// signal, and a DLMM single-bin/multi-bin walk. All three operate in human
// units and return a xdecimal.Decimal; boundary flooring to atomic amounts
// is the swap contract layer's job, never the kernel's.
package amm

import (
	"fmt"

	"trianglearb/pkg/xdecimal"
)

// ArithmeticErrorKind classifies this package's hard failures.
type ArithmeticErrorKind string

const (
	DivisionByZero ArithmeticErrorKind = "division_by_zero"
)

// KernelError wraps a precondition violation inside an AMM kernel.
type KernelError struct {
	Kind ArithmeticErrorKind
	Msg  string
}

func (e *KernelError) Error() string { return fmt.Sprintf("amm: %s: %s", e.Kind, e.Msg) }

// SwapOutcome is the common result shape every kernel produces.
type SwapOutcome struct {
	DyHuman        xdecimal.Decimal
	FeePaidHuman   xdecimal.Decimal
	MidPrice       xdecimal.Decimal
	ExecPrice      xdecimal.Decimal
	PriceImpactPct xdecimal.Decimal
}

// CPMM evaluates the constant-product closed form. xHuman and yHuman are
// the reserves already oriented to the input token's direction: for a
// reverse trade the caller swaps x and y before invoking the kernel.
func CPMM(xHuman, yHuman, dxHuman, feeFraction xdecimal.Decimal) (SwapOutcome, error) {
	if !xHuman.IsPositive() || !yHuman.IsPositive() || !dxHuman.IsPositive() {
		return SwapOutcome{}, &KernelError{Kind: DivisionByZero, Msg: "cpmm requires strictly positive x, y, dx"}
	}

	feePaid := dxHuman.Mul(feeFraction)
	dxAfterFee := dxHuman.Sub(feePaid)

	denom := xHuman.Add(dxAfterFee)
	dyHuman, err := yHuman.Mul(dxAfterFee).Div(denom)
	if err != nil {
		return SwapOutcome{}, err
	}

	midPrice, err := yHuman.Div(xHuman)
	if err != nil {
		return SwapOutcome{}, err
	}
	execPrice, err := dyHuman.Div(dxHuman)
	if err != nil {
		return SwapOutcome{}, err
	}

	slippageOnlyExec, err := dyHuman.Div(dxAfterFee)
	if err != nil {
		return SwapOutcome{}, err
	}
	impactRatio, err := midPrice.Sub(slippageOnlyExec).Abs().Div(midPrice)
	if err != nil {
		return SwapOutcome{}, err
	}
	priceImpactPct := impactRatio.Mul(xdecimal.NewFromInt(100))

	return SwapOutcome{
		DyHuman:        dyHuman,
		FeePaidHuman:   feePaid,
		MidPrice:       midPrice,
		ExecPrice:      execPrice,
		PriceImpactPct: priceImpactPct,
	}, nil
}
