// Package atomicunit implements the bidirectional conversion between
// on-chain atomic integer amounts and human-scaled decimals, always
// flooring at the boundary so accounting can never manufacture value from
// rounding.
package atomicunit

import (
	"fmt"
	"sync"

	"trianglearb/pkg/xdecimal"
)

// Atomic is a non-negative integer amount in a token's smallest unit.
type Atomic = uint64

// UnitErrorKind classifies conversion failures.
type UnitErrorKind string

const (
	NegativeAtomic UnitErrorKind = "negative_atomic"
	PrecisionLoss  UnitErrorKind = "precision_loss"
)

// UnitError reports a conversion precondition violation.
type UnitError struct {
	Kind UnitErrorKind
}

func (e *UnitError) Error() string { return fmt.Sprintf("atomicunit: %s", e.Kind) }

// pow10Cache memoizes 10^decimals; ToHuman/ToAtomic are called concurrently
// from the cycle engine's worker pool, so access is
// guarded by a RWMutex rather than a bare map.
var (
	pow10Mu    sync.RWMutex
	pow10Cache = map[uint8]xdecimal.Decimal{}
)

func pow10(decimals uint8) xdecimal.Decimal {
	pow10Mu.RLock()
	d, ok := pow10Cache[decimals]
	pow10Mu.RUnlock()
	if ok {
		return d
	}

	d = xdecimal.NewFromInt(10).Pow(xdecimal.NewFromInt(int64(decimals)))

	pow10Mu.Lock()
	pow10Cache[decimals] = d
	pow10Mu.Unlock()
	return d
}

// ToHuman computes atomic / 10^decimals exactly.
func ToHuman(a Atomic, decimals uint8) xdecimal.Decimal {
	human, err := xdecimal.NewFromUint64(a).Div(pow10(decimals))
	if err != nil {
		// pow10(decimals) is never zero.
		panic(err)
	}
	return human
}

// ToAtomic computes floor(h * 10^decimals), clamped at zero. A negative h
// fails with UnitError{NegativeAtomic}.
func ToAtomic(h xdecimal.Decimal, decimals uint8) (Atomic, error) {
	if h.IsNegative() {
		return 0, &UnitError{Kind: NegativeAtomic}
	}
	scaled := h.Mul(pow10(decimals)).Floor()
	v, ok := scaled.Uint64()
	if !ok {
		// scaled is floored and non-negative by construction, so the only
		// way to get here is a uint64 overflow: the value cannot be
		// represented as an atomic amount without losing it entirely.
		return 0, &UnitError{Kind: PrecisionLoss}
	}
	return v, nil
}
