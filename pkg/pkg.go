// Package pkg defines the shared types and collaborator interfaces that the
// rest of the module is built against: the canonical pool record, swap and
// cycle results, and the PoolSource / ReserveOracle / SwapQuoter boundaries
// behind which all chain I/O lives.
package pkg

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"trianglearb/pkg/xdecimal"
)

// Mint is an opaque 32-byte token-mint address.
type Mint = solana.PublicKey

// Well-known mints.
var (
	WSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDC = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// PoolKind is the AMM family a canonical pool belongs to.
type PoolKind string

const (
	KindCpmm      PoolKind = "cpmm"
	KindClmm      PoolKind = "clmm"
	KindDlmm      PoolKind = "dlmm"
	KindWhirlpool PoolKind = "whirlpool"
)

// ReserveSource records where a pool's math-ready reserves came from.
type ReserveSource string

const (
	ReserveSourceVault  ReserveSource = "vault"
	ReserveSourceCache  ReserveSource = "cache"
	ReserveSourceQuoter ReserveSource = "quoter"
	ReserveSourceNone   ReserveSource = "none"
)

// LegSource identifies which of the three oracles answered a swap leg.
type LegSource string

const (
	LegSourceMath   LegSource = "math"
	LegSourceOracle LegSource = "oracle"
	LegSourceQuoter LegSource = "quoter"
)

// Pool is the canonical, immutable pool record produced by the normalizer
// and, after enrichment, populated with math-ready reserves.
type Pool struct {
	PoolID string
	Dex    string
	Kind   PoolKind

	MintX, MintY         Mint
	DecimalsX, DecimalsY uint8
	SymbolX, SymbolY     string

	FeeFraction xdecimal.Decimal

	XReserve, YReserve *uint64 // atomic; nil until enriched

	// SqrtPriceX64 and Liquidity are carried as uint128.Uint128 rather than
	// uint64: both are 128-bit fields on-chain, and a sqrt-price near
	// price=1 already sits at the 2^64 boundary, so a uint64 would
	// silently truncate it.
	SqrtPriceX64 *uint128.Uint128 // Q64.64, nil unless CLMM/Whirlpool
	Liquidity    *uint128.Uint128
	TickCurrent  *int32
	TickSpacing  *uint16

	ActiveBinID *int32
	BinStepBps  *uint32

	VaultXAddr, VaultYAddr *string

	ReserveSource    ReserveSource
	ReserveTimestamp time.Time
}

// HasXY reports whether both x and y reserves are populated.
func (p *Pool) HasXY() bool {
	return p.XReserve != nil && p.YReserve != nil
}

// HasClmmState reports whether the sqrt-price/liquidity state needed by the
// CLMM/Whirlpool kernel is populated.
func (p *Pool) HasClmmState() bool {
	return p.SqrtPriceX64 != nil && p.Liquidity != nil
}

// Clone returns a deep-enough copy for the enricher to populate without
// mutating the input record.
func (p *Pool) Clone() *Pool {
	cp := *p
	if p.XReserve != nil {
		v := *p.XReserve
		cp.XReserve = &v
	}
	if p.YReserve != nil {
		v := *p.YReserve
		cp.YReserve = &v
	}
	if p.SqrtPriceX64 != nil {
		v := *p.SqrtPriceX64
		cp.SqrtPriceX64 = &v
	}
	if p.Liquidity != nil {
		v := *p.Liquidity
		cp.Liquidity = &v
	}
	// uint128.Uint128 is a plain {Lo, Hi uint64} value type, so the shallow
	// copies above are already independent of p's.
	if p.TickCurrent != nil {
		v := *p.TickCurrent
		cp.TickCurrent = &v
	}
	if p.TickSpacing != nil {
		v := *p.TickSpacing
		cp.TickSpacing = &v
	}
	if p.ActiveBinID != nil {
		v := *p.ActiveBinID
		cp.ActiveBinID = &v
	}
	if p.BinStepBps != nil {
		v := *p.BinStepBps
		cp.BinStepBps = &v
	}
	if p.VaultXAddr != nil {
		v := *p.VaultXAddr
		cp.VaultXAddr = &v
	}
	if p.VaultYAddr != nil {
		v := *p.VaultYAddr
		cp.VaultYAddr = &v
	}
	return &cp
}

// SwapLegResult is the outcome of simulating one leg of a cycle.
type SwapLegResult struct {
	PoolID         string
	InMint, OutMint Mint
	DxAtomic       uint64
	DyAtomic       uint64
	DxHuman        xdecimal.Decimal
	DyHuman        xdecimal.Decimal
	FeePaidInHuman xdecimal.Decimal
	MidPrice       xdecimal.Decimal
	ExecPrice      xdecimal.Decimal
	PriceImpactPct xdecimal.Decimal
	Source         LegSource
}

// CostBreakdown is the analytical-only output of AnalyticalCost: a ranking
// aid, never to be subtracted from a leg's DyAtomic.
type CostBreakdown struct {
	FeeCostOutHuman      xdecimal.Decimal
	SlippageCostOutHuman xdecimal.Decimal
	TotalCostOutHuman    xdecimal.Decimal
}

// CycleResult is a fully simulated A->B->C->A triangle.
type CycleResult struct {
	Legs             [3]SwapLegResult
	InputAtomic      uint64
	OutputAtomic     uint64
	RawProfitPct     xdecimal.Decimal
	NetAfterCostsPct xdecimal.Decimal
	Passes           bool
}

// RawPool is the shape-tolerant attribute bag a PoolSource yields. Field
// names are probed by the normalizer in priority order; absent fields are
// simply missing from the map.
type RawPool map[string]any

// PoolSource is the injected collaborator that loads raw pool descriptions.
// RPC/chain I/O and caching live entirely on the implementation's side of
// this boundary.
type PoolSource interface {
	Load(ctx context.Context) ([]RawPool, error)
}

// ReserveOracle reads live vault balances. Implementations must be safe
// for concurrent use by a bounded number of callers.
type ReserveOracle interface {
	FetchVaultBalances(ctx context.Context, addresses []string) (map[string]*uint64, error)
}

// QuoterResult is the quote an external SwapQuoter returns for a CLMM or
// Whirlpool leg it was asked to price.
type QuoterResult struct {
	DyAtomic       uint64
	OutDecimals    uint8
	FeePaidHuman   *xdecimal.Decimal
	MidPrice       *xdecimal.Decimal
	ExecPrice      *xdecimal.Decimal
	PriceImpactPct *xdecimal.Decimal
}

// SwapQuoter delegates CLMM/Whirlpool legs that cross a tick boundary, or
// whenever bound, to an external, tick-array-aware quoting engine.
type SwapQuoter interface {
	Quote(ctx context.Context, poolID string, inMint, outMint Mint, dxAtomic uint64) (*QuoterResult, error)
}
