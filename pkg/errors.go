package pkg

import "fmt"

// Each error category is a distinct Go type so callers can switch on it
// with errors.As without string matching, with a Kind tag narrowing the
// cause inside the category.

type NormalizeErrorKind string

const (
	NormalizeMissingAddress     NormalizeErrorKind = "missing_address"
	NormalizeInvalidAddress     NormalizeErrorKind = "invalid_address"
	NormalizeMissingMint        NormalizeErrorKind = "missing_mint"
	NormalizeDecimalsOutOfRange NormalizeErrorKind = "decimals_out_of_range"
	NormalizeAmbiguousReserve   NormalizeErrorKind = "ambiguous_reserve"
	NormalizeInvariantViolated  NormalizeErrorKind = "invariant_violated"
)

// NormalizeError reports why a single raw pool record was rejected by the
// normalizer. The offending pool is excluded from downstream processing;
// it never halts the batch.
type NormalizeError struct {
	Kind   NormalizeErrorKind
	PoolID string
	Cause  string
}

func (e *NormalizeError) Error() string {
	if e.PoolID != "" {
		return fmt.Sprintf("normalize %s: %s: %s", e.PoolID, e.Kind, e.Cause)
	}
	return fmt.Sprintf("normalize: %s: %s", e.Kind, e.Cause)
}

type EnrichErrorKind string

const (
	EnrichOracleTimeout      EnrichErrorKind = "oracle_timeout"
	EnrichOracleDecodeFailed EnrichErrorKind = "oracle_decode_failure"
	EnrichNoReserveSource    EnrichErrorKind = "no_reserve_source"
)

// EnrichError reports why no reserve source could be resolved for a pool.
// It is not fatal: the pool is marked ReserveSourceNone and, depending on
// kind, may be excluded from search.
type EnrichError struct {
	Kind   EnrichErrorKind
	PoolID string
	Cause  string
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrich %s: %s: %s", e.PoolID, e.Kind, e.Cause)
}

type ArithmeticErrorKind string

const (
	ArithmeticDivisionByZero ArithmeticErrorKind = "division_by_zero"
	ArithmeticNegativeRoot   ArithmeticErrorKind = "negative_root"
	ArithmeticOverflow       ArithmeticErrorKind = "overflow"
)

// ArithmeticError is a hard in-kernel error. The engine discards the
// current triple and continues.
type ArithmeticError struct {
	Kind ArithmeticErrorKind
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic: %s", e.Kind)
}

type UnitErrorKind string

const (
	UnitNegativeAtomic UnitErrorKind = "negative_atomic"
	UnitPrecisionLoss  UnitErrorKind = "precision_loss"
)

// UnitError indicates a conversion invariant was violated. These are
// guarded by construction; any occurrence is a bug and halts the current
// triple (it is never silently swallowed below the engine).
type UnitError struct {
	Kind UnitErrorKind
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit: %s", e.Kind)
}

type SwapErrorKind string

const (
	SwapMintMismatch    SwapErrorKind = "mint_mismatch"
	SwapMissingReserves SwapErrorKind = "missing_reserves"
	SwapNeedsQuoter     SwapErrorKind = "needs_quoter"
	SwapZeroOutput      SwapErrorKind = "zero_output"
)

// SwapError is a per-leg failure. It discards the current triple.
type SwapError struct {
	Kind   SwapErrorKind
	PoolID string
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("swap %s: %s", e.PoolID, e.Kind)
}

type ConfigErrorKind string

const (
	ConfigInvalidThreshold ConfigErrorKind = "invalid_threshold"
	ConfigInvalidBounds    ConfigErrorKind = "invalid_bounds"
)

// ConfigError is rejected at engine construction; it is fail-fast.
type ConfigError struct {
	Kind  ConfigErrorKind
	Cause string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Kind, e.Cause)
}
