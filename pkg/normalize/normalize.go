// Package normalize implements the pool normalizer: converting a
// shape-tolerant raw attribute bag into the canonical, math-ready pool
// record, including the vault-vs-amount disambiguation: misreading a
// base58 vault address as a reserve balance fabricates astronomically
// profitable cycles downstream.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/gagliardetto/solana-go"

	"trianglearb/pkg"
	"trianglearb/pkg/xdecimal"
)

// Normalize converts one raw pool record into a canonical pkg.Pool, or
// returns a *pkg.NormalizeError naming the specific cause. A single
// rejected record never halts a batch; callers normalizing many records
// should simply skip the ones that fail.
func Normalize(raw pkg.RawPool) (*pkg.Pool, error) {
	poolID, err := findPoolID(raw)
	if err != nil {
		return nil, err
	}

	dex := strings.ToLower(asString(raw, "dex", "protocol", "source"))
	kind := detectKind(raw, dex)

	mintX, mintY, err := extractMints(raw)
	if err != nil {
		return nil, &pkg.NormalizeError{Kind: pkg.NormalizeMissingMint, PoolID: poolID, Cause: err.Error()}
	}

	decX, decY, err := assignDecimals(raw, mintX, mintY)
	if err != nil {
		return nil, &pkg.NormalizeError{Kind: pkg.NormalizeDecimalsOutOfRange, PoolID: poolID, Cause: err.Error()}
	}

	fee, err := normalizeFee(raw)
	if err != nil {
		return nil, &pkg.NormalizeError{Kind: pkg.NormalizeInvariantViolated, PoolID: poolID, Cause: err.Error()}
	}

	p := &pkg.Pool{
		PoolID:      poolID,
		Dex:         dexOrUnknown(dex),
		Kind:        kind,
		MintX:       mintX,
		MintY:       mintY,
		DecimalsX:   decX,
		DecimalsY:   decY,
		SymbolX:     asString(raw, "symbol_x", "base_symbol"),
		SymbolY:     asString(raw, "symbol_y", "quote_symbol"),
		FeeFraction: fee,
	}

	if err := disambiguateReserves(raw, p); err != nil {
		return nil, err
	}

	if err := extractClmmState(raw, p); err != nil {
		return nil, err
	}
	extractDlmmState(raw, p)

	if err := checkInvariants(p); err != nil {
		return nil, err
	}
	return p, nil
}

func dexOrUnknown(dex string) string {
	if dex == "" {
		return "unknown"
	}
	return dex
}

var poolIDFields = []string{"pool_id", "poolId", "address", "pool_address", "id", "pubkey"}

func findPoolID(raw pkg.RawPool) (string, error) {
	for _, field := range poolIDFields {
		v := asString(raw, field)
		if v == "" {
			continue
		}
		if !isBase58Shaped(v) {
			return "", &pkg.NormalizeError{Kind: pkg.NormalizeInvalidAddress, Cause: fmt.Sprintf("field %q is not base58-shaped", field)}
		}
		return v, nil
	}
	return "", &pkg.NormalizeError{Kind: pkg.NormalizeMissingAddress, Cause: "no recognized pool-id field present"}
}

// isBase58Shaped reports whether s looks like a base58-encoded 32-byte
// Solana address: valid base58 alphabet and a typical encoded length.
func isBase58Shaped(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	_, err := base58.Decode(s)
	return err == nil
}

func detectKind(raw pkg.RawPool, dex string) pkg.PoolKind {
	haystack := strings.ToLower(strings.Join([]string{
		asString(raw, "kind", "pool_type", "type", "program", "account_type"),
		dex,
	}, " "))

	switch {
	case strings.Contains(haystack, "whirlpool"):
		return pkg.KindWhirlpool
	case strings.Contains(haystack, "dlmm"), strings.Contains(haystack, "bin"):
		return pkg.KindDlmm
	case strings.Contains(haystack, "clmm"), strings.Contains(haystack, "concentrated"):
		return pkg.KindClmm
	case strings.Contains(haystack, "cpmm"), strings.Contains(haystack, "amm"), strings.Contains(haystack, "constant"):
		return pkg.KindCpmm
	}

	switch dex {
	case "orca":
		return pkg.KindWhirlpool
	case "meteora":
		return pkg.KindDlmm
	case "raydium":
		return pkg.KindCpmm
	}
	return pkg.KindCpmm
}

func extractMints(raw pkg.RawPool) (solana.PublicKey, solana.PublicKey, error) {
	mintX := asString(raw, "mint_x", "mintX", "base_mint", "baseMint")
	mintY := asString(raw, "mint_y", "mintY", "quote_mint", "quoteMint")
	if mintX == "" || mintY == "" {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("missing mint_x/mint_y (or base/quote) fields")
	}

	x, err := solana.PublicKeyFromBase58(mintX)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("mint_x %q: %w", mintX, err)
	}
	y, err := solana.PublicKeyFromBase58(mintY)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("mint_y %q: %w", mintY, err)
	}

	// Align (mint_x, mint_y) with the raw-cached reserve ordering: if an
	// explicit base/quote pair disagrees with mint_x/mint_y, re-label so
	// x_* fields always correspond to mint_x.
	baseMint := asString(raw, "base_mint", "baseMint")
	if baseMint != "" {
		if base, err := solana.PublicKeyFromBase58(baseMint); err == nil && !base.Equals(x) && base.Equals(y) {
			x, y = y, x
		}
	}
	return x, y, nil
}

func assignDecimals(raw pkg.RawPool, mintX, mintY solana.PublicKey) (uint8, uint8, error) {
	decX := decimalsFor(raw, "decimals_x", "decimalsX", mintX, 9)
	decY := decimalsFor(raw, "decimals_y", "decimalsY", mintY, 6)
	if decX > 18 || decY > 18 {
		return 0, 0, fmt.Errorf("decimals out of range [0,18]: x=%d y=%d", decX, decY)
	}
	return decX, decY, nil
}

func decimalsFor(raw pkg.RawPool, field string, altField string, mint solana.PublicKey, fallback uint8) uint8 {
	if mint.Equals(pkg.WSOL) {
		return 9
	}
	if mint.Equals(pkg.USDC) {
		return 6
	}
	if v, ok := asUint8(raw, field); ok {
		return v
	}
	if v, ok := asUint8(raw, altField); ok {
		return v
	}
	return fallback
}

// disambiguateReserves sorts out reserve_x/reserve_y style fields, which
// are ambiguous between a vault address and a cached amount depending on
// the data source. A base58-shaped value is always a vault address,
// regardless of field name.
func disambiguateReserves(raw pkg.RawPool, p *pkg.Pool) error {
	if err := disambiguateOne(raw, p, "x", []string{"reserve_x", "reserveX", "vault_x", "vaultX", "base_vault", "baseVault"},
		[]string{"reserve_x_amount", "reserveXAmount", "base_reserve", "baseReserve"}); err != nil {
		return err
	}
	if err := disambiguateOne(raw, p, "y", []string{"reserve_y", "reserveY", "vault_y", "vaultY", "quote_vault", "quoteVault"},
		[]string{"reserve_y_amount", "reserveYAmount", "quote_reserve", "quoteReserve"}); err != nil {
		return err
	}
	return nil
}

func disambiguateOne(raw pkg.RawPool, p *pkg.Pool, side string, ambiguousFields, amountOnlyFields []string) error {
	var vaultAddr *string
	var amount *uint64

	for _, f := range ambiguousFields {
		v := asString(raw, f)
		if v == "" {
			continue
		}
		if isBase58Shaped(v) {
			addr := v
			vaultAddr = &addr
			continue
		}
		if n, ok := parseNonNegativeInt(v); ok {
			amount = &n
		}
	}
	for _, f := range amountOnlyFields {
		if amount != nil {
			break
		}
		v := asString(raw, f)
		if v == "" {
			continue
		}
		if isBase58Shaped(v) {
			// An amount-only field holding a base58-shaped value is a
			// data-source error; never silently accept it as a number.
			return &pkg.NormalizeError{Kind: pkg.NormalizeAmbiguousReserve, PoolID: p.PoolID,
				Cause: fmt.Sprintf("field %q looks like an address, not an amount", f)}
		}
		if n, ok := parseNonNegativeInt(v); ok {
			amount = &n
		}
	}

	if side == "x" {
		p.VaultXAddr = vaultAddr
		p.XReserve = amount
	} else {
		p.VaultYAddr = vaultAddr
		p.YReserve = amount
	}
	return nil
}

func parseNonNegativeInt(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractClmmState(raw pkg.RawPool, p *pkg.Pool) error {
	if p.Kind != pkg.KindClmm && p.Kind != pkg.KindWhirlpool {
		return nil
	}
	if v, ok := asUint128(raw, "sqrt_price_x64", "sqrtPriceX64"); ok {
		p.SqrtPriceX64 = &v
	}
	if v, ok := asUint128(raw, "liquidity"); ok {
		p.Liquidity = &v
	}
	if v, ok := asInt32(raw, "tick_current", "tickCurrent"); ok {
		p.TickCurrent = &v
	}
	if v, ok := asUint16Ptr(raw, "tick_spacing", "tickSpacing"); ok {
		p.TickSpacing = v
	}
	return nil
}

func extractDlmmState(raw pkg.RawPool, p *pkg.Pool) {
	if p.Kind != pkg.KindDlmm {
		return
	}
	if v, ok := asInt32(raw, "active_bin_id", "activeBinId"); ok {
		p.ActiveBinID = &v
	}
	if v, ok := asUint32(raw, "bin_step_bps", "binStepBps", "bin_step"); ok {
		p.BinStepBps = &v
	}
}

// normalizeFee accepts the wide range of fee encodings seen in the wild
// and produces a fraction in [0, 1). The generic fraction/percent fields
// take precedence; the Meteora base_fee_percentage basis-points rule only
// applies when no generic field is present.
func normalizeFee(raw pkg.RawPool) (xdecimal.Decimal, error) {
	if v, ok := asFloat(raw, "fee_fraction", "fee", "feeFraction", "fee_pct", "feePct", "fee_percentage"); ok {
		switch {
		case v > 0 && v < 0.1:
			return xdecimal.New(fmt.Sprintf("%.18f", v))
		case v >= 0.1 && v <= 100:
			d, _ := xdecimal.New(fmt.Sprintf("%.18f", v))
			return d.Div(xdecimal.NewFromInt(100))
		}
	}
	if v, ok := asFloat(raw, "base_fee_percentage", "baseFeePercentage"); ok {
		// Meteora's base_fee_percentage, when it is the only source, is in
		// basis points.
		bps, _ := xdecimal.New(fmt.Sprintf("%.6f", v))
		return bps.Div(xdecimal.NewFromInt(10000))
	}
	return xdecimal.MustNew("0.003"), nil
}

func checkInvariants(p *pkg.Pool) error {
	if p.MintX.Equals(p.MintY) {
		return &pkg.NormalizeError{Kind: pkg.NormalizeInvariantViolated, PoolID: p.PoolID, Cause: "mint_x == mint_y"}
	}
	if p.FeeFraction.IsNegative() || p.FeeFraction.Compare(xdecimal.NewFromInt(1)) >= 0 {
		return &pkg.NormalizeError{Kind: pkg.NormalizeInvariantViolated, PoolID: p.PoolID, Cause: "fee_fraction out of [0,1)"}
	}
	if p.XReserve != nil && p.YReserve != nil {
		if *p.XReserve == 0 || *p.YReserve == 0 {
			return &pkg.NormalizeError{Kind: pkg.NormalizeInvariantViolated, PoolID: p.PoolID, Cause: "x_reserve/y_reserve must be strictly positive when both set"}
		}
	}
	if p.VaultXAddr != nil && p.VaultYAddr != nil && *p.VaultXAddr == *p.VaultYAddr {
		return &pkg.NormalizeError{Kind: pkg.NormalizeInvariantViolated, PoolID: p.PoolID, Cause: "vault_x_addr == vault_y_addr"}
	}
	return nil
}
