package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"trianglearb/pkg"
	"trianglearb/pkg/cycle"
	"trianglearb/pkg/xdecimal"
)

// SearchConfigFromEnv builds a cycle.Config from DefaultConfig, overridden
// by whichever of these environment variables are set:
//
//	ARBSIM_START_TOKEN, ARBSIM_PIVOT_TOKEN (base58 mints)
//	ARBSIM_INPUT_ATOMIC
//	ARBSIM_THRESHOLD_PCT, ARBSIM_MAX_PROFIT_PCT, ARBSIM_MAX_LOSS_PCT
//	ARBSIM_MAX_POOLS_PER_LEG, ARBSIM_MAX_ROUTES
//	ARBSIM_MEDIAN_OUTLIER_FACTOR
//	ARBSIM_MIN_TVL, ARBSIM_MIN_VOLUME_24H
func SearchConfigFromEnv() (cycle.Config, error) {
	cfg := cycle.DefaultConfig()

	if v := os.Getenv("ARBSIM_START_TOKEN"); v != "" {
		mint, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return cycle.Config{}, fmt.Errorf("config: ARBSIM_START_TOKEN: %w", err)
		}
		cfg.StartToken = mint
	}
	if v := os.Getenv("ARBSIM_PIVOT_TOKEN"); v != "" {
		mint, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return cycle.Config{}, fmt.Errorf("config: ARBSIM_PIVOT_TOKEN: %w", err)
		}
		cfg.PivotToken = mint
	}

	if v := os.Getenv("ARBSIM_INPUT_ATOMIC"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cycle.Config{}, fmt.Errorf("config: ARBSIM_INPUT_ATOMIC: %w", err)
		}
		cfg.InputAtomic = n
	}

	if err := overrideDecimal(&cfg.ThresholdPct, "ARBSIM_THRESHOLD_PCT"); err != nil {
		return cycle.Config{}, err
	}
	if err := overrideDecimal(&cfg.MaxProfitPct, "ARBSIM_MAX_PROFIT_PCT"); err != nil {
		return cycle.Config{}, err
	}
	if err := overrideDecimal(&cfg.MaxLossPct, "ARBSIM_MAX_LOSS_PCT"); err != nil {
		return cycle.Config{}, err
	}
	if err := overrideDecimal(&cfg.MedianOutlierFactor, "ARBSIM_MEDIAN_OUTLIER_FACTOR"); err != nil {
		return cycle.Config{}, err
	}
	if err := overrideDecimal(&cfg.MinTVL, "ARBSIM_MIN_TVL"); err != nil {
		return cycle.Config{}, err
	}
	if err := overrideDecimal(&cfg.MinVolume24h, "ARBSIM_MIN_VOLUME_24H"); err != nil {
		return cycle.Config{}, err
	}

	if v := os.Getenv("ARBSIM_MAX_POOLS_PER_LEG"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cycle.Config{}, fmt.Errorf("config: ARBSIM_MAX_POOLS_PER_LEG: %w", err)
		}
		cfg.MaxPoolsPerLeg = n
	}
	if v := os.Getenv("ARBSIM_MAX_ROUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cycle.Config{}, fmt.Errorf("config: ARBSIM_MAX_ROUTES: %w", err)
		}
		cfg.MaxRoutes = n
	}

	if err := cfg.Validate(); err != nil {
		return cycle.Config{}, err
	}
	return cfg, nil
}

func overrideDecimal(field *xdecimal.Decimal, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := xdecimal.New(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*field = d
	return nil
}

// SolUSDCPair returns the (WSOL, USDC) ordered pair the median sanity
// filter anchors on.
func SolUSDCPair() [2]pkg.Mint {
	return [2]pkg.Mint{pkg.WSOL, pkg.USDC}
}
