package cycle

import (
	"trianglearb/pkg"
	"trianglearb/pkg/xdecimal"
)

// Config holds the search parameters. DefaultConfig returns a fully
// populated Config; Validate rejects unusable combinations up front. Only a
// non-positive Concurrency falls back to a default (16) at search time.
type Config struct {
	StartToken          pkg.Mint
	PivotToken          pkg.Mint
	InputAtomic         uint64
	ThresholdPct        xdecimal.Decimal
	MaxProfitPct        xdecimal.Decimal
	MaxLossPct          xdecimal.Decimal
	MaxPoolsPerLeg      int
	MaxRoutes           int
	MedianOutlierFactor xdecimal.Decimal
	MinTVL              xdecimal.Decimal
	MinVolume24h        xdecimal.Decimal
	Concurrency         int
}

// DefaultConfig returns the standard search parameters: 1 SOL in, WSOL
// start, USDC pivot.
func DefaultConfig() Config {
	return Config{
		StartToken:          pkg.WSOL,
		PivotToken:          pkg.USDC,
		InputAtomic:         1_000_000_000,
		ThresholdPct:        xdecimal.MustNew("0.1"),
		MaxProfitPct:        xdecimal.MustNew("50"),
		MaxLossPct:          xdecimal.MustNew("90"),
		MaxPoolsPerLeg:      6,
		MaxRoutes:           200,
		MedianOutlierFactor: xdecimal.MustNew("2.0"),
		MinTVL:              xdecimal.Zero,
		MinVolume24h:        xdecimal.Zero,
		Concurrency:         16,
	}
}

// Validate rejects an unusable configuration at construction time rather
// than partway through a search.
func (c Config) Validate() error {
	if c.InputAtomic == 0 {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidThreshold, Cause: "input_atomic must be positive"}
	}
	if !c.ThresholdPct.IsPositive() && !c.ThresholdPct.IsZero() {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidThreshold, Cause: "threshold_pct must be non-negative"}
	}
	if !c.MaxProfitPct.IsPositive() {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidBounds, Cause: "max_profit_pct must be positive"}
	}
	if !c.MaxLossPct.IsPositive() {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidBounds, Cause: "max_loss_pct must be positive"}
	}
	if c.MaxPoolsPerLeg <= 0 {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidBounds, Cause: "max_pools_per_leg must be positive"}
	}
	if c.MaxRoutes <= 0 {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidBounds, Cause: "max_routes must be positive"}
	}
	if !c.MedianOutlierFactor.IsPositive() {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidBounds, Cause: "median_outlier_factor must be positive"}
	}
	if c.StartToken.Equals(c.PivotToken) {
		return &pkg.ConfigError{Kind: pkg.ConfigInvalidBounds, Cause: "start_token and pivot_token must differ"}
	}
	return nil
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return 16
	}
	return c.Concurrency
}
