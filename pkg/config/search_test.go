package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"trianglearb/pkg"
	"trianglearb/pkg/xdecimal"
)

func clearSearchEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"ARBSIM_START_TOKEN", "ARBSIM_PIVOT_TOKEN", "ARBSIM_INPUT_ATOMIC",
		"ARBSIM_THRESHOLD_PCT", "ARBSIM_MAX_PROFIT_PCT", "ARBSIM_MAX_LOSS_PCT",
		"ARBSIM_MEDIAN_OUTLIER_FACTOR", "ARBSIM_MIN_TVL", "ARBSIM_MIN_VOLUME_24H",
		"ARBSIM_MAX_POOLS_PER_LEG", "ARBSIM_MAX_ROUTES",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestSearchConfigFromEnvDefaultsWhenUnset(t *testing.T) {
	clearSearchEnv(t)
	cfg, err := SearchConfigFromEnv()
	require.NoError(t, err)
	require.True(t, cfg.StartToken.Equals(pkg.WSOL))
	require.True(t, cfg.PivotToken.Equals(pkg.USDC))
	require.Equal(t, uint64(1_000_000_000), cfg.InputAtomic)
}

func TestSearchConfigFromEnvOverridesThreshold(t *testing.T) {
	clearSearchEnv(t)
	os.Setenv("ARBSIM_THRESHOLD_PCT", "0.5")
	os.Setenv("ARBSIM_MAX_ROUTES", "10")

	cfg, err := SearchConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.ThresholdPct.Compare(xdecimal.MustNew("0.5")))
	require.Equal(t, 10, cfg.MaxRoutes)
}

func TestSearchConfigFromEnvRejectsMalformedMint(t *testing.T) {
	clearSearchEnv(t)
	os.Setenv("ARBSIM_START_TOKEN", "not-a-valid-mint")
	_, err := SearchConfigFromEnv()
	require.Error(t, err)
}

func TestSearchConfigFromEnvValidatesResult(t *testing.T) {
	clearSearchEnv(t)
	os.Setenv("ARBSIM_MAX_ROUTES", "0")
	_, err := SearchConfigFromEnv()
	require.Error(t, err)
	var ce *pkg.ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestSolUSDCPair(t *testing.T) {
	pair := SolUSDCPair()
	require.True(t, pair[0].Equals(pkg.WSOL))
	require.True(t, pair[1].Equals(pkg.USDC))
}
