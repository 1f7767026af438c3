// Package enrich implements the reserve enricher: it takes canonical pools
// and fills in math-ready reserves from, in priority order, a live
// ReserveOracle or the cached amount the normalizer already validated.
// As a last resort, a CLMM/Whirlpool pool that already carries
// sqrt-price/liquidity state is marked quoter-sourced when a SwapQuoter is
// bound; the quoter itself is not called and no state is fetched from it.
// Per-pool enrichment fans out under a bounded concurrency limit.
package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"trianglearb/pkg"
)

// DefaultConcurrency bounds simultaneous oracle/quoter callers.
const DefaultConcurrency = 16

// Enricher drives the vault-then-cache-then-quoter source-priority merge.
type Enricher struct {
	Oracle      pkg.ReserveOracle
	Quoter      pkg.SwapQuoter
	Concurrency int
	Logger      *zap.Logger
}

// New constructs an Enricher. A nil logger falls back to zap.NewNop(), and
// a non-positive concurrency falls back to DefaultConcurrency.
func New(oracle pkg.ReserveOracle, quoter pkg.SwapQuoter, concurrency int, logger *zap.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{Oracle: oracle, Quoter: quoter, Concurrency: concurrency, Logger: logger}
}

// EnrichAll enriches every pool concurrently, bounded by e.Concurrency, and
// returns a new slice; the inputs are never mutated.
func (e *Enricher) EnrichAll(ctx context.Context, pools []*pkg.Pool) []*pkg.Pool {
	out := make([]*pkg.Pool, len(pools))

	sem := make(chan struct{}, e.Concurrency)
	var wg sync.WaitGroup
	for i, p := range pools {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p *pkg.Pool) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = e.enrichOne(ctx, p)
		}(i, p)
	}
	wg.Wait()
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, p *pkg.Pool) *pkg.Pool {
	cp := p.Clone()

	if e.tryVaultOracle(ctx, cp) {
		return cp
	}
	if tryCache(cp) {
		return cp
	}
	if e.tryQuoter(ctx, cp) {
		return cp
	}

	cp.ReserveSource = pkg.ReserveSourceNone
	e.Logger.Debug("no reserve source available", zap.String("pool_id", cp.PoolID), zap.String("kind", string(cp.Kind)))
	return cp
}

func (e *Enricher) tryVaultOracle(ctx context.Context, p *pkg.Pool) bool {
	if e.Oracle == nil || p.VaultXAddr == nil || p.VaultYAddr == nil {
		return false
	}
	balances, err := e.Oracle.FetchVaultBalances(ctx, []string{*p.VaultXAddr, *p.VaultYAddr})
	if err != nil {
		e.Logger.Warn("oracle fetch failed", zap.String("pool_id", p.PoolID), zap.Error(err))
		return false
	}

	x, xok := balances[*p.VaultXAddr]
	y, yok := balances[*p.VaultYAddr]
	if !xok || !yok || x == nil || y == nil {
		e.Logger.Debug("oracle returned missing balance", zap.String("pool_id", p.PoolID))
		return false
	}

	// The enricher never decodes the vault account itself: that 64-bit
	// little-endian decode at a documented offset is the oracle's job. The
	// vault_x reading becomes x_reserve and the vault_y reading y_reserve,
	// taking the normalizer's vault_x/mint_x association as given; the
	// association is not re-checked here and the vaults are never swapped.
	p.XReserve = x
	p.YReserve = y
	p.ReserveSource = pkg.ReserveSourceVault
	p.ReserveTimestamp = time.Now()
	return true
}

func tryCache(p *pkg.Pool) bool {
	if p.XReserve != nil && p.YReserve != nil {
		p.ReserveSource = pkg.ReserveSourceCache
		p.ReserveTimestamp = time.Now()
		return true
	}
	return false
}

func (e *Enricher) tryQuoter(ctx context.Context, p *pkg.Pool) bool {
	if e.Quoter == nil {
		return false
	}
	if p.Kind != pkg.KindClmm && p.Kind != pkg.KindWhirlpool {
		return false
	}
	if p.HasClmmState() {
		p.ReserveSource = pkg.ReserveSourceQuoter
		p.ReserveTimestamp = time.Now()
		return true
	}
	return false
}
