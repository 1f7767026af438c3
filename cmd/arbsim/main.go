// Command arbsim is a thin demo harness around the trianglearb library: it
// loads a JSON file of raw pool records, normalizes and enriches them, runs
// the cycle search, and prints the ranked result list. It exists to show
// the library wired end to end; it is not part of the library contract.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"trianglearb/pkg"
	"trianglearb/pkg/config"
	"trianglearb/pkg/cycle"
	"trianglearb/pkg/enrich"
	"trianglearb/pkg/normalize"
	"trianglearb/pkg/swap"
)

var (
	poolsFile  = flag.String("pools", "", "Path to a JSON array of raw pool records (required)")
	jsonOutput = flag.Bool("json", false, "Print the ranked cycle list as JSON instead of a table")
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}
	flag.Parse()

	if *poolsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -pools is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	raws, err := loadRawPools(*poolsFile)
	if err != nil {
		logger.Fatal("failed to load pools file", zap.Error(err))
	}

	pools := make([]*pkg.Pool, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		p, err := normalize.Normalize(raw)
		if err != nil {
			rejected++
			logger.Warn("pool rejected by normalizer", zap.Error(err))
			continue
		}
		pools = append(pools, p)
	}
	logger.Info("normalized pools", zap.Int("accepted", len(pools)), zap.Int("rejected", rejected))

	enricher := enrich.New(nil, nil, enrich.DefaultConcurrency, logger)
	enriched := enricher.EnrichAll(context.Background(), pools)

	searchCfg, err := config.SearchConfigFromEnv()
	if err != nil {
		logger.Fatal("invalid search configuration", zap.Error(err))
	}

	engine := cycle.New(swap.New(nil), logger)
	result, err := engine.Search(context.Background(), searchCfg, enriched, config.SolUSDCPair())
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}

	if *jsonOutput {
		printJSON(result)
		return
	}
	printTable(result)
}

func loadRawPools(path string) ([]pkg.RawPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var raws []pkg.RawPool
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return raws, nil
}

func printJSON(result cycle.Result) {
	type legView struct {
		PoolID         string `json:"pool_id"`
		InMint         string `json:"in_mint"`
		OutMint        string `json:"out_mint"`
		DxAtomic       uint64 `json:"dx_atomic"`
		DyAtomic       uint64 `json:"dy_atomic"`
		PriceImpactPct string `json:"price_impact_pct"`
	}
	type cycleView struct {
		Legs             []legView `json:"legs"`
		InputAtomic      uint64    `json:"input_atomic"`
		OutputAtomic     uint64    `json:"output_atomic"`
		RawProfitPct     string    `json:"raw_profit_pct"`
		NetAfterCostsPct string    `json:"net_after_costs_pct"`
		Passes           bool      `json:"passes"`
	}

	views := make([]cycleView, 0, len(result.Cycles))
	for _, c := range result.Cycles {
		legs := make([]legView, 0, 3)
		for _, l := range c.Legs {
			legs = append(legs, legView{
				PoolID:         l.PoolID,
				InMint:         l.InMint.String(),
				OutMint:        l.OutMint.String(),
				DxAtomic:       l.DxAtomic,
				DyAtomic:       l.DyAtomic,
				PriceImpactPct: l.PriceImpactPct.String(),
			})
		}
		views = append(views, cycleView{
			Legs:             legs,
			InputAtomic:      c.InputAtomic,
			OutputAtomic:     c.OutputAtomic,
			RawProfitPct:     c.RawProfitPct.String(),
			NetAfterCostsPct: c.NetAfterCostsPct.String(),
			Passes:           c.Passes,
		})
	}

	out, _ := json.MarshalIndent(struct {
		Cycles []cycleView `json:"cycles"`
		Stats  cycle.Stats `json:"stats"`
	}{Cycles: views, Stats: result.Stats}, "", "  ")
	fmt.Println(string(out))
}

func printTable(result cycle.Result) {
	fmt.Printf("%d triples considered, %d cycles ranked\n", result.Stats.TriplesConsidered, len(result.Cycles))
	for i, c := range result.Cycles {
		marker := " "
		if c.Passes {
			marker = "*"
		}
		fmt.Printf("%s %3d  %s -> %s -> %s  raw=%s%%  net=%s%%\n",
			marker, i+1, c.Legs[0].PoolID, c.Legs[1].PoolID, c.Legs[2].PoolID,
			c.RawProfitPct.String(), c.NetAfterCostsPct.String())
	}
}
