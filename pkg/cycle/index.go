package cycle

import (
	"sort"

	"trianglearb/pkg"
	"trianglearb/pkg/atomicunit"
	"trianglearb/pkg/xdecimal"
)

// pairKey is the ordered-pair key a normalized pool contributes two entries
// under: (mint_x, mint_y) and (mint_y, mint_x).
type pairKey [64]byte

func keyOf(a, b pkg.Mint) pairKey {
	var k pairKey
	copy(k[:32], a[:])
	copy(k[32:], b[:])
	return k
}

// Index is the read-only pair index built once per search run.
type Index struct {
	edges map[pairKey][]*pkg.Pool
}

// NewIndex builds the pair index from a slice of normalized, enriched
// pools. Every pool contributes both (mint_x, mint_y) and (mint_y, mint_x)
// entries.
func NewIndex(pools []*pkg.Pool) *Index {
	idx := &Index{edges: make(map[pairKey][]*pkg.Pool)}
	for _, p := range pools {
		idx.edges[keyOf(p.MintX, p.MintY)] = append(idx.edges[keyOf(p.MintX, p.MintY)], p)
		idx.edges[keyOf(p.MintY, p.MintX)] = append(idx.edges[keyOf(p.MintY, p.MintX)], p)
	}
	for k := range idx.edges {
		ps := idx.edges[k]
		sort.Slice(ps, func(i, j int) bool { return ps[i].PoolID < ps[j].PoolID })
		idx.edges[k] = ps
	}
	return idx
}

// PoolsFor returns up to max pools tradeable from a to b, in deterministic
// (pool_id-ascending) order.
func (idx *Index) PoolsFor(a, b pkg.Mint, max int) []*pkg.Pool {
	ps := idx.edges[keyOf(a, b)]
	if len(ps) > max {
		ps = ps[:max]
	}
	return ps
}

// hasEdge reports whether any pool trades a<->b.
func (idx *Index) hasEdge(a, b pkg.Mint) bool {
	return len(idx.edges[keyOf(a, b)]) > 0
}

// neighbors returns every token with a direct edge to a.
func (idx *Index) neighbors(a pkg.Mint) []pkg.Mint {
	seen := make(map[pkg.Mint]bool)
	var out []pkg.Mint
	for k, ps := range idx.edges {
		if len(ps) == 0 {
			continue
		}
		var x pkg.Mint
		copy(x[:], k[:32])
		if x != a {
			continue
		}
		var y pkg.Mint
		copy(y[:], k[32:])
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	return out
}

// CandidateIntermediates returns B ∈ (S_A ∩ S_C) \ {A, C}, sorted by base58
// string for deterministic iteration order.
func CandidateIntermediates(idx *Index, a, c pkg.Mint) []pkg.Mint {
	sa := idx.neighbors(a)
	scSet := make(map[pkg.Mint]bool)
	for _, t := range idx.neighbors(c) {
		scSet[t] = true
	}

	var out []pkg.Mint
	for _, b := range sa {
		if b.Equals(a) || b.Equals(c) {
			continue
		}
		if scSet[b] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// impliedPrice computes y_reserve*10^decimals_x / (x_reserve*10^decimals_y),
// the orientation-normalized price used by the median sanity filter.
func impliedPrice(p *pkg.Pool) (xdecimal.Decimal, bool) {
	if !p.HasXY() {
		return xdecimal.Decimal{}, false
	}
	xHuman := atomicunit.ToHuman(*p.XReserve, p.DecimalsX)
	yHuman := atomicunit.ToHuman(*p.YReserve, p.DecimalsY)
	if !xHuman.IsPositive() {
		return xdecimal.Decimal{}, false
	}
	price, err := yHuman.Div(xHuman)
	if err != nil {
		return xdecimal.Decimal{}, false
	}
	return price, true
}

// FilterMedianOutliers applies a median-anchor sanity filter over the
// WSOL/USDC pair: pools whose implied price strays outside
// [median/F, median*F] are dropped before the pool set is indexed: their
// cached reserves are almost always misaligned with their mints, and one
// such pool floods the result set with fake opportunities. Pools for any
// other pair are passed through untouched.
func FilterMedianOutliers(pools []*pkg.Pool, solUSDCPair [2]pkg.Mint, factor xdecimal.Decimal) []*pkg.Pool {
	sol, usdc := solUSDCPair[0], solUSDCPair[1]

	var prices []xdecimal.Decimal
	var solUSDC []*pkg.Pool
	var rest []*pkg.Pool
	for _, p := range pools {
		isPair := (p.MintX.Equals(sol) && p.MintY.Equals(usdc)) || (p.MintX.Equals(usdc) && p.MintY.Equals(sol))
		if !isPair {
			rest = append(rest, p)
			continue
		}
		solUSDC = append(solUSDC, p)
		price, ok := impliedPrice(p)
		if !ok {
			continue
		}
		if p.MintX.Equals(usdc) {
			// orient to SOL/USDC: price must be USDC per SOL.
			inv, err := xdecimal.NewFromInt(1).Div(price)
			if err != nil {
				continue
			}
			price = inv
		}
		prices = append(prices, price)
	}

	if len(rest) == len(pools) || len(prices) == 0 {
		return pools
	}

	median := medianOf(prices)
	lower, err := median.Div(factor)
	if err != nil {
		return pools
	}
	upper := median.Mul(factor)

	out := make([]*pkg.Pool, 0, len(pools))
	out = append(out, rest...)
	for _, p := range solUSDC {
		price, ok := impliedPrice(p)
		if !ok {
			continue
		}
		if p.MintX.Equals(usdc) {
			inv, err := xdecimal.NewFromInt(1).Div(price)
			if err != nil {
				continue
			}
			price = inv
		}
		if price.Compare(lower) >= 0 && price.Compare(upper) <= 0 {
			out = append(out, p)
		}
	}
	return out
}

func medianOf(ds []xdecimal.Decimal) xdecimal.Decimal {
	sorted := make([]xdecimal.Decimal, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	sum := sorted[n/2-1].Add(sorted[n/2])
	half, err := sum.Div(xdecimal.NewFromInt(2))
	if err != nil {
		return sorted[n/2]
	}
	return half
}
