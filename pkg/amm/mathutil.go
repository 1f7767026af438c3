package amm

import (
	"math"

	"trianglearb/pkg/xdecimal"
)

// priceFloat64 and logFloat back the float64-seeded search in PriceToTick;
// the search result is then verified exactly against Decimal comparisons,
// so these only affect how many bracketing steps are needed, never
// correctness.
func priceFloat64(d xdecimal.Decimal) (float64, bool) {
	return d.Float64(), true
}

func logFloat(v float64) float64 {
	return math.Log(v)
}
