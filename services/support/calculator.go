// Package support computes the distance between a stock's current price
// and its nearest user-defined support level.
package support

import (
	"math"

	"github.com/shopspring/decimal"
)

// Result holds the derived support fields for one price/levels pair.
// All fields are nil when no support levels are known.
type Result struct {
	NearestSupport  *float64
	Distance        *float64
	DistancePercent *float64
}

// Compute finds the support level nearest to currentPrice and returns
// the signed distance to it, both absolute and as a percentage of the
// level. Distance is positive while the price sits above the support
// and negative once it has broken below.
//
// Levels are scanned in the order given; when two levels tie for
// nearest, the first one scanned wins. Callers store levels sorted
// descending, so ties resolve to the higher level.
//
// An empty level slice is a defined degenerate case, not an error: the
// result carries all-nil fields.
func Compute(currentPrice float64, supportLevels []float64) Result {
	if len(supportLevels) == 0 {
		return Result{}
	}

	nearest := supportLevels[0]
	minDistance := math.Abs(currentPrice - supportLevels[0])

	for _, level := range supportLevels[1:] {
		if d := math.Abs(currentPrice - level); d < minDistance {
			minDistance = d
			nearest = level
		}
	}

	distance := round2(currentPrice - nearest)
	distancePercent := round2((currentPrice - nearest) / nearest * 100)

	return Result{
		NearestSupport:  &nearest,
		Distance:        &distance,
		DistancePercent: &distancePercent,
	}
}

// round2 rounds to 2 decimal places for display, matching the API's
// price formatting elsewhere.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
