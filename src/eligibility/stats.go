package eligibility

import "math"

// sharpeCap bounds the Sharpe-like ratio so a near-zero standard deviation
// cannot produce an unbounded edge estimate.
const sharpeCap = 5.0

// recentWindow is the number of most recent closed trades used for the
// recent-average-R reading.
const recentWindow = 5

// StrategyStats are the per-sample statistics the gate scores against.
type StrategyStats struct {
	TradeCount int      `json:"trade_count"`
	Expectancy float64  `json:"expectancy"`
	StdDevR    float64  `json:"std_dev_r"`
	SharpeLike float64  `json:"sharpe_like"`
	RecentAvgR *float64 `json:"recent_avg_r,omitempty"`
	WinRate    float64  `json:"win_rate"`
}

// ComputeStats derives the sample statistics from R-multiples ordered oldest
// to newest. RecentAvgR is nil when fewer than five trades exist.
func ComputeStats(rMultiples []float64) StrategyStats {
	stats := StrategyStats{TradeCount: len(rMultiples)}
	if len(rMultiples) == 0 {
		return stats
	}

	var sum float64
	wins := 0
	for _, r := range rMultiples {
		sum += r
		if r > 0 {
			wins++
		}
	}
	stats.Expectancy = sum / float64(len(rMultiples))
	stats.WinRate = float64(wins) / float64(len(rMultiples)) * 100

	var sq float64
	for _, r := range rMultiples {
		d := r - stats.Expectancy
		sq += d * d
	}
	stats.StdDevR = math.Sqrt(sq / float64(len(rMultiples)))

	stats.SharpeLike = SharpeLike(stats.Expectancy, stats.StdDevR)

	if len(rMultiples) >= recentWindow {
		var recent float64
		for _, r := range rMultiples[len(rMultiples)-recentWindow:] {
			recent += r
		}
		avg := recent / recentWindow
		stats.RecentAvgR = &avg
	}

	return stats
}

// SharpeLike is expectancy over standard deviation of R, capped at 5.
// With zero deviation the expectancy itself is reported (still capped).
func SharpeLike(expectancy, stdDev float64) float64 {
	if stdDev == 0 {
		return math.Min(expectancy, sharpeCap)
	}
	return math.Min(expectancy/stdDev, sharpeCap)
}
