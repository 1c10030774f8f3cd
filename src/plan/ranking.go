package plan

import (
	"math"
	"sort"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/eligibility"
	"papertrader/src/model"
)

// RankConfig tunes the ranking filters and the composite score weights.
// AlignMinDims is the aligned-trade heuristic threshold (a trade counts as
// aligned when at least this many of its three recorded regime dimensions
// match the current snapshot); it is a tunable, not a proven constant.
type RankConfig struct {
	WindowDays       int
	MinTradeCount    int
	MinSharpe        float64
	MaxStdDevFactor  float64
	AlignMinDims     int
	MinAlignedTrades int
	NeutralAlignment float64

	ExpectancyWeight float64
	AlignmentWeight  float64
	WinRateWeight    float64
	SharpeWeight     float64
}

func DefaultRankConfig() RankConfig {
	return RankConfig{
		WindowDays:       30,
		MinTradeCount:    15,
		MinSharpe:        0.2,
		MaxStdDevFactor:  2.0,
		AlignMinDims:     2,
		MinAlignedTrades: 3,
		NeutralAlignment: 50,

		ExpectancyWeight: 0.5,
		AlignmentWeight:  0.2,
		WinRateWeight:    0.1,
		SharpeWeight:     0.2,
	}
}

// RankEntry is one ranked strategy with the statistics behind its score.
type RankEntry struct {
	StrategyID     string
	TradeCount     int
	Expectancy     float64
	StdDevR        float64
	SharpeLike     float64
	RecentAvgR     *float64
	WinRate        float64
	AlignmentScore float64
	CompositeScore float64
}

// RankStrategies scores every catalog strategy against its trailing-window
// closed trades and the current regime, filters out strategies without a
// demonstrated edge, and returns the survivors sorted by composite score
// descending.
func RankStrategies(cfg RankConfig, trades []model.Trade, regime *model.RegimeSnapshot, catalog []string) []RankEntry {
	byStrategy := make(map[string][]model.Trade)
	for _, t := range trades {
		if t.StrategyID == nil {
			continue
		}
		byStrategy[*t.StrategyID] = append(byStrategy[*t.StrategyID], t)
	}

	entries := make([]RankEntry, 0, len(catalog))
	for _, strategyID := range catalog {
		sample := byStrategy[strategyID]
		stats := eligibility.ComputeStats(rMultiples(sample))

		if stats.TradeCount < cfg.MinTradeCount {
			continue
		}
		if stats.Expectancy <= 0 {
			continue
		}
		if stats.StdDevR >= cfg.MaxStdDevFactor*math.Abs(stats.Expectancy) {
			continue
		}
		if stats.SharpeLike <= cfg.MinSharpe {
			continue
		}

		alignment, alignedCount := alignmentScore(cfg, sample, regime)

		entry := RankEntry{
			StrategyID:     strategyID,
			TradeCount:     stats.TradeCount,
			Expectancy:     stats.Expectancy,
			StdDevR:        stats.StdDevR,
			SharpeLike:     stats.SharpeLike,
			RecentAvgR:     stats.RecentAvgR,
			WinRate:        stats.WinRate,
			AlignmentScore: alignment,
		}
		entry.CompositeScore = compositeScore(cfg, entry, alignedCount)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompositeScore > entries[j].CompositeScore
	})

	logger.WithFields(map[string]interface{}{
		"component":  "ranking",
		"candidates": len(catalog),
		"qualified":  len(entries),
	}).Debug("strategy ranking computed")

	return entries
}

// alignmentScore is the win rate restricted to trades whose recorded regime
// matches enough dimensions of the current snapshot. With too few aligned
// trades the score defaults to neutral.
func alignmentScore(cfg RankConfig, sample []model.Trade, regime *model.RegimeSnapshot) (float64, int) {
	if regime == nil {
		return cfg.NeutralAlignment, 0
	}

	aligned, wins := 0, 0
	for _, t := range sample {
		if regime.MatchCount(t.RegimeTrend, t.RegimeVolatility, t.RegimeRisk) < cfg.AlignMinDims {
			continue
		}
		aligned++
		if t.RealizedPnL > 0 {
			wins++
		}
	}

	if aligned < cfg.MinAlignedTrades {
		return cfg.NeutralAlignment, aligned
	}
	return float64(wins) / float64(aligned) * 100, aligned
}

func compositeScore(cfg RankConfig, e RankEntry, alignedCount int) float64 {
	score := cfg.ExpectancyWeight*normalize(e.Expectancy, -1, 2) +
		cfg.AlignmentWeight*e.AlignmentScore +
		cfg.WinRateWeight*e.WinRate +
		cfg.SharpeWeight*normalize(math.Min(e.SharpeLike, 5), 0, 2)

	if alignedCount >= 5 && e.AlignmentScore < 50 {
		score *= 0.7
	}

	if e.RecentAvgR != nil {
		switch {
		case *e.RecentAvgR < 0:
			score *= 0.6
		case *e.RecentAvgR > e.Expectancy:
			score *= 1.1
		}
	}

	return score
}

// normalize maps value from [lo, hi] onto [0, 100], clamped.
func normalize(value, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	scaled := (value - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, scaled))
}

func rMultiples(sample []model.Trade) []float64 {
	rs := make([]float64, 0, len(sample))
	for _, t := range sample {
		if t.RMultiple != nil {
			rs = append(rs, *t.RMultiple)
		}
	}
	return rs
}
