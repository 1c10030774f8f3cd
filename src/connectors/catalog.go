package connectors

// CatalogStrategy is one entry of the static strategy catalog.
type CatalogStrategy struct {
	StrategyID         string   `json:"strategy_id"`
	Name               string   `json:"name"`
	Symbol             string   `json:"symbol"`
	Tags               []string `json:"tags"`
	ExpectedHold       string   `json:"expected_hold"`
	RecommendedSizePct float64  `json:"recommended_size_pct"`
	BaseSignalScore    float64  `json:"base_signal_score"`
}

// StrategyCatalog returns the static catalog. Strategies are identified by
// stable string IDs that trades record for later ranking.
func StrategyCatalog() []CatalogStrategy {
	return []CatalogStrategy{
		{
			StrategyID:         "momentum_breakout",
			Name:               "Momentum Breakout",
			Symbol:             "NVDA",
			Tags:               []string{"momentum", "trending"},
			ExpectedHold:       "2-5d",
			RecommendedSizePct: 0.08,
			BaseSignalScore:    72,
		},
		{
			StrategyID:         "mean_reversion_pullback",
			Name:               "Mean Reversion Pullback",
			Symbol:             "AAPL",
			Tags:               []string{"mean_reversion", "choppy"},
			ExpectedHold:       "1-3d",
			RecommendedSizePct: 0.06,
			BaseSignalScore:    68,
		},
		{
			StrategyID:         "gap_fade",
			Name:               "Gap Fade",
			Symbol:             "TSLA",
			Tags:               []string{"intraday", "volatility"},
			ExpectedHold:       "1d",
			RecommendedSizePct: 0.05,
			BaseSignalScore:    64,
		},
		{
			StrategyID:         "trend_follow_etf",
			Name:               "ETF Trend Follow",
			Symbol:             "SPY",
			Tags:               []string{"trend", "etf"},
			ExpectedHold:       "5-15d",
			RecommendedSizePct: 0.10,
			BaseSignalScore:    66,
		},
	}
}
