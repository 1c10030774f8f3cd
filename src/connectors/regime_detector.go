package connectors

import (
	"context"
	"fmt"
	"math"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
)

// RegimeDetector classifies the market day along three dimensions:
// trend/chop, volatility expansion/contraction, and risk-on/risk-off.
type RegimeDetector interface {
	DetectRegime(ctx context.Context) (*model.RegimeSnapshot, error)
}

// QuoteRegimeDetector derives the classification from two reference quotes:
// a broad-market symbol for trend and risk, a volatility proxy for the
// volatility dimension. Crude by design; the snapshot is a daily label, not
// a forecast.
type QuoteRegimeDetector struct {
	quotes      QuoteService
	marketSymbol string
	volSymbol    string
}

func NewQuoteRegimeDetector(quotes QuoteService, cfg Config) *QuoteRegimeDetector {
	return &QuoteRegimeDetector{
		quotes:       quotes,
		marketSymbol: cfg.RegimeSymbol,
		volSymbol:    cfg.RegimeVolSymbol,
	}
}

func (d *QuoteRegimeDetector) DetectRegime(ctx context.Context) (*model.RegimeSnapshot, error) {
	quotes, err := d.quotes.GetQuotes(ctx, []string{d.marketSymbol, d.volSymbol})
	if err != nil {
		return nil, fmt.Errorf("regime detection: %w", err)
	}

	var market, vol *Quote
	for i := range quotes {
		switch quotes[i].Symbol {
		case d.marketSymbol:
			market = &quotes[i]
		case d.volSymbol:
			vol = &quotes[i]
		}
	}
	if market == nil {
		return nil, fmt.Errorf("regime detection: %w", ErrQuoteUnavailable)
	}

	snapshot := &model.RegimeSnapshot{
		TrendChop:  model.RegimeChoppy,
		Volatility: model.RegimeVolContracting,
		Risk:       model.RegimeRiskOff,
	}

	if math.Abs(market.ChangePercent) >= 0.75 {
		snapshot.TrendChop = model.RegimeTrending
	}
	if vol != nil && vol.ChangePercent > 0 {
		snapshot.Volatility = model.RegimeVolExpanding
	}
	if market.ChangePercent >= 0 {
		snapshot.Risk = model.RegimeRiskOn
	}

	snapshot.Notes = fmt.Sprintf(
		"%s %+.2f%%, %s %+.2f%%",
		d.marketSymbol, market.ChangePercent, d.volSymbol, volChange(vol),
	)

	logger.WithFields(map[string]interface{}{
		"component":  "regime",
		"trend_chop": snapshot.TrendChop,
		"volatility": snapshot.Volatility,
		"risk":       snapshot.Risk,
	}).Info("regime detected")

	return snapshot, nil
}

func volChange(q *Quote) float64 {
	if q == nil {
		return 0
	}
	return q.ChangePercent
}
