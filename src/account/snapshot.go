package account

import (
	"context"
	"fmt"
	"time"

	"papertrader/src/connectors"
	"papertrader/src/ledger"
	"papertrader/src/model"
)

// Snapshot is the derived account view, recomputed from the trade log and
// latest quotes on every read. Nothing here is authoritative state.
type Snapshot struct {
	Cash             float64           `json:"cash"`
	PositionsValue   float64           `json:"positions_value"`
	Equity           float64           `json:"equity"`
	DailyRealizedPnL float64           `json:"daily_realized_pnl"`
	TotalRealizedPnL float64           `json:"total_realized_pnl"`
	Positions        []ledger.Position `json:"positions"`
}

type tradeSource interface {
	FindByAccount(ctx context.Context, accountID uint) ([]model.Trade, error)
}

// Service assembles account snapshots.
type Service struct {
	trades       tradeSource
	quotes       connectors.QuoteService
	startingCash float64
	now          func() time.Time
}

func NewService(trades tradeSource, quotes connectors.QuoteService, startingCash float64) *Service {
	return &Service{
		trades:       trades,
		quotes:       quotes,
		startingCash: startingCash,
		now:          time.Now,
	}
}

// Snapshot rebuilds the account from the full trade log. Open positions are
// marked at the latest quote; a missing quote falls back to average cost so
// a flaky provider cannot zero out equity.
func (s *Service) Snapshot(ctx context.Context, accountID uint) (*Snapshot, error) {
	trades, err := s.trades.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading trade log: %w", err)
	}

	positions, totalRealized := ledger.BuildPositions(trades)
	cash := ledger.CashBalance(s.startingCash, trades)

	snapshot := &Snapshot{
		Cash:             cash,
		TotalRealizedPnL: totalRealized,
	}

	var open []ledger.Position
	var symbols []string
	for _, pos := range positions {
		if pos.Quantity == 0 {
			continue
		}
		open = append(open, pos)
		symbols = append(symbols, pos.Symbol)
	}

	prices := make(map[string]float64, len(symbols))
	if len(symbols) > 0 {
		quotes, err := s.quotes.GetQuotes(ctx, symbols)
		if err == nil {
			for _, q := range quotes {
				prices[q.Symbol] = q.Price
			}
		}
	}

	for _, pos := range open {
		price, ok := prices[pos.Symbol]
		if !ok {
			price = pos.AvgCost
		}
		snapshot.PositionsValue += pos.Quantity * price
	}
	snapshot.Positions = open
	snapshot.Equity = snapshot.Cash + snapshot.PositionsValue

	dayStart := s.now().UTC().Truncate(24 * time.Hour)
	for _, t := range trades {
		if !t.ExecutedAt.Before(dayStart) {
			snapshot.DailyRealizedPnL += t.RealizedPnL
		}
	}

	return snapshot, nil
}

// OpenExposure returns the marked value of open positions, used for
// projected-exposure checks.
func (s *Snapshot) OpenExposure() float64 {
	return s.PositionsValue
}
