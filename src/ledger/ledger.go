package ledger

import (
	"math"
	"sort"

	"papertrader/src/model"
)

// Position is the derived holding for one symbol. Quantity is signed
// (negative for shorts). AvgCost is defined as 0 when the position is flat.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
}

// ApplyTrade folds one trade into a position and returns the new position
// plus the realized P&L of the closed quantity, if any.
//
// Same-direction trades blend into a weighted-average cost. Opposite
// direction trades realize P&L on the closed quantity at the pre-trade
// average; only a sign flip resets the average to the trade price, and a
// position netting to exactly zero resets the average to 0.
func ApplyTrade(pos Position, side string, quantity, price float64) (Position, float64) {
	delta := quantity
	if side == model.SideSell {
		delta = -quantity
	}

	if pos.Quantity == 0 || sameSign(pos.Quantity, delta) {
		total := math.Abs(pos.Quantity) + math.Abs(delta)
		avg := (math.Abs(pos.Quantity)*pos.AvgCost + math.Abs(delta)*price) / total
		return Position{Symbol: pos.Symbol, Quantity: pos.Quantity + delta, AvgCost: avg}, 0
	}

	closed := math.Min(math.Abs(delta), math.Abs(pos.Quantity))
	var realized float64
	if pos.Quantity > 0 {
		realized = (price - pos.AvgCost) * closed
	} else {
		realized = (pos.AvgCost - price) * closed
	}

	remaining := pos.Quantity + delta
	switch {
	case remaining == 0:
		return Position{Symbol: pos.Symbol}, realized
	case sameSign(remaining, pos.Quantity):
		return Position{Symbol: pos.Symbol, Quantity: remaining, AvgCost: pos.AvgCost}, realized
	default:
		// flip: residual opens at the trade price
		return Position{Symbol: pos.Symbol, Quantity: remaining, AvgCost: price}, realized
	}
}

// BuildPositions folds a full trade list into per-symbol positions plus the
// cumulative realized P&L. Trades are folded in ExecutedAt order; the sort is
// stable so same-timestamp ties keep their input order, which can shift
// intermediate P&L attribution but never the final positions or the total.
func BuildPositions(trades []model.Trade) (map[string]Position, float64) {
	ordered := make([]model.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
	})

	positions := make(map[string]Position)
	var totalRealized float64
	for _, t := range ordered {
		pos, ok := positions[t.Symbol]
		if !ok {
			pos = Position{Symbol: t.Symbol}
		}
		next, realized := ApplyTrade(pos, t.Side, t.Quantity, t.FillPrice)
		positions[t.Symbol] = next
		totalRealized += realized
	}
	return positions, totalRealized
}

// CashDelta returns the signed cash movement of a trade: buys debit notional
// plus commission, sells credit notional minus commission.
func CashDelta(side string, quantity, price, commission float64) float64 {
	notional := quantity * price
	if side == model.SideBuy {
		return -(notional + commission)
	}
	return notional - commission
}

// CashBalance folds cash deltas over all trades on top of a starting balance.
func CashBalance(startingCash float64, trades []model.Trade) float64 {
	cash := startingCash
	for _, t := range trades {
		cash += CashDelta(t.Side, t.Quantity, t.FillPrice, t.Commission)
	}
	return cash
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
