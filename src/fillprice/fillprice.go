package fillprice

import (
	"github.com/shopspring/decimal"

	"papertrader/src/model"
)

// DefaultTick is the minimum price increment used when an instrument does
// not declare its own.
var DefaultTick = decimal.RequireFromString("0.01")

const bpsDenominator = 10000

// Apply computes the synthetic fill price from a quote by moving the price
// against the taker by slippageBps basis points (buys pay more, sells
// receive less) and rounding the result to the instrument tick.
func Apply(side string, quote float64, slippageBps int64, tick decimal.Decimal) float64 {
	if tick.IsZero() {
		tick = DefaultTick
	}

	q := decimal.NewFromFloat(quote)
	adj := decimal.New(slippageBps, 0).Div(decimal.New(bpsDenominator, 0))
	if side == model.SideBuy {
		adj = decimal.NewFromInt(1).Add(adj)
	} else {
		adj = decimal.NewFromInt(1).Sub(adj)
	}

	raw := q.Mul(adj)
	ticks := raw.Div(tick).Round(0)
	price, _ := ticks.Mul(tick).Float64()
	return price
}
