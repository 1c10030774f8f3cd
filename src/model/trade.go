package model

import "time"

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade is an immutable ledger fact produced by the order controller after a
// fill has been priced and accepted. The only field ever written after
// creation is PlanIdeaID, the back-reference set when the trade is linked to
// a pending plan idea.
type Trade struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	AccountID    uint     `gorm:"index" json:"account_id"`
	OrderID      *uint    `gorm:"index" json:"order_id,omitempty"`
	Symbol       string   `gorm:"size:20;not null" json:"symbol"`
	Side         string   `gorm:"size:10;not null" json:"side"`
	Quantity     float64  `gorm:"not null" json:"quantity"`
	FillPrice    float64  `gorm:"not null" json:"fill_price"`
	Commission   float64  `gorm:"not null;default:0" json:"commission"`
	RealizedPnL  float64  `json:"realized_pnl"`
	RiskPerShare *float64 `json:"risk_per_share,omitempty"`
	RMultiple    *float64 `json:"r_multiple,omitempty"`
	StrategyID   *string  `gorm:"size:60;index" json:"strategy_id,omitempty"`

	// Regime recorded at fill time, denormalized so ranking can score
	// alignment without joining snapshots.
	RegimeTrend      string `gorm:"size:20" json:"regime_trend,omitempty"`
	RegimeVolatility string `gorm:"size:20" json:"regime_volatility,omitempty"`
	RegimeRisk       string `gorm:"size:20" json:"regime_risk,omitempty"`

	PlanIdeaID *string   `gorm:"size:40;index" json:"plan_idea_id,omitempty"`
	ExecutedAt time.Time `gorm:"index" json:"executed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// Notional returns the gross traded value before commission.
func (t *Trade) Notional() float64 {
	return t.Quantity * t.FillPrice
}
