package model

import "time"

// EquitySnapshot is a persisted point-in-time view of the account, written
// after each committed trade. It is derived state: the trade log remains the
// source of truth and snapshots are always rebuildable from it.
type EquitySnapshot struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AccountID        uint      `gorm:"index;not null" json:"account_id"`
	Cash             float64   `json:"cash"`
	PositionsValue   float64   `json:"positions_value"`
	Equity           float64   `json:"equity"`
	DailyRealizedPnL float64   `json:"daily_realized_pnl"`
	TotalRealizedPnL float64   `json:"total_realized_pnl"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (EquitySnapshot) TableName() string {
	return "equity_snapshots"
}
