package model

import "time"

const (
	RegimeTrending = "trending"
	RegimeChoppy   = "choppy"

	RegimeVolExpanding   = "expanding"
	RegimeVolContracting = "contracting"

	RegimeRiskOn  = "risk_on"
	RegimeRiskOff = "risk_off"
)

// RegimeSnapshot is the daily market classification, detected at most once
// per calendar date per account and cached here.
type RegimeSnapshot struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AccountID    uint      `gorm:"not null;uniqueIndex:idx_regime_account_date" json:"account_id"`
	SnapshotDate string    `gorm:"size:10;not null;uniqueIndex:idx_regime_account_date" json:"snapshot_date"`
	TrendChop    string    `gorm:"size:20;not null" json:"trend_chop"`
	Volatility   string    `gorm:"size:20;not null" json:"volatility"`
	Risk         string    `gorm:"size:20;not null" json:"risk"`
	Notes        string    `gorm:"size:1024" json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (RegimeSnapshot) TableName() string {
	return "regime_snapshots"
}

// MatchCount returns how many of the three regime dimensions recorded on a
// trade agree with this snapshot.
func (r *RegimeSnapshot) MatchCount(trend, volatility, risk string) int {
	n := 0
	if trend != "" && trend == r.TrendChop {
		n++
	}
	if volatility != "" && volatility == r.Volatility {
		n++
	}
	if risk != "" && risk == r.Risk {
		n++
	}
	return n
}
