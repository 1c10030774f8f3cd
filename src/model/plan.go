package model

import "time"

// IdeaStatus is the lifecycle of a plan idea. Pending is the only
// non-terminal state; executed and skipped are one-way.
type IdeaStatus string

const (
	IdeaStatusPending  IdeaStatus = "pending"
	IdeaStatusExecuted IdeaStatus = "executed"
	IdeaStatusSkipped  IdeaStatus = "skipped"
)

// CanTransitionTo reports whether moving from s to next is a legal
// transition. Terminal states accept nothing, not even themselves.
func (s IdeaStatus) CanTransitionTo(next IdeaStatus) bool {
	if s != IdeaStatusPending {
		return false
	}
	return next == IdeaStatusExecuted || next == IdeaStatusSkipped
}

// Terminal reports whether no further transition is possible.
func (s IdeaStatus) Terminal() bool {
	return s == IdeaStatusExecuted || s == IdeaStatusSkipped
}

// TradePlan is the daily plan for one account. Uniqueness on
// (account_id, plan_date) is enforced by the composite index; regeneration
// for an existing date must fail as a duplicate, never overwrite.
type TradePlan struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AccountID        uint      `gorm:"not null;uniqueIndex:idx_plans_account_date" json:"account_id"`
	PlanDate         string    `gorm:"size:10;not null;uniqueIndex:idx_plans_account_date" json:"plan_date"`
	RegimeSnapshotID *uint     `gorm:"index" json:"regime_snapshot_id,omitempty"`
	TotalExposurePct float64   `json:"total_exposure_pct"`
	Notes            string    `gorm:"size:1024" json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	RankedStrategies []PlanStrategyRank `gorm:"foreignKey:PlanID" json:"ranked_strategies,omitempty"`
	Ideas            []TradeIdea        `gorm:"foreignKey:PlanID" json:"ideas,omitempty"`
}

func (TradePlan) TableName() string {
	return "trade_plans"
}

// PlanStrategyRank is the ranking snapshot stored with a plan. It is a
// point-in-time computation, never a ledger fact.
type PlanStrategyRank struct {
	ID             uint     `gorm:"primaryKey" json:"id"`
	PlanID         uint     `gorm:"index;not null" json:"plan_id"`
	StrategyID     string   `gorm:"size:60;not null" json:"strategy_id"`
	Rank           int      `gorm:"not null" json:"rank"`
	TradeCount     int      `json:"trade_count"`
	Expectancy     float64  `json:"expectancy"`
	StdDevR        float64  `json:"std_dev_r"`
	SharpeLike     float64  `json:"sharpe_like"`
	RecentAvgR     *float64 `json:"recent_avg_r,omitempty"`
	WinRate        float64  `json:"win_rate"`
	AlignmentScore float64  `json:"alignment_score"`
	CompositeScore float64  `json:"composite_score"`
}

func (PlanStrategyRank) TableName() string {
	return "plan_strategy_ranks"
}

// TradeIdea is one sized candidate inside a plan. IdeaID is the stable
// identifier trades link back to.
type TradeIdea struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	PlanID         uint       `gorm:"index;not null" json:"plan_id"`
	IdeaID         string     `gorm:"size:40;uniqueIndex;not null" json:"idea_id"`
	Symbol         string     `gorm:"size:20;not null" json:"symbol"`
	Side           string     `gorm:"size:10;not null" json:"side"`
	StrategyID     string     `gorm:"size:60;not null" json:"strategy_id"`
	SizePct        float64    `json:"size_pct"`
	EntryPrice     float64    `json:"entry_price"`
	SignalScore    float64    `json:"signal_score"`
	AlignmentScore float64    `json:"alignment_score"`
	Confidence     float64    `json:"confidence"`
	Status         IdeaStatus `gorm:"size:20;not null;default:pending" json:"status"`
	TradeID        *uint      `gorm:"index" json:"trade_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (TradeIdea) TableName() string {
	return "trade_ideas"
}
