package model

import "time"

const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"

	OrderStatusFilled   = "filled"
	OrderStatusRejected = "rejected"
)

// Order records a single execution request after validation, together with
// the outcome of the fill pipeline. Rejected orders are kept for audit.
type Order struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AccountID        uint      `gorm:"index" json:"account_id"`
	Symbol           string    `gorm:"size:20;not null" json:"symbol"`
	Side             string    `gorm:"size:10;not null" json:"side"`
	OrderType        string    `gorm:"size:10;not null" json:"order_type"`
	Quantity         float64   `gorm:"not null" json:"quantity"`
	LimitPrice       *float64  `json:"limit_price,omitempty"`
	MaxPricePerShare *float64  `json:"max_price_per_share,omitempty"`
	StrategyID       *string   `gorm:"size:60" json:"strategy_id,omitempty"`
	FillPrice        float64   `json:"fill_price"`
	Notional         float64   `json:"notional"`
	Status           string    `gorm:"size:20;not null;default:filled" json:"status"`
	Reason           string    `gorm:"size:255" json:"reason,omitempty"`
	ExtendedHours    bool      `gorm:"not null;default:false" json:"extended_hours"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
