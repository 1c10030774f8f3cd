package model

import "time"

// RiskState is the one mutable risk record per account. It is only written
// inside the same transaction that commits the trade it reacts to.
type RiskState struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	AccountID         uint       `gorm:"uniqueIndex;not null" json:"account_id"`
	ConsecutiveLosses int        `gorm:"not null;default:0" json:"consecutive_losses"`
	CooldownUntil     *time.Time `json:"cooldown_until,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (RiskState) TableName() string {
	return "risk_states"
}

// CooldownActive reports whether the account is still inside a cooldown
// window at the given instant.
func (s *RiskState) CooldownActive(now time.Time) bool {
	return s.CooldownUntil != nil && now.Before(*s.CooldownUntil)
}
