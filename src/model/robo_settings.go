package model

import "time"

// RoboSettings configures autonomous execution for one subject (account).
// The coordinator re-reads this inside the lock to catch a disable race.
type RoboSettings struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SubjectID          uint      `gorm:"uniqueIndex;not null" json:"subject_id"`
	Enabled            bool      `gorm:"not null;default:false" json:"enabled"`
	Symbol             string    `gorm:"size:20;not null" json:"symbol"`
	DefaultSide        string    `gorm:"size:10;not null;default:buy" json:"default_side"`
	OrderNotional      float64   `gorm:"not null;default:0" json:"order_notional"`
	DailyLimit         float64   `gorm:"not null;default:0" json:"daily_limit"`
	WeeklyLimit        float64   `gorm:"not null;default:0" json:"weekly_limit"`
	MonthlyLimit       float64   `gorm:"not null;default:0" json:"monthly_limit"`
	AllowExtendedHours bool      `gorm:"not null;default:false" json:"allow_extended_hours"`
	NotifyTo           string    `gorm:"size:255" json:"notify_to,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (RoboSettings) TableName() string {
	return "robo_settings"
}
