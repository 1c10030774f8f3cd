package model

import "time"

const (
	AuditTradeExecuted    = "trade_executed"
	AuditGuardrailBlock   = "guardrail_block"
	AuditEligibilityBlock = "eligibility_block"
	AuditQuotaBlock       = "quota_block"
	AuditLockSkipped      = "lock_skipped"
	AuditRoboDisabled     = "robo_disabled"
	AuditRoboExecuted     = "robo_executed"
	AuditRoboError        = "robo_error"
	AuditNotifySuccess    = "notify_success"
	AuditNotifyFailure    = "notify_failure"
	AuditPlanGenerated    = "plan_generated"
	AuditIdeaExecuted     = "idea_executed"
	AuditIdeaSkipped      = "idea_skipped"
)

// AuditEvent is an append-only record of every state transition and every
// expected skip. The core writes these and never reads them back.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"size:40;uniqueIndex;not null" json:"event_id"`
	SubjectID uint      `gorm:"index;not null" json:"subject_id"`
	EventType string    `gorm:"size:40;index;not null" json:"event_type"`
	Payload   string    `gorm:"type:text" json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
