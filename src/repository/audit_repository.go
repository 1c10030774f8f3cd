package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// AuditRepository is the append-only audit sink. Every trade, block, skip,
// and notification outcome lands here; the core never reads these back.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{db: database.MainDB}
}

func (r *AuditRepository) WithDB(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Write appends one event. Payload marshalling failures degrade to an empty
// payload rather than dropping the event.
func (r *AuditRepository) Write(ctx context.Context, subjectID uint, eventType string, payload map[string]interface{}) error {
	var body string
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			body = string(b)
		} else {
			logger.WithError(err).Warn("Failed to marshal audit payload")
		}
	}

	event := model.AuditEvent{
		EventID:   uuid.NewString(),
		SubjectID: subjectID,
		EventType: eventType,
		Payload:   body,
		CreatedAt: time.Now(),
	}

	err := r.db.WithContext(ctx).Create(&event).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AuditRepository",
			"op":         "Write",
			"subject_id": subjectID,
			"event_type": eventType,
		}).WithError(err).Error("Failed to write audit event")
	}
	return err
}

// FindLatest returns recent events for history display, newest first.
func (r *AuditRepository) FindLatest(ctx context.Context, subjectID uint, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []model.AuditEvent

	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AuditRepository",
			"op":         "FindLatest",
			"subject_id": subjectID,
		}).WithError(err).Error("Failed to fetch audit events")
		return nil, err
	}

	return events, nil
}
