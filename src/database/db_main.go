package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"papertrader/src/model"
)

// MainDB is the primary read/write database connection used by the
// application.
var MainDB *gorm.DB

// InitMainDB initializes the main database connection and runs migrations.
// Call once at application startup.
func InitMainDB() error {
	config := GetConfig()

	db, err := gorm.Open(postgres.Open(config.DatabaseURLMain),
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get DB from GORM")
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	// Assign to the global variable only after a successful connection.
	MainDB = db

	logrus.Info("[database] MainDB connection established")

	if err := Migrate(MainDB); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Migrate applies the write-side schema. The unique indexes declared on the
// models carry the core uniqueness invariants: one plan per (account, date),
// one usage row per (subject, bucket type, bucket start), one lock per
// subject.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Trade{},
		&model.Order{},
		&model.TradePlan{},
		&model.PlanStrategyRank{},
		&model.TradeIdea{},
		&model.RiskState{},
		&model.RegimeSnapshot{},
		&model.UsageBucket{},
		&model.ExecutionLock{},
		&model.RoboSettings{},
		&model.AuditEvent{},
		&model.EquitySnapshot{},
	)
}
