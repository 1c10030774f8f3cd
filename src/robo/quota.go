package robo

import (
	"context"
	"time"

	"papertrader/src/model"
)

// WindowStart returns the UTC start of the quota window containing now:
// midnight for day, Monday 00:00 for week, first-of-month 00:00 for month.
func WindowStart(bucketType string, now time.Time) time.Time {
	utc := now.UTC()
	switch bucketType {
	case model.BucketDay:
		return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	case model.BucketWeek:
		daysSinceMonday := (int(utc.Weekday()) + 6) % 7
		monday := utc.AddDate(0, 0, -daysSinceMonday)
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	case model.BucketMonth:
		return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	}
}

type usageReader interface {
	Spent(ctx context.Context, subjectID uint, bucketType string, bucketStart time.Time) (float64, error)
}

// windowLimit pairs a quota window with its configured ceiling. A zero or
// negative limit means the window is unlimited.
type windowLimit struct {
	bucketType string
	limit      float64
}

func limitsFor(settings *model.RoboSettings) []windowLimit {
	return []windowLimit{
		{model.BucketDay, settings.DailyLimit},
		{model.BucketWeek, settings.WeeklyLimit},
		{model.BucketMonth, settings.MonthlyLimit},
	}
}

// checkQuota evaluates a prospective spend against all three windows at
// once and returns every violated window name, not just the first.
func checkQuota(ctx context.Context, usage usageReader, settings *model.RoboSettings, notional float64, now time.Time) ([]string, error) {
	var violated []string
	for _, w := range limitsFor(settings) {
		if w.limit <= 0 {
			continue
		}
		spent, err := usage.Spent(ctx, settings.SubjectID, w.bucketType, WindowStart(w.bucketType, now))
		if err != nil {
			return nil, err
		}
		if spent+notional > w.limit {
			violated = append(violated, w.bucketType)
		}
	}
	return violated, nil
}
