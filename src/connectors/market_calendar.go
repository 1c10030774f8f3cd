package connectors

import "time"

const (
	MarketOpen   = "OPEN"
	MarketClosed = "CLOSED"
)

// MarketStatus describes the current regular session state.
type MarketStatus struct {
	Status    string    `json:"status"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

// MarketCalendar is the market-hours collaborator contract.
type MarketCalendar interface {
	GetStatus(now time.Time) MarketStatus
}

// EquityCalendar models the US equity regular session, 09:30-16:00 Eastern,
// Monday through Friday. Holidays are not modeled; the synthetic fill model
// does not need them.
type EquityCalendar struct{}

func NewEquityCalendar() *EquityCalendar {
	return &EquityCalendar{}
}

func (c *EquityCalendar) GetStatus(now time.Time) MarketStatus {
	et := easternTime(now)

	open := sessionOpen(et)
	close := sessionClose(et)

	if isTradingDay(et) && !et.Before(open) && et.Before(close) {
		return MarketStatus{
			Status:    MarketOpen,
			NextOpen:  nextSessionOpen(et.AddDate(0, 0, 1)),
			NextClose: close,
		}
	}

	next := et
	if !isTradingDay(et) || !et.Before(open) {
		next = et.AddDate(0, 0, 1)
	}
	nextOpen := nextSessionOpen(next)
	return MarketStatus{
		Status:    MarketClosed,
		NextOpen:  nextOpen,
		NextClose: sessionClose(nextOpen),
	}
}

func easternTime(t time.Time) time.Time {
	nyLocation, err := time.LoadLocation("America/New_York")
	if err != nil {
		return t.UTC()
	}
	return t.In(nyLocation)
}

func isTradingDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

func sessionOpen(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 9, 30, 0, 0, t.Location())
}

func sessionClose(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 16, 0, 0, 0, t.Location())
}

func nextSessionOpen(t time.Time) time.Time {
	for !isTradingDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return sessionOpen(t)
}
