package robo

import (
	"context"
	"errors"
	"testing"
	"time"

	"papertrader/src/connectors"
	"papertrader/src/controller"
	"papertrader/src/model"
)

type fakeSettings struct {
	enabled []model.RoboSettings
	current map[uint]*model.RoboSettings
}

func (f *fakeSettings) FindEnabled(_ context.Context) ([]model.RoboSettings, error) {
	return f.enabled, nil
}

func (f *fakeSettings) FindBySubject(_ context.Context, subjectID uint) (*model.RoboSettings, error) {
	return f.current[subjectID], nil
}

type fakeLocks struct {
	denyAcquire bool
	acquired    int
	released    int
}

func (f *fakeLocks) Acquire(_ context.Context, _ uint, _ string, _ time.Duration, _ time.Time) (bool, error) {
	if f.denyAcquire {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLocks) Release(_ context.Context, _ uint, _ string) error {
	f.released++
	return nil
}

func (f *fakeLocks) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type increment struct {
	bucketType string
	notional   float64
}

type fakeUsage struct {
	spent      map[string]float64
	increments []increment
}

func (f *fakeUsage) Spent(_ context.Context, _ uint, bucketType string, _ time.Time) (float64, error) {
	return f.spent[bucketType], nil
}

func (f *fakeUsage) Increment(_ context.Context, _ uint, bucketType string, _ time.Time, notional float64) error {
	f.increments = append(f.increments, increment{bucketType: bucketType, notional: notional})
	return nil
}

func (f *fakeUsage) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type auditRecord struct {
	subjectID uint
	eventType string
	payload   map[string]interface{}
}

type fakeAudits struct {
	events []auditRecord
}

func (f *fakeAudits) Write(_ context.Context, subjectID uint, eventType string, payload map[string]interface{}) error {
	f.events = append(f.events, auditRecord{subjectID: subjectID, eventType: eventType, payload: payload})
	return nil
}

func (f *fakeAudits) eventTypes() []string {
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.eventType)
	}
	return types
}

type fakeExecutor struct {
	requests []controller.OrderRequest
	outcome  *controller.ExecutionOutcome
	err      error
}

func (f *fakeExecutor) Execute(_ context.Context, req controller.OrderRequest) (*controller.ExecutionOutcome, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

type fakeQuotes struct {
	price float64
}

func (f *fakeQuotes) GetQuotes(_ context.Context, symbols []string) ([]connectors.Quote, error) {
	quotes := make([]connectors.Quote, 0, len(symbols))
	for _, s := range symbols {
		quotes = append(quotes, connectors.Quote{Symbol: s, Price: f.price})
	}
	return quotes, nil
}

func (f *fakeQuotes) GetQuote(_ context.Context, symbol string) (*connectors.Quote, error) {
	return &connectors.Quote{Symbol: symbol, Price: f.price}, nil
}

type fakeNotifier struct {
	failures int
	calls    int
}

func (f *fakeNotifier) Send(_ context.Context, _ string, _ map[string]interface{}) (*connectors.NotifyReceipt, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("provider timeout")
	}
	return &connectors.NotifyReceipt{Provider: "webhook", MessageID: "msg-1"}, nil
}

func testSettings() *model.RoboSettings {
	return &model.RoboSettings{
		SubjectID:     7,
		Enabled:       true,
		Symbol:        "SPY",
		DefaultSide:   model.SideBuy,
		OrderNotional: 1000,
		DailyLimit:    5000,
		NotifyTo:      "trader@example.com",
	}
}

func testCoordinator(settings *fakeSettings, locks *fakeLocks, usage *fakeUsage, audits *fakeAudits, executor *fakeExecutor, notifier *fakeNotifier) *Coordinator {
	c := NewCoordinator(
		settings,
		locks,
		usage,
		audits,
		executor,
		&fakeQuotes{price: 100},
		notifier,
		nil,
		Config{
			Enabled:        true,
			NotifyAttempts: 3,
			NotifyBackoff:  250 * time.Millisecond,
		},
	)
	c.now = func() time.Time { return time.Date(2025, time.June, 18, 15, 0, 0, 0, time.UTC) }
	c.sleep = func(time.Duration) {}
	return c
}

func TestRunTick_ExecutesAndRecordsUsage(t *testing.T) {
	subject := testSettings()
	settings := &fakeSettings{
		enabled: []model.RoboSettings{*subject},
		current: map[uint]*model.RoboSettings{7: subject},
	}
	locks := &fakeLocks{}
	usage := &fakeUsage{spent: map[string]float64{}}
	audits := &fakeAudits{}
	executor := &fakeExecutor{outcome: &controller.ExecutionOutcome{
		Trade: &model.Trade{ID: 42, Symbol: "SPY", Side: model.SideBuy, Quantity: 9.98, FillPrice: 100.05},
		Order: &model.Order{ID: 42},
	}}
	notifier := &fakeNotifier{}

	c := testCoordinator(settings, locks, usage, audits, executor, notifier)
	c.RunTick(context.Background())

	if len(executor.requests) != 1 {
		t.Fatalf("expected one order. got=%d", len(executor.requests))
	}
	req := executor.requests[0]
	if req.Symbol != "SPY" || req.Side != model.SideBuy || req.OrderType != model.OrderTypeMarket {
		t.Fatalf("unexpected order request: %+v", req)
	}
	if req.Quantity != 10 {
		t.Fatalf("quantity mismatch. got=%v want=10", req.Quantity)
	}

	if len(usage.increments) != 3 {
		t.Fatalf("expected all three windows incremented. got=%d", len(usage.increments))
	}
	wantNotional := 9.98 * 100.05
	for _, inc := range usage.increments {
		if inc.notional != wantNotional {
			t.Fatalf("usage must record executed notional. got=%v want=%v", inc.notional, wantNotional)
		}
	}

	if locks.acquired != 1 || locks.released != 1 {
		t.Fatalf("lock lifecycle mismatch. acquired=%d released=%d", locks.acquired, locks.released)
	}

	types := audits.eventTypes()
	if !containsEvent(types, model.AuditRoboExecuted) || !containsEvent(types, model.AuditNotifySuccess) {
		t.Fatalf("missing audit events. got=%v", types)
	}
}

func TestRunTick_LockedSubjectIsSkipped(t *testing.T) {
	subject := testSettings()
	settings := &fakeSettings{
		enabled: []model.RoboSettings{*subject},
		current: map[uint]*model.RoboSettings{7: subject},
	}
	locks := &fakeLocks{denyAcquire: true}
	audits := &fakeAudits{}
	executor := &fakeExecutor{}

	c := testCoordinator(settings, locks, &fakeUsage{spent: map[string]float64{}}, audits, executor, &fakeNotifier{})
	c.RunTick(context.Background())

	if len(executor.requests) != 0 {
		t.Fatalf("locked subject must not trade. got=%d orders", len(executor.requests))
	}
	if !containsEvent(audits.eventTypes(), model.AuditLockSkipped) {
		t.Fatalf("missing lock-skipped audit. got=%v", audits.eventTypes())
	}
}

func TestRunTick_QuotaBlockPreventsOrder(t *testing.T) {
	subject := testSettings()
	settings := &fakeSettings{
		enabled: []model.RoboSettings{*subject},
		current: map[uint]*model.RoboSettings{7: subject},
	}
	usage := &fakeUsage{spent: map[string]float64{model.BucketDay: 4500}}
	audits := &fakeAudits{}
	executor := &fakeExecutor{}

	c := testCoordinator(settings, &fakeLocks{}, usage, audits, executor, &fakeNotifier{})
	c.RunTick(context.Background())

	if len(executor.requests) != 0 {
		t.Fatalf("quota-blocked subject must not trade. got=%d orders", len(executor.requests))
	}
	if len(usage.increments) != 0 {
		t.Fatalf("blocked tick must not record usage. got=%v", usage.increments)
	}
	if !containsEvent(audits.eventTypes(), model.AuditQuotaBlock) {
		t.Fatalf("missing quota-block audit. got=%v", audits.eventTypes())
	}
}

func TestRunTick_DisableRaceCaughtInsideLock(t *testing.T) {
	subject := testSettings()
	disabled := *subject
	disabled.Enabled = false
	settings := &fakeSettings{
		enabled: []model.RoboSettings{*subject},
		current: map[uint]*model.RoboSettings{7: &disabled},
	}
	audits := &fakeAudits{}
	executor := &fakeExecutor{}

	c := testCoordinator(settings, &fakeLocks{}, &fakeUsage{spent: map[string]float64{}}, audits, executor, &fakeNotifier{})
	c.RunTick(context.Background())

	if len(executor.requests) != 0 {
		t.Fatalf("disabled subject must not trade. got=%d orders", len(executor.requests))
	}
	if !containsEvent(audits.eventTypes(), model.AuditRoboDisabled) {
		t.Fatalf("missing disabled audit. got=%v", audits.eventTypes())
	}
}

func TestNotifyWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	audits := &fakeAudits{}
	notifier := &fakeNotifier{failures: 2}

	var slept []time.Duration
	c := testCoordinator(&fakeSettings{}, &fakeLocks{}, &fakeUsage{}, audits, &fakeExecutor{}, notifier)
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	c.notifyWithRetry(context.Background(), testSettings(), &controller.ExecutionOutcome{
		Trade: &model.Trade{Symbol: "SPY", Side: model.SideBuy, Quantity: 10, FillPrice: 100},
	})

	if notifier.calls != 3 {
		t.Fatalf("expected three attempts. got=%d", notifier.calls)
	}
	// linear backoff: 250ms after the first failure, 500ms after the second
	if len(slept) != 2 || slept[0] != 250*time.Millisecond || slept[1] != 500*time.Millisecond {
		t.Fatalf("unexpected backoff schedule: %v", slept)
	}

	types := audits.eventTypes()
	if !containsEvent(types, model.AuditNotifySuccess) {
		t.Fatalf("missing notify-success audit. got=%v", types)
	}
	last := audits.events[len(audits.events)-1]
	if last.payload["attempts"] != 3 {
		t.Fatalf("attempts payload mismatch. got=%v", last.payload["attempts"])
	}
}

func TestNotifyWithRetry_ExhaustionIsAuditedNotFatal(t *testing.T) {
	audits := &fakeAudits{}
	notifier := &fakeNotifier{failures: 10}

	c := testCoordinator(&fakeSettings{}, &fakeLocks{}, &fakeUsage{}, audits, &fakeExecutor{}, notifier)

	c.notifyWithRetry(context.Background(), testSettings(), &controller.ExecutionOutcome{
		Trade: &model.Trade{Symbol: "SPY", Side: model.SideBuy, Quantity: 10, FillPrice: 100},
	})

	if notifier.calls != 3 {
		t.Fatalf("expected three attempts. got=%d", notifier.calls)
	}
	if !containsEvent(audits.eventTypes(), model.AuditNotifyFailure) {
		t.Fatalf("missing notify-failure audit. got=%v", audits.eventTypes())
	}
}

func TestRunTick_GuardrailBlockedOutcomeSkipsUsageAndNotify(t *testing.T) {
	subject := testSettings()
	settings := &fakeSettings{
		enabled: []model.RoboSettings{*subject},
		current: map[uint]*model.RoboSettings{7: subject},
	}
	usage := &fakeUsage{spent: map[string]float64{}}
	audits := &fakeAudits{}
	executor := &fakeExecutor{outcome: &controller.ExecutionOutcome{
		Order:       &model.Order{ID: 1, Status: model.OrderStatusRejected},
		Blocked:     true,
		BlockReason: "cooldown_active",
	}}
	notifier := &fakeNotifier{}

	c := testCoordinator(settings, &fakeLocks{}, usage, audits, executor, notifier)
	c.RunTick(context.Background())

	if len(usage.increments) != 0 {
		t.Fatalf("blocked outcome must not record usage. got=%v", usage.increments)
	}
	if notifier.calls != 0 {
		t.Fatalf("blocked outcome must not notify. got=%d calls", notifier.calls)
	}
	if containsEvent(audits.eventTypes(), model.AuditRoboExecuted) {
		t.Fatalf("blocked outcome must not audit an execution. got=%v", audits.eventTypes())
	}
}

func containsEvent(types []string, want string) bool {
	for _, tt := range types {
		if tt == want {
			return true
		}
	}
	return false
}
