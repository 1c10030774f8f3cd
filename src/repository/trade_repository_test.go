package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"papertrader/src/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}

func tradeRows(trades ...model.Trade) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "account_id", "symbol", "side", "quantity", "fill_price", "r_multiple", "executed_at"})
	for _, trade := range trades {
		rows.AddRow(trade.ID, trade.AccountID, trade.Symbol, trade.Side, trade.Quantity, trade.FillPrice, trade.RMultiple, trade.ExecutedAt)
	}
	return rows
}

func TestTradeRepositoryFindByAccount(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&TradeRepository{}).WithDB(mockDB)

	executedAt := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "trades" WHERE account_id = $1 ORDER BY executed_at ASC, id ASC`)).
		WithArgs(uint(1)).
		WillReturnRows(tradeRows(
			model.Trade{ID: 1, AccountID: 1, Symbol: "AAPL", Side: model.SideBuy, Quantity: 10, FillPrice: 100, ExecutedAt: executedAt},
			model.Trade{ID: 2, AccountID: 1, Symbol: "AAPL", Side: model.SideSell, Quantity: 5, FillPrice: 110, ExecutedAt: executedAt.Add(time.Hour)},
		))

	trades, err := repo.FindByAccount(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error fetching trades: %v", err)
	}

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Side != model.SideBuy || trades[1].Side != model.SideSell {
		t.Fatalf("trades not returned in execution order: %+v", trades)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTradeRepositoryFindClosedSince(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&TradeRepository{}).WithDB(mockDB)

	since := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)
	r := 1.5
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "trades" WHERE account_id = $1 AND r_multiple IS NOT NULL AND executed_at >= $2 ORDER BY executed_at ASC, id ASC`)).
		WithArgs(uint(1), since).
		WillReturnRows(tradeRows(
			model.Trade{ID: 3, AccountID: 1, Symbol: "NVDA", Side: model.SideSell, Quantity: 2, FillPrice: 420, RMultiple: &r, ExecutedAt: since.Add(48 * time.Hour)},
		))

	trades, err := repo.FindClosedSince(context.Background(), 1, since)
	if err != nil {
		t.Fatalf("unexpected error fetching closed trades: %v", err)
	}

	if len(trades) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(trades))
	}
	if trades[0].RMultiple == nil || *trades[0].RMultiple != 1.5 {
		t.Fatalf("R-multiple not scanned: %+v", trades[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTradeRepositoryFindLatestDefaultsLimit(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&TradeRepository{}).WithDB(mockDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "trades" WHERE account_id = $1 ORDER BY id DESC LIMIT $2`)).
		WithArgs(uint(1), 20).
		WillReturnRows(tradeRows())

	if _, err := repo.FindLatest(context.Background(), 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
