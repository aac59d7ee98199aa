package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"crypto-alert-service/internal/types"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func alertRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "subscriber_id", "contact", "symbol", "base_symbol", "coin_id",
		"direction", "threshold_percent", "base_price", "observed_price",
		"status", "alert_token", "unsubscribe_token",
		"created_at", "triggered_at", "last_checked",
	})
}

func TestTryTransitionToTriggered(t *testing.T) {
	cases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"active alert transitions", 1, true},
		{"already stopped alert does not", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)

			mock.ExpectExec("UPDATE alerts SET status = 'triggered'").
				WithArgs(int64(7)).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			got, err := store.TryTransitionToTriggered(7)
			if err != nil {
				t.Fatalf("TryTransitionToTriggered returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("transitioned = %v, want %v", got, tc.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestDeactivateAlertConditionalOnActive(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE alerts SET status = 'stopped'").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	stopped, err := store.DeactivateAlert("tok-1")
	if err != nil {
		t.Fatalf("DeactivateAlert returned error: %v", err)
	}
	if stopped {
		t.Error("stop of a non-active alert reported success")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListActiveAlertsJoinsSubscribers(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("FROM alerts a").
		WillReturnRows(alertRows().
			AddRow(1, 1, "a@b.c", "BTC/USD", "BTC", "btc-bitcoin",
				"rise", 5.0, 50000.0, 51000.0,
				"active", "tok-1", "unsub-1", now, nil, now).
			AddRow(2, 2, "telegram:42", "ETH/USD", "ETH", "eth-ethereum",
				"fall", -8.0, 3000.0, 2950.0,
				"active", "tok-2", "unsub-2", now, nil, nil))

	alerts, err := store.ListActiveAlerts()
	if err != nil {
		t.Fatalf("ListActiveAlerts returned error: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}

	first := alerts[0]
	if first.Direction != types.DirectionRise || first.Status != types.StatusActive {
		t.Errorf("unexpected first alert: %+v", first)
	}
	if first.UnsubscribeToken != "unsub-1" {
		t.Errorf("unsubscribe token not joined: %q", first.UnsubscribeToken)
	}
	if alerts[1].LastChecked != nil {
		t.Errorf("expected nil last_checked, got %v", alerts[1].LastChecked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInsertAlertFillsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO alerts").
		WillReturnResult(sqlmock.NewResult(42, 1))

	a := &types.Alert{
		SubscriberID:     1,
		Symbol:           "BTC/USD",
		BaseSymbol:       "BTC",
		CoinID:           "btc-bitcoin",
		Direction:        types.DirectionRise,
		ThresholdPercent: 5,
		BasePrice:        50000,
		Token:            "tok",
	}
	if err := store.InsertAlert(a); err != nil {
		t.Fatalf("InsertAlert returned error: %v", err)
	}
	if a.ID != 42 {
		t.Errorf("ID = %d, want 42", a.ID)
	}
	if a.Status != types.StatusActive {
		t.Errorf("Status = %q, want active", a.Status)
	}
	if a.ObservedPrice != a.BasePrice {
		t.Errorf("ObservedPrice = %v, want the base price", a.ObservedPrice)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
