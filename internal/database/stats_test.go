package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"crypto-alert-service/internal/types"
)

func TestStatistics(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM subscribers WHERE is_active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("FROM alerts WHERE status = 'active'").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("FROM alerts WHERE status = 'triggered'").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM alert_history WHERE DATE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("GROUP BY direction").
		WillReturnRows(sqlmock.NewRows([]string{"direction", "count"}).
			AddRow("rise", 4).
			AddRow("fall", 1))

	stats, err := store.Statistics()
	if err != nil {
		t.Fatalf("Statistics returned error: %v", err)
	}

	want := types.Statistics{
		ActiveSubscribers: 3,
		ActiveAlerts:      5,
		TriggeredAlerts:   2,
		RiseAlerts:        4,
		FallAlerts:        1,
		TriggeredToday:    1,
	}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCountsByStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("active", 5).
			AddRow("stopped", 3))

	counts, err := store.CountsByStatus()
	if err != nil {
		t.Fatalf("CountsByStatus returned error: %v", err)
	}
	if counts[types.StatusActive] != 5 || counts[types.StatusStopped] != 3 {
		t.Errorf("counts = %v", counts)
	}
	if counts[types.StatusTriggered] != 0 {
		t.Errorf("missing status should count as zero, got %d", counts[types.StatusTriggered])
	}
}
