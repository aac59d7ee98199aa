package database

import (
	"github.com/pkg/errors"

	"crypto-alert-service/internal/types"
)

// Statistics aggregates operational counts straight from the tables. Each
// field is a separate query, so the result is not a consistent snapshot;
// that is fine for display and nothing else uses it.
func (s *Store) Statistics() (*types.Statistics, error) {
	stats := &types.Statistics{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM subscribers WHERE is_active = 1;`, &stats.ActiveSubscribers},
		{`SELECT COUNT(1) FROM alerts WHERE status = 'active';`, &stats.ActiveAlerts},
		{`SELECT COUNT(1) FROM alerts WHERE status = 'triggered';`, &stats.TriggeredAlerts},
		{`SELECT COUNT(1) FROM alert_history WHERE DATE(triggered_at) = DATE('now');`, &stats.TriggeredToday},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, errors.Wrap(err, "failed to aggregate statistics")
		}
	}

	byDirection, err := s.CountsByDirection()
	if err != nil {
		return nil, err
	}
	stats.RiseAlerts = byDirection[types.DirectionRise]
	stats.FallAlerts = byDirection[types.DirectionFall]

	return stats, nil
}

// CountsByStatus returns alert counts grouped by lifecycle status.
func (s *Store) CountsByStatus() (map[types.AlertStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(1) FROM alerts GROUP BY status;`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count alerts by status")
	}
	defer rows.Close()

	counts := make(map[types.AlertStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan status count")
		}
		counts[types.AlertStatus(status)] = count
	}
	return counts, rows.Err()
}

// CountsByDirection returns active alert counts grouped by direction.
func (s *Store) CountsByDirection() (map[types.Direction]int, error) {
	rows, err := s.db.Query(`
		SELECT direction, COUNT(1) FROM alerts
		WHERE status = 'active' GROUP BY direction;`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count alerts by direction")
	}
	defer rows.Close()

	counts := make(map[types.Direction]int)
	for rows.Next() {
		var direction string
		var count int
		if err := rows.Scan(&direction, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan direction count")
		}
		counts[types.Direction(direction)] = count
	}
	return counts, rows.Err()
}
