package database

import (
	"fmt"

	"github.com/pkg/errors"

	"crypto-alert-service/internal/types"
)

// RecordPrice appends one sampled price for a symbol. The monitor records
// these as it evaluates, and trigger notifications chart them.
func (s *Store) RecordPrice(symbol string, price float64) error {
	_, err := s.db.Exec(`
		INSERT INTO price_history (symbol, price)
		VALUES (?, ?);`, symbol, price)
	return errors.Wrap(err, "failed to record price")
}

// RecentPrices returns up to limit samples for a symbol in chronological
// order.
func (s *Store) RecentPrices(symbol string, limit int) ([]types.PricePoint, error) {
	rows, err := s.db.Query(`
		SELECT symbol, price, recorded_at FROM (
			SELECT symbol, price, recorded_at FROM price_history
			WHERE symbol = ?
			ORDER BY recorded_at DESC
			LIMIT ?
		) ORDER BY recorded_at;`, symbol, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query price history")
	}
	defer rows.Close()

	var points []types.PricePoint
	for rows.Next() {
		var p types.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Price, &p.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan price point")
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// PruneHistory deletes samples older than the retention window in days.
func (s *Store) PruneHistory(days int) error {
	_, err := s.db.Exec(`
		DELETE FROM price_history
		WHERE recorded_at < DATETIME('now', ?);`, fmt.Sprintf("-%d days", days))
	return errors.Wrap(err, "failed to prune price history")
}
