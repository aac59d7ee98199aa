package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SaveMetric persists a counter value so it survives restarts.
func (s *Store) SaveMetric(metricName string, value float64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO metrics (metric_name, label_key, label_value, metric_value)
		VALUES (?, NULL, NULL, ?);`, metricName, value)
	return errors.Wrapf(err, "failed to save metric %s", metricName)
}

// GetMetric loads a persisted counter value, defaulting to 0 when absent.
func (s *Store) GetMetric(metricName string) (float64, error) {
	var value float64
	err := s.db.QueryRow(`
		SELECT metric_value FROM metrics
		WHERE metric_name = ? AND label_key IS NULL AND label_value IS NULL;`, metricName).Scan(&value)
	if err == sql.ErrNoRows {
		log.Debugf("metric %s not found, defaulting to 0", metricName)
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", metricName)
	}
	return value, nil
}

// SaveMetricWithLabels persists one labeled counter sample.
func (s *Store) SaveMetricWithLabels(metricName, labelKey, labelValue string, value float64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO metrics (metric_name, label_key, label_value, metric_value)
		VALUES (?, ?, ?, ?);`, metricName, labelKey, labelValue, value)
	return errors.Wrapf(err, "failed to save metric %s", metricName)
}

// GetMetricsWithLabels fetches all labeled samples for a metric name.
func (s *Store) GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error) {
	rows, err := s.db.Query(`
		SELECT label_key, label_value, metric_value FROM metrics
		WHERE metric_name = ? AND label_key IS NOT NULL AND label_value IS NOT NULL;`, metricName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query metric %s", metricName)
	}
	defer rows.Close()

	metrics := make(map[string]map[string]float64)
	for rows.Next() {
		var labelKey, labelValue string
		var value float64
		if err := rows.Scan(&labelKey, &labelValue, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan metric row")
		}

		if _, exists := metrics[labelKey]; !exists {
			metrics[labelKey] = make(map[string]float64)
		}
		metrics[labelKey][labelValue] = value
	}
	return metrics, rows.Err()
}
