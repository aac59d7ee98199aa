package database

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/types"
)

const alertColumns = `
	a.id, a.subscriber_id, u.contact, a.symbol, a.base_symbol, a.coin_id,
	a.direction, a.threshold_percent, a.base_price, a.observed_price,
	a.status, a.alert_token, u.unsubscribe_token,
	a.created_at, a.triggered_at, a.last_checked`

// InsertAlert persists a new active alert and fills in its row id.
func (s *Store) InsertAlert(a *types.Alert) error {
	res, err := s.db.Exec(`
		INSERT INTO alerts
		(subscriber_id, symbol, base_symbol, coin_id, direction, threshold_percent,
		 base_price, observed_price, status, alert_token, last_checked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'active', ?, CURRENT_TIMESTAMP);`,
		a.SubscriberID, a.Symbol, a.BaseSymbol, a.CoinID, string(a.Direction),
		a.ThresholdPercent, a.BasePrice, a.BasePrice, a.Token)
	if err != nil {
		return errors.Wrap(err, "failed to insert alert")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read alert id")
	}
	a.ID = id
	a.Status = types.StatusActive
	a.ObservedPrice = a.BasePrice

	log.Infof("alert created: %s %s %+.2f%% (id=%d)", a.Symbol, a.Direction, a.ThresholdPercent, id)
	return nil
}

// ListActiveAlerts returns the snapshot the monitor evaluates: active alerts
// joined with their subscriber, filtered to active subscribers so that an
// unsubscribe suppresses all further evaluation.
func (s *Store) ListActiveAlerts() ([]types.Alert, error) {
	rows, err := s.db.Query(`
		SELECT` + alertColumns + `
		FROM alerts a
		JOIN subscribers u ON a.subscriber_id = u.id
		WHERE a.status = 'active' AND u.is_active = 1
		ORDER BY a.created_at;`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query active alerts")
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// ListAlertsByContact returns every alert owned by a contact, newest first.
func (s *Store) ListAlertsByContact(contact string) ([]types.Alert, error) {
	rows, err := s.db.Query(`
		SELECT`+alertColumns+`
		FROM alerts a
		JOIN subscribers u ON a.subscriber_id = u.id
		WHERE u.contact = ?
		ORDER BY a.created_at DESC;`, contact)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alerts by contact")
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(r rowScanner) (types.Alert, error) {
	var a types.Alert
	var direction, status string
	err := r.Scan(&a.ID, &a.SubscriberID, &a.Contact, &a.Symbol, &a.BaseSymbol, &a.CoinID,
		&direction, &a.ThresholdPercent, &a.BasePrice, &a.ObservedPrice,
		&status, &a.Token, &a.UnsubscribeToken,
		&a.CreatedAt, &a.TriggeredAt, &a.LastChecked)
	if err != nil {
		return a, errors.Wrap(err, "failed to scan alert row")
	}
	a.Direction = types.Direction(direction)
	a.Status = types.AlertStatus(status)
	return a, nil
}

// UpdateObservedPrice stores the latest sampled price for an alert that did
// not fire. Best-effort from the monitor's point of view.
func (s *Store) UpdateObservedPrice(alertID int64, price float64, checkedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE alerts SET observed_price = ?, last_checked = ?
		WHERE id = ?;`, price, checkedAt, alertID)
	return errors.Wrap(err, "failed to update observed price")
}

// TryTransitionToTriggered flips an alert from active to triggered. The
// status guard in the WHERE clause makes the flip conditional: if a stop or
// unsubscribe (or another trigger) got there first, zero rows are affected
// and the caller must back off.
func (s *Store) TryTransitionToTriggered(alertID int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE alerts SET status = 'triggered', triggered_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'active';`, alertID)
	if err != nil {
		return false, errors.Wrap(err, "failed to transition alert to triggered")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// DeactivateAlert stops the alert owning the capability token. Conditional on
// the alert still being active, so it cannot race a concurrent trigger into
// an ambiguous dual state. Returns false if the token is unknown or the alert
// already left the active state.
func (s *Store) DeactivateAlert(token string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE alerts SET status = 'stopped'
		WHERE alert_token = ? AND status = 'active';`, token)
	if err != nil {
		return false, errors.Wrap(err, "failed to deactivate alert")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// CountActiveBySubscriber counts a subscriber's active alerts for the
// creation-time cap.
func (s *Store) CountActiveBySubscriber(subscriberID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(1) FROM alerts
		WHERE subscriber_id = ? AND status = 'active';`, subscriberID).Scan(&count)
	return count, errors.Wrap(err, "failed to count active alerts")
}
