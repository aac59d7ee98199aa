package database

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/types"
)

const triggerColumns = `
	h.id, h.alert_id, h.contact, h.symbol, h.base_symbol, h.direction,
	h.threshold_percent, h.base_price, h.trigger_price, h.change_percent,
	h.triggered_at, h.notification_sent, h.notification_sent_at,
	a.coin_id, a.alert_token, u.unsubscribe_token`

// RecordTrigger writes the immutable audit entry for a fired alert. Written
// exactly once per alert, right after the conditional transition succeeds.
func (s *Store) RecordTrigger(a types.Alert, triggerPrice, changePercent float64) (*types.TriggerRecord, error) {
	res, err := s.db.Exec(`
		INSERT INTO alert_history
		(alert_id, contact, symbol, base_symbol, direction, threshold_percent,
		 base_price, trigger_price, change_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		a.ID, a.Contact, a.Symbol, a.BaseSymbol, string(a.Direction),
		a.ThresholdPercent, a.BasePrice, triggerPrice, changePercent)
	if err != nil {
		return nil, errors.Wrap(err, "failed to record trigger")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read trigger id")
	}

	log.Infof("alert %d triggered: %s %+.2f%% at %.6f", a.ID, a.Symbol, changePercent, triggerPrice)
	return s.getTrigger(id)
}

func (s *Store) getTrigger(id int64) (*types.TriggerRecord, error) {
	row := s.db.QueryRow(`
		SELECT`+triggerColumns+`
		FROM alert_history h
		JOIN alerts a ON h.alert_id = a.id
		JOIN subscribers u ON a.subscriber_id = u.id
		WHERE h.id = ?;`, id)

	var rec types.TriggerRecord
	var direction string
	err := row.Scan(&rec.ID, &rec.AlertID, &rec.Contact, &rec.Symbol, &rec.BaseSymbol, &direction,
		&rec.ThresholdPercent, &rec.BasePrice, &rec.TriggerPrice, &rec.ChangePercent,
		&rec.TriggeredAt, &rec.NotificationSent, &rec.SentAt,
		&rec.CoinID, &rec.AlertToken, &rec.UnsubscribeToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load trigger record")
	}
	rec.Direction = types.Direction(direction)
	return &rec, nil
}

// MarkTriggerSent marks the trigger record of an alert as delivered. The
// sent guard makes a repeated call a no-op, so delivery bookkeeping is
// idempotent across crashes and resumed sends.
func (s *Store) MarkTriggerSent(alertID int64) error {
	_, err := s.db.Exec(`
		UPDATE alert_history
		SET notification_sent = 1, notification_sent_at = CURRENT_TIMESTAMP
		WHERE alert_id = ? AND notification_sent = 0;`, alertID)
	return errors.Wrap(err, "failed to mark trigger sent")
}

// ListUnsentTriggers returns trigger records whose notification attempt never
// succeeded, oldest first. Only records of still-active subscribers are
// returned: unsubscribing suppresses redelivery too.
func (s *Store) ListUnsentTriggers() ([]types.TriggerRecord, error) {
	rows, err := s.db.Query(`
		SELECT` + triggerColumns + `
		FROM alert_history h
		JOIN alerts a ON h.alert_id = a.id
		JOIN subscribers u ON a.subscriber_id = u.id
		WHERE h.notification_sent = 0 AND u.is_active = 1
		ORDER BY h.triggered_at;`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query unsent triggers")
	}
	defer rows.Close()

	var records []types.TriggerRecord
	for rows.Next() {
		var rec types.TriggerRecord
		var direction string
		err := rows.Scan(&rec.ID, &rec.AlertID, &rec.Contact, &rec.Symbol, &rec.BaseSymbol, &direction,
			&rec.ThresholdPercent, &rec.BasePrice, &rec.TriggerPrice, &rec.ChangePercent,
			&rec.TriggeredAt, &rec.NotificationSent, &rec.SentAt,
			&rec.CoinID, &rec.AlertToken, &rec.UnsubscribeToken)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan trigger row")
		}
		rec.Direction = types.Direction(direction)
		records = append(records, rec)
	}
	return records, rows.Err()
}
