package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/types"
)

// GetOrCreateSubscriber returns the subscriber for a normalized contact,
// creating it lazily on first use and bumping last_active on revisits.
func (s *Store) GetOrCreateSubscriber(contact string) (*types.Subscriber, error) {
	sub, err := s.getSubscriber(contact)
	if err == nil {
		_, err = s.db.Exec(`UPDATE subscribers SET last_active = CURRENT_TIMESTAMP WHERE id = ?;`, sub.ID)
		return sub, errors.Wrap(err, "failed to update last_active")
	}
	if err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "failed to query subscriber")
	}

	token := uuid.NewString()
	res, err := s.db.Exec(`
		INSERT INTO subscribers (contact, unsubscribe_token)
		VALUES (?, ?);`, contact, token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create subscriber")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read subscriber id")
	}

	log.Infof("subscriber created: %s (id=%d)", contact, id)
	return s.getSubscriberByID(id)
}

func (s *Store) getSubscriber(contact string) (*types.Subscriber, error) {
	row := s.db.QueryRow(`
		SELECT id, contact, created_at, last_active, is_active, unsubscribe_token
		FROM subscribers WHERE contact = ?;`, contact)
	return scanSubscriber(row)
}

func (s *Store) getSubscriberByID(id int64) (*types.Subscriber, error) {
	row := s.db.QueryRow(`
		SELECT id, contact, created_at, last_active, is_active, unsubscribe_token
		FROM subscribers WHERE id = ?;`, id)
	sub, err := scanSubscriber(row)
	return sub, errors.Wrap(err, "failed to load subscriber")
}

func scanSubscriber(row *sql.Row) (*types.Subscriber, error) {
	var sub types.Subscriber
	err := row.Scan(&sub.ID, &sub.Contact, &sub.CreatedAt, &sub.LastActive, &sub.Active, &sub.UnsubscribeToken)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Unsubscribe deactivates the subscriber owning the capability token and stops
// all of their still-active alerts. History rows are kept. Returns false for
// an unknown token.
func (s *Store) Unsubscribe(token string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE subscribers SET is_active = 0
		WHERE unsubscribe_token = ?;`, token)
	if err != nil {
		return false, errors.Wrap(err, "failed to unsubscribe")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return false, nil
	}

	// The conditional status guard keeps already-triggered alerts intact.
	_, err = s.db.Exec(`
		UPDATE alerts SET status = 'stopped'
		WHERE status = 'active' AND subscriber_id IN
			(SELECT id FROM subscribers WHERE unsubscribe_token = ?);`, token)
	if err != nil {
		return false, errors.Wrap(err, "failed to stop alerts on unsubscribe")
	}
	return true, nil
}
