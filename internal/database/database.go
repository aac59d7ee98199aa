package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store wraps the sqlite database holding subscribers, alerts, trigger
// history, sampled prices and persisted metrics.
type Store struct {
	db *sql.DB
}

// NewStore builds a Store on an already-open handle. Used by tests.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS subscribers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			contact TEXT UNIQUE NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_active TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			is_active INTEGER NOT NULL DEFAULT 1,
			unsubscribe_token TEXT UNIQUE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subscriber_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			base_symbol TEXT NOT NULL,
			coin_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			threshold_percent REAL NOT NULL,
			base_price REAL NOT NULL,
			observed_price REAL,
			status TEXT NOT NULL DEFAULT 'active',
			alert_token TEXT UNIQUE NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			triggered_at TIMESTAMP,
			last_checked TIMESTAMP,
			FOREIGN KEY (subscriber_id) REFERENCES subscribers (id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS alert_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_id INTEGER NOT NULL,
			contact TEXT NOT NULL,
			symbol TEXT NOT NULL,
			base_symbol TEXT NOT NULL,
			direction TEXT NOT NULL,
			threshold_percent REAL NOT NULL,
			base_price REAL NOT NULL,
			trigger_price REAL NOT NULL,
			change_percent REAL NOT NULL,
			triggered_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			notification_sent INTEGER NOT NULL DEFAULT 0,
			notification_sent_at TIMESTAMP,
			FOREIGN KEY (alert_id) REFERENCES alerts (id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			price REAL NOT NULL,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			metric_name TEXT NOT NULL,
			label_key TEXT DEFAULT NULL,
			label_value TEXT DEFAULT NULL,
			metric_value REAL NOT NULL,
			PRIMARY KEY (metric_name, label_key, label_value)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_subscriber ON alerts(subscriber_id);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_direction ON alerts(direction);`,
		`CREATE INDEX IF NOT EXISTS idx_history_alert ON alert_history(alert_id);`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_symbol ON price_history(symbol, recorded_at);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}
	return nil
}
