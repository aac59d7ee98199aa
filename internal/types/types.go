package types

import "time"

// Direction of an alert. Decided once at creation, never defaulted at read time.
type Direction string

const (
	DirectionRise Direction = "rise"
	DirectionFall Direction = "fall"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionRise || d == DirectionFall
}

// AlertStatus is the alert state machine:
// active -> triggered (condition met) or active -> stopped (owner/unsubscribe).
// Both triggered and stopped are terminal.
type AlertStatus string

const (
	StatusActive    AlertStatus = "active"
	StatusTriggered AlertStatus = "triggered"
	StatusStopped   AlertStatus = "stopped"
)

// Subscriber is identified by its normalized contact address.
type Subscriber struct {
	ID               int64     `json:"id"`
	Contact          string    `json:"contact"`
	CreatedAt        time.Time `json:"created_at"`
	LastActive       time.Time `json:"last_active"`
	Active           bool      `json:"active"`
	UnsubscribeToken string    `json:"-"`
}

// Alert is a standing watch on one instrument for one subscriber.
type Alert struct {
	ID               int64       `json:"id"`
	SubscriberID     int64       `json:"-"`
	Contact          string      `json:"contact"`
	Symbol           string      `json:"symbol"`      // normalized pair, e.g. "BTC/USD"
	BaseSymbol       string      `json:"base_symbol"` // e.g. "BTC"
	CoinID           string      `json:"coin_id"`     // resolved CoinPaprika coin ID
	Direction        Direction   `json:"direction"`
	ThresholdPercent float64     `json:"threshold_percent"`
	BasePrice        float64     `json:"base_price"`
	ObservedPrice    float64     `json:"observed_price"`
	Status           AlertStatus `json:"status"`
	Token            string      `json:"-"` // capability token for stop links
	UnsubscribeToken string      `json:"-"` // joined from subscriber
	CreatedAt        time.Time   `json:"created_at"`
	TriggeredAt      *time.Time  `json:"triggered_at,omitempty"`
	LastChecked      *time.Time  `json:"last_checked,omitempty"`
}

// TriggerRecord is the immutable audit entry written once per fired alert.
// NotificationSent makes delivery idempotent: the sender marks it after a
// successful attempt and an already-sent record is never re-delivered.
type TriggerRecord struct {
	ID               int64      `json:"id"`
	AlertID          int64      `json:"alert_id"`
	Contact          string     `json:"contact"`
	Symbol           string     `json:"symbol"`
	BaseSymbol       string     `json:"base_symbol"`
	CoinID           string     `json:"-"`
	Direction        Direction  `json:"direction"`
	ThresholdPercent float64    `json:"threshold_percent"`
	BasePrice        float64    `json:"base_price"`
	TriggerPrice     float64    `json:"trigger_price"`
	ChangePercent    float64    `json:"change_percent"`
	TriggeredAt      time.Time  `json:"triggered_at"`
	NotificationSent bool       `json:"notification_sent"`
	SentAt           *time.Time `json:"sent_at,omitempty"`

	// Capability tokens carried along for rendering stop/unsubscribe links.
	AlertToken       string `json:"-"`
	UnsubscribeToken string `json:"-"`
}

// Statistics is the read-side aggregate for operational display.
type Statistics struct {
	ActiveSubscribers int `json:"active_subscribers"`
	ActiveAlerts      int `json:"active_alerts"`
	TriggeredAlerts   int `json:"triggered_alerts"`
	RiseAlerts        int `json:"rise_alerts"`
	FallAlerts        int `json:"fall_alerts"`
	TriggeredToday    int `json:"triggered_today"`
}

// PricePoint is one sampled price, kept for trigger notification charts.
type PricePoint struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}
