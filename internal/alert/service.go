package alert

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/price"
	"crypto-alert-service/internal/types"
)

// Store is the slice of the database the lifecycle service needs.
type Store interface {
	GetOrCreateSubscriber(contact string) (*types.Subscriber, error)
	CountActiveBySubscriber(subscriberID int64) (int, error)
	InsertAlert(a *types.Alert) error
	ListAlertsByContact(contact string) ([]types.Alert, error)
	DeactivateAlert(token string) (bool, error)
	Unsubscribe(token string) (bool, error)
}

// Resolver validates instruments and snapshots their creation-time price.
type Resolver interface {
	Resolve(query string) (*price.Instrument, error)
	CurrentPrice(ctx context.Context, coinID string) (float64, error)
}

// Limits bound what a single subscriber may create.
type Limits struct {
	MinThresholdPercent    float64 // magnitude, e.g. 0.1
	MaxThresholdPercent    float64 // magnitude, e.g. 50
	MaxAlertsPerSubscriber int
}

// Service owns alert creation and the explicit stop/unsubscribe actions.
// Everything it rejects never reaches the monitor.
type Service struct {
	store  Store
	prices Resolver
	limits Limits
}

func NewService(store Store, prices Resolver, limits Limits) *Service {
	return &Service{store: store, prices: prices, limits: limits}
}

// NormalizeContact canonicalizes a subscriber identity: trimmed, case-folded.
func NormalizeContact(contact string) string {
	return strings.ToLower(strings.TrimSpace(contact))
}

// Create validates and persists a new alert for contact. The threshold is
// signed: strictly positive for rise, strictly negative for fall, magnitude
// within the configured bounds. The instrument is resolved against the price
// source and the current price becomes the alert's base price.
func (s *Service) Create(ctx context.Context, contact, symbol string, thresholdPercent float64, direction types.Direction) (*types.Alert, error) {
	contact = NormalizeContact(contact)
	if err := validateContact(contact); err != nil {
		return nil, err
	}

	if !direction.Valid() {
		return nil, Validationf("alert direction must be %q or %q", types.DirectionRise, types.DirectionFall)
	}
	if err := s.validateThreshold(thresholdPercent, direction); err != nil {
		return nil, err
	}

	instrument, err := s.prices.Resolve(symbol)
	if err != nil {
		return nil, WithKind(KindValidation, errors.Wrapf(err, "invalid instrument %q", symbol))
	}

	basePrice, err := s.prices.CurrentPrice(ctx, instrument.CoinID)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch base price for %s", instrument.Symbol)
	}
	if basePrice <= 0 {
		return nil, Validationf("instrument %s has no tradable price", instrument.Symbol)
	}

	sub, err := s.store.GetOrCreateSubscriber(contact)
	if err != nil {
		return nil, err
	}

	active, err := s.store.CountActiveBySubscriber(sub.ID)
	if err != nil {
		return nil, err
	}
	if active >= s.limits.MaxAlertsPerSubscriber {
		return nil, Validationf("active alert limit reached (%d)", s.limits.MaxAlertsPerSubscriber)
	}

	a := &types.Alert{
		SubscriberID:     sub.ID,
		Contact:          sub.Contact,
		Symbol:           instrument.Symbol,
		BaseSymbol:       instrument.BaseSymbol,
		CoinID:           instrument.CoinID,
		Direction:        direction,
		ThresholdPercent: thresholdPercent,
		BasePrice:        basePrice,
		Token:            uuid.NewString(),
		UnsubscribeToken: sub.UnsubscribeToken,
	}
	if err := s.store.InsertAlert(a); err != nil {
		return nil, err
	}

	log.Debugf("created %s alert for %s on %s at base %.6f", direction, contact, instrument.Symbol, basePrice)
	return a, nil
}

// List returns every alert owned by contact, newest first.
func (s *Service) List(contact string) ([]types.Alert, error) {
	return s.store.ListAlertsByContact(NormalizeContact(contact))
}

// Stop deactivates the alert behind a capability token. False means the
// token is unknown or the alert already left the active state.
func (s *Service) Stop(token string) (bool, error) {
	return s.store.DeactivateAlert(token)
}

// Unsubscribe deactivates the subscriber behind a capability token,
// suppressing evaluation and delivery for all of their alerts.
func (s *Service) Unsubscribe(token string) (bool, error) {
	return s.store.Unsubscribe(token)
}

func (s *Service) validateThreshold(thresholdPercent float64, direction types.Direction) error {
	min, max := s.limits.MinThresholdPercent, s.limits.MaxThresholdPercent
	switch direction {
	case types.DirectionRise:
		if thresholdPercent < min || thresholdPercent > max {
			return Validationf("rise threshold must be between +%.1f%% and +%.1f%%", min, max)
		}
	case types.DirectionFall:
		if thresholdPercent > -min || thresholdPercent < -max {
			return Validationf("fall threshold must be between -%.1f%% and -%.1f%%", max, min)
		}
	}
	return nil
}

func validateContact(contact string) error {
	if contact == "" {
		return Validationf("contact address is required")
	}
	if strings.HasPrefix(contact, "telegram:") {
		id := strings.TrimPrefix(contact, "telegram:")
		if id == "" || strings.ContainsFunc(id, func(r rune) bool { return r < '0' || r > '9' }) {
			return Validationf("telegram contact must be telegram:<chat id>")
		}
		return nil
	}
	if !strings.Contains(contact, "@") {
		return Validationf("invalid contact address: %s", contact)
	}
	return nil
}
