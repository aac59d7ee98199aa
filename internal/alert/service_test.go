package alert

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"crypto-alert-service/internal/price"
	"crypto-alert-service/internal/types"
)

type fakeStore struct {
	subscriber  *types.Subscriber
	activeCount int
	inserted    []types.Alert
	stopped     []string
}

func (f *fakeStore) GetOrCreateSubscriber(contact string) (*types.Subscriber, error) {
	if f.subscriber == nil {
		f.subscriber = &types.Subscriber{ID: 1, Contact: contact, Active: true, UnsubscribeToken: "unsub-token"}
	}
	return f.subscriber, nil
}

func (f *fakeStore) CountActiveBySubscriber(subscriberID int64) (int, error) {
	return f.activeCount, nil
}

func (f *fakeStore) InsertAlert(a *types.Alert) error {
	a.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *a)
	return nil
}

func (f *fakeStore) ListAlertsByContact(contact string) ([]types.Alert, error) {
	return f.inserted, nil
}

func (f *fakeStore) DeactivateAlert(token string) (bool, error) {
	f.stopped = append(f.stopped, token)
	return true, nil
}

func (f *fakeStore) Unsubscribe(token string) (bool, error) {
	return token == "unsub-token", nil
}

type fakeResolver struct {
	price      float64
	resolveErr error
}

func (f *fakeResolver) Resolve(query string) (*price.Instrument, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &price.Instrument{CoinID: "btc-bitcoin", Name: "Bitcoin", BaseSymbol: "BTC", Symbol: "BTC/USD"}, nil
}

func (f *fakeResolver) CurrentPrice(ctx context.Context, coinID string) (float64, error) {
	return f.price, nil
}

func testLimits() Limits {
	return Limits{MinThresholdPercent: 0.1, MaxThresholdPercent: 50, MaxAlertsPerSubscriber: 20}
}

func TestCreateAlert(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeResolver{price: 50000}, testLimits())

	a, err := svc.Create(context.Background(), "User@Example.COM ", "btc", 5, types.DirectionRise)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if a.Contact != "user@example.com" {
		t.Errorf("contact not normalized: %q", a.Contact)
	}
	if a.Symbol != "BTC/USD" {
		t.Errorf("symbol = %q, want BTC/USD", a.Symbol)
	}
	if a.BasePrice != 50000 {
		t.Errorf("base price = %v, want the creation-time price", a.BasePrice)
	}
	if a.Token == "" {
		t.Error("alert has no capability token")
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d alerts, want 1", len(store.inserted))
	}
}

func TestCreateAlertValidation(t *testing.T) {
	cases := []struct {
		name      string
		contact   string
		threshold float64
		direction types.Direction
	}{
		{"empty contact", "", 5, types.DirectionRise},
		{"contact without at sign", "not-an-email", 5, types.DirectionRise},
		{"telegram contact without chat id", "telegram:", 5, types.DirectionRise},
		{"telegram contact with garbage chat id", "telegram:abc", 5, types.DirectionRise},
		{"unknown direction", "a@b.c", 5, "sideways"},
		{"rise threshold below minimum", "a@b.c", 0.05, types.DirectionRise},
		{"rise threshold above maximum", "a@b.c", 51, types.DirectionRise},
		{"rise threshold negative", "a@b.c", -5, types.DirectionRise},
		{"fall threshold positive", "a@b.c", 5, types.DirectionFall},
		{"fall threshold below minimum magnitude", "a@b.c", -0.05, types.DirectionFall},
		{"fall threshold above maximum magnitude", "a@b.c", -51, types.DirectionFall},
	}

	svc := NewService(&fakeStore{}, &fakeResolver{price: 50000}, testLimits())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.contact, "btc", tc.threshold, tc.direction)
			if !IsValidation(err) {
				t.Errorf("err = %v, want a validation error", err)
			}
		})
	}
}

func TestCreateAlertTelegramContact(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeResolver{price: 50000}, testLimits())

	a, err := svc.Create(context.Background(), "telegram:123456", "btc", -2, types.DirectionFall)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if a.Contact != "telegram:123456" {
		t.Errorf("contact = %q", a.Contact)
	}
}

func TestCreateAlertUnknownInstrument(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeResolver{resolveErr: errors.New("unknown instrument: wat")}, testLimits())

	_, err := svc.Create(context.Background(), "a@b.c", "wat", 5, types.DirectionRise)
	if !IsValidation(err) {
		t.Errorf("err = %v, want a validation error", err)
	}
}

func TestCreateAlertCap(t *testing.T) {
	store := &fakeStore{activeCount: 20}
	svc := NewService(store, &fakeResolver{price: 50000}, testLimits())

	_, err := svc.Create(context.Background(), "a@b.c", "btc", 5, types.DirectionRise)
	if !IsValidation(err) {
		t.Errorf("err = %v, want a validation error", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("alert inserted despite the cap")
	}
}

func TestCreateAlertBoundaryThresholds(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeResolver{price: 50000}, testLimits())

	for _, tc := range []struct {
		threshold float64
		direction types.Direction
	}{
		{0.1, types.DirectionRise},
		{50, types.DirectionRise},
		{-0.1, types.DirectionFall},
		{-50, types.DirectionFall},
	} {
		if _, err := svc.Create(context.Background(), "a@b.c", "btc", tc.threshold, tc.direction); err != nil {
			t.Errorf("threshold %v %s rejected: %v", tc.threshold, tc.direction, err)
		}
	}
}

func TestStopUsesToken(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeResolver{price: 50000}, testLimits())

	ok, err := svc.Stop("some-token")
	if err != nil || !ok {
		t.Fatalf("Stop = (%v, %v)", ok, err)
	}
	if len(store.stopped) != 1 || store.stopped[0] != "some-token" {
		t.Errorf("stopped tokens = %v", store.stopped)
	}
}
