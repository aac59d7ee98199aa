package notifier

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/chart"
	"crypto-alert-service/internal/price"
	"crypto-alert-service/internal/types"
)

// Message is one rendered notification: a plain-text rendering for email and
// a MarkdownV2 rendering for telegram, plus an optional chart attachment.
type Message struct {
	Subject  string
	Text     string
	Markdown string
	Chart    []byte
}

// Sender delivers a rendered message over one channel.
type Sender interface {
	Send(ctx context.Context, rec types.TriggerRecord, msg Message) error
}

// HistorySource provides recent price samples for the chart attachment.
type HistorySource interface {
	RecentPrices(symbol string, limit int) ([]types.PricePoint, error)
}

// QuoteSource provides the 24h market context attached to notifications.
type QuoteSource interface {
	Quote24h(ctx context.Context, coinID string) (*price.Quote, error)
}

// Config carries the rendering inputs shared by all channels.
type Config struct {
	ServiceName string
	WebsiteURL  string // base for stop and unsubscribe links
	ChartPoints int    // history samples per chart, 0 disables charts
}

// Dispatcher routes a trigger record to the channel its contact encodes:
// "telegram:<chat id>" contacts go to telegram, everything else to email.
// Chart and quote enrichment are best effort and never fail a delivery.
type Dispatcher struct {
	cfg      Config
	email    Sender
	telegram Sender
	history  HistorySource
	quotes   QuoteSource
}

func NewDispatcher(cfg Config, email, telegram Sender, history HistorySource, quotes QuoteSource) *Dispatcher {
	return &Dispatcher{cfg: cfg, email: email, telegram: telegram, history: history, quotes: quotes}
}

// Notify renders and delivers the message for one trigger record. It makes
// exactly one attempt; retry policy belongs to the caller.
func (d *Dispatcher) Notify(ctx context.Context, rec types.TriggerRecord) error {
	sender, err := d.senderFor(rec.Contact)
	if err != nil {
		return err
	}

	var quote *price.Quote
	if d.quotes != nil && rec.CoinID != "" {
		if quote, err = d.quotes.Quote24h(ctx, rec.CoinID); err != nil {
			log.Debugf("no 24h quote for %s: %v", rec.CoinID, err)
			quote = nil
		}
	}

	msg := renderTrigger(d.cfg, rec, quote)
	msg.Chart = d.renderChart(rec)

	return sender.Send(ctx, rec, msg)
}

func (d *Dispatcher) senderFor(contact string) (Sender, error) {
	if strings.HasPrefix(contact, "telegram:") {
		if d.telegram == nil {
			return nil, errors.Errorf("telegram channel not configured for %s", contact)
		}
		return d.telegram, nil
	}
	if d.email == nil {
		return nil, errors.Errorf("email channel not configured for %s", contact)
	}
	return d.email, nil
}

func (d *Dispatcher) renderChart(rec types.TriggerRecord) []byte {
	if d.history == nil || d.cfg.ChartPoints <= 0 {
		return nil
	}

	points, err := d.history.RecentPrices(rec.Symbol, d.cfg.ChartPoints)
	if err != nil {
		log.Warnf("failed to load price history for %s: %v", rec.Symbol, err)
		return nil
	}

	data, err := chart.RenderHistory(rec.Symbol, points)
	if err != nil {
		log.Debugf("chart skipped for %s: %v", rec.Symbol, err)
		return nil
	}
	return data
}
