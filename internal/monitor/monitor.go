package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/alert"
	"crypto-alert-service/internal/types"
)

// AlertStore is the slice of the database the monitor drives.
type AlertStore interface {
	ListActiveAlerts() ([]types.Alert, error)
	UpdateObservedPrice(alertID int64, price float64, checkedAt time.Time) error
	TryTransitionToTriggered(alertID int64) (bool, error)
	RecordTrigger(a types.Alert, triggerPrice, changePercent float64) (*types.TriggerRecord, error)
	MarkTriggerSent(alertID int64) error
	ListUnsentTriggers() ([]types.TriggerRecord, error)
	RecordPrice(symbol string, price float64) error
}

// PriceSource returns the current price of one instrument or fails.
type PriceSource interface {
	CurrentPrice(ctx context.Context, coinID string) (float64, error)
}

// Notifier renders and transmits the message for one trigger record.
type Notifier interface {
	Notify(ctx context.Context, rec types.TriggerRecord) error
}

// Config tunes the polling loop.
type Config struct {
	Interval      time.Duration // delay between cycles
	CallDelay     time.Duration // pacing between price source calls in a cycle
	MaxConcurrent int           // bound on concurrent per-alert checks
	FetchTimeout  time.Duration // per price call
}

// CycleStats summarizes one completed cycle.
type CycleStats struct {
	Processed     int
	Triggered     int
	RiseTriggered int
	FallTriggered int
	Errors        int
}

// Monitor runs the polling loop: one cycle fetches the active-alert
// snapshot, fans out bounded concurrent checks, joins, then sleeps. Cycles
// are strictly sequential, so the same alert is never evaluated by two
// overlapping cycles; the conditional store transition covers the remaining
// race against stop/unsubscribe actions.
type Monitor struct {
	store    AlertStore
	source   PriceSource
	notifier Notifier
	cfg      Config
	metrics  *Metrics
}

func New(store AlertStore, source PriceSource, notifier Notifier, cfg Config, metrics *Metrics) *Monitor {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Monitor{store: store, source: source, notifier: notifier, cfg: cfg, metrics: metrics}
}

// Run drives cycles until ctx is cancelled. The stop signal is observed
// between cycles only: an in-flight cycle always completes normally, which
// is why per-alert work below runs on its own timeout contexts rather than
// on ctx.
func (m *Monitor) Run(ctx context.Context) error {
	log.Infof("monitor started: interval=%s concurrency=%d", m.cfg.Interval, m.cfg.MaxConcurrent)

	m.ResumeUnsent()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		stats := m.RunCycle()
		if log.IsLevelEnabled(log.DebugLevel) {
			log.Debug(spew.Sdump(stats))
		}
		if stats.Triggered > 0 {
			log.Infof("cycle completed: processed=%d triggered=%d (rise=%d fall=%d) errors=%d",
				stats.Processed, stats.Triggered, stats.RiseTriggered, stats.FallTriggered, stats.Errors)
		}

		select {
		case <-ctx.Done():
			log.Info("monitor stopping: in-flight cycle finished, no new cycle will start")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle executes exactly one monitoring cycle and reports its stats.
func (m *Monitor) RunCycle() CycleStats {
	var stats CycleStats
	var mu sync.Mutex

	alerts, err := m.store.ListActiveAlerts()
	if err != nil {
		log.Errorf("failed to fetch active alerts: %v", err)
		stats.Errors++
		return stats
	}

	if m.metrics != nil {
		m.metrics.ActiveAlerts.Set(float64(len(alerts)))
	}
	if len(alerts) == 0 {
		if m.metrics != nil {
			m.metrics.CyclesCompleted.Inc()
		}
		return stats
	}

	log.Debugf("checking %d active alerts", len(alerts))

	sem := make(chan struct{}, m.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	for i := range alerts {
		a := alerts[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := m.checkAlert(a)

			mu.Lock()
			stats.Processed++
			stats.Errors += outcome.errors
			if outcome.triggered {
				stats.Triggered++
				if a.Direction == types.DirectionRise {
					stats.RiseTriggered++
				} else {
					stats.FallTriggered++
				}
			}
			mu.Unlock()
		}()

		// Pacing between launches keeps the price source call rate
		// within its limits.
		time.Sleep(m.cfg.CallDelay)
	}
	wg.Wait()

	if m.metrics != nil {
		m.metrics.CyclesCompleted.Inc()
	}
	return stats
}

type checkOutcome struct {
	triggered bool
	errors    int
}

// checkAlert evaluates one alert in isolation. Nothing it does may abort the
// rest of the cycle: all failures are logged, counted and contained here,
// including panics from invariant violations.
func (m *Monitor) checkAlert(a types.Alert) (outcome checkOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic while checking alert %d, skipping: %v", a.ID, r)
			outcome.errors++
		}
	}()

	if m.metrics != nil {
		m.metrics.AlertsEvaluated.Inc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.FetchTimeout)
	defer cancel()

	currentPrice, err := m.source.CurrentPrice(ctx, a.CoinID)
	if err != nil {
		// Transient: the alert stays active with its old observed
		// price and is retried next cycle.
		log.Warnf("price unavailable for %s (alert %d): %v", a.Symbol, a.ID, err)
		if m.metrics != nil {
			m.metrics.PriceFetchErrors.Inc()
		}
		outcome.errors++
		return outcome
	}

	if err := m.store.RecordPrice(a.Symbol, currentPrice); err != nil {
		log.Warnf("failed to record price sample for %s: %v", a.Symbol, err)
	}

	result, err := alert.Evaluate(a, currentPrice)
	if err != nil {
		// Invariant violation: fatal to this alert only.
		log.Errorf("evaluation rejected alert %d: %v", a.ID, err)
		outcome.errors++
		return outcome
	}

	if !result.Fired {
		log.Debugf("alert %d waiting: %s %+.2f%% (threshold %+.2f%%)",
			a.ID, a.Symbol, result.ChangePercent, a.ThresholdPercent)
		if err := m.store.UpdateObservedPrice(a.ID, currentPrice, time.Now()); err != nil {
			log.Warnf("failed to update observed price for alert %d: %v", a.ID, err)
		}
		return outcome
	}

	transitioned, err := m.store.TryTransitionToTriggered(a.ID)
	if err != nil {
		log.Errorf("failed to transition alert %d: %v", a.ID, err)
		outcome.errors++
		return outcome
	}
	if !transitioned {
		// Lost the race against a stop or unsubscribe. Expected, not
		// an error.
		log.Debugf("alert %d no longer active, trigger skipped", a.ID)
		return outcome
	}

	rec, err := m.store.RecordTrigger(a, currentPrice, result.ChangePercent)
	if err != nil {
		log.Errorf("failed to record trigger for alert %d: %v", a.ID, err)
		outcome.errors++
		return outcome
	}

	outcome.triggered = true
	if m.metrics != nil {
		m.metrics.AlertsTriggered.WithLabelValues(string(a.Direction)).Inc()
	}

	m.dispatch(ctx, *rec)
	return outcome
}

// dispatch makes exactly one delivery attempt for a trigger record. On
// failure the record stays unsent and the alert stays triggered; redelivery
// happens only through ResumeUnsent on the next process start.
func (m *Monitor) dispatch(ctx context.Context, rec types.TriggerRecord) {
	if err := m.notifier.Notify(ctx, rec); err != nil {
		log.Errorf("notification failed for alert %d (%s): %v", rec.AlertID, rec.Contact, err)
		if m.metrics != nil {
			m.metrics.NotifyFailures.Inc()
		}
		return
	}

	if err := m.store.MarkTriggerSent(rec.AlertID); err != nil {
		log.Errorf("failed to mark trigger sent for alert %d: %v", rec.AlertID, err)
		return
	}
	log.Infof("notification sent for alert %d to %s", rec.AlertID, rec.Contact)
}

// ResumeUnsent redelivers trigger records whose notification attempt never
// succeeded, e.g. after a crash between the status transition and the sent
// mark. MarkTriggerSent is idempotent, so resuming is safe to repeat.
func (m *Monitor) ResumeUnsent() {
	records, err := m.store.ListUnsentTriggers()
	if err != nil {
		log.Errorf("failed to list unsent triggers: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	log.Infof("resuming %d unsent trigger notifications", len(records))
	for _, rec := range records {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.FetchTimeout)
		m.dispatch(ctx, rec)
		cancel()
	}
}
