package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/config"
	"crypto-alert-service/internal/alert"
	"crypto-alert-service/internal/api"
	"crypto-alert-service/internal/database"
	"crypto-alert-service/internal/monitor"
	"crypto-alert-service/internal/notifier"
	"crypto-alert-service/internal/price"
	"crypto-alert-service/lib/translation"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting crypto alert service...")
}

func main() {
	translation.Configure("locales", strings.ToLower(config.GetString("lang")))

	store, err := database.Open(config.GetString("database_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	metrics := monitor.NewMetrics(prometheus.DefaultRegisterer)
	loadMetrics(store, metrics)

	prices := price.NewClient(config.GetString("api_pro_key"))

	dispatcher, err := buildDispatcher(store, prices)
	if err != nil {
		log.Fatalf("Failed to set up notification channels: %v", err)
	}

	service := alert.NewService(store, prices, alert.Limits{
		MinThresholdPercent:    config.GetFloat("min_threshold_percent"),
		MaxThresholdPercent:    config.GetFloat("max_threshold_percent"),
		MaxAlertsPerSubscriber: config.GetInt("max_alerts_per_subscriber"),
	})

	mon := monitor.New(store, prices, dispatcher, monitor.Config{
		Interval:      time.Duration(config.GetInt("check_interval_seconds")) * time.Second,
		CallDelay:     time.Duration(config.GetInt("price_call_delay_ms")) * time.Millisecond,
		MaxConcurrent: config.GetInt("max_concurrent_checks"),
	}, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("Monitor stopped: %v", err)
			stop()
		}
	}()

	go housekeeping(ctx, store, metrics)

	go func() {
		if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	server := api.NewServer(service, store)
	addr := fmt.Sprintf(":%d", config.GetInt("api_port"))
	if err := server.ListenAndServe(ctx, addr); err != nil && err != http.ErrServerClosed {
		log.Errorf("API server stopped: %v", err)
	}

	saveMetrics(store, metrics)
	log.Info("Metrics saved, shutting down...")
}

func buildDispatcher(store *database.Store, prices *price.Client) (*notifier.Dispatcher, error) {
	var email notifier.Sender
	if host := config.GetString("smtp_host"); host != "" && config.GetString("smtp_sender") != "" {
		email = notifier.NewEmailSender(notifier.EmailConfig{
			Host:     host,
			Port:     config.GetInt("smtp_port"),
			Username: config.GetString("smtp_sender"),
			Password: config.GetString("smtp_password"),
			From:     config.GetString("smtp_sender"),
		})
	} else {
		log.Warn("SMTP not configured, email notifications disabled")
	}

	var telegram notifier.Sender
	if token := config.GetString("telegram_bot_token"); token != "" {
		sender, err := notifier.NewTelegramSender(token, config.GetBool("debug"))
		if err != nil {
			return nil, err
		}
		telegram = sender
	} else {
		log.Warn("Telegram token not configured, telegram notifications disabled")
	}

	return notifier.NewDispatcher(notifier.Config{
		ServiceName: config.GetString("service_name"),
		WebsiteURL:  config.GetString("website_url"),
		ChartPoints: config.GetInt("chart_points"),
	}, email, telegram, store, prices), nil
}

// housekeeping saves metrics every 5 minutes and prunes old price samples.
func housekeeping(ctx context.Context, store *database.Store, metrics *monitor.Metrics) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveMetrics(store, metrics)
			if err := store.PruneHistory(config.GetInt("price_history_days")); err != nil {
				log.Errorf("Failed to prune price history: %v", err)
			}
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func loadMetrics(store *database.Store, metrics *monitor.Metrics) {
	cycles, _ := store.GetMetric("cycles_completed")
	evaluated, _ := store.GetMetric("alerts_evaluated")
	fetchErrors, _ := store.GetMetric("price_fetch_errors")
	notifyFailures, _ := store.GetMetric("notify_failures")

	metrics.CyclesCompleted.Add(cycles)
	metrics.AlertsEvaluated.Add(evaluated)
	metrics.PriceFetchErrors.Add(fetchErrors)
	metrics.NotifyFailures.Add(notifyFailures)

	byDirection, _ := store.GetMetricsWithLabels("alerts_triggered")
	for _, values := range byDirection {
		for direction, value := range values {
			metrics.AlertsTriggered.WithLabelValues(direction).Add(value)
		}
	}

	log.Info("Metrics loaded from database.")
}

func saveMetrics(store *database.Store, metrics *monitor.Metrics) {
	store.SaveMetric("cycles_completed", getMetricValue(metrics.CyclesCompleted))
	store.SaveMetric("alerts_evaluated", getMetricValue(metrics.AlertsEvaluated))
	store.SaveMetric("price_fetch_errors", getMetricValue(metrics.PriceFetchErrors))
	store.SaveMetric("notify_failures", getMetricValue(metrics.NotifyFailures))

	metricChan := make(chan prometheus.Metric, 8)
	go func() {
		metrics.AlertsTriggered.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read alerts_triggered metric: %v", err)
			continue
		}
		var direction string
		for _, label := range metricProto.Label {
			if label.GetName() == "direction" {
				direction = label.GetValue()
			}
		}
		store.SaveMetricWithLabels("alerts_triggered", "direction", direction, metricProto.Counter.GetValue())
	}

	log.Debug("Metrics saved to database.")
}

func getMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
