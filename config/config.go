package config

import (
	"sync"

	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("database_path", "DATABASE_PATH")
		viper.BindEnv("api_port", "API_PORT")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.BindEnv("check_interval_seconds", "CHECK_INTERVAL_SECONDS")
		viper.BindEnv("price_call_delay_ms", "PRICE_CALL_DELAY_MS")
		viper.BindEnv("max_concurrent_checks", "MAX_CONCURRENT_CHECKS")
		viper.BindEnv("min_threshold_percent", "MIN_THRESHOLD_PERCENT")
		viper.BindEnv("max_threshold_percent", "MAX_THRESHOLD_PERCENT")
		viper.BindEnv("max_alerts_per_subscriber", "MAX_ALERTS_PER_SUBSCRIBER")
		viper.BindEnv("price_history_days", "PRICE_HISTORY_DAYS")
		viper.BindEnv("chart_points", "CHART_POINTS")

		viper.BindEnv("api_pro_key", "API_PRO_KEY")

		viper.BindEnv("service_name", "SERVICE_NAME")
		viper.BindEnv("website_url", "WEBSITE_URL")
		viper.BindEnv("support_email", "SUPPORT_EMAIL")

		viper.BindEnv("smtp_host", "SMTP_HOST")
		viper.BindEnv("smtp_port", "SMTP_PORT")
		viper.BindEnv("smtp_sender", "SMTP_SENDER")
		viper.BindEnv("smtp_password", "SMTP_PASSWORD")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")

		viper.SetDefault("database_path", "crypto_alerts.db")
		viper.SetDefault("api_port", 8000)
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")

		viper.SetDefault("check_interval_seconds", 60)
		viper.SetDefault("price_call_delay_ms", 500)
		viper.SetDefault("max_concurrent_checks", 4)
		viper.SetDefault("min_threshold_percent", 0.1)
		viper.SetDefault("max_threshold_percent", 50.0)
		viper.SetDefault("max_alerts_per_subscriber", 20)
		viper.SetDefault("price_history_days", 7)
		viper.SetDefault("chart_points", 96)

		viper.SetDefault("service_name", "CryptoAlert Service")
		viper.SetDefault("website_url", "https://cryptoalert.com")
		viper.SetDefault("support_email", "support@cryptoalert.com")

		viper.SetDefault("smtp_host", "smtp.gmail.com")
		viper.SetDefault("smtp_port", 587)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetFloat(key string) float64 {
	InitConfig()
	return viper.GetFloat64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
