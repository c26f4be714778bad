package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv  string
	AppPort string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	DBURL      string

	JWTSecret      string
	InternalAPIKey string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string
	Currency              string

	KafkaBrokers    string
	KafkaOrderTopic string

	SendgridAPIKey string
	MailFrom       string

	OrderExpiry    time.Duration
	OrderSweepSpec string

	CORSOrigins []string
}

var ErrMissingDBHost = errors.New("DB_HOST is not set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	v.SetDefault("CURRENCY", "INR")
	v.SetDefault("KAFKA_ORDER_TOPIC", "order_events")
	v.SetDefault("MAIL_FROM", "no-reply@coursecart.local")
	v.SetDefault("ORDER_EXPIRY", "30m")
	v.SetDefault("ORDER_SWEEP_SPEC", "@every 5m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppEnv:                v.GetString("APP_ENV"),
		AppPort:               v.GetString("APP_PORT"),
		DBHost:                v.GetString("DB_HOST"),
		DBUser:                v.GetString("DB_USER"),
		DBPassword:            v.GetString("DB_PASSWORD"),
		DBName:                v.GetString("DB_NAME"),
		DBPort:                v.GetString("DB_PORT"),
		DBSSLMode:             v.GetString("DB_SSLMODE"),
		DBURL:                 v.GetString("DB_URL"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		InternalAPIKey:        v.GetString("INTERNAL_API_KEY"),
		RazorpayKeyID:         v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     v.GetString("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: v.GetString("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayBaseURL:       v.GetString("RAZORPAY_BASE_URL"),
		Currency:              strings.ToUpper(v.GetString("CURRENCY")),
		KafkaBrokers:          v.GetString("KAFKA_BROKERS"),
		KafkaOrderTopic:       v.GetString("KAFKA_ORDER_TOPIC"),
		SendgridAPIKey:        v.GetString("SENDGRID_API_KEY"),
		MailFrom:              v.GetString("MAIL_FROM"),
		OrderExpiry:           v.GetDuration("ORDER_EXPIRY"),
		OrderSweepSpec:        v.GetString("ORDER_SWEEP_SPEC"),
		CORSOrigins:           splitCSV(v.GetString("CORS_ORIGINS")),
	}

	if cfg.DBHost == "" {
		return nil, ErrMissingDBHost
	}

	return cfg, nil
}

// MustLoadConfig is LoadConfig for process entry points.
func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func splitCSV(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
