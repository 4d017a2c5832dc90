package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName   string `yaml:"service_name"`
	HTTPPort      string `yaml:"http_port"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	JWTSecret     string `yaml:"jwt_secret"`
	PublicBaseURL string `yaml:"public_base_url"`
	LogLevel      string `yaml:"log_level"`

	OrderRefPrefix string `yaml:"order_ref_prefix"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	MailFrom     string `yaml:"mail_from"`
	MailLocale   string `yaml:"mail_locale"`

	MailMaxAttempts int           `yaml:"mail_max_attempts"`
	MailRetryDelay  time.Duration `yaml:"mail_retry_delay"`

	RateLimitRPS   int `yaml:"rate_limit_rps"`
	RateLimitBurst int `yaml:"rate_limit_burst"`
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies"`

	WorkerPollInterval time.Duration `yaml:"worker_poll_interval"`
	ReminderCron       string        `yaml:"reminder_cron"`

	EnablePickupReminders bool `yaml:"enable_pickup_reminders"`
	EnableQuoteExpiry     bool `yaml:"enable_quote_expiry"`
	RunWorkersInAPI       bool `yaml:"run_workers_in_api"`
	AutoMigrate           bool `yaml:"auto_migrate"`
}

func defaults() Config {
	return Config{
		ServiceName:           "cakeshop",
		HTTPPort:              "8080",
		PublicBaseURL:         "http://localhost:5173",
		LogLevel:              "info",
		OrderRefPrefix:        "CMD",
		SMTPPort:              587,
		MailFrom:              "no-reply@cakeshop.local",
		MailLocale:            "fr",
		MailMaxAttempts:       6,
		MailRetryDelay:        time.Minute,
		RateLimitRPS:          2,
		RateLimitBurst:        5,
		WorkerPollInterval:    2 * time.Second,
		ReminderCron:          "0 8 * * *",
		EnablePickupReminders: true,
		EnableQuoteExpiry:     true,
	}
}

// Load reads the optional YAML file named by CONFIG_FILE, then applies
// environment overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file: %w", err)
		}
	}

	cfg.ServiceName = envString("SERVICE_NAME", cfg.ServiceName)
	cfg.HTTPPort = envString("HTTP_PORT", cfg.HTTPPort)
	cfg.PostgresDSN = envString("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = envString("REDIS_ADDR", cfg.RedisAddr)
	cfg.JWTSecret = envString("JWT_SECRET", cfg.JWTSecret)
	cfg.PublicBaseURL = strings.TrimRight(envString("PUBLIC_BASE_URL", cfg.PublicBaseURL), "/")
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.OrderRefPrefix = strings.ToUpper(envString("ORDER_REF_PREFIX", cfg.OrderRefPrefix))

	cfg.SMTPHost = envString("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = envString("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = envString("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.MailFrom = envString("MAIL_FROM", cfg.MailFrom)
	cfg.MailLocale = envString("MAIL_LOCALE", cfg.MailLocale)
	cfg.MailMaxAttempts = envInt("MAIL_MAX_ATTEMPTS", cfg.MailMaxAttempts)
	cfg.MailRetryDelay = envDuration("MAIL_RETRY_DELAY", cfg.MailRetryDelay)

	cfg.RateLimitRPS = envInt("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.TrustedProxies = envList("TRUSTED_PROXIES", cfg.TrustedProxies)

	cfg.WorkerPollInterval = envDuration("WORKER_POLL_INTERVAL", cfg.WorkerPollInterval)
	cfg.ReminderCron = envString("REMINDER_CRON", cfg.ReminderCron)

	cfg.EnablePickupReminders = envBool("ENABLE_PICKUP_REMINDERS", cfg.EnablePickupReminders)
	cfg.EnableQuoteExpiry = envBool("ENABLE_QUOTE_EXPIRY", cfg.EnableQuoteExpiry)
	cfg.RunWorkersInAPI = envBool("RUN_WORKERS_IN_API", cfg.RunWorkersInAPI || cfg.PostgresDSN == "")
	cfg.AutoMigrate = envBool("AUTO_MIGRATE", cfg.AutoMigrate)

	if cfg.RateLimitRPS <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if cfg.WorkerPollInterval <= 0 {
		return Config{}, fmt.Errorf("WORKER_POLL_INTERVAL must be positive")
	}
	if cfg.MailMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("MAIL_MAX_ATTEMPTS must be positive")
	}
	for _, entry := range cfg.TrustedProxies {
		if !validProxyEntry(entry) {
			return Config{}, fmt.Errorf("TRUSTED_PROXIES: invalid IP or CIDR %q", entry)
		}
	}
	return cfg, nil
}

func validProxyEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envList(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
