package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"kalaklub-site/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	TrustedProxies  []string
	TimeZone        string

	ApplicationsFile string
	ContactsFile     string
	DownloadLog      string
	MaxFormBytes     int64

	ApplyCooldown    time.Duration
	ContactCooldown  time.Duration
	DownloadCooldown time.Duration
	SessionTTL       time.Duration
	RateLimitStore   string
	RedisURL         string
	SweepSchedule    string

	MailTransport            string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUsername             string
	SMTPPassword             string
	SMTPTLS                  string
	SMTPTimeout              time.Duration
	MailFrom                 string
	MailFromNameApplications string
	MailFromNameContact      string
	AdmissionsEmail          string
	ContactEmail             string
	ApplicationSuccessURL    string

	ObjectStoreType string
	DownloadsDir    string
	DownloadCatalog string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	DatabaseURL string
}

var defaults = map[string]any{
	"PORT":                        "8080",
	"ENV":                         "dev",
	"CORS_ALLOW_ORIGINS":          "",
	"TRUSTED_PROXIES":             "",
	"SITE_TIMEZONE":               "Asia/Kolkata",
	"APPLICATIONS_FILE":           "./data/applications/applications.csv",
	"CONTACTS_FILE":               "./data/contacts/contacts.csv",
	"DOWNLOAD_LOG":                "./data/downloads.log",
	"MAX_FORM_BYTES":              int64(64 << 10),
	"APPLY_COOLDOWN":              "5m",
	"CONTACT_COOLDOWN":            "3m",
	"DOWNLOAD_COOLDOWN":           "1m",
	"SESSION_TTL":                 "24m",
	"RATE_LIMIT_STORE":            "memory",
	"REDIS_URL":                   "",
	"SWEEP_SCHEDULE":              "@every 5m",
	"MAIL_TRANSPORT":              "log",
	"SMTP_HOST":                   "",
	"SMTP_PORT":                   587,
	"SMTP_USERNAME":               "",
	"SMTP_PASSWORD":               "",
	"SMTP_TLS":                    "opportunistic",
	"SMTP_TIMEOUT":                "10s",
	"MAIL_FROM":                   "noreply@kala-klub.com",
	"MAIL_FROM_NAME_APPLICATIONS": "Kala-Klub Admissions",
	"MAIL_FROM_NAME_CONTACT":      "Kala-Klub Contact Form",
	"ADMISSIONS_EMAIL":            "admissions@kala-klub.com",
	"CONTACT_EMAIL":               "info@kala-klub.com",
	"APPLICATION_SUCCESS_URL":     "apply-success.html",
	"OBJECT_STORE":                "local",
	"DOWNLOADS_DIR":               "./downloadables",
	"DOWNLOAD_CATALOG":            "",
	"AWS_REGION":                  "",
	"S3_BUCKET":                   "",
	"S3_PREFIX":                   "",
	"DATABASE_URL":                "",
}

// Load reads configuration from env files and environment variables with sensible defaults.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env", "cmd/.env"}
	}
	loadEnvFiles(envFiles...)

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:            v.GetString("PORT"),
		Env:             normalizeEnv(v.GetString("ENV")),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		TrustedProxies:  splitAndTrim(v.GetString("TRUSTED_PROXIES")),
		TimeZone:        v.GetString("SITE_TIMEZONE"),

		ApplicationsFile: v.GetString("APPLICATIONS_FILE"),
		ContactsFile:     v.GetString("CONTACTS_FILE"),
		DownloadLog:      v.GetString("DOWNLOAD_LOG"),
		MaxFormBytes:     v.GetInt64("MAX_FORM_BYTES"),

		ApplyCooldown:    durationOr(v, "APPLY_COOLDOWN", 5*time.Minute),
		ContactCooldown:  durationOr(v, "CONTACT_COOLDOWN", 3*time.Minute),
		DownloadCooldown: durationOr(v, "DOWNLOAD_COOLDOWN", time.Minute),
		SessionTTL:       durationOr(v, "SESSION_TTL", 24*time.Minute),
		RateLimitStore:   normalizeRateLimitStore(v.GetString("RATE_LIMIT_STORE")),
		RedisURL:         v.GetString("REDIS_URL"),
		SweepSchedule:    v.GetString("SWEEP_SCHEDULE"),

		MailTransport:            normalizeMailTransport(v.GetString("MAIL_TRANSPORT")),
		SMTPHost:                 v.GetString("SMTP_HOST"),
		SMTPPort:                 v.GetInt("SMTP_PORT"),
		SMTPUsername:             v.GetString("SMTP_USERNAME"),
		SMTPPassword:             v.GetString("SMTP_PASSWORD"),
		SMTPTLS:                  strings.ToLower(strings.TrimSpace(v.GetString("SMTP_TLS"))),
		SMTPTimeout:              durationOr(v, "SMTP_TIMEOUT", 10*time.Second),
		MailFrom:                 v.GetString("MAIL_FROM"),
		MailFromNameApplications: v.GetString("MAIL_FROM_NAME_APPLICATIONS"),
		MailFromNameContact:      v.GetString("MAIL_FROM_NAME_CONTACT"),
		AdmissionsEmail:          v.GetString("ADMISSIONS_EMAIL"),
		ContactEmail:             v.GetString("CONTACT_EMAIL"),
		ApplicationSuccessURL:    v.GetString("APPLICATION_SUCCESS_URL"),

		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		DownloadsDir:    v.GetString("DOWNLOADS_DIR"),
		DownloadCatalog: v.GetString("DOWNLOAD_CATALOG"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),

		DatabaseURL: v.GetString("DATABASE_URL"),
	}

	if cfg.Env == "production" && cfg.MailTransport != "smtp" {
		telemetry.Warn("config.mail_transport", map[string]any{
			"transport": cfg.MailTransport,
			"message":   "notifications will only be logged",
		})
	}
	if cfg.MaxFormBytes <= 0 {
		cfg.MaxFormBytes = 64 << 10
	}
	return cfg
}

func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		telemetry.Warn("config.invalid_duration", map[string]any{
			"key":     key,
			"value":   raw,
			"default": def.String(),
		})
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeRateLimitStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	default:
		return "memory"
	}
}

func normalizeMailTransport(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "smtp":
		return "smtp"
	default:
		return "log"
	}
}
