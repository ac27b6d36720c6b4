package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds all service configuration, loaded once at startup.
type Config struct {
	// HTTP
	Port string

	// Database
	DatabaseURL string

	// RabbitMQ
	RabbitUser string
	RabbitPass string
	RabbitHost string
	RabbitPort string

	// Google Drive / Sheets
	ServiceAccountB64    string // base64-encoded service account JSON
	ParentFolderID       string // root folder watched for lead files
	ConfigSheetName      string // QuickMail config spreadsheet name
	ConfigFolderID       string
	OutputParentFolderID string // folder for the weekly output spreadsheet

	// Discovery
	SyncSchedule  string // cron spec for the Drive poll
	LookbackDays  int    // how far back ListModified reaches
	RedispatchSec int    // redispatch worker tick, seconds

	// Slack
	SlackWebhookURL string

	// Ops email
	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string
	MailOps  string
}

// Load reads configuration from environment variables. Only values the
// pipeline cannot run without are validated here; everything else gets a
// sane default.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RabbitUser: getEnv("RABBITMQ_USER", "guest"),
		RabbitPass: getEnv("RABBITMQ_PASS", "guest"),
		RabbitHost: getEnv("RABBITMQ_HOST", "localhost"),
		RabbitPort: getEnv("RABBITMQ_PORT", "5672"),

		ServiceAccountB64:    os.Getenv("SERVICE_ACCOUNT"),
		ParentFolderID:       os.Getenv("PARENT_FOLDER"),
		ConfigSheetName:      getEnv("QUICK_MAIL_CONFIG_NAME", "quick_mail_config"),
		ConfigFolderID:       os.Getenv("QUICK_MAIL_CONFIG_FOLDER_ID"),
		OutputParentFolderID: os.Getenv("QUICK_MAIL_OUTPUT_PARENT_FOLDER_ID"),

		// Weekday poll every 10 minutes, matching the production timer.
		SyncSchedule:  getEnv("SYNC_SCHEDULE", "*/10 * * * 1-5"),
		LookbackDays:  getEnvAsInt("SYNC_LOOKBACK_DAYS", 1),
		RedispatchSec: getEnvAsInt("REDISPATCH_INTERVAL_SECONDS", 300),

		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK"),

		MailHost: getEnv("MAIL_HOST", ""),
		MailPort: getEnvAsInt("MAIL_PORT", 587),
		MailUser: getEnv("MAIL_USER", ""),
		MailPass: getEnv("MAIL_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "leadsync@quickmail.internal"),
		MailOps:  getEnv("MAIL_OPS", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate fails fast on fatal misconfiguration, before any batch is touched.
func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.ServiceAccountB64 == "" {
		return errors.New("SERVICE_ACCOUNT is required")
	}
	if c.ParentFolderID == "" {
		return errors.New("PARENT_FOLDER is required")
	}
	if c.SlackWebhookURL == "" {
		return errors.New("SLACK_WEBHOOK is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
