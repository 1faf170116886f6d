package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cashkeep/cashkeep/internal/utils"
)

// Config holds the process configuration, loaded once at startup from the
// environment (and an optional .env file).
type Config struct {
	Port     string
	BasePath string

	DBPath    string
	ExportDir string

	AdminToken string
	CSRFToken  string

	BufferFloorCents        int64
	OverdraftAlertThresholds map[string]int64 // account_id -> floor cents

	CommitmentDriftAmountToleranceCents int64
	CommitmentDriftDateToleranceDays    int

	SchedulerEnabled bool
	SchedulerHour    int
	SchedulerMinute  int
	SchedulerTZ      string

	UpstreamBaseURL string
	UpstreamToken   string // never logged

	RateLimitRPS float64
}

// LoadConfig loads configuration from environment variables and a .env file
// if present, applying the same defaults-then-override pattern as viper's
// usual AutomaticEnv wiring.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BASE_PATH", "")
	viper.SetDefault("DB_PATH", "localdb/cashkeep.db")
	viper.SetDefault("EXPORT_DIR", "localdb/exports")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("CSRF_TOKEN", "")
	viper.SetDefault("BUFFER_FLOOR_CENTS", "0")
	viper.SetDefault("OVERDRAFT_ALERT_THRESHOLDS", "")
	viper.SetDefault("COMMITMENT_DRIFT_AMOUNT_TOLERANCE_CENTS", "500")
	viper.SetDefault("COMMITMENT_DRIFT_DATE_TOLERANCE_DAYS", "2")
	viper.SetDefault("SCHEDULER_ENABLED", "false")
	viper.SetDefault("SCHEDULER_HOUR", "2")
	viper.SetDefault("SCHEDULER_MINUTE", "30")
	viper.SetDefault("SCHEDULER_TZ", "UTC")
	viper.SetDefault("UPSTREAM_BASE_URL", "")
	viper.SetDefault("UPSTREAM_TOKEN", "")
	viper.SetDefault("RATE_LIMIT_RPS", "5")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:       viper.GetString("PORT"),
		BasePath:   viper.GetString("BASE_PATH"),
		DBPath:     viper.GetString("DB_PATH"),
		ExportDir:  viper.GetString("EXPORT_DIR"),
		AdminToken: viper.GetString("ADMIN_TOKEN"),
		CSRFToken:  viper.GetString("CSRF_TOKEN"),

		BufferFloorCents: viper.GetInt64("BUFFER_FLOOR_CENTS"),

		CommitmentDriftAmountToleranceCents: viper.GetInt64("COMMITMENT_DRIFT_AMOUNT_TOLERANCE_CENTS"),
		CommitmentDriftDateToleranceDays:    viper.GetInt("COMMITMENT_DRIFT_DATE_TOLERANCE_DAYS"),

		SchedulerEnabled: viper.GetBool("SCHEDULER_ENABLED"),
		SchedulerHour:    viper.GetInt("SCHEDULER_HOUR"),
		SchedulerMinute:  viper.GetInt("SCHEDULER_MINUTE"),
		SchedulerTZ:      viper.GetString("SCHEDULER_TZ"),

		UpstreamBaseURL: viper.GetString("UPSTREAM_BASE_URL"),
		UpstreamToken:   viper.GetString("UPSTREAM_TOKEN"),

		RateLimitRPS: viper.GetFloat64("RATE_LIMIT_RPS"),
	}

	thresholds, err := parseOverdraftThresholds(viper.GetString("OVERDRAFT_ALERT_THRESHOLDS"))
	if err != nil {
		return nil, fmt.Errorf("parse OVERDRAFT_ALERT_THRESHOLDS: %w", err)
	}
	cfg.OverdraftAlertThresholds = thresholds

	if _, err := time.LoadLocation(cfg.SchedulerTZ); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TZ %q: %w", cfg.SchedulerTZ, err)
	}

	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN not set; write endpoints are unauthenticated")
	}
	if cfg.UpstreamToken == "" {
		slog.Warn("UPSTREAM_TOKEN not set; ingest against the upstream API will fail")
	}
	if cfg.CSRFToken == "" {
		secret, err := utils.GenerateSecureRandomString(32)
		if err != nil {
			return nil, fmt.Errorf("generate CSRF_TOKEN: %w", err)
		}
		slog.Warn("CSRF_TOKEN not set; generated an ephemeral per-process secret")
		cfg.CSRFToken = secret
	}

	return cfg, nil
}

// parseOverdraftThresholds parses "acct:cents,acct:cents" into a map.
func parseOverdraftThresholds(raw string) (map[string]int64, error) {
	out := map[string]int64{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed entry %q", pair)
		}
		cents, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed cents in %q: %w", pair, err)
		}
		out[strings.TrimSpace(parts[0])] = cents
	}
	return out, nil
}
