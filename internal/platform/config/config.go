package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"moneywave/internal/shared/money"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	Economics Economics
	Schedule  Schedule
}

// Economics holds the settlement and distribution business constants. They
// are read from the settings file once at startup and treated as immutable
// for the life of the process.
type Economics struct {
	FeeRate              decimal.Decimal
	BonusRate            decimal.Decimal
	BonusConfidenceFloor decimal.Decimal
	MinWinning           money.Amount
}

// Schedule holds worker cadence settings.
type Schedule struct {
	DailyAllocationCron  string
	RelayIntervalSeconds int
	RunOnStart           bool
}

// settingsFile is the YAML shape of the optional settings file. Rates are
// carried as strings so they parse into exact decimals, never floats.
type settingsFile struct {
	Economics struct {
		FeeRate              string `yaml:"fee_rate"`
		BonusRate            string `yaml:"bonus_rate"`
		BonusConfidenceFloor string `yaml:"bonus_confidence_floor"`
		MinWinning           string `yaml:"min_winning"`
	} `yaml:"economics"`
	Schedule struct {
		DailyAllocationCron  string `yaml:"daily_allocation_cron"`
		RelayIntervalSeconds int    `yaml:"relay_interval_seconds"`
		RunOnStart           bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
}

// Load reads process configuration from the environment (with .env support)
// and the optional YAML settings file named by SETTINGS_PATH. Environment
// values override file values.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName: envOr("SERVICE_NAME", "moneywave"),
		HTTPPort:    envOr("HTTP_PORT", "8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Economics: Economics{
			FeeRate:              decimal.RequireFromString("0.02"),
			BonusRate:            decimal.RequireFromString("0.05"),
			BonusConfidenceFloor: decimal.RequireFromString("0.8"),
			MinWinning:           money.Zero,
		},
		Schedule: Schedule{
			DailyAllocationCron:  "0 5 0 * * *",
			RelayIntervalSeconds: 5,
		},
	}

	if path := strings.TrimSpace(os.Getenv("SETTINGS_PATH")); path != "" {
		if err := applySettingsFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applySettingsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file %q: %w", path, err)
	}
	var file settingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse settings file %q: %w", path, err)
	}

	if err := setRate(&cfg.Economics.FeeRate, file.Economics.FeeRate, "fee_rate"); err != nil {
		return err
	}
	if err := setRate(&cfg.Economics.BonusRate, file.Economics.BonusRate, "bonus_rate"); err != nil {
		return err
	}
	if err := setRate(&cfg.Economics.BonusConfidenceFloor, file.Economics.BonusConfidenceFloor, "bonus_confidence_floor"); err != nil {
		return err
	}
	if err := setAmount(&cfg.Economics.MinWinning, file.Economics.MinWinning, "min_winning"); err != nil {
		return err
	}
	if v := strings.TrimSpace(file.Schedule.DailyAllocationCron); v != "" {
		cfg.Schedule.DailyAllocationCron = v
	}
	if file.Schedule.RelayIntervalSeconds > 0 {
		cfg.Schedule.RelayIntervalSeconds = file.Schedule.RelayIntervalSeconds
	}
	cfg.Schedule.RunOnStart = file.Schedule.RunOnStart
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if err := setRate(&cfg.Economics.FeeRate, os.Getenv("SETTLEMENT_FEE_RATE"), "SETTLEMENT_FEE_RATE"); err != nil {
		return err
	}
	if err := setRate(&cfg.Economics.BonusRate, os.Getenv("SETTLEMENT_BONUS_RATE"), "SETTLEMENT_BONUS_RATE"); err != nil {
		return err
	}
	if err := setAmount(&cfg.Economics.MinWinning, os.Getenv("SETTLEMENT_MIN_WINNING"), "SETTLEMENT_MIN_WINNING"); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("DAILY_ALLOCATION_CRON")); v != "" {
		cfg.Schedule.DailyAllocationCron = v
	}
	if raw := strings.TrimSpace(os.Getenv("RUN_ON_START")); raw != "" {
		cfg.Schedule.RunOnStart = envBool("RUN_ON_START", cfg.Schedule.RunOnStart)
	}
	return nil
}

func validate(cfg Config) error {
	one := decimal.NewFromInt(1)
	if cfg.Economics.FeeRate.IsNegative() || cfg.Economics.FeeRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("fee rate %s out of range [0,1)", cfg.Economics.FeeRate)
	}
	if cfg.Economics.BonusRate.IsNegative() || cfg.Economics.BonusRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("bonus rate %s out of range [0,1)", cfg.Economics.BonusRate)
	}
	if cfg.Economics.MinWinning.IsNegative() {
		return fmt.Errorf("min winning %s must not be negative", cfg.Economics.MinWinning)
	}
	return nil
}

func setRate(target *decimal.Decimal, raw, name string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	*target = value
	return nil
}

func setAmount(target *money.Amount, raw, name string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := money.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	*target = value
	return nil
}

func envOr(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
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
