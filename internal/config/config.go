package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/usagebilling/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logging    LoggingConfig    `validate:"required"`
	Invoice    InvoiceConfig    `validate:"required"`
	BillingRun BillingRunConfig `mapstructure:"billing_run" validate:"required"`
	Cache      CacheConfig
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required,oneof=debug info warn error"`
}

// InvoiceConfig holds the invoicing settings consulted while computing usage items
type InvoiceConfig struct {
	// ItemResultBehaviorMode selects one aggregated item per interval or one item per detail line
	ItemResultBehaviorMode types.UsageDetailMode `mapstructure:"item_result_behavior_mode" validate:"required,oneof=AGGREGATE DETAIL"`

	// MaxRawUsagePreviousPeriod is how many billing periods before the latest billed
	// usage item raw usage is still loaded. Negative values load the whole history.
	MaxRawUsagePreviousPeriod int `mapstructure:"max_raw_usage_previous_period"`
}

// GetItemResultBehaviorMode returns the configured usage detail mode
func (c InvoiceConfig) GetItemResultBehaviorMode(_ context.Context) types.UsageDetailMode {
	if c.ItemResultBehaviorMode == "" {
		return types.USAGE_DETAIL_MODE_AGGREGATE
	}
	return c.ItemResultBehaviorMode
}

type BillingRunConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"gte=1"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/usagebilling")

	v.SetEnvPrefix("USAGEBILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("invoice.item_result_behavior_mode", defaults.Invoice.ItemResultBehaviorMode)
	v.SetDefault("invoice.max_raw_usage_previous_period", defaults.Invoice.MaxRawUsagePreviousPeriod)
	v.SetDefault("billing_run.max_concurrency", defaults.BillingRun.MaxConcurrency)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts, tests or other non server applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Logging: LoggingConfig{Level: types.LogLevelInfo},
		Invoice: InvoiceConfig{
			ItemResultBehaviorMode:    types.USAGE_DETAIL_MODE_AGGREGATE,
			MaxRawUsagePreviousPeriod: 2,
		},
		BillingRun: BillingRunConfig{MaxConcurrency: 4},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
	}
}
