package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file
// 3. BOT_* environment variables
func Load() (*Config, error) {
	setDefaults()

	if err := readConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// readConfig initializes and loads the configuration using viper.
func readConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow missing config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %v", err)
		}
	}

	return nil
}

// setDefaults sets default values for optional configuration parameters.
func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.json", DefaultLogJSON)

	viper.SetDefault("database.path", DefaultDatabasePath)

	viper.SetDefault("cleanup.task_file", DefaultTaskFile)
	viper.SetDefault("cleanup.batch_size", DefaultCleanupBatchSize)
	viper.SetDefault("cleanup.page_size", DefaultCleanupPageSize)
	viper.SetDefault("cleanup.page_delay", DefaultCleanupPageDelay)
	viper.SetDefault("cleanup.item_delay", DefaultCleanupItemDelay)
	viper.SetDefault("cleanup.max_rate_limit_attempts", DefaultCleanupMaxRateLimitAttempts)
	viper.SetDefault("cleanup.report_interval", DefaultCleanupReportInterval)
	viper.SetDefault("cleanup.max_errors", DefaultCleanupMaxErrors)

	viper.SetDefault("scheduler.tasks.report_refresh.enabled", true)
	viper.SetDefault("scheduler.tasks.report_refresh.schedule", "*/30 * * * * *")
	viper.SetDefault("scheduler.tasks.index_maintenance.enabled", true)
	viper.SetDefault("scheduler.tasks.index_maintenance.schedule", "0 0 4 * * *")
}
