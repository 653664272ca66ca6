// Package config provides configuration loading, validation, and defaults
// for the sweep bot. It reads from config.yaml, applies BOT_* environment
// variable overrides, and validates the result.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration indicates an invalid or unloadable configuration.
var ErrConfiguration = errors.New("configuration error")

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDatabasePath = "storage.db"
	DefaultTaskFile     = "tasks.json"

	DefaultCleanupBatchSize            = 100
	DefaultCleanupPageSize             = 100
	DefaultCleanupPageDelay            = 200 * time.Millisecond
	DefaultCleanupItemDelay            = 50 * time.Millisecond
	DefaultCleanupMaxRateLimitAttempts = 10
	DefaultCleanupReportInterval       = 10 * time.Second
	DefaultCleanupMaxErrors            = 10
)

// Config defines the application configuration for all components of the
// sweep bot: logging, Telegram access, the cleanup pipeline, the message
// index database, and scheduled tasks.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram credentials and fixed chat identifiers.
// SinkChatID is the destination for status reports; when zero, reports are
// sent to the chat being cleaned.
type TelegramConfig struct {
	Token       string `mapstructure:"token"        validate:"required"`
	AdminUserID int64  `mapstructure:"admin_id"     validate:"required,gt=0"`
	SinkChatID  int64  `mapstructure:"sink_chat_id"`
}

// CleanupConfig tunes the bulk-deletion pipeline.
type CleanupConfig struct {
	TaskFile             string        `mapstructure:"task_file"               validate:"required"`
	BatchSize            int           `mapstructure:"batch_size"              validate:"min=1,max=100"`
	PageSize             int           `mapstructure:"page_size"               validate:"min=1,max=100"`
	PageDelay            time.Duration `mapstructure:"page_delay"              validate:"min=0"`
	ItemDelay            time.Duration `mapstructure:"item_delay"              validate:"min=0"`
	MaxRateLimitAttempts int           `mapstructure:"max_rate_limit_attempts" validate:"min=1"`
	ReportInterval       time.Duration `mapstructure:"report_interval"         validate:"min=1s"`
	MaxErrors            int           `mapstructure:"max_errors"              validate:"min=1"`
}

// DatabaseConfig locates the SQLite message index.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a scheduled task and sets its cron expression
// (six-field, with seconds).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
