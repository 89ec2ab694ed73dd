package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/servwatch/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval      = 60
	defaultCooldown      = 300
	defaultDailyTime     = "09:00"
	defaultRetentionDays = 30
	defaultDatabasePath  = "/var/lib/servwatch/history.db"
)

// Default alert thresholds, in percent except GPU temperature (°C).
const (
	defaultCPUWarning     = 70
	defaultCPUCritical    = 90
	defaultMemoryWarning  = 80
	defaultMemoryCritical = 95
	defaultDiskWarning    = 80
	defaultDiskCritical   = 95
	defaultGPUTempWarn    = 75
	defaultGPUTempCrit    = 85
	defaultGPUMemWarning  = 80
	defaultGPUMemCritical = 95
)

type Config struct {
	ServerName string `mapstructure:"server_name"`
	Interval   int    `mapstructure:"interval"`
	LogLevel   string `mapstructure:"log_level"`
	Debug      bool   `mapstructure:"debug"`
	Verbose    bool   `mapstructure:"verbose"`

	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Alerts      AlertsConfig      `mapstructure:"alerts"`
	DailyReport DailyReportConfig `mapstructure:"daily_report"`
	History     HistoryConfig     `mapstructure:"history"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type AlertsConfig struct {
	Cooldown          int     `mapstructure:"cooldown"`
	CPUWarning        float64 `mapstructure:"cpu_warning"`
	CPUCritical       float64 `mapstructure:"cpu_critical"`
	MemoryWarning     float64 `mapstructure:"memory_warning"`
	MemoryCritical    float64 `mapstructure:"memory_critical"`
	DiskWarning       float64 `mapstructure:"disk_warning"`
	DiskCritical      float64 `mapstructure:"disk_critical"`
	GPUTempWarning    float64 `mapstructure:"gpu_temp_warning"`
	GPUTempCritical   float64 `mapstructure:"gpu_temp_critical"`
	GPUMemoryWarning  float64 `mapstructure:"gpu_memory_warning"`
	GPUMemoryCritical float64 `mapstructure:"gpu_memory_critical"`
}

type DailyReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Time    string `mapstructure:"time"`
}

type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Database      string `mapstructure:"database"`
	RetentionDays int    `mapstructure:"retention_days"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("servwatch", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	configPath := flags.String("config", "", "Path to configuration file")
	logLevel := flags.String("log-level", "", "Log level (debug, info, warning, error)")
	debug := flags.Bool("debug", false, "Enable debugging mode")
	verbose := flags.Bool("verbose", false, "Enable verbose logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	if *configPath == "" {
		*configPath = os.Getenv("SERVWATCH_CONFIG")
	}

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("servwatch")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if *logLevel != "" {
		v.Set("log_level", *logLevel)
	}
	if *debug {
		v.Set("debug", true)
	}
	if *verbose {
		v.Set("verbose", true)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_name", hostname())
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetDefault("alerts.cooldown", defaultCooldown)
	v.SetDefault("alerts.cpu_warning", defaultCPUWarning)
	v.SetDefault("alerts.cpu_critical", defaultCPUCritical)
	v.SetDefault("alerts.memory_warning", defaultMemoryWarning)
	v.SetDefault("alerts.memory_critical", defaultMemoryCritical)
	v.SetDefault("alerts.disk_warning", defaultDiskWarning)
	v.SetDefault("alerts.disk_critical", defaultDiskCritical)
	v.SetDefault("alerts.gpu_temp_warning", defaultGPUTempWarn)
	v.SetDefault("alerts.gpu_temp_critical", defaultGPUTempCrit)
	v.SetDefault("alerts.gpu_memory_warning", defaultGPUMemWarning)
	v.SetDefault("alerts.gpu_memory_critical", defaultGPUMemCritical)

	v.SetDefault("daily_report.enabled", false)
	v.SetDefault("daily_report.time", defaultDailyTime)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.database", defaultDatabasePath)
	v.SetDefault("history.retention_days", defaultRetentionDays)
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Telegram.Token == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "telegram.token is required")
	}
	if c.Telegram.ChatID == 0 {
		return errFactory.WithMessage(errors.ErrMissingConfig, "telegram.chat_id is required")
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Alerts.Cooldown < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.Alerts.Cooldown)
	}
	if !isValidLogLevel(c.LogLevel) {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	pairs := [][2]float64{
		{c.Alerts.CPUWarning, c.Alerts.CPUCritical},
		{c.Alerts.MemoryWarning, c.Alerts.MemoryCritical},
		{c.Alerts.DiskWarning, c.Alerts.DiskCritical},
		{c.Alerts.GPUTempWarning, c.Alerts.GPUTempCritical},
		{c.Alerts.GPUMemoryWarning, c.Alerts.GPUMemoryCritical},
	}
	for _, p := range pairs {
		if p[0] > p[1] {
			return errFactory.WithMessage(errors.ErrInvalidConfig,
				fmt.Sprintf("warning threshold %v exceeds critical threshold %v", p[0], p[1]))
		}
	}

	if c.DailyReport.Enabled {
		if _, _, err := ParseDailyTime(c.DailyReport.Time); err != nil {
			return err
		}
	}
	if c.History.Enabled && c.History.Database == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "history.database is required")
	}

	return nil
}

// ParseDailyTime parses a wall-clock time in HH:MM form.
func ParseDailyTime(s string) (hour, minute int, err error) {
	errFactory := errors.New()

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errFactory.WithData(errors.ErrInvalidSchedule, s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errFactory.WithData(errors.ErrInvalidSchedule, s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errFactory.WithData(errors.ErrInvalidSchedule, s)
	}

	return hour, minute, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warning", "error":
		return true
	default:
		return false
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "server"
	}
	return name
}
