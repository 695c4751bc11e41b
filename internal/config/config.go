package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all Stockwatch configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
	Report   ReportConfig   `mapstructure:"report"`
	Email    EmailConfig    `mapstructure:"email"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig defines the inventory API connection.
type APIConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	Organization string `mapstructure:"organization"`
	Token        string `mapstructure:"token"`
	PerPage      int    `mapstructure:"per_page"`
	Timeout      string `mapstructure:"timeout"`
}

// ArchiveConfig defines where run artifacts land.
type ArchiveConfig struct {
	Dir          string `mapstructure:"dir"`
	SnapshotName string `mapstructure:"snapshot_name"`
}

// ProfilesConfig defines where site delivery profiles live.
type ProfilesConfig struct {
	Dir string `mapstructure:"dir"`
}

// ReportConfig defines report scoping and pre-filtering.
type ReportConfig struct {
	Site         string   `mapstructure:"site"`
	Subject      string   `mapstructure:"subject"`
	ExcludeTypes []string `mapstructure:"exclude_types"`
}

// EmailConfig defines delivery channels and the fallback recipients
// used when the target site has no profile.
type EmailConfig struct {
	From       string       `mapstructure:"from"`
	Recipients []string     `mapstructure:"recipients"`
	SMTP       SMTPConfig   `mapstructure:"smtp"`
	Resend     ResendConfig `mapstructure:"resend"`
}

// SMTPConfig defines SMTP relay settings.
type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ResendConfig defines the HTTP mail API settings.
type ResendConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".stockwatch"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("api.base_url", "https://app.maintainly.com/v1")
	v.SetDefault("api.organization", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.per_page", 25)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("archive.dir", filepath.Join(home, ".stockwatch", "archive"))
	v.SetDefault("archive.snapshot_name", "full_inventory.json")
	v.SetDefault("profiles.dir", filepath.Join(home, ".stockwatch", "profiles"))
	v.SetDefault("report.site", "")
	v.SetDefault("report.subject", "Inventory Stock Alerts")
	v.SetDefault("report.exclude_types", []string{"Procurement Pending"})
	v.SetDefault("email.from", "")
	v.SetDefault("email.recipients", []string{})
	v.SetDefault("email.smtp.enabled", true)
	v.SetDefault("email.smtp.host", "localhost")
	v.SetDefault("email.smtp.port", 25)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.resend.enabled", false)
	v.SetDefault("email.resend.api_key", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("STOCKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
