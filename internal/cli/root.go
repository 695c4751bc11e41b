package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/stocktide/stockwatch/internal/config"
	"github.com/stocktide/stockwatch/internal/fetch"
	"github.com/stocktide/stockwatch/pkg/archive"
	"github.com/stocktide/stockwatch/pkg/notify"
	"github.com/stocktide/stockwatch/pkg/profile"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stockwatch",
	Short: "Stockwatch - Inventory stock level monitoring and alerting",
	Long: `Stockwatch pulls the full inventory feed from the Maintainly API, flags
parts that have fallen to or below their critical level or under their par
level, and emails a per-site alert report with a CSV attachment.
Every run is archived alongside the raw feed for later review.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.stockwatch/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// requireAPI checks that the settings needed to reach the inventory API
// are present before a command tries to fetch anything.
func requireAPI(cfg *config.Config) error {
	if cfg.API.Organization == "" {
		return fmt.Errorf("api.organization is not set (or STOCKWATCH_API_ORGANIZATION)")
	}
	if cfg.API.Token == "" {
		return fmt.Errorf("api.token is not set (or STOCKWATCH_API_TOKEN)")
	}
	return nil
}

// initStore opens the run archive from config.
func initStore(cfg *config.Config) (archive.Store, error) {
	return archive.NewDirStore(cfg.Archive.Dir, cfg.Archive.SnapshotName)
}

// initProfiles loads the per-site delivery profiles.
func initProfiles(cfg *config.Config) (*profile.Set, error) {
	return profile.LoadDir(cfg.Profiles.Dir)
}

// initNotifiers creates mail notifiers from config.
func initNotifiers(cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.Email.SMTP.Enabled && cfg.Email.SMTP.Host != "" {
		notifiers = append(notifiers, notify.NewSMTP(notify.SMTPConfig{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
			From:     cfg.Email.From,
		}))
	}

	if cfg.Email.Resend.Enabled && cfg.Email.Resend.APIKey != "" {
		notifiers = append(notifiers, notify.NewResend(notify.ResendConfig{
			APIKey: cfg.Email.Resend.APIKey,
			From:   cfg.Email.From,
		}))
	}

	return notifiers
}

// initFetcher creates an inventory API client. The snapshot callback may be
// nil when the raw feed should not be persisted.
func initFetcher(cfg *config.Config, logger *slog.Logger, snapshot func([]byte) error) *fetch.Client {
	timeout, err := time.ParseDuration(cfg.API.Timeout)
	if err != nil {
		timeout = 30 * time.Second
	}

	return fetch.NewClient(fetch.Options{
		BaseURL:      cfg.API.BaseURL,
		Organization: cfg.API.Organization,
		Token:        cfg.API.Token,
		PerPage:      cfg.API.PerPage,
		Timeout:      timeout,
		Snapshot:     snapshot,
	}, logger)
}

// resolveDelivery picks recipients and a subject for a site, preferring its
// profile over the top-level email settings.
func resolveDelivery(cfg *config.Config, profiles *profile.Set, site string) ([]string, string) {
	subject := fmt.Sprintf("%s: %s", cfg.Report.Subject, site)
	recipients := cfg.Email.Recipients

	p, err := profiles.Get(site)
	if err != nil {
		return recipients, subject
	}

	if len(p.Recipients) > 0 {
		recipients = p.Recipients
	}
	if p.Subject != "" {
		subject = p.Subject
	}
	return recipients, subject
}
