package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/channel"
	"github.com/kronicd/WA-Covid-Mailer/internal/config"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
	"github.com/kronicd/WA-Covid-Mailer/internal/render"
	"github.com/kronicd/WA-Covid-Mailer/internal/runner"
	"github.com/kronicd/WA-Covid-Mailer/internal/source"
	"github.com/kronicd/WA-Covid-Mailer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

// runDeadline bounds one complete invocation; the external scheduler
// must never see overlapping runs.
const runDeadline = 10 * time.Minute

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(domain.ExitConfig)
	}

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "mailer",
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(domain.ExitConfig)
	}
	defer logger.Flush(2 * time.Second)

	os.Exit(run(cfg))
}

func run(cfg *config.MailerConfig) int {
	ctx, cancel := context.WithTimeout(context.Background(), runDeadline)
	defer cancel()

	location, err := time.LoadLocation(cfg.Run.Timezone)
	if err != nil {
		logger.Error(fmt.Errorf("invalid run.timezone %q: %w", cfg.Run.Timezone, err))
		return domain.ExitConfig
	}

	clock := adapter.NewClock()
	httpClient := adapter.NewHTTPClient(cfg.Run.HTTPTimeout)

	// Open history store
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error(err, zap.String("path", cfg.Database.Path))
		return domain.ExitCode(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()
	logger.Info("opened history database", zap.String("path", cfg.Database.Path))

	sources := buildSources(cfg, httpClient)
	channels := buildChannels(cfg, httpClient, clock)
	admin := channel.NewEmailAlerter(clock,
		cfg.Admin.Enabled,
		cfg.Admin.SMTPHost, cfg.Admin.SMTPPort,
		cfg.Admin.Username, cfg.Admin.Password,
		cfg.Admin.From, cfg.Admin.ReplyTo,
		cfg.Admin.Recipients,
	)

	r := runner.New(runner.Config{
		Debug:    cfg.Debug,
		FailFast: cfg.Run.FailFast,
		Location: location,
		Policy:   notifyPolicy(cfg),
	}, db, sources, channels, admin)

	if err := r.Run(ctx); err != nil {
		logger.Error(err)
		return domain.ExitCode(err)
	}

	logger.Info("run complete")
	return domain.ExitSuccess
}

// buildSources assembles the enabled source adapters in report order.
func buildSources(cfg *config.MailerConfig, client adapter.HTTPClient) []source.Source {
	var sources []source.Source
	if cfg.Sources.WAHealth.Enabled {
		sources = append(sources, source.NewWAHealth(client, cfg.Sources.WAHealth.URL))
	}
	if cfg.Sources.Sheet.Enabled {
		sources = append(sources, source.NewSheet(client, cfg.Sources.Sheet.URL))
	}
	if cfg.Sources.ECU.Enabled {
		sources = append(sources, source.NewECU(client, cfg.Sources.ECU.URL))
	}
	if cfg.Sources.UWA.Enabled {
		sources = append(sources, source.NewUWA(client, cfg.Sources.UWA.URL))
	}
	if cfg.Sources.Murdoch.Enabled {
		sources = append(sources, source.NewMurdoch(client, cfg.Sources.Murdoch.URL))
	}
	if cfg.Sources.Curtin.Enabled {
		sources = append(sources, source.NewCurtin(client, cfg.Sources.Curtin.URL))
	}
	return sources
}

// buildChannels assembles the configured user-facing dispatchers.
func buildChannels(cfg *config.MailerConfig, client adapter.HTTPClient, clock adapter.Clock) []channel.Dispatcher {
	var channels []channel.Dispatcher
	if len(cfg.Channels.Dreamhost.APIKey) > 0 && cfg.Channels.Dreamhost.Enabled {
		channels = append(channels, channel.NewDreamhost(client, clock,
			cfg.Channels.Dreamhost.APIKey,
			cfg.Channels.Dreamhost.ListDomain,
			cfg.Channels.Dreamhost.ListName,
			cfg.Channels.Dreamhost.Critical,
		))
	}
	if cfg.Channels.Email.Enabled && len(cfg.Channels.Email.Recipients) > 0 {
		channels = append(channels, channel.NewEmail(clock,
			cfg.Channels.Email.SMTPHost, cfg.Channels.Email.SMTPPort,
			cfg.Channels.Email.From, cfg.Channels.Email.ReplyTo,
			cfg.Channels.Email.Recipients,
			cfg.Channels.Email.Critical,
		))
	}
	if len(cfg.Channels.Slack.WebhookURLs) > 0 {
		channels = append(channels, channel.NewSlack(client,
			cfg.Channels.Slack.WebhookURLs,
			cfg.Channels.Slack.Critical,
		))
	}
	if len(cfg.Channels.Discord.WebhookURLs) > 0 {
		channels = append(channels, channel.NewDiscord(client, clock,
			cfg.Channels.Discord.WebhookURLs,
			cfg.Channels.Discord.Critical,
			cfg.Channels.Discord.MaxLength,
			cfg.Channels.Discord.SendDelay,
		))
	}
	return channels
}

// notifyPolicy collects the per-source updated-record notification flags.
func notifyPolicy(cfg *config.MailerConfig) render.Policy {
	return render.Policy{
		NotifyOnUpdate: map[string]bool{
			"wahealth": cfg.Sources.WAHealth.NotifyOnUpdate,
			"sheet":    cfg.Sources.Sheet.NotifyOnUpdate,
			"ecu":      cfg.Sources.ECU.NotifyOnUpdate,
			"uwa":      cfg.Sources.UWA.NotifyOnUpdate,
			"murdoch":  cfg.Sources.Murdoch.NotifyOnUpdate,
			"curtin":   cfg.Sources.Curtin.NotifyOnUpdate,
		},
	}
}
