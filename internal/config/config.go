package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// RunConfig holds per-run policy
type RunConfig struct {
	Timezone string `mapstructure:"timezone"`
	// FailFast aborts the whole run on the first source fetch failure; when
	// false, failed sources are skipped and the rest of the run continues
	FailFast    bool          `mapstructure:"fail_fast"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// DatabaseConfig holds the sqlite history database location
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SourceConfig holds one source adapter's settings
type SourceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	// NotifyOnUpdate re-notifies when only tracked mutable fields changed
	NotifyOnUpdate bool `mapstructure:"notify_on_update"`
}

// SourcesConfig holds all source adapters
type SourcesConfig struct {
	WAHealth SourceConfig `mapstructure:"wahealth"`
	Sheet    SourceConfig `mapstructure:"sheet"`
	ECU      SourceConfig `mapstructure:"ecu"`
	UWA      SourceConfig `mapstructure:"uwa"`
	Murdoch  SourceConfig `mapstructure:"murdoch"`
	Curtin   SourceConfig `mapstructure:"curtin"`
}

// DiscordConfig holds Discord webhook delivery settings
type DiscordConfig struct {
	WebhookURLs []string `mapstructure:"webhook_urls"`
	Critical    bool     `mapstructure:"critical"`
	// MaxLength is the per-message cap; Discord rejects over 2000 characters
	MaxLength int `mapstructure:"max_length"`
	// SendDelay is the mandatory pause between successive chunk sends
	SendDelay time.Duration `mapstructure:"send_delay"`
}

// SlackConfig holds Slack webhook delivery settings
type SlackConfig struct {
	WebhookURLs []string `mapstructure:"webhook_urls"`
	Critical    bool     `mapstructure:"critical"`
}

// EmailConfig holds user-facing SMTP delivery settings
type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	SMTPHost   string   `mapstructure:"smtp_host"`
	SMTPPort   int      `mapstructure:"smtp_port"`
	From       string   `mapstructure:"from"`
	ReplyTo    string   `mapstructure:"reply_to"`
	Recipients []string `mapstructure:"recipients"`
	Critical   bool     `mapstructure:"critical"`
}

// DreamhostConfig holds the announce-list API settings
type DreamhostConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	ListDomain string `mapstructure:"list_domain"`
	ListName   string `mapstructure:"list_name"`
	Critical   bool   `mapstructure:"critical"`
}

// ChannelsConfig holds all user-facing notification channels
type ChannelsConfig struct {
	Discord   DiscordConfig   `mapstructure:"discord"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Email     EmailConfig     `mapstructure:"email"`
	Dreamhost DreamhostConfig `mapstructure:"dreamhost"`
}

// AdminConfig holds the operator-facing alert channel settings
type AdminConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	SMTPHost   string   `mapstructure:"smtp_host"`
	SMTPPort   int      `mapstructure:"smtp_port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from"`
	ReplyTo    string   `mapstructure:"reply_to"`
	Recipients []string `mapstructure:"recipients"`
}

// MailerConfig holds configuration for the mailer binary
type MailerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Run        RunConfig      `mapstructure:"run"`
	Database   DatabaseConfig `mapstructure:"database"`
	Sources    SourcesConfig  `mapstructure:"sources"`
	Channels   ChannelsConfig `mapstructure:"channels"`
	Admin      AdminConfig    `mapstructure:"admin"`
}

// Load loads configuration for the mailer
func Load(configFile string, envPath string) (*MailerConfig, error) {
	v := configureViper("mailer", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("run.timezone", "Australia/Perth")
	v.SetDefault("run.fail_fast", true)
	v.SetDefault("run.http_timeout", "30s")
	v.SetDefault("database.path", "exposures.db")
	v.SetDefault("sources.wahealth.enabled", true)
	v.SetDefault("sources.wahealth.url", "https://www.healthywa.wa.gov.au/COVID19locations")
	v.SetDefault("sources.wahealth.notify_on_update", false)
	v.SetDefault("sources.sheet.enabled", false)
	v.SetDefault("sources.sheet.url", "https://docs.google.com/spreadsheets/d/1-U8Ea9o9bnST5pzckC8lzwNNK_jO6kIVUAi5Uu_-Ltc/gviz/tq?tqx=out:csv&sheet=All%20Locations")
	v.SetDefault("sources.ecu.enabled", true)
	v.SetDefault("sources.ecu.url", "https://www.ecu.edu.au/covid-19/advice-for-staff")
	v.SetDefault("sources.uwa.enabled", true)
	v.SetDefault("sources.uwa.url", "https://www.uwa.edu.au/covid-19-faq/Home")
	v.SetDefault("sources.murdoch.enabled", true)
	v.SetDefault("sources.murdoch.url", "https://www.murdoch.edu.au/notices/covid-19-advice")
	v.SetDefault("sources.curtin.enabled", true)
	v.SetDefault("sources.curtin.url", "https://www.curtin.edu.au/novel-coronavirus/recent-exposure-sites-on-campus/")
	v.SetDefault("channels.discord.max_length", 1990)
	v.SetDefault("channels.discord.send_delay", "2s")
	v.SetDefault("channels.dreamhost.critical", true)
	v.SetDefault("channels.email.smtp_port", 465)
	v.SetDefault("admin.smtp_port", 587)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config MailerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Database.Path == "" {
		return nil, errors.New("database.path is required")
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("WA_MAILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when
// no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Run policy
		"run.timezone",
		"run.fail_fast",
		"run.http_timeout",
		// Database
		"database.path",
		// Channels
		"channels.discord.webhook_urls",
		"channels.discord.critical",
		"channels.discord.max_length",
		"channels.discord.send_delay",
		"channels.slack.webhook_urls",
		"channels.slack.critical",
		"channels.email.enabled",
		"channels.email.smtp_host",
		"channels.email.smtp_port",
		"channels.email.from",
		"channels.email.reply_to",
		"channels.email.recipients",
		"channels.email.critical",
		"channels.dreamhost.enabled",
		"channels.dreamhost.api_key",
		"channels.dreamhost.list_domain",
		"channels.dreamhost.list_name",
		"channels.dreamhost.critical",
		// Admin channel
		"admin.enabled",
		"admin.smtp_host",
		"admin.smtp_port",
		"admin.username",
		"admin.password",
		"admin.from",
		"admin.reply_to",
		"admin.recipients",
	}

	for _, source := range []string{"wahealth", "sheet", "ecu", "uwa", "murdoch", "curtin"} {
		keys = append(keys,
			"sources."+source+".enabled",
			"sources."+source+".url",
			"sources."+source+".notify_on_update",
		)
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
