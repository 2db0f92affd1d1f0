// Package config provides the process-wide configuration of the notifier.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. MANGABOT_DISCORD_TOKEN.
const EnvPrefix = "MANGABOT"

// Sequence sources for the backup counter.
const (
	SequenceChannel = "channel"
	SequenceDapr    = "dapr"
)

// Config holds everything read once at startup. It is never reloaded.
type Config struct {
	Discord  DiscordConfig  `mapstructure:"discord" yaml:"discord"`
	Channels ChannelConfig  `mapstructure:"channels" yaml:"channels"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Repo     RepoConfig     `mapstructure:"repo" yaml:"repo"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Scrape   ScrapeConfig   `mapstructure:"scrape" yaml:"scrape"`
	Anilist  AnilistConfig  `mapstructure:"anilist" yaml:"anilist"`
	Backup   BackupConfig   `mapstructure:"backup" yaml:"backup"`
	Dapr     DaprConfig     `mapstructure:"dapr" yaml:"dapr"`
	Nats     NatsConfig     `mapstructure:"nats" yaml:"nats"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type DiscordConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
	// GuildID scopes slash command registration; empty registers globally.
	GuildID string `mapstructure:"guild_id" yaml:"guild_id"`
	// MessageCacheSize bounds how many messages are remembered for backups.
	MessageCacheSize int `mapstructure:"message_cache_size" yaml:"message_cache_size"`
}

type ChannelConfig struct {
	Update string `mapstructure:"update" yaml:"update"`
	Error  string `mapstructure:"error" yaml:"error"`
	Backup string `mapstructure:"backup" yaml:"backup"`
}

type ScheduleConfig struct {
	Cron     string `mapstructure:"cron" yaml:"cron"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// RepoConfig controls the sync step that runs before every scheduled scrape.
type RepoConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	PurgeLimit int    `mapstructure:"purge_limit" yaml:"purge_limit"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type ScrapeConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxProbe    int           `mapstructure:"max_probe" yaml:"max_probe"`
	UserAgent   string        `mapstructure:"user_agent" yaml:"user_agent"`
}

type AnilistConfig struct {
	Token    string `mapstructure:"token" yaml:"token"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Rate is the number of requests allowed per minute.
	Rate int `mapstructure:"rate" yaml:"rate"`
}

type BackupConfig struct {
	Sequence string `mapstructure:"sequence" yaml:"sequence"`
	Color    int    `mapstructure:"color" yaml:"color"`
}

type DaprConfig struct {
	StateStore string `mapstructure:"state_store" yaml:"state_store"`
	GRPCPort   string `mapstructure:"grpc_port" yaml:"grpc_port"`
	Key        string `mapstructure:"key" yaml:"key"`
}

type NatsConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
}

type TimeoutConfig struct {
	Call time.Duration `mapstructure:"call" yaml:"call"`
	Run  time.Duration `mapstructure:"run" yaml:"run"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			MessageCacheSize: 5000,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 21 * * *",
			Timezone: "Local",
		},
		Repo: RepoConfig{
			Enabled:    true,
			Path:       ".",
			PurgeLimit: 100,
		},
		Store: StoreConfig{
			Path: "mangas.db",
		},
		Scrape: ScrapeConfig{
			Concurrency: 4,
			Timeout:     30 * time.Second,
			MaxProbe:    20,
			UserAgent:   "Mozilla/5.0 Manga-Notifier/1.0",
		},
		Anilist: AnilistConfig{
			Endpoint: "https://graphql.anilist.co",
			Rate:     30,
		},
		Backup: BackupConfig{
			Sequence: SequenceChannel,
			Color:    0xdd5f53,
		},
		Dapr: DaprConfig{
			StateStore: "statestore",
			GRPCPort:   "50001",
			Key:        "backup-sequence",
		},
		Nats: NatsConfig{
			Subject: "manga.chapters",
		},
		Timeouts: TimeoutConfig{
			Call: 30 * time.Second,
			Run:  30 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional config file and
// the environment, in increasing order of precedence.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("discord.token", d.Discord.Token)
	v.SetDefault("discord.guild_id", d.Discord.GuildID)
	v.SetDefault("discord.message_cache_size", d.Discord.MessageCacheSize)
	v.SetDefault("channels.update", d.Channels.Update)
	v.SetDefault("channels.error", d.Channels.Error)
	v.SetDefault("channels.backup", d.Channels.Backup)
	v.SetDefault("schedule.cron", d.Schedule.Cron)
	v.SetDefault("schedule.timezone", d.Schedule.Timezone)
	v.SetDefault("repo.enabled", d.Repo.Enabled)
	v.SetDefault("repo.path", d.Repo.Path)
	v.SetDefault("repo.purge_limit", d.Repo.PurgeLimit)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("scrape.concurrency", d.Scrape.Concurrency)
	v.SetDefault("scrape.timeout", d.Scrape.Timeout)
	v.SetDefault("scrape.max_probe", d.Scrape.MaxProbe)
	v.SetDefault("scrape.user_agent", d.Scrape.UserAgent)
	v.SetDefault("anilist.token", d.Anilist.Token)
	v.SetDefault("anilist.endpoint", d.Anilist.Endpoint)
	v.SetDefault("anilist.rate", d.Anilist.Rate)
	v.SetDefault("backup.sequence", d.Backup.Sequence)
	v.SetDefault("backup.color", d.Backup.Color)
	v.SetDefault("dapr.state_store", d.Dapr.StateStore)
	v.SetDefault("dapr.grpc_port", d.Dapr.GRPCPort)
	v.SetDefault("dapr.key", d.Dapr.Key)
	v.SetDefault("nats.url", d.Nats.URL)
	v.SetDefault("nats.subject", d.Nats.Subject)
	v.SetDefault("timeouts.call", d.Timeouts.Call)
	v.SetDefault("timeouts.run", d.Timeouts.Run)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

// Validate checks the settings needed by every command.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path cannot be empty")
	}

	if c.Scrape.Concurrency < 1 {
		return fmt.Errorf("scrape.concurrency must be at least 1")
	}

	if c.Scrape.MaxProbe < 1 {
		return fmt.Errorf("scrape.max_probe must be at least 1")
	}

	if c.Scrape.Timeout <= 0 {
		return fmt.Errorf("scrape.timeout must be positive")
	}

	if c.Timeouts.Call <= 0 {
		return fmt.Errorf("timeouts.call must be positive")
	}

	if c.Timeouts.Run <= 0 {
		return fmt.Errorf("timeouts.run must be positive")
	}

	if c.Anilist.Rate < 1 {
		return fmt.Errorf("anilist.rate must be at least 1")
	}

	if c.Repo.PurgeLimit < 0 || c.Repo.PurgeLimit > 100 {
		return fmt.Errorf("repo.purge_limit must be between 0 and 100")
	}

	switch c.Backup.Sequence {
	case SequenceChannel:
	case SequenceDapr:
		if c.Dapr.StateStore == "" || c.Dapr.Key == "" {
			return fmt.Errorf("dapr.state_store and dapr.key are required when backup.sequence is %q", SequenceDapr)
		}
	default:
		return fmt.Errorf("invalid backup.sequence '%s', must be one of: %s, %s", c.Backup.Sequence, SequenceChannel, SequenceDapr)
	}

	return nil
}

// ValidateBot checks the extra settings needed to connect to the chat platform.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}

	if c.Channels.Update == "" || c.Channels.Error == "" || c.Channels.Backup == "" {
		return fmt.Errorf("channels.update, channels.error and channels.backup are required")
	}

	if c.Discord.MessageCacheSize < 1 {
		return fmt.Errorf("discord.message_cache_size must be at least 1")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid schedule.cron %q: %w", c.Schedule.Cron, err)
	}

	return nil
}

// Location resolves the schedule time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// ListSyncEnabled reports whether chapter progress is pushed to AniList.
func (c *Config) ListSyncEnabled() bool {
	return c.Anilist.Token != ""
}

// PublisherEnabled reports whether chapter events are published to NATS.
func (c *Config) PublisherEnabled() bool {
	return c.Nats.URL != ""
}
