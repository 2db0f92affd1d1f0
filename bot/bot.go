// Package bot wires the chat session to the update pipeline, the backup
// recovery and the create commands.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/researchaccelerator-hub/manga-notifier/backup"
	"github.com/researchaccelerator-hub/manga-notifier/client"
	"github.com/researchaccelerator-hub/manga-notifier/commands"
	"github.com/researchaccelerator-hub/manga-notifier/config"
	"github.com/researchaccelerator-hub/manga-notifier/crawl"
	"github.com/researchaccelerator-hub/manga-notifier/distributed"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/researchaccelerator-hub/manga-notifier/pipeline"
	"github.com/researchaccelerator-hub/manga-notifier/scheduler"
	"github.com/researchaccelerator-hub/manga-notifier/state"
	"github.com/rs/zerolog/log"
)

const intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// Bot owns the chat session and everything built on top of it.
type Bot struct {
	cfg         *config.Config
	session     *discordgo.Session
	messenger   client.Messenger
	commands    *commands.Service
	pipeline    *pipeline.Pipeline
	publisher   distributed.Publisher
	cache       *MessageCache
	callTimeout time.Duration

	ctx       context.Context
	channels  model.ChannelRoleSet
	recovery  *backup.Recovery
	counter   *state.DaprCounter
	scheduler *scheduler.Scheduler
}

// New builds the session and the components that depend on it. Nothing is
// opened until Start or RunOnce.
func New(cfg *config.Config, store state.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = intents

	cache, err := NewMessageCache(cfg.Discord.MessageCacheSize)
	if err != nil {
		return nil, err
	}

	var publisher distributed.Publisher = distributed.NoopPublisher{}
	if cfg.PublisherEnabled() {
		natsPublisher, err := distributed.NewNatsPublisher(cfg.Nats.URL, cfg.Nats.Subject)
		if err != nil {
			return nil, err
		}
		publisher = natsPublisher
	}

	factory := client.NewDefaultClientFactory()
	messenger := factory.CreateMessenger(session, cfg.Timeouts.Call)
	listSync := factory.CreateListSync(client.AnilistConfig{
		Endpoint:      cfg.Anilist.Endpoint,
		Token:         cfg.Anilist.Token,
		RatePerMinute: cfg.Anilist.Rate,
		Timeout:       cfg.Timeouts.Call,
	})

	engine := crawl.NewEngine(crawl.EngineConfig{
		Concurrency: cfg.Scrape.Concurrency,
		MaxProbe:    cfg.Scrape.MaxProbe,
		Timeout:     cfg.Scrape.Timeout,
		UserAgent:   cfg.Scrape.UserAgent,
	}, nil)

	p := pipeline.New(
		store,
		engine,
		pipeline.NewNotifier(messenger),
		pipeline.NewCommitter(store, listSync, publisher, cfg.Timeouts.Call),
	)

	return &Bot{
		cfg:         cfg,
		session:     session,
		messenger:   messenger,
		commands:    commands.NewService(store),
		pipeline:    p,
		publisher:   publisher,
		cache:       cache,
		callTimeout: cfg.Timeouts.Call,
	}, nil
}

// Start resolves the channels, connects to the gateway, registers the slash
// commands and starts the daily schedule.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx
	b.channels = ResolveChannels(ctx, b.messenger, b.cfg.Channels)

	source, err := b.sequenceSource()
	if err != nil {
		return err
	}
	b.recovery = backup.NewRecovery(b.messenger, b.channels.Backup, source, b.cfg.Backup.Color)

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msgf("Logged in as %s", r.User.String())
	})
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.cache.Put(m.Message)
	})
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		b.cache.Put(m.Message)
	})
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageDelete) {
		b.cache.Remove(m.ID)
	})
	b.session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageDeleteBulk) {
		b.handleBulkDelete(e)
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(s, i)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	if b.session.State != nil && b.session.State.User != nil {
		if err := registerCommands(b.session, b.session.State.User.ID, b.cfg.Discord.GuildID); err != nil {
			log.Error().Err(err).Msg("Slash commands unavailable")
		}
	}

	loc, err := b.cfg.Location()
	if err != nil {
		return err
	}

	var syncer scheduler.RepoSyncer
	if b.cfg.Repo.Enabled {
		syncer = scheduler.NewGitSync(b.cfg.Repo.Path, b.messenger, b.channels.Update, b.cfg.Repo.PurgeLimit)
	}

	b.scheduler, err = scheduler.New(scheduler.Config{
		Spec:       b.cfg.Schedule.Cron,
		Location:   loc,
		RunTimeout: b.cfg.Timeouts.Run,
	}, b.pipeline, syncer, b.channels)
	if err != nil {
		return err
	}

	return b.scheduler.Start(ctx)
}

// RunOnce performs a single update pass without connecting to the gateway.
func (b *Bot) RunOnce(ctx context.Context) (*pipeline.RunReport, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeouts.Run)
	defer cancel()

	channels := ResolveChannels(ctx, b.messenger, b.cfg.Channels)
	return b.pipeline.Run(ctx, model.ChannelRoleSet{Update: channels.Update, Error: channels.Error})
}

// Close stops the schedule and releases the session and the publishers.
func (b *Bot) Close() error {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if err := b.session.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing discord session")
	}
	if err := b.publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing event publisher")
	}
	if b.counter != nil {
		if err := b.counter.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing backup counter")
		}
	}
	return nil
}

// sequenceSource picks the backup numbering strategy from the configuration.
func (b *Bot) sequenceSource() (backup.SequenceSource, error) {
	backupID := ""
	if b.channels.Backup != nil {
		backupID = b.channels.Backup.ID
	}
	channelSeq := backup.NewChannelSequence(b.messenger, backupID)

	if b.cfg.Backup.Sequence != config.SequenceDapr {
		return channelSeq, nil
	}

	counter, err := state.NewDaprCounter(state.DaprCounterConfig{
		StateStoreName: b.cfg.Dapr.StateStore,
		Key:            b.cfg.Dapr.Key,
		GRPCPort:       b.cfg.Dapr.GRPCPort,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backup counter: %w", err)
	}
	b.counter = counter

	log.Info().Str("state_store", b.cfg.Dapr.StateStore).Str("key", b.cfg.Dapr.Key).Msg("Backup numbers owned by the state store")
	return backup.NewDaprSequence(counter, channelSeq), nil
}

// handleBulkDelete archives the cached contents of bulk-deleted messages.
func (b *Bot) handleBulkDelete(e *discordgo.MessageDeleteBulk) {
	contents := b.cache.Take(e.Messages)
	if len(contents) == 0 {
		log.Debug().Int("deleted", len(e.Messages)).Str("channel_id", e.ChannelID).Msg("Bulk deletion with no cached content")
		return
	}
	if b.recovery == nil {
		return
	}

	if _, err := b.recovery.Archive(b.baseContext(), contents); err != nil {
		log.Error().Err(err).Str("channel_id", e.ChannelID).Int("message_count", len(contents)).Msg("Failed to back up deleted messages")
	}
}

func (b *Bot) baseContext() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}
