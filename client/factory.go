package client

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ListSyncFactory creates the list-sync client for the configured service
type ListSyncFactory interface {
	// CreateListSync returns a list-sync implementation for the given configuration
	CreateListSync(config AnilistConfig) ListSync
}

// DefaultClientFactory implements ListSyncFactory and builds messengers
type DefaultClientFactory struct{}

// NewDefaultClientFactory creates a new DefaultClientFactory
func NewDefaultClientFactory() *DefaultClientFactory {
	return &DefaultClientFactory{}
}

// CreateListSync returns the AniList client, or a no-op when no token is set.
func (f *DefaultClientFactory) CreateListSync(config AnilistConfig) ListSync {
	if config.Token == "" {
		log.Info().Msg("No AniList token configured, list sync disabled")
		return NoopListSync{}
	}
	log.Info().Str("endpoint", config.Endpoint).Int("rate_per_minute", config.RatePerMinute).Msg("AniList list sync enabled")
	return NewAnilistClient(config)
}

// CreateMessenger wraps a chat session into a Messenger.
func (f *DefaultClientFactory) CreateMessenger(session DiscordSession, callTimeout time.Duration) Messenger {
	return NewDiscordMessenger(session, callTimeout)
}
