package bot

import (
	"context"

	"github.com/researchaccelerator-hub/manga-notifier/client"
	"github.com/researchaccelerator-hub/manga-notifier/config"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
)

// ResolveChannels looks up the three configured channels once. A channel that
// cannot be resolved is left nil and the features routed to it are disabled.
func ResolveChannels(ctx context.Context, messenger client.Messenger, ids config.ChannelConfig) model.ChannelRoleSet {
	resolve := func(role, id string) *model.Channel {
		if id == "" {
			log.Warn().Str("role", role).Msg("No channel configured")
			return nil
		}
		ch, err := messenger.ResolveChannel(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("role", role).Str("channel_id", id).Msg("Failed to resolve channel")
			return nil
		}
		log.Info().Str("role", role).Str("channel_id", ch.ID).Str("channel_name", ch.Name).Msg("Channel resolved")
		return ch
	}

	return model.ChannelRoleSet{
		Update: resolve("update", ids.Update),
		Error:  resolve("error", ids.Error),
		Backup: resolve("backup", ids.Backup),
	}
}
