package client

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
)

// Discord refuses to bulk delete messages older than two weeks.
const bulkDeleteMaxAge = 14 * 24 * time.Hour

// maxMessagesPerRequest is the page size limit of the messages endpoint.
const maxMessagesPerRequest = 100

// DiscordSession is the subset of *discordgo.Session used by the messenger.
type DiscordSession interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
}

// DiscordMessenger implements Messenger on a discordgo session.
type DiscordMessenger struct {
	session     DiscordSession
	callTimeout time.Duration
	now         func() time.Time
}

// NewDiscordMessenger wraps a session. Every REST call is bounded by callTimeout.
func NewDiscordMessenger(session DiscordSession, callTimeout time.Duration) *DiscordMessenger {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &DiscordMessenger{
		session:     session,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

func (d *DiscordMessenger) ResolveChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	ch, err := d.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel %s: %w", channelID, err)
	}
	return &model.Channel{ID: ch.ID, Name: ch.Name}, nil
}

func (d *DiscordMessenger) Send(ctx context.Context, channelID, content string) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	if _, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}

func (d *DiscordMessenger) SendUpdate(ctx context.Context, channelID, content string) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	msg := &discordgo.MessageSend{
		Content: content,
		Flags:   discordgo.MessageFlagsSuppressEmbeds,
	}
	if _, err := d.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send update to %s: %w", channelID, err)
	}
	return nil
}

func (d *DiscordMessenger) SendEmbed(ctx context.Context, channelID string, embed model.Embed) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	if _, err := d.session.ChannelMessageSendEmbed(channelID, toDiscordEmbed(embed), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send embed to %s: %w", channelID, err)
	}
	return nil
}

func (d *DiscordMessenger) LastMessage(ctx context.Context, channelID string) (*model.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	messages, err := d.session.ChannelMessages(channelID, 1, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last message of %s: %w", channelID, err)
	}
	if len(messages) == 0 {
		return nil, nil
	}

	msg := FromDiscordMessage(messages[0])
	return &msg, nil
}

func (d *DiscordMessenger) PurgeRecent(ctx context.Context, channelID string, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	if limit > maxMessagesPerRequest {
		limit = maxMessagesPerRequest
	}

	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	messages, err := d.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch messages of %s: %w", channelID, err)
	}

	cutoff := d.now().Add(-bulkDeleteMaxAge)
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Timestamp.Before(cutoff) {
			continue
		}
		ids = append(ids, m.ID)
	}

	if skipped := len(messages) - len(ids); skipped > 0 {
		log.Debug().Str("channel_id", channelID).Int("skipped", skipped).Msg("Skipping messages too old to bulk delete")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := d.session.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx)); err != nil {
		return 0, fmt.Errorf("failed to purge messages of %s: %w", channelID, err)
	}

	log.Info().Str("channel_id", channelID).Int("deleted", len(ids)).Msg("Purged channel messages")
	return len(ids), nil
}

// FromDiscordMessage converts a platform message into the model form.
func FromDiscordMessage(m *discordgo.Message) model.ChatMessage {
	msg := model.ChatMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		embed := model.Embed{Title: e.Title, Description: e.Description, Color: e.Color}
		if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			embed.Timestamp = ts
		}
		msg.Embeds = append(msg.Embeds, embed)
	}
	return msg
}

func toDiscordEmbed(e model.Embed) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if !e.Timestamp.IsZero() {
		embed.Timestamp = e.Timestamp.Format(time.RFC3339)
	}
	return embed
}
