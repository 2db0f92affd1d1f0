package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/researchaccelerator-hub/manga-notifier/client"
	"github.com/rs/zerolog/log"
)

// SequenceSource hands out the number of the next backup.
type SequenceSource interface {
	Next(ctx context.Context) (int, error)
}

// ChannelSequence recovers the counter from the most recent message of the
// backup channel. Two bulk deletes handled at the same time can read the same
// last message and produce the same number.
type ChannelSequence struct {
	messenger client.Messenger
	channelID string
}

// NewChannelSequence creates a channel-derived sequence source.
func NewChannelSequence(messenger client.Messenger, channelID string) *ChannelSequence {
	return &ChannelSequence{messenger: messenger, channelID: channelID}
}

// Recover returns the number of the last backup. An empty channel, a last
// message without embed, or an unparsable title count as 0.
func (s *ChannelSequence) Recover(ctx context.Context) (int, error) {
	msg, err := s.messenger.LastMessage(ctx, s.channelID)
	if err != nil {
		return 0, fmt.Errorf("failed to read last backup: %w", err)
	}

	if msg == nil || len(msg.Embeds) == 0 {
		log.Warn().Str("channel_id", s.channelID).Msg("No previous backup found, starting from 0")
		return 0, nil
	}

	seq, err := ParseSequence(msg.Embeds[0].Title)
	if errors.Is(err, ErrNoSequence) {
		log.Warn().Err(err).Str("channel_id", s.channelID).Str("message_id", msg.ID).Msg("Last backup has no number, starting from 0")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return seq, nil
}

// Next returns the recovered number plus one.
func (s *ChannelSequence) Next(ctx context.Context) (int, error) {
	seq, err := s.Recover(ctx)
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}

// Counter is a durable monotonic counter.
type Counter interface {
	Increment(ctx context.Context, seed func(ctx context.Context) (int, error)) (int, error)
}

// DaprSequence owns the counter in a state store. The channel is only
// consulted once, to seed a counter that does not exist yet.
type DaprSequence struct {
	counter Counter
	seed    *ChannelSequence
}

// NewDaprSequence creates a store-backed sequence source seeded from the channel.
func NewDaprSequence(counter Counter, seed *ChannelSequence) *DaprSequence {
	return &DaprSequence{counter: counter, seed: seed}
}

func (s *DaprSequence) Next(ctx context.Context) (int, error) {
	next, err := s.counter.Increment(ctx, s.seed.Recover)
	if err != nil {
		return 0, fmt.Errorf("failed to increment backup counter: %w", err)
	}
	return next, nil
}
