package backup

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/researchaccelerator-hub/manga-notifier/client"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
)

// DefaultColor is the embed color of backups.
const DefaultColor = 0xdd5f53

// maxDescriptionLength is the platform limit for embed descriptions.
const maxDescriptionLength = 4096

// Recovery turns a bulk deletion into a numbered backup embed.
type Recovery struct {
	messenger client.Messenger
	channel   *model.Channel
	source    SequenceSource
	color     int
	now       func() time.Time
}

// NewRecovery creates the backup handler. A nil channel disables backups.
func NewRecovery(messenger client.Messenger, channel *model.Channel, source SequenceSource, color int) *Recovery {
	if color == 0 {
		color = DefaultColor
	}
	return &Recovery{
		messenger: messenger,
		channel:   channel,
		source:    source,
		color:     color,
		now:       time.Now,
	}
}

// Enabled reports whether a backup channel is available.
func (r *Recovery) Enabled() bool {
	return r.channel != nil
}

// Archive posts the deleted contents, in the given order, as the next backup.
// It returns nil without posting when backups are disabled.
func (r *Recovery) Archive(ctx context.Context, contents []string) (*model.BackupRecord, error) {
	if !r.Enabled() {
		log.Warn().Int("message_count", len(contents)).Msg("Backup channel unavailable, bulk deletion not archived")
		return nil, nil
	}

	seq, err := r.source.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to determine backup number: %w", err)
	}

	record := &model.BackupRecord{
		Sequence:  seq,
		Content:   strings.Join(contents, "\n"),
		Timestamp: r.now(),
	}

	if err := r.messenger.SendEmbed(ctx, r.channel.ID, r.Compose(record)); err != nil {
		return nil, fmt.Errorf("failed to post backup n°%d: %w", seq, err)
	}

	log.Info().Int("sequence", seq).Int("message_count", len(contents)).Str("channel_id", r.channel.ID).Msg("Backup posted")
	return record, nil
}

// Compose renders a backup record as an embed.
func (r *Recovery) Compose(record *model.BackupRecord) model.Embed {
	description := record.Content
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		log.Warn().Int("sequence", record.Sequence).Msg("Backup content truncated to the embed limit")
		runes := []rune(description)
		description = string(runes[:maxDescriptionLength-1]) + "…"
	}

	return model.Embed{
		Title:       FormatTitle(record.Sequence),
		Description: description,
		Color:       r.color,
		Timestamp:   record.Timestamp,
	}
}
