package pipeline

import (
	"context"
	"fmt"

	"github.com/researchaccelerator-hub/manga-notifier/client"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
)

// NoNewChaptersMessage is posted when a run finds neither updates nor failures.
const NoNewChaptersMessage = "No new chapters found."

// RenderUpdate formats one update announcement. The link points at the
// previous chapter.
func RenderUpdate(s model.ScrapeSuccess) string {
	return fmt.Sprintf("%s : %s -> %s at %s", s.Manga.Name, s.Manga.Chapter, s.LastChapter, s.ReadLink())
}

// RenderFailure formats one error report.
func RenderFailure(f model.ScrapeFailure) string {
	return fmt.Sprintf("Error scraping %s: %s", f.Name, f.Error)
}

// Notifier posts run results to chat channels. Sends are sequential in input
// order and independent: a failed send is logged and the next one proceeds.
type Notifier struct {
	messenger client.Messenger
}

// NewNotifier creates a notifier on top of a messenger.
func NewNotifier(messenger client.Messenger) *Notifier {
	return &Notifier{messenger: messenger}
}

// NotifyUpdates posts one message per success and returns how many were sent.
func (n *Notifier) NotifyUpdates(ctx context.Context, channel *model.Channel, successes []model.ScrapeSuccess) int {
	sent := 0
	for _, s := range successes {
		if err := n.messenger.SendUpdate(ctx, channel.ID, RenderUpdate(s)); err != nil {
			log.Error().Err(err).Str("channel_id", channel.ID).Str("manga", s.Manga.Name).Msg("Failed to send update message")
			continue
		}
		sent++
	}
	log.Debug().Str("channel_id", channel.ID).Int("sent", sent).Int("total", len(successes)).Msg("Update messages sent")
	return sent
}

// NotifyFailures posts one message per failure and returns how many were sent.
func (n *Notifier) NotifyFailures(ctx context.Context, channel *model.Channel, failures []model.ScrapeFailure) int {
	sent := 0
	for _, f := range failures {
		if err := n.messenger.Send(ctx, channel.ID, RenderFailure(f)); err != nil {
			log.Error().Err(err).Str("channel_id", channel.ID).Str("manga", f.Name).Msg("Failed to send error message")
			continue
		}
		sent++
	}
	log.Debug().Str("channel_id", channel.ID).Int("sent", sent).Int("total", len(failures)).Msg("Error messages sent")
	return sent
}

// NotifyNothingNew posts the single nothing-new message.
func (n *Notifier) NotifyNothingNew(ctx context.Context, channel *model.Channel) error {
	if err := n.messenger.Send(ctx, channel.ID, NoNewChaptersMessage); err != nil {
		return fmt.Errorf("failed to send nothing-new message: %w", err)
	}
	return nil
}
