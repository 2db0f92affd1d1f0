package pipeline

import (
	"context"
	"time"

	"github.com/researchaccelerator-hub/manga-notifier/client"
	"github.com/researchaccelerator-hub/manga-notifier/distributed"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/researchaccelerator-hub/manga-notifier/state"
	"github.com/rs/zerolog/log"
)

// Committer persists new chapters and forwards them downstream.
type Committer struct {
	store       state.Store
	listSync    client.ListSync
	publisher   distributed.Publisher
	callTimeout time.Duration
	now         func() time.Time
}

// NewCommitter creates a committer. A nil publisher disables event publishing.
func NewCommitter(store state.Store, listSync client.ListSync, publisher distributed.Publisher, callTimeout time.Duration) *Committer {
	if publisher == nil {
		publisher = distributed.NoopPublisher{}
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Committer{
		store:       store,
		listSync:    listSync,
		publisher:   publisher,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

// Commit writes every new chapter to the store, then makes one list-sync call
// for the whole batch, then publishes one event per stored chapter. Failures
// are logged and never roll back earlier writes. It returns the number of
// chapters stored.
func (c *Committer) Commit(ctx context.Context, runID string, successes []model.ScrapeSuccess) int {
	if len(successes) == 0 {
		return 0
	}

	events := make([]model.ChapterEvent, 0, len(successes))
	for _, s := range successes {
		if err := c.updateChapter(ctx, s); err != nil {
			log.Error().
				Err(err).
				Str("run_id", runID).
				Int64("manga_id", s.Manga.ID).
				Str("manga", s.Manga.Name).
				Str("chapter", s.LastChapter).
				Msg("Failed to store new chapter")
			continue
		}
		events = append(events, distributed.NewChapterEvent(runID, s, c.now()))
	}

	if err := c.syncList(ctx, successes); err != nil {
		log.Error().Err(err).Str("run_id", runID).Int("success_count", len(successes)).Msg("List sync failed")
	}

	if err := c.publish(ctx, events); err != nil {
		log.Error().Err(err).Str("run_id", runID).Int("event_count", len(events)).Msg("Failed to publish chapter events")
	}

	log.Info().Str("run_id", runID).Int("stored", len(events)).Int("total", len(successes)).Msg("Chapters committed")
	return len(events)
}

func (c *Committer) updateChapter(ctx context.Context, s model.ScrapeSuccess) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.store.UpdateMangaChapter(ctx, s.Manga.ID, s.LastChapter)
}

func (c *Committer) syncList(ctx context.Context, successes []model.ScrapeSuccess) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.listSync.Update(ctx, successes)
}

func (c *Committer) publish(ctx context.Context, events []model.ChapterEvent) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.publisher.PublishChapterEvents(ctx, events)
}
