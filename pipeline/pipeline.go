package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/researchaccelerator-hub/manga-notifier/common"
	"github.com/researchaccelerator-hub/manga-notifier/crawl"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/researchaccelerator-hub/manga-notifier/state"
	"github.com/rs/zerolog/log"
)

// Pipeline wires the scrape engine, the notifier and the committer.
type Pipeline struct {
	store     state.Store
	scraper   crawl.Scraper
	notifier  *Notifier
	committer *Committer
}

// RunReport summarizes one run.
type RunReport struct {
	RunID      string
	Mangas     int
	Successes  int
	Failures   int
	Committed  int
	NothingNew bool
	Duration   time.Duration
}

// New creates a pipeline.
func New(store state.Store, scraper crawl.Scraper, notifier *Notifier, committer *Committer) *Pipeline {
	return &Pipeline{
		store:     store,
		scraper:   scraper,
		notifier:  notifier,
		committer: committer,
	}
}

// Run performs one update pass. The error and update announcements run
// concurrently with the commit and with each other; Run waits for them
// before returning. A nil channel skips the announcements routed to it.
// Only a failure to read the tracked mangas is returned.
func (p *Pipeline) Run(ctx context.Context, channels model.ChannelRoleSet) (*RunReport, error) {
	start := time.Now()
	runID := common.GenerateRunID()
	logger := log.With().Str("run_id", runID).Logger()

	logger.Info().Msg("Starting update run")

	mangas, err := p.store.ListMangas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked mangas: %w", err)
	}

	result := p.scraper.Scrape(ctx, mangas)
	branches := Partition(result)

	report := &RunReport{
		RunID:      runID,
		Mangas:     len(mangas),
		Successes:  len(branches.Successes),
		Failures:   len(branches.Failures),
		NothingNew: branches.NothingNew,
	}

	var wg sync.WaitGroup

	if len(branches.Failures) > 0 {
		if channels.Error == nil {
			logger.Warn().Int("failure_count", len(branches.Failures)).Msg("Error channel unavailable, failures not announced")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.notifier.NotifyFailures(ctx, channels.Error, branches.Failures)
			}()
		}
	}

	if len(branches.Successes) > 0 {
		if channels.Update == nil {
			logger.Warn().Int("success_count", len(branches.Successes)).Msg("Update channel unavailable, updates not announced")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.notifier.NotifyUpdates(ctx, channels.Update, branches.Successes)
			}()
		}
		report.Committed = p.committer.Commit(ctx, runID, branches.Successes)
	}

	if branches.NothingNew {
		if channels.Update == nil {
			logger.Warn().Msg("Update channel unavailable, nothing-new message not sent")
		} else if err := p.notifier.NotifyNothingNew(ctx, channels.Update); err != nil {
			logger.Error().Err(err).Msg("Failed to announce empty run")
		}
	}

	wg.Wait()

	report.Duration = time.Since(start)
	logger.Info().
		Int("manga_count", report.Mangas).
		Int("success_count", report.Successes).
		Int("failure_count", report.Failures).
		Int("committed", report.Committed).
		Dur("duration", report.Duration).
		Msg("Update run finished")

	return report, nil
}
