// Package crawl probes manga sites for chapters newer than the tracked one.
package crawl

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/researchaccelerator-hub/manga-notifier/common"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Scraper produces the scrape result for a batch of tracked mangas.
type Scraper interface {
	Scrape(ctx context.Context, mangas []model.TrackedManga) model.ScrapeResult
}

// EngineConfig contains the probing limits of the engine.
type EngineConfig struct {
	Concurrency int
	MaxProbe    int
	Timeout     time.Duration
	UserAgent   string
}

// Engine checks chapter pages over HTTP. A chapter counts as published when
// its page answers 2xx and, if the site has a selector, the selector matches.
type Engine struct {
	client *http.Client
	config EngineConfig
}

// mangaOutcome is the result for one manga. Both fields nil means nothing new.
type mangaOutcome struct {
	success *model.ScrapeSuccess
	failure *model.ScrapeFailure
}

// NewEngine creates an engine. A nil client uses a default one.
func NewEngine(config EngineConfig, client *http.Client) *Engine {
	if client == nil {
		client = &http.Client{}
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.MaxProbe < 1 {
		config.MaxProbe = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Engine{client: client, config: config}
}

// Scrape probes every manga concurrently. Per-manga errors become failures
// and never abort the batch. Output order follows input order.
func (e *Engine) Scrape(ctx context.Context, mangas []model.TrackedManga) model.ScrapeResult {
	outcomes := make([]mangaOutcome, len(mangas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	for i, manga := range mangas {
		i, manga := i, manga
		g.Go(func() error {
			outcomes[i] = e.scrapeManga(gctx, manga)
			return nil
		})
	}
	_ = g.Wait()

	var result model.ScrapeResult
	for _, o := range outcomes {
		if o.success != nil {
			result.Successes = append(result.Successes, *o.success)
		}
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
		}
	}

	log.Info().
		Int("manga_count", len(mangas)).
		Int("success_count", len(result.Successes)).
		Int("failure_count", len(result.Failures)).
		Msg("Scrape finished")

	return result
}

func (e *Engine) scrapeManga(ctx context.Context, manga model.TrackedManga) mangaOutcome {
	start, err := common.NextChapter(manga.Chapter)
	if err != nil {
		return mangaOutcome{failure: &model.ScrapeFailure{Name: manga.Name, Error: err.Error()}}
	}

	if len(manga.Sites) == 0 {
		log.Warn().Str("manga", manga.Name).Msg("Manga has no sites, skipping")
		return mangaOutcome{}
	}

	var (
		best     int
		bestSite model.Site
		errs     []string
	)

	for _, site := range manga.Sites {
		latest, err := e.probeSite(ctx, site, start)
		if err != nil {
			log.Warn().Err(err).Str("manga", manga.Name).Str("site", site.Name).Msg("Site probe failed")
			errs = append(errs, fmt.Sprintf("%s: %v", site.Name, err))
			continue
		}
		if latest > best {
			best = latest
			bestSite = site
		}
	}

	if best > 0 {
		log.Debug().Str("manga", manga.Name).Str("site", bestSite.Name).Int("chapter", best).Msg("New chapter found")
		return mangaOutcome{success: &model.ScrapeSuccess{
			Manga:       manga,
			LastChapter: strconv.Itoa(best),
			Site:        bestSite,
		}}
	}

	if len(errs) == len(manga.Sites) {
		return mangaOutcome{failure: &model.ScrapeFailure{Name: manga.Name, Error: strings.Join(errs, "; ")}}
	}

	return mangaOutcome{}
}

// probeSite returns the highest consecutive chapter published from start on,
// or 0 when start itself is not out yet. An error after at least one hit is
// logged and the hits found so far are kept.
func (e *Engine) probeSite(ctx context.Context, site model.Site, start int) (int, error) {
	latest := 0

	for n := start; n < start+e.config.MaxProbe; n++ {
		exists, err := e.chapterExists(ctx, site, strconv.Itoa(n))
		if err != nil {
			if latest > 0 {
				log.Warn().Err(err).Str("site", site.Name).Int("chapter", n).Msg("Probe stopped early")
				return latest, nil
			}
			return 0, err
		}
		if !exists {
			break
		}
		latest = n
	}

	return latest, nil
}

func (e *Engine) chapterExists(ctx context.Context, site model.Site, chapter string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	link := site.ChapterLink(chapter)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request for %s: %w", link, err)
	}
	if e.config.UserAgent != "" {
		req.Header.Set("User-Agent", e.config.UserAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, link)
	}

	if site.Selector == "" {
		return true, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", link, err)
	}

	return doc.Find(site.Selector).Length() > 0, nil
}
