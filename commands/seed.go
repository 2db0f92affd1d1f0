package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/researchaccelerator-hub/manga-notifier/common"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/researchaccelerator-hub/manga-notifier/state"
	"github.com/rs/zerolog/log"
)

// SeedReport counts what a seed pass created and skipped.
type SeedReport struct {
	SitesCreated  int
	SitesSkipped  int
	MangasCreated int
	MangasSkipped int
}

// Seed loads a seed document into the store. Existing sites and mangas are
// left untouched; unknown site references are skipped with a warning.
func (s *Service) Seed(ctx context.Context, seed *common.SeedFile) (SeedReport, error) {
	var report SeedReport

	for _, site := range seed.Sites {
		_, err := s.store.CreateSite(ctx, site)
		if errors.Is(err, state.ErrAlreadyExists) {
			log.Debug().Str("site", site.Name).Msg("Site already seeded")
			report.SitesSkipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to seed site %s: %w", site.Name, err)
		}
		report.SitesCreated++
	}

	for _, m := range seed.Mangas {
		manga := model.TrackedManga{
			AnilistID: m.AnilistID,
			Name:      m.Name,
			Chapter:   m.Chapter,
		}

		for _, siteName := range m.Sites {
			site, err := s.store.FindSiteByName(ctx, siteName)
			if errors.Is(err, state.ErrNotFound) {
				log.Warn().Str("manga", m.Name).Str("site", siteName).Msg("Seeded manga references an unknown site")
				continue
			}
			if err != nil {
				return report, fmt.Errorf("failed to resolve site %s: %w", siteName, err)
			}
			manga.Sites = append(manga.Sites, site)
		}

		_, err := s.store.CreateManga(ctx, manga)
		if errors.Is(err, state.ErrAlreadyExists) {
			log.Debug().Str("manga", m.Name).Msg("Manga already seeded")
			report.MangasSkipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to seed manga %s: %w", m.Name, err)
		}
		report.MangasCreated++
	}

	log.Info().
		Int("sites_created", report.SitesCreated).
		Int("sites_skipped", report.SitesSkipped).
		Int("mangas_created", report.MangasCreated).
		Int("mangas_skipped", report.MangasSkipped).
		Msg("Seed applied")
	return report, nil
}
