// Package commands validates and applies the create commands against the record store.
package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/researchaccelerator-hub/manga-notifier/common"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/researchaccelerator-hub/manga-notifier/state"
	"github.com/rs/zerolog/log"
)

// Replies for rejected commands.
const (
	ReplySiteExists   = "Site already exists"
	ReplyMangaExists  = "Manga already exists"
	ReplySiteMissing  = "Site does not exist"
	ReplyMangaMissing = "Manga does not exist"
)

const maxSuggestions = 3

// CreateSiteRequest holds the options of "create site".
type CreateSiteRequest struct {
	URL         string
	ChapterPath string
	Selector    string
}

// CreateMangaRequest holds the options of "create manga".
type CreateMangaRequest struct {
	AnilistID int
	Chapter   string
	Name      string
	Site      string
}

// Service applies create commands. Every method returns the text to reply
// with; an error is only returned when the store itself fails.
type Service struct {
	store state.Store
}

// NewService creates a command service on top of a record store.
func NewService(store state.Store) *Service {
	return &Service{store: store}
}

// CreateSite registers a site under the first label of its host.
func (s *Service) CreateSite(ctx context.Context, req CreateSiteRequest) (string, error) {
	host, err := common.HostName(req.URL)
	if err != nil {
		return s.reject("create site", err.Error()), nil
	}
	name, _ := common.DeriveSiteName(req.URL)

	_, err = s.store.FindSiteByName(ctx, name)
	switch {
	case err == nil:
		return s.reject("create site", ReplySiteExists), nil
	case !errors.Is(err, state.ErrNotFound):
		return "", err
	}

	site := model.Site{
		Name:       name,
		URL:        strings.TrimRight(strings.TrimSpace(req.URL), "/"),
		ChapterURL: req.ChapterPath,
		Selector:   strings.TrimSpace(req.Selector),
	}
	if _, err := s.store.CreateSite(ctx, site); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return s.reject("create site", ReplySiteExists), nil
		}
		return "", err
	}

	log.Info().Str("site", name).Str("url", site.URL).Msg("Site created")
	return fmt.Sprintf("Added %s to the list.", host), nil
}

// CreateManga tracks a new manga on an existing site.
func (s *Service) CreateManga(ctx context.Context, req CreateMangaRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return s.reject("create manga", "Manga name is required"), nil
	}
	if _, err := common.ChapterNumber(req.Chapter); err != nil {
		return s.reject("create manga", fmt.Sprintf("Invalid chapter %q", req.Chapter)), nil
	}

	_, err := s.store.FindMangaByName(ctx, name)
	switch {
	case err == nil:
		return s.reject("create manga", ReplyMangaExists), nil
	case !errors.Is(err, state.ErrNotFound):
		return "", err
	}

	site, reply, err := s.findSite(ctx, req.Site)
	if err != nil || reply != "" {
		return reply, err
	}

	manga := model.TrackedManga{
		AnilistID: req.AnilistID,
		Name:      name,
		Chapter:   strings.TrimSpace(req.Chapter),
		Sites:     []model.Site{site},
	}
	if _, err := s.store.CreateManga(ctx, manga); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return s.reject("create manga", ReplyMangaExists), nil
		}
		return "", err
	}

	log.Info().Str("manga", name).Str("site", site.Name).Str("chapter", manga.Chapter).Msg("Manga created")
	return fmt.Sprintf("Added %s to the list.", name), nil
}

// SiteToManga links an existing site to an existing manga.
func (s *Service) SiteToManga(ctx context.Context, mangaName, siteName string) (string, error) {
	manga, err := s.store.FindMangaByName(ctx, mangaName)
	if errors.Is(err, state.ErrNotFound) {
		names, listErr := s.mangaNames(ctx)
		if listErr != nil {
			return "", listErr
		}
		return s.reject("site_to_manga", withSuggestions(ReplyMangaMissing, mangaName, names)), nil
	}
	if err != nil {
		return "", err
	}

	site, reply, err := s.findSite(ctx, siteName)
	if err != nil || reply != "" {
		return reply, err
	}

	if err := s.store.AddSiteToManga(ctx, manga.ID, site.ID); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return s.reject("site_to_manga", fmt.Sprintf("%s is already linked to %s.", site.Name, manga.Name)), nil
		}
		return "", err
	}

	log.Info().Str("manga", manga.Name).Str("site", site.Name).Msg("Site linked to manga")
	return fmt.Sprintf("Added %s to %s.", siteName, mangaName), nil
}

// findSite resolves a site by name, or by URL when one is given. A non-empty
// reply means the site does not exist.
func (s *Service) findSite(ctx context.Context, input string) (model.Site, string, error) {
	name := strings.TrimSpace(input)
	if derived, err := common.DeriveSiteName(name); err == nil {
		name = derived
	}

	site, err := s.store.FindSiteByName(ctx, name)
	if err == nil {
		return site, "", nil
	}
	if !errors.Is(err, state.ErrNotFound) {
		return model.Site{}, "", err
	}

	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return model.Site{}, "", err
	}
	names := make([]string, len(sites))
	for i, site := range sites {
		names[i] = site.Name
	}

	return model.Site{}, s.reject("lookup site", withSuggestions(ReplySiteMissing, name, names)), nil
}

func (s *Service) mangaNames(ctx context.Context) ([]string, error) {
	mangas, err := s.store.ListMangas(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(mangas))
	for i, m := range mangas {
		names[i] = m.Name
	}
	return names, nil
}

func (s *Service) reject(command, reply string) string {
	log.Debug().Str("command", command).Str("reply", reply).Msg("Command rejected")
	return reply
}

// withSuggestions appends the closest known names to a reply.
func withSuggestions(reply, input string, names []string) string {
	suggestions := Suggest(input, names)
	if len(suggestions) == 0 {
		return reply
	}
	return fmt.Sprintf("%s (did you mean %s?)", reply, strings.Join(suggestions, ", "))
}

// Suggest returns up to three names close to input: names containing its
// characters in order, then names within two edits.
func Suggest(input string, names []string) []string {
	input = strings.TrimSpace(input)
	if input == "" || len(names) == 0 {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(input, names)
	sort.Sort(ranks)

	seen := make(map[string]struct{}, maxSuggestions)
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok || len(out) >= maxSuggestions {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, r := range ranks {
		add(r.Target)
	}

	lower := strings.ToLower(input)
	for _, name := range names {
		if fuzzy.LevenshteinDistance(lower, strings.ToLower(name)) <= 2 {
			add(name)
		}
	}

	return out
}
