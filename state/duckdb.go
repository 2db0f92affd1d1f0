package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/marcboeker/go-duckdb/v2"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS sites_id_seq START 1;
CREATE TABLE IF NOT EXISTS sites (
	id          BIGINT PRIMARY KEY DEFAULT nextval('sites_id_seq'),
	name        VARCHAR NOT NULL UNIQUE,
	url         VARCHAR NOT NULL,
	chapter_url VARCHAR NOT NULL DEFAULT '',
	selector    VARCHAR NOT NULL DEFAULT ''
);
CREATE SEQUENCE IF NOT EXISTS mangas_id_seq START 1;
CREATE TABLE IF NOT EXISTS mangas (
	id         BIGINT PRIMARY KEY DEFAULT nextval('mangas_id_seq'),
	anilist_id INTEGER NOT NULL DEFAULT 0,
	name       VARCHAR NOT NULL UNIQUE,
	chapter    VARCHAR NOT NULL
);
CREATE TABLE IF NOT EXISTS manga_sites (
	manga_id BIGINT NOT NULL,
	site_id  BIGINT NOT NULL,
	PRIMARY KEY (manga_id, site_id)
);
`

// DuckDBStore implements Store on an embedded DuckDB database file.
type DuckDBStore struct {
	db   *sqlx.DB
	path string
}

// siteLink is one row of the manga/site join.
type siteLink struct {
	MangaID int64 `db:"manga_id"`
	model.Site
}

// NewDuckDBStore opens (or creates) the database at config.Path and makes
// sure the schema exists.
func NewDuckDBStore(config Config) (*DuckDBStore, error) {
	db, err := sqlx.Open("duckdb", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", config.Path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info().Str("path", config.Path).Msg("Record store opened")
	return &DuckDBStore{db: db, path: config.Path}, nil
}

func (s *DuckDBStore) ListMangas(ctx context.Context) ([]model.TrackedManga, error) {
	var mangas []model.TrackedManga
	if err := s.db.SelectContext(ctx, &mangas, `
		SELECT id, anilist_id, name, chapter
		FROM mangas
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("list mangas: %w", err)
	}

	var links []siteLink
	if err := s.db.SelectContext(ctx, &links, `
		SELECT ms.manga_id, s.id, s.name, s.url, s.chapter_url, s.selector
		FROM manga_sites ms
		JOIN sites s ON s.id = ms.site_id
		ORDER BY ms.manga_id, s.id
	`); err != nil {
		return nil, fmt.Errorf("list manga sites: %w", err)
	}

	byManga := make(map[int64][]model.Site, len(mangas))
	for _, l := range links {
		byManga[l.MangaID] = append(byManga[l.MangaID], l.Site)
	}
	for i := range mangas {
		mangas[i].Sites = byManga[mangas[i].ID]
	}

	return mangas, nil
}

func (s *DuckDBStore) ListSites(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	if err := s.db.SelectContext(ctx, &sites, `
		SELECT id, name, url, chapter_url, selector
		FROM sites
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

func (s *DuckDBStore) FindSiteByName(ctx context.Context, name string) (model.Site, error) {
	var site model.Site
	err := s.db.GetContext(ctx, &site, `
		SELECT id, name, url, chapter_url, selector
		FROM sites
		WHERE name = ?
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Site{}, fmt.Errorf("site %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return model.Site{}, fmt.Errorf("find site %q: %w", name, err)
	}
	return site, nil
}

func (s *DuckDBStore) FindMangaByName(ctx context.Context, name string) (model.TrackedManga, error) {
	var manga model.TrackedManga
	err := s.db.GetContext(ctx, &manga, `
		SELECT id, anilist_id, name, chapter
		FROM mangas
		WHERE name = ?
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TrackedManga{}, fmt.Errorf("manga %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return model.TrackedManga{}, fmt.Errorf("find manga %q: %w", name, err)
	}

	if err := s.db.SelectContext(ctx, &manga.Sites, `
		SELECT s.id, s.name, s.url, s.chapter_url, s.selector
		FROM manga_sites ms
		JOIN sites s ON s.id = ms.site_id
		WHERE ms.manga_id = ?
		ORDER BY s.id
	`, manga.ID); err != nil {
		return model.TrackedManga{}, fmt.Errorf("find sites of manga %q: %w", name, err)
	}
	return manga, nil
}

func (s *DuckDBStore) CreateSite(ctx context.Context, site model.Site) (model.Site, error) {
	if _, err := s.FindSiteByName(ctx, site.Name); err == nil {
		return model.Site{}, fmt.Errorf("site %q: %w", site.Name, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return model.Site{}, err
	}

	err := s.db.GetContext(ctx, &site.ID, `
		INSERT INTO sites (name, url, chapter_url, selector)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, site.Name, site.URL, site.ChapterURL, site.Selector)
	if isConstraintError(err) {
		return model.Site{}, fmt.Errorf("site %q: %w", site.Name, ErrAlreadyExists)
	}
	if err != nil {
		return model.Site{}, fmt.Errorf("create site %q: %w", site.Name, err)
	}

	log.Debug().Int64("site_id", site.ID).Str("name", site.Name).Msg("Site created")
	return site, nil
}

func (s *DuckDBStore) CreateManga(ctx context.Context, manga model.TrackedManga) (model.TrackedManga, error) {
	if _, err := s.FindMangaByName(ctx, manga.Name); err == nil {
		return model.TrackedManga{}, fmt.Errorf("manga %q: %w", manga.Name, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return model.TrackedManga{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.TrackedManga{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, &manga.ID, `
		INSERT INTO mangas (anilist_id, name, chapter)
		VALUES (?, ?, ?)
		RETURNING id
	`, manga.AnilistID, manga.Name, manga.Chapter)
	if isConstraintError(err) {
		return model.TrackedManga{}, fmt.Errorf("manga %q: %w", manga.Name, ErrAlreadyExists)
	}
	if err != nil {
		return model.TrackedManga{}, fmt.Errorf("create manga %q: %w", manga.Name, err)
	}

	for _, site := range manga.Sites {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manga_sites (manga_id, site_id) VALUES (?, ?)
		`, manga.ID, site.ID); err != nil {
			return model.TrackedManga{}, fmt.Errorf("link site %q to manga %q: %w", site.Name, manga.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.TrackedManga{}, fmt.Errorf("commit manga %q: %w", manga.Name, err)
	}

	log.Debug().Int64("manga_id", manga.ID).Str("name", manga.Name).Int("site_count", len(manga.Sites)).Msg("Manga created")
	return manga, nil
}

func (s *DuckDBStore) AddSiteToManga(ctx context.Context, mangaID, siteID int64) error {
	var found int
	if err := s.db.GetContext(ctx, &found, `
		SELECT (SELECT COUNT(*) FROM mangas WHERE id = ?) + (SELECT COUNT(*) FROM sites WHERE id = ?)
	`, mangaID, siteID); err != nil {
		return fmt.Errorf("check manga %d and site %d: %w", mangaID, siteID, err)
	}
	if found < 2 {
		return fmt.Errorf("manga %d or site %d: %w", mangaID, siteID, ErrNotFound)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manga_sites (manga_id, site_id) VALUES (?, ?)
	`, mangaID, siteID)
	if isConstraintError(err) {
		return fmt.Errorf("site %d on manga %d: %w", siteID, mangaID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("add site %d to manga %d: %w", siteID, mangaID, err)
	}
	return nil
}

func (s *DuckDBStore) UpdateMangaChapter(ctx context.Context, mangaID int64, chapter string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE mangas SET chapter = ? WHERE id = ?`, chapter, mangaID)
	if err != nil {
		return fmt.Errorf("update chapter of manga %d: %w", mangaID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chapter of manga %d: %w", mangaID, err)
	}
	if n == 0 {
		return fmt.Errorf("manga %d: %w", mangaID, ErrNotFound)
	}
	return nil
}

func (s *DuckDBStore) Close() error {
	log.Debug().Str("path", s.path).Msg("Closing record store")
	return s.db.Close()
}

func isConstraintError(err error) bool {
	var duckErr *duckdb.Error
	return errors.As(err, &duckErr) && duckErr.Type == duckdb.ErrorTypeConstraint
}
