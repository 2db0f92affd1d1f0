package state

import (
	"context"
	"errors"

	"github.com/researchaccelerator-hub/manga-notifier/model"
)

var (
	// ErrNotFound is returned when a looked-up site or manga does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when creating a record whose name is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// Store defines the record store holding tracked mangas and their sites,
// regardless of the underlying storage implementation
type Store interface {
	// ListMangas returns every tracked manga with its sites attached.
	ListMangas(ctx context.Context) ([]model.TrackedManga, error)
	ListSites(ctx context.Context) ([]model.Site, error)

	// Lookups by unique name
	FindSiteByName(ctx context.Context, name string) (model.Site, error)
	FindMangaByName(ctx context.Context, name string) (model.TrackedManga, error)

	// Creation. Sites listed on the manga are linked in the same call.
	CreateSite(ctx context.Context, site model.Site) (model.Site, error)
	CreateManga(ctx context.Context, manga model.TrackedManga) (model.TrackedManga, error)
	AddSiteToManga(ctx context.Context, mangaID, siteID int64) error

	// UpdateMangaChapter is the only mutation the update pipeline performs.
	UpdateMangaChapter(ctx context.Context, mangaID int64, chapter string) error

	// Cleanup
	Close() error
}

// StoreFactory creates the appropriate store implementation
type StoreFactory interface {
	// Create returns a store implementation based on the given configuration
	Create(config Config) (Store, error)
}

// Config contains the configuration for all store implementations
type Config struct {
	// Path of the database file. An empty path opens an in-memory database.
	Path string
}
