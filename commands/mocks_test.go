package commands

import (
	"context"

	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of state.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListMangas(ctx context.Context) ([]model.TrackedManga, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TrackedManga), args.Error(1)
}

func (m *MockStore) ListSites(ctx context.Context) ([]model.Site, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Site), args.Error(1)
}

func (m *MockStore) FindSiteByName(ctx context.Context, name string) (model.Site, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Site), args.Error(1)
}

func (m *MockStore) FindMangaByName(ctx context.Context, name string) (model.TrackedManga, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.TrackedManga), args.Error(1)
}

func (m *MockStore) CreateSite(ctx context.Context, site model.Site) (model.Site, error) {
	args := m.Called(ctx, site)
	return args.Get(0).(model.Site), args.Error(1)
}

func (m *MockStore) CreateManga(ctx context.Context, manga model.TrackedManga) (model.TrackedManga, error) {
	args := m.Called(ctx, manga)
	return args.Get(0).(model.TrackedManga), args.Error(1)
}

func (m *MockStore) AddSiteToManga(ctx context.Context, mangaID, siteID int64) error {
	args := m.Called(ctx, mangaID, siteID)
	return args.Error(0)
}

func (m *MockStore) UpdateMangaChapter(ctx context.Context, mangaID int64, chapter string) error {
	args := m.Called(ctx, mangaID, chapter)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

