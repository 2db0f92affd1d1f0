package pipeline

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

// MockScraper is a mock implementation of crawl.Scraper.
type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Scrape(ctx context.Context, mangas []model.TrackedManga) model.ScrapeResult {
	args := m.Called(ctx, mangas)
	return args.Get(0).(model.ScrapeResult)
}

// MockMessenger is a mock implementation of client.Messenger.
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) ResolveChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockMessenger) Send(ctx context.Context, channelID, content string) error {
	args := m.Called(ctx, channelID, content)
	return args.Error(0)
}

func (m *MockMessenger) SendUpdate(ctx context.Context, channelID, content string) error {
	args := m.Called(ctx, channelID, content)
	return args.Error(0)
}

func (m *MockMessenger) SendEmbed(ctx context.Context, channelID string, embed model.Embed) error {
	args := m.Called(ctx, channelID, embed)
	return args.Error(0)
}

func (m *MockMessenger) LastMessage(ctx context.Context, channelID string) (*model.ChatMessage, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *MockMessenger) PurgeRecent(ctx context.Context, channelID string, limit int) (int, error) {
	args := m.Called(ctx, channelID, limit)
	return args.Int(0), args.Error(1)
}

// sentTo returns the contents posted to a channel, in call order.
func (m *MockMessenger) sentTo(channelID string) []string {
	var out []string
	for _, call := range m.Calls {
		if call.Method != "Send" && call.Method != "SendUpdate" {
			continue
		}
		if call.Arguments.String(1) == channelID {
			out = append(out, call.Arguments.String(2))
		}
	}
	return out
}

// MockListSync is a mock implementation of client.ListSync.
type MockListSync struct {
	mock.Mock
}

func (m *MockListSync) Update(ctx context.Context, successes []model.ScrapeSuccess) error {
	args := m.Called(ctx, successes)
	return args.Error(0)
}

// MockPublisher is a mock implementation of distributed.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishChapterEvents(ctx context.Context, events []model.ChapterEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
