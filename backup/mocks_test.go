package backup

import (
	"context"

	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/stretchr/testify/mock"
)

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

// MockCounter is a mock implementation of Counter that invokes the seed
// when configured to simulate an absent key.
type MockCounter struct {
	mock.Mock
	seedOnCall bool
}

func (m *MockCounter) Increment(ctx context.Context, seed func(ctx context.Context) (int, error)) (int, error) {
	args := m.Called(ctx)
	if m.seedOnCall {
		start, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		return start + 1, nil
	}
	return args.Int(0), args.Error(1)
}
