package scheduler

import (
	"context"

	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/researchaccelerator-hub/manga-notifier/pipeline"
	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, channels model.ChannelRoleSet) (*pipeline.RunReport, error) {
	args := m.Called(ctx, channels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.RunReport), args.Error(1)
}

// MockSyncer is a mock implementation of RepoSyncer.
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) Sync(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
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
