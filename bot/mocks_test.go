package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
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

// MockResponder is a mock implementation of interactionResponder.
type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	args := m.Called(interaction, resp)
	return args.Error(0)
}

func (m *MockResponder) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, newresp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

// MockRegistrar is a mock implementation of commandRegistrar.
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, commands)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discordgo.ApplicationCommand), args.Error(1)
}
