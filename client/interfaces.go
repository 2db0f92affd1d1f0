package client

import (
	"context"

	"github.com/researchaccelerator-hub/manga-notifier/model"
)

// Messenger represents the chat platform the bot talks to
type Messenger interface {
	// ResolveChannel fetches a channel handle by id
	ResolveChannel(ctx context.Context, channelID string) (*model.Channel, error)

	// Send posts a plain text message
	Send(ctx context.Context, channelID, content string) error

	// SendUpdate posts a text message with link previews suppressed
	SendUpdate(ctx context.Context, channelID, content string) error

	// SendEmbed posts a structured message
	SendEmbed(ctx context.Context, channelID string, embed model.Embed) error

	// LastMessage returns the most recent message of a channel, or nil when it is empty
	LastMessage(ctx context.Context, channelID string) (*model.ChatMessage, error)

	// PurgeRecent deletes up to limit recent messages and returns how many were deleted
	PurgeRecent(ctx context.Context, channelID string, limit int) (int, error)
}

// ListSync forwards chapter progress to an external reading-list service
type ListSync interface {
	// Update pushes the new chapters of all successes in one call
	Update(ctx context.Context, successes []model.ScrapeSuccess) error
}
