// Package distributed publishes chapter-update events for other services
package distributed

import (
	"time"

	"github.com/researchaccelerator-hub/manga-notifier/model"
)

// Message Types
const (
	MessageTypeChapterUpdate = "chapter_update"
)

// DefaultSubject is the NATS subject chapter updates are published on
const DefaultSubject = "manga.chapters"

// ChapterMessage is the envelope published for every committed chapter update
type ChapterMessage struct {
	MessageType string             `json:"message_type"`
	Event       model.ChapterEvent `json:"event"`
	Timestamp   time.Time          `json:"timestamp"`
}

// NewChapterEvent builds the event for one scrape success of a run
func NewChapterEvent(runID string, s model.ScrapeSuccess, publishedAt time.Time) model.ChapterEvent {
	return model.ChapterEvent{
		RunID:       runID,
		MangaID:     s.Manga.ID,
		AnilistID:   s.Manga.AnilistID,
		Name:        s.Manga.Name,
		OldChapter:  s.Manga.Chapter,
		NewChapter:  s.LastChapter,
		Site:        s.Site.Name,
		Link:        s.ReadLink(),
		PublishedAt: publishedAt,
	}
}

// NewChapterMessage wraps an event into its envelope
func NewChapterMessage(event model.ChapterEvent) ChapterMessage {
	return ChapterMessage{
		MessageType: MessageTypeChapterUpdate,
		Event:       event,
		Timestamp:   time.Now(),
	}
}
