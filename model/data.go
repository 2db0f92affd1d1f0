// Package model holds the types shared by the scrape, notification and backup paths.
package model

import "time"

// Site is a source publishing chapters. A chapter is read at URL + ChapterURL + <chapter>.
type Site struct {
	ID         int64  `json:"id" db:"id" yaml:"-"`
	Name       string `json:"name" db:"name" yaml:"name"`
	URL        string `json:"url" db:"url" yaml:"url"`
	ChapterURL string `json:"chapter_url" db:"chapter_url" yaml:"chapter_url"`
	// Selector is an optional CSS selector that has to match on a chapter
	// page for the chapter to count as published.
	Selector string `json:"selector,omitempty" db:"selector" yaml:"selector,omitempty"`
}

// ChapterLink returns the read-at URL for the given chapter on this site.
func (s Site) ChapterLink(chapter string) string {
	return s.URL + s.ChapterURL + chapter
}

// TrackedManga is a publication whose chapter progress is monitored.
// Chapter is kept as a string since releases like "10.5" exist.
type TrackedManga struct {
	ID        int64  `json:"id" db:"id"`
	AnilistID int    `json:"anilist_id" db:"anilist_id"`
	Name      string `json:"name" db:"name"`
	Chapter   string `json:"chapter" db:"chapter"`
	Sites     []Site `json:"sites" db:"-"`
}

// ScrapeSuccess is a manga for which a newer chapter was found.
// Manga.Chapter still holds the previous chapter.
type ScrapeSuccess struct {
	Manga       TrackedManga `json:"manga"`
	LastChapter string       `json:"last_chapter"`
	Site        Site         `json:"site"`
}

// ReadLink is the link announced for this update. It points at the previous
// chapter, the one a reader opens to continue.
func (s ScrapeSuccess) ReadLink() string {
	return s.Site.ChapterLink(s.Manga.Chapter)
}

// ScrapeFailure describes a manga that could not be scraped.
type ScrapeFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ScrapeResult is the combined output of one scrape pass.
type ScrapeResult struct {
	Successes []ScrapeSuccess `json:"successes"`
	Failures  []ScrapeFailure `json:"failures"`
}

// Channel is a resolved chat channel handle.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChannelRoleSet holds the three channels resolved at startup. A nil handle
// means the channel could not be resolved and its features are disabled.
type ChannelRoleSet struct {
	Update *Channel
	Error  *Channel
	Backup *Channel
}

// Embed is a structured chat message.
type Embed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatMessage is a message read back from a channel.
type ChatMessage struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channel_id"`
	Content   string  `json:"content"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// BackupRecord is one archived bulk deletion.
type BackupRecord struct {
	Sequence  int       `json:"sequence"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChapterEvent is published for every committed chapter update.
type ChapterEvent struct {
	RunID       string    `json:"run_id"`
	MangaID     int64     `json:"manga_id"`
	AnilistID   int       `json:"anilist_id,omitempty"`
	Name        string    `json:"name"`
	OldChapter  string    `json:"old_chapter"`
	NewChapter  string    `json:"new_chapter"`
	Site        string    `json:"site"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}
