package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
)

// cachedMessage is what a bulk deletion needs to know about a message.
type cachedMessage struct {
	ChannelID string
	Content   string
}

// MessageCache remembers the most recent messages so their contents survive
// a deletion event, which only carries IDs.
type MessageCache struct {
	entries *lru.Cache[string, cachedMessage]
}

// NewMessageCache creates a cache holding at most size messages.
func NewMessageCache(size int) (*MessageCache, error) {
	entries, err := lru.New[string, cachedMessage](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create message cache: %w", err)
	}
	return &MessageCache{entries: entries}, nil
}

// Put stores or refreshes a message. Messages without text are ignored.
func (c *MessageCache) Put(m *discordgo.Message) {
	if m == nil || m.ID == "" || m.Content == "" {
		return
	}
	c.entries.Add(m.ID, cachedMessage{ChannelID: m.ChannelID, Content: m.Content})
}

// Remove forgets a message.
func (c *MessageCache) Remove(id string) {
	c.entries.Remove(id)
}

// Take removes the given messages and returns their contents in the order of
// ids. Unknown IDs are skipped.
func (c *MessageCache) Take(ids []string) []string {
	contents := make([]string, 0, len(ids))
	for _, id := range ids {
		m, ok := c.entries.Peek(id)
		if !ok {
			continue
		}
		c.entries.Remove(id)
		contents = append(contents, m.Content)
	}
	return contents
}

// Len returns the number of cached messages.
func (c *MessageCache) Len() int {
	return c.entries.Len()
}
