package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/researchaccelerator-hub/manga-notifier/common"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const anilistUserAgent = "Manga-Notifier/1.0"

// AnilistConfig contains the settings of the AniList client.
type AnilistConfig struct {
	Endpoint string
	Token    string
	// RatePerMinute is the number of requests allowed per minute.
	RatePerMinute int
	Timeout       time.Duration
}

// AnilistClient pushes reading progress to AniList through its GraphQL API.
type AnilistClient struct {
	httpClient  *http.Client
	endpoint    string
	token       string
	rateLimiter *rate.Limiter
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// progressEntry is one aliased mutation of the batched request.
type progressEntry struct {
	mediaID  int
	progress int
}

// NewAnilistClient creates a new AniList client.
func NewAnilistClient(config AnilistConfig) *AnilistClient {
	perMinute := config.RatePerMinute
	if perMinute < 1 {
		perMinute = 1
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &AnilistClient{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    config.Endpoint,
		token:       config.Token,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Update sends one batched request updating the progress of every success
// that carries an AniList id. Progress is the whole part of the new chapter.
func (c *AnilistClient) Update(ctx context.Context, successes []model.ScrapeSuccess) error {
	entries := buildProgressEntries(successes)
	if len(entries) == 0 {
		log.Debug().Msg("No AniList entries to update")
		return nil
	}

	resp, err := c.doGraphQL(ctx, buildProgressMutation(entries))
	if err != nil {
		return err
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("anilist api error: %s", strings.Join(msgs, "; "))
	}

	log.Info().Int("entry_count", len(entries)).Msg("AniList progress updated")
	return nil
}

func buildProgressEntries(successes []model.ScrapeSuccess) []progressEntry {
	entries := make([]progressEntry, 0, len(successes))
	seen := make(map[int]int, len(successes))

	for _, s := range successes {
		if s.Manga.AnilistID <= 0 {
			log.Debug().Str("manga", s.Manga.Name).Msg("Manga has no AniList id, skipping list sync")
			continue
		}
		progress, err := common.ChapterProgress(s.LastChapter)
		if err != nil {
			log.Warn().Err(err).Str("manga", s.Manga.Name).Msg("Cannot compute AniList progress")
			continue
		}

		if i, ok := seen[s.Manga.AnilistID]; ok {
			if progress > entries[i].progress {
				entries[i].progress = progress
			}
			continue
		}
		seen[s.Manga.AnilistID] = len(entries)
		entries = append(entries, progressEntry{mediaID: s.Manga.AnilistID, progress: progress})
	}

	return entries
}

func buildProgressMutation(entries []progressEntry) string {
	var b strings.Builder
	b.WriteString("mutation {\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "  m%d: SaveMediaListEntry(mediaId: %d, progress: %d) { id progress }\n", i, e.mediaID, e.progress)
	}
	b.WriteString("}")
	return b.String()
}

// doGraphQL performs one rate-limited GraphQL request.
func (c *AnilistClient) doGraphQL(ctx context.Context, query string) (*graphQLResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	body, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", anilistUserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var out graphQLResponse
	decodeErr := json.Unmarshal(b, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && len(out.Errors) > 0 {
			return nil, fmt.Errorf("anilist api error (%d): %s", resp.StatusCode, out.Errors[0].Message)
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w (body: %s)", decodeErr, string(b))
	}

	return &out, nil
}

// NoopListSync is used when no AniList token is configured.
type NoopListSync struct{}

func (NoopListSync) Update(ctx context.Context, successes []model.ScrapeSuccess) error {
	log.Debug().Int("success_count", len(successes)).Msg("List sync disabled, skipping")
	return nil
}
