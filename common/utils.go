// Package common provides helpers shared by the bot, the scheduler and the CLI.
package common

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GenerateRunID generates an identifier for one pipeline run.
// The identifier is a "YYYYMMDDHHMMSS" timestamp followed by a short random suffix,
// so that two runs started within the same second stay distinguishable in the logs.
func GenerateRunID() string {
	currentTime := time.Now()
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]

	return currentTime.Format("20060102150405") + "-" + suffix
}

// HostName returns the host of a site URL without a leading "www.".
func HostName(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid site url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid site url %q: expected scheme and host", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www."), nil
}

// DeriveSiteName returns the name a site is stored under: the first label of its host.
// "https://www.mangasite.io/manga" becomes "mangasite".
func DeriveSiteName(rawURL string) (string, error) {
	host, err := HostName(rawURL)
	if err != nil {
		return "", err
	}
	return strings.SplitN(host, ".", 2)[0], nil
}

// ChapterNumber parses a chapter string such as "10" or "10.5".
func ChapterNumber(chapter string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(chapter), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chapter %q: %w", chapter, err)
	}
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("invalid chapter %q: out of range", chapter)
	}
	return n, nil
}

// NextChapter returns the first whole chapter after the given one.
// NextChapter("10") and NextChapter("10.5") both return 11.
func NextChapter(chapter string) (int, error) {
	n, err := ChapterNumber(chapter)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(n)) + 1, nil
}

// ChapterProgress is the whole-chapter progress reported to list trackers.
func ChapterProgress(chapter string) (int, error) {
	n, err := ChapterNumber(chapter)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(n)), nil
}

// DownloadURLFile downloads a file from a URL and saves it to a temporary location.
// Returns the path to the downloaded file and any error encountered.
func DownloadURLFile(fileURL string) (string, error) {
	log.Info().Str("url", fileURL).Msg("Downloading URL file")

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequest(http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 Manga-Notifier/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	ext := filepath.Ext(resp.Request.URL.Path)
	if ext == "" {
		ext = ".yaml"
	}
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("seed_%s%s", GenerateRunID(), ext))

	out, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err = io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write to file: %w", err)
	}

	log.Info().Str("file", filename).Msg("URL file downloaded successfully")
	return filename, nil
}
