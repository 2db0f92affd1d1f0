package common

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
sites:
  - url: https://www.mangasite.io
    chapter_url: /read/
  - name: custom
    url: https://other.example
    chapter_url: /chapter-
    selector: img.page
mangas:
  - name: Some Manga
    anilist_id: 1234
    chapter: "10.5"
    sites: [mangasite, custom]
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, sampleSeed))
	require.NoError(t, err)

	require.Len(t, seed.Sites, 2)
	assert.Equal(t, "mangasite", seed.Sites[0].Name, "name should be derived from the url")
	assert.Equal(t, "/read/", seed.Sites[0].ChapterURL)
	assert.Equal(t, "custom", seed.Sites[1].Name, "explicit name should be kept")
	assert.Equal(t, "img.page", seed.Sites[1].Selector)

	require.Len(t, seed.Mangas, 1)
	assert.Equal(t, "Some Manga", seed.Mangas[0].Name)
	assert.Equal(t, 1234, seed.Mangas[0].AnilistID)
	assert.Equal(t, "10.5", seed.Mangas[0].Chapter)
	assert.Equal(t, []string{"mangasite", "custom"}, seed.Mangas[0].Sites)
}

func TestLoadSeedFileRejectsInvalidChapter(t *testing.T) {
	_, err := LoadSeedFile(writeSeed(t, "mangas:\n  - name: Broken\n    chapter: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
}

func TestLoadSeedFileRejectsMissingName(t *testing.T) {
	_, err := LoadSeedFile(writeSeed(t, "mangas:\n  - chapter: \"1\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name")
}

func TestLoadSeedFileMissingFile(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read seed file")
}

func TestLoadSeedFileFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleSeed)
	}))
	defer server.Close()

	seed, err := LoadSeedFile(server.URL + "/seed.yaml")
	require.NoError(t, err)
	assert.Len(t, seed.Sites, 2)
	assert.Len(t, seed.Mangas, 1)
}
