package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/researchaccelerator-hub/manga-notifier/config"
	"github.com/researchaccelerator-hub/manga-notifier/state"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = `sites:
  - url: https://www.mangasite.io
    chapter_url: /read/
mangas:
  - name: One Piece
    anilist_id: 30013
    chapter: "1100"
    sites: [mangasite]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "run", "seed"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mangas.db")
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(testSeed), 0o644))
	t.Setenv("MANGABOT_STORE_PATH", dbPath)

	out, err := execute(t, "seed", seedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 1 sites (0 skipped) and 1 mangas (0 skipped)")

	out, err = execute(t, "seed", seedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 sites (1 skipped) and 0 mangas (1 skipped)")

	store, err := (&state.DefaultStoreFactory{}).Create(state.Config{Path: dbPath})
	require.NoError(t, err)
	defer store.Close()

	manga, err := store.FindMangaByName(context.Background(), "One Piece")
	require.NoError(t, err)
	assert.Equal(t, "1100", manga.Chapter)
	require.Len(t, manga.Sites, 1)
	assert.Equal(t, "https://www.mangasite.io", manga.Sites[0].URL)
}

func TestSeedCommandRequiresFile(t *testing.T) {
	_, err := execute(t, "seed")
	assert.Error(t, err)
}

func TestServeRequiresToken(t *testing.T) {
	t.Setenv("MANGABOT_STORE_PATH", filepath.Join(t.TempDir(), "mangas.db"))

	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord.token is required")

	_, err = execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord.token is required")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "seed", "x.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestSetupLogger(t *testing.T) {
	defer func(level zerolog.Level, logger zerolog.Logger) {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
	}(zerolog.GlobalLevel(), log.Logger)

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "WARN", want: zerolog.WarnLevel},
		{level: "", want: zerolog.InfoLevel},
		{level: "loud", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := new(bytes.Buffer)
			setupLogger(config.LogConfig{Level: tt.level}, buf)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}

	buf := new(bytes.Buffer)
	setupLogger(config.LogConfig{Level: "info"}, buf)
	log.Info().Str("run_id", "r1").Msg("hello")
	assert.Contains(t, buf.String(), `"run_id":"r1"`)
}
