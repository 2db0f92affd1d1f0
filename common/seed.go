package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document accepted by the seed command.
//
//	sites:
//	  - url: https://mangasite.io
//	    chapter_url: /read/
//	mangas:
//	  - name: Some Manga
//	    anilist_id: 1234
//	    chapter: "10"
//	    sites: [mangasite]
type SeedFile struct {
	Sites  []model.Site `yaml:"sites"`
	Mangas []SeedManga  `yaml:"mangas"`
}

// SeedManga references its sites by derived name.
type SeedManga struct {
	Name      string   `yaml:"name"`
	AnilistID int      `yaml:"anilist_id"`
	Chapter   string   `yaml:"chapter"`
	Sites     []string `yaml:"sites"`
}

// LoadSeedFile reads a seed document from a local path or an http(s) URL.
func LoadSeedFile(path string) (*SeedFile, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		local, err := DownloadURLFile(path)
		if err != nil {
			return nil, err
		}
		defer os.Remove(local)
		path = local
	}

	log.Debug().Str("filename", path).Msg("Reading seed file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range seed.Sites {
		if seed.Sites[i].Name != "" {
			continue
		}
		name, err := DeriveSiteName(seed.Sites[i].URL)
		if err != nil {
			return nil, fmt.Errorf("site %d: %w", i, err)
		}
		seed.Sites[i].Name = name
	}

	for i, m := range seed.Mangas {
		if m.Name == "" {
			return nil, fmt.Errorf("manga %d: missing name", i)
		}
		if _, err := ChapterNumber(m.Chapter); err != nil {
			return nil, fmt.Errorf("manga %q: %w", m.Name, err)
		}
	}

	log.Debug().Int("site_count", len(seed.Sites)).Int("manga_count", len(seed.Mangas)).Msg("Seed file parsed")
	return &seed, nil
}
