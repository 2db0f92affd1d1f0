package scheduler

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/researchaccelerator-hub/manga-notifier/client"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
)

// RepoSyncer runs before every scheduled pass.
type RepoSyncer interface {
	Sync(ctx context.Context) error
}

// commandFunc runs a command in dir and returns its combined output.
type commandFunc func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// GitSync pulls the deployment checkout and clears the update channel.
type GitSync struct {
	dir        string
	messenger  client.Messenger
	channel    *model.Channel
	purgeLimit int
	run        commandFunc
}

// NewGitSync creates the repository sync step. A nil channel or a zero limit
// skips the purge.
func NewGitSync(dir string, messenger client.Messenger, channel *model.Channel, purgeLimit int) *GitSync {
	return &GitSync{
		dir:        dir,
		messenger:  messenger,
		channel:    channel,
		purgeLimit: purgeLimit,
		run:        runCommand,
	}
}

func (g *GitSync) Sync(ctx context.Context) error {
	out, err := g.run(ctx, g.dir, "git", "pull")
	if err != nil {
		return fmt.Errorf("git pull in %s failed: %w: %s", g.dir, err, strings.TrimSpace(string(out)))
	}
	log.Info().Str("dir", g.dir).Str("output", strings.TrimSpace(string(out))).Msg("Repository synced")

	if g.channel == nil || g.purgeLimit <= 0 {
		return nil
	}

	deleted, err := g.messenger.PurgeRecent(ctx, g.channel.ID, g.purgeLimit)
	if err != nil {
		return fmt.Errorf("failed to purge update channel: %w", err)
	}
	log.Info().Int("deleted", deleted).Str("channel_id", g.channel.ID).Msg("Update channel purged")

	return nil
}
