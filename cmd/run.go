package cmd

import (
	"github.com/researchaccelerator-hub/manga-notifier/bot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one update pass now and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateBot(); err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			b, err := bot.New(a.cfg, store)
			if err != nil {
				return err
			}
			defer b.Close()

			report, err := b.RunOnce(commandContext(cmd))
			if err != nil {
				return err
			}

			log.Info().
				Str("run_id", report.RunID).
				Int("mangas", report.Mangas).
				Int("successes", report.Successes).
				Int("failures", report.Failures).
				Int("committed", report.Committed).
				Msg("Update pass complete")
			return nil
		},
	}
}
