package cmd

import (
	"github.com/researchaccelerator-hub/manga-notifier/commands"
	"github.com/researchaccelerator-hub/manga-notifier/common"
	"github.com/spf13/cobra"
)

func (a *app) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file|url>",
		Short: "Load sites and mangas from a YAML seed file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			seed, err := common.LoadSeedFile(args[0])
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := commands.NewService(store).Seed(commandContext(cmd), seed)
			if err != nil {
				return err
			}

			cmd.Printf("Seeded %d sites (%d skipped) and %d mangas (%d skipped)\n",
				report.SitesCreated, report.SitesSkipped, report.MangasCreated, report.MangasSkipped)
			return nil
		},
	}
}
