package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/researchaccelerator-hub/manga-notifier/bot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run the daily schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
}

func (a *app) serve(cmd *cobra.Command) error {
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

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		return err
	}

	log.Info().Str("cron", a.cfg.Schedule.Cron).Str("timezone", a.cfg.Schedule.Timezone).Msg("Bot running, waiting for shutdown signal")
	<-ctx.Done()
	log.Info().Msg("Shutting down")

	return nil
}

// commandContext returns the command's context, or a background one when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
