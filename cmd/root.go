// Package cmd holds the command line interface of the notifier.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/researchaccelerator-hub/manga-notifier/config"
	"github.com/researchaccelerator-hub/manga-notifier/state"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what the subcommands share once the root has loaded it.
type app struct {
	cfgFile string
	cfg     *config.Config
	stores  state.StoreFactory
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("manga-notifier failed")
	}
}

// NewRootCmd builds the command tree. Without a subcommand the bot is served.
func NewRootCmd() *cobra.Command {
	a := &app{stores: &state.DefaultStoreFactory{}}

	root := &cobra.Command{
		Use:           "manga-notifier",
		Short:         "Announce new manga chapters on Discord",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			setupLogger(cfg.Log, os.Stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "path to config file (yaml or .env)")

	root.AddCommand(a.newServeCmd(), a.newRunCmd(), a.newSeedCmd())
	return root
}

// setupLogger configures the global zerolog logger.
func setupLogger(cfg config.LogConfig, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// openStore opens the record store named by the configuration.
func (a *app) openStore() (state.Store, error) {
	store, err := a.stores.Create(state.Config{Path: a.cfg.Store.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	return store, nil
}
