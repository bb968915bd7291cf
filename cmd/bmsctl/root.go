package main

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bms/internal/config"
	"bms/internal/database"
	"bms/internal/logger"
)

// env carries what every subcommand needs once configuration is loaded.
type env struct {
	cfg *config.AppConfig
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "bmsctl",
		Short:         "Operator tooling for the BMS document service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				cfg.Log.Level = "debug"
			}
			e.cfg = cfg
			e.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Location())
			return nil
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(migrateCmd(e))
	root.AddCommand(leaseCmd(e))
	root.AddCommand(typesCmd(e))

	return root
}

func (e *env) openDB(ctx context.Context) (*sql.DB, error) {
	return database.NewPostgres(ctx, e.cfg.Database, e.log)
}
