package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eci4ever/bizadmin/internal/adapters/out/sqlite"
	"github.com/eci4ever/bizadmin/internal/app"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{sqlite.MigrateUp, sqlite.MigrateStatus, sqlite.MigrateDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := sqlite.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := app.OpenDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlite.Migrate(ctx, db, command, logger.WithPrefix("migrate")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done (%s)\n", command, db.Path())
			return nil
		},
	}
}
