package cli

import (
	"github.com/sidereusnuntius/portal/internal/initialization"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := initialization.OpenDB(cfg.DbUrl)
			if err != nil {
				return err
			}
			defer d.Close()
			return initialization.SetupDB(&cfg, d, cfg.MigrationsFolder, cfg.DbUrl)
		},
	}
}
