package cli

import (
	"fmt"
	"log"

	"fitChallengeAPI/internal/store"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			pg, ok := st.(*store.Postgres)
			if !ok {
				return fmt.Errorf("migrate needs STORAGE=postgres, got %q", cfg.Storage)
			}
			if err := pg.Migrate(cmd.Context()); err != nil {
				return err
			}

			log.Println("Schema applied")
			return nil
		},
	}
}
