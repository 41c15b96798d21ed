package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"fitChallengeAPI/internal/config"
	"fitChallengeAPI/internal/store"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every command. Set flags win over
// the environment.
type RootOptions struct {
	Storage     string
	DatabaseURL string
}

// NewRootCommand creates the root command for the API binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "fitchallenge",
		Short:        "Fitness challenge progress API",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "storage backend (postgres|memory), overrides STORAGE")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", "", "PostgreSQL URL, overrides DATABASE_URL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.Storage != "" {
		cfg.Storage = opts.Storage
	}
	if opts.DatabaseURL != "" {
		cfg.DatabaseURL = opts.DatabaseURL
	}
	return cfg, nil
}

// openStore connects the configured backend. The memory store starts empty.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage {
	case "memory":
		log.Println("Using in-memory store; data is lost on exit")
		return store.NewMemory(), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pg, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("Successfully connected to PostgreSQL")
		return pg, nil
	}
	return nil, fmt.Errorf("invalid STORAGE %q: must be postgres or memory", cfg.Storage)
}
