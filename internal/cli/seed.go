package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/services"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by the seed command.
type SeedFile struct {
	Challenges []challenge.CreateChallengeRequest `yaml:"challenges"`
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <challenges.yaml>",
		Short: "Load challenge definitions from a YAML file",
		Long: `Load challenge definitions from a YAML file.

Challenges whose title already exists in the catalog are skipped, so the
command can be re-run against the same file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open seed file: %w", err)
			}
			defer f.Close()

			seed, err := ParseSeed(f)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := services.NewChallengeService(st, clock.Real(), cfg.InviteLinkPrefix)
			created, err := Seed(cmd.Context(), svc, seed)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d challenges\n", created, len(seed.Challenges))
			return nil
		},
	}
}

func ParseSeed(r io.Reader) (*SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed creates every challenge in seed whose title is not yet taken and
// returns how many it created. It stops at the first invalid entry.
func Seed(ctx context.Context, svc *services.ChallengeService, seed *SeedFile) (int, error) {
	existing, err := svc.ListChallenges(ctx)
	if err != nil {
		return 0, err
	}
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.Title] = true
	}

	created := 0
	for i := range seed.Challenges {
		req := &seed.Challenges[i]
		if taken[strings.TrimSpace(req.Title)] {
			log.Printf("Seed: skipping existing challenge %q", req.Title)
			continue
		}
		c, err := svc.CreateChallenge(ctx, req)
		if err != nil {
			return created, fmt.Errorf("challenge %d (%q): %w", i+1, req.Title, err)
		}
		taken[c.Title] = true
		created++
	}
	return created, nil
}
