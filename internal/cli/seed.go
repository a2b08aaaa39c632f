package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knowbase/knowbase/internal/app"
	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/kb"
	"github.com/knowbase/knowbase/internal/store"
)

// seedDomains are the demo domains created for a seeded user.
var seedDomains = []kb.Draft{
	{
		DomainID:    "cook01",
		Name:        "Cooking",
		Description: "Recipes, techniques and kitchen science.",
		Keywords:    []string{"recipes", "baking", "kitchen"},
	},
	{
		DomainID:    "space1",
		Name:        "Space Exploration",
		Description: "Rockets, missions, and planetary science.",
		Keywords:    []string{"rockets", "nasa", "astronomy"},
	},
}

var seedFacts = []capability.SaveFactRequest{
	{DomainID: "cook01", FactText: "Resting bread dough overnight improves flavor through slow fermentation.", SourceURL: "https://example.com/bread"},
	{DomainID: "space1", FactText: "A Hohmann transfer is the lowest-energy two-burn orbit change between circular orbits.", SourceURL: "https://example.com/orbits"},
}

func newSeedCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo user with sample domains and facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			a, err := app.New(cfg, paths, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			auth := store.NewAuthStore(a.DB)
			domains := store.NewDomainStore(a.DB, paths.ExportDir(&cfg))
			facts := store.NewFactStore(a.DB)

			authRes, err := auth.Auth(ctx, capability.AuthRequest{Username: username})
			if err != nil || authRes.Status != capability.StatusSuccess {
				return fmt.Errorf("creating user %q: %v (%s)", username, err, authRes.Error)
			}
			userID := authRes.Data.UserID
			fmt.Printf("user %s (%s)\n", username, userID)

			for _, d := range seedDomains {
				if err := domains.PersistDraft(ctx, userID, d); err != nil {
					return fmt.Errorf("seeding domain %s: %w", d.Name, err)
				}
				fmt.Printf("domain %s (%s)\n", d.Name, d.DomainID)
			}

			for _, f := range seedFacts {
				f.UserID = userID
				res, err := facts.SaveFact(ctx, f)
				if err != nil || res.Status != capability.StatusSuccess {
					return fmt.Errorf("seeding fact: %v (%s)", err, res.Error)
				}
			}
			fmt.Printf("%d facts saved\n", len(seedFacts))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "demo", "username to seed")
	return cmd
}
