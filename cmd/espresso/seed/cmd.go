// Package seedcmd implements the `espresso seed` command.
package seedcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/espresso-self/cmd/espresso/shared"
	"github.com/sakif/espresso-self/internal/auth"
	"github.com/sakif/espresso-self/internal/seed"
	"github.com/sakif/espresso-self/internal/storage"
)

// Command implements `espresso seed`.
type Command struct {
	ctx   *shared.Context
	cmd   *cobra.Command
	dir   string
	reset bool
}

// New creates the seed command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users, cafés and reviews",
		Long: "Load EspressoSelf.user.json, EspressoSelf.cafe.json and EspressoSelf.review.json " +
			"into the configured store. Existing users and cafés are kept; reviews are only " +
			"loaded into an empty collection. --reset wipes all three collections first.",
		RunE: c.run,
	}
	c.cmd.Flags().StringVar(&c.dir, "dir", "", "fixture directory (default: SEED_DIR, else the built-in fixtures)")
	c.cmd.Flags().BoolVar(&c.reset, "reset", false, "delete all users, cafés and reviews before seeding")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := shared.NewLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	dir := c.dir
	if dir == "" {
		dir = cfg.Seed.Dir
	}
	var data *seed.Data
	if dir == "" {
		data, err = seed.Embedded()
	} else {
		data, err = seed.LoadDir(dir)
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	seeder := seed.NewSeeder(store.Users, store.Cafes, store.Reviews,
		auth.NewPasswordService(cfg.Password.Cost), logger)
	res, err := seeder.Run(ctx, data, seed.Options{Reset: c.reset})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "users:   %d created, %d already present\n", res.UsersCreated, res.UsersSkipped)
	fmt.Fprintf(out, "cafés:   %d created, %d already present\n", res.CafesCreated, res.CafesSkipped)
	if res.ReviewsSkipped > 0 {
		fmt.Fprintf(out, "reviews: skipped, collection is not empty (use --reset to reload)\n")
	} else {
		fmt.Fprintf(out, "reviews: %d created\n", res.ReviewsCreated)
	}
	return nil
}
