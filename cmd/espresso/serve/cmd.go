// Package servecmd implements the `espresso serve` command.
package servecmd

import (
	"github.com/spf13/cobra"

	"github.com/sakif/espresso-self/cmd/espresso/shared"
	"github.com/sakif/espresso-self/internal/config"
	"github.com/sakif/espresso-self/internal/server"
	"github.com/sakif/espresso-self/internal/session"
	"github.com/sakif/espresso-self/internal/storage"
)

// Command implements `espresso serve`.
type Command struct {
	ctx  *shared.Context
	cmd  *cobra.Command
	port int
}

// New creates the serve command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Long: "Run the web server. The store is used as-is; run `espresso seed` " +
			"first to load the demo cafés.",
		RunE: c.run,
	}
	c.cmd.Flags().IntVar(&c.port, "port", 0, "listen port (overrides PORT and the config file)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) applyFlags(cfg *config.Config) {
	if c.cmd.Flags().Changed("port") {
		cfg.Port = c.port
	}
}

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.LoadConfig(c.applyFlags)
	if err != nil {
		return err
	}

	logger, err := shared.NewLogger(cmd.OutOrStdout(), cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}

	sessions, err := session.Open(ctx, cfg.Session.Store, cfg.Session.RedisURL)
	if err != nil {
		store.Close(ctx)
		return err
	}

	srv, err := server.New(cfg, store, sessions, logger)
	if err != nil {
		sessions.Close()
		store.Close(ctx)
		return err
	}

	// Start closes the store and session store on return.
	return srv.Start(ctx)
}
