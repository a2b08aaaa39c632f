package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/knowbase/knowbase/internal/app"
	"github.com/knowbase/knowbase/internal/gateway"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the knowbase gateway server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			a, err := app.New(cfg, paths, log)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := gateway.New(cfg, log, gateway.Deps{
				Router:    a.Router,
				Intake:    a.Intake,
				Lifecycle: a.Lifecycle,
				Chat:      a.Chat,
				Sessions:  a.Sessions,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
