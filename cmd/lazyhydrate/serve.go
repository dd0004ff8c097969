package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazyhydrate/internal/server"
	"github.com/vango-dev/lazyhydrate/pkg/bridge"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		port   int
		host   string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compile service",
		Long: `Serve POST /compile, GET /kinds, GET /metrics and GET /healthz.

The /ws activation bridge needs lazy instances mounted per connection and is
only served when the server is built with an OnConnect hook.

Examples:
  lazyhydrate serve
  lazyhydrate serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Serve.Port = port
			}
			if host != "" {
				cfg.Serve.Host = host
			}
			if strict {
				cfg.Compile.Strict = true
			}

			read, write := cfg.BridgeTimeouts()
			srv := server.New(server.Config{
				Addr:        cfg.Address(),
				MaxBodySize: cfg.Serve.MaxBodySize,
				Strict:      cfg.Compile.Strict,
				Bridge: bridge.Config{
					ReadTimeout:    read,
					WriteTimeout:   write,
					MaxMessageSize: cfg.Bridge.MaxMessageSize,
				},
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			info("Listening on http://%s", cfg.Address())
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port (default from config)")
	cmd.Flags().StringVar(&host, "host", "", "Host (default from config)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail compiles on warnings")

	return cmd
}
