package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/service/mcp"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "http",
			Usage:       "Serve streamable HTTP on this address instead of stdio, e.g. 127.0.0.1:8080",
			Sources:     cli.EnvVars("FIELDGUIDE_MCP_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, withFlags(globalFlags(&cfg), catalogFlags(&cfg))...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Run an MCP server exposing catalog search and matching",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			cat, err := cfg.loadCatalog(ctx, repo)
			if err != nil {
				return err
			}
			server := mcp.NewServer(cat)

			if addr == "" {
				return server.Run(ctx)
			}

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			logging.From(ctx).Info("starting MCP server", "transport", "http", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return goerr.Wrap(err, "MCP HTTP server failed", goerr.V("addr", addr))
			}
			return nil
		},
	}
}
