package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func quotaCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "quota",
		Usage: "Show today's identification allowance",
		Flags: withFlags(globalFlags(&cfg), quotaFlags(&cfg)),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			user, err := cfg.resolveUser(ctx, repo)
			if err != nil {
				return err
			}
			limiter, err := cfg.newLimiter(ctx, repo)
			if err != nil {
				return err
			}

			status, err := limiter.Check(ctx, user)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "User: %s (%s)\n", user.ID, user.Tier)
			if status.Bypass {
				fmt.Fprintf(w, "Unlimited identifications\n")
				return nil
			}
			fmt.Fprintf(w, "Used today: %d/%d, remaining: %d\n", status.Count, status.Limit, status.Remaining)
			return nil
		},
	}
}
