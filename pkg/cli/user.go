package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/urfave/cli/v3"
)

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage user subscriptions",
		Commands: []*cli.Command{
			userShowCommand(),
			userTierCommand(),
		},
	}
}

func userShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "show",
		Usage: "Show the acting user",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			user, err := cfg.resolveUser(ctx, repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\n", user.ID, user.DisplayName, user.Tier)
			return nil
		},
	}
}

func userTierCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "tier",
		Usage:     "Set the subscription tier of the acting user",
		ArgsUsage: "<free|paid|beta>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() != 1 {
				return newUsageError("exactly one tier is required")
			}
			tier := model.Tier(c.Args().First())
			if err := tier.Validate(); err != nil {
				return err
			}

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			id := model.UserID(cfg.user)
			user, err := repo.GetUser(ctx, id)
			if err != nil {
				if !errors.Is(err, model.ErrUserNotFound) {
					return goerr.Wrap(err, "failed to get user", goerr.V("user_id", id))
				}
				user = model.NewGuest(id)
			}

			user.Tier = tier
			user.UpdatedAt = time.Now()
			if err := repo.PutUser(ctx, user); err != nil {
				return goerr.Wrap(err, "failed to save user", goerr.V("user_id", id))
			}

			fmt.Fprintf(c.Root().Writer, "User %s is now on the %s tier\n", user.ID, user.Tier)
			return nil
		},
	}
}
