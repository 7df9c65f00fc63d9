package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/catalog"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Manage the species catalog",
		Commands: []*cli.Command{
			catalogListCommand(),
			catalogShowCommand(),
			catalogSeedCommand(),
			catalogDeleteCommand(),
		},
	}
}

func parseSpeciesID(c *cli.Command) (model.SpeciesID, error) {
	if c.Args().Len() != 1 {
		return 0, newUsageError("exactly one species id is required")
	}
	id, err := strconv.Atoi(c.Args().First())
	if err != nil || id <= 0 {
		return 0, newUsageError("species id must be a positive integer: " + c.Args().First())
	}
	return model.SpeciesID(id), nil
}

func catalogListCommand() *cli.Command {
	var (
		cfg      config
		category string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Only list species of this category",
			Destination: &category,
		},
	}
	flags = append(flags, withFlags(globalFlags(&cfg), catalogFlags(&cfg))...)

	return &cli.Command{
		Name:  "list",
		Usage: "List catalog species",
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

			records := cat.All()
			if category != "" {
				parsed, err := model.ParseCategory(category)
				if err != nil {
					return err
				}
				records = cat.InCategory(parsed)
			}

			printRecords(c.Root().Writer, records)
			return nil
		},
	}
}

func catalogShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Show one catalog species",
		ArgsUsage: "<species-id>",
		Flags:     withFlags(globalFlags(&cfg), catalogFlags(&cfg)),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			id, err := parseSpeciesID(c)
			if err != nil {
				return err
			}

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			cat, err := cfg.loadCatalog(ctx, repo)
			if err != nil {
				return err
			}

			record, ok := cat.Get(id)
			if !ok {
				return goerr.Wrap(model.ErrSpeciesNotFound, "species not found", goerr.V("id", id))
			}
			printSpecies(c.Root().Writer, record)
			return nil
		},
	}
}

func catalogSeedCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "seed",
		Usage: "Write the seed catalog into an empty store",
		Flags: withFlags(globalFlags(&cfg), catalogFlags(&cfg)),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			records, err := cfg.seedRecords()
			if err != nil {
				return err
			}

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			seeded, err := catalog.Seed(ctx, repo, records)
			if err != nil {
				return goerr.Wrap(err, "failed to seed catalog")
			}
			if !seeded {
				fmt.Fprintf(c.Root().Writer, "Catalog already has species, nothing to do\n")
				return nil
			}

			fmt.Fprintf(c.Root().Writer, "Seeded %d species\n", len(records))
			return nil
		},
	}
}

func catalogDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a species and its cached illustration",
		ArgsUsage: "<species-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			id, err := parseSpeciesID(c)
			if err != nil {
				return err
			}

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := repo.DeleteSpecies(ctx, id); err != nil {
				return goerr.Wrap(err, "failed to delete species", goerr.V("id", id))
			}
			if err := repo.DeleteCachedImage(ctx, id); err != nil {
				logging.From(ctx).Warn("failed to delete cached image", "error", err, "species_id", id)
			}

			fmt.Fprintf(c.Root().Writer, "Deleted species %d\n", id)
			return nil
		},
	}
}
