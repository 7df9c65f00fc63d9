package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/usecase/identify"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg      config
		category string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Restrict the search to a category",
			Destination: &category,
		},
	}
	flags = append(flags, withFlags(globalFlags(&cfg), catalogFlags(&cfg))...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog by name, scientific name or id",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return newUsageError("search query is required")
			}

			var filter *model.Category
			if category != "" {
				parsed, err := model.ParseCategory(category)
				if err != nil {
					return err
				}
				filter = &parsed
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

			found, err := identify.New(cat, nil, nil).Search(query, filter)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintf(w, "No species found for %q\n", query)
				return nil
			}

			printRecords(w, found)
			return nil
		},
	}
}
