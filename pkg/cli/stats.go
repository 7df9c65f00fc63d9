package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var (
		cfg   config
		days  int64
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "days",
			Usage:       "Number of days to look back",
			Value:       7,
			Destination: &days,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of species to show",
			Value:       10,
			Destination: &limit,
		},
	}
	flags = append(flags, withFlags(globalFlags(&cfg), llmFlags(&cfg), storageFlags(&cfg))...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show the most observed species from the observation log",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			bq, err := cfg.newBigQuery(ctx)
			if err != nil {
				return err
			}
			if bq == nil {
				return newUsageError("bigquery-dataset is required")
			}
			if days <= 0 || limit <= 0 {
				return newUsageError("days and limit must be positive")
			}

			since := time.Now().AddDate(0, 0, -int(days))
			tallies, err := bq.TopSpecies(ctx, since, int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to query observations")
			}

			fmt.Fprintf(w, "Top species since %s\n", since.Format("2006-01-02"))
			for i, t := range tallies {
				fmt.Fprintf(w, "%2d. %-24s %-30s %-10s %d\n", i+1, t.Name, t.ScientificName, t.Category, t.Count)
			}
			return nil
		},
	}
}
