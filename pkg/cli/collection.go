package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/usecase/collection"
	"github.com/urfave/cli/v3"
)

func collectionCommand() *cli.Command {
	return &cli.Command{
		Name:  "collection",
		Usage: "Manage your saved identifications",
		Commands: []*cli.Command{
			collectionListCommand(),
			collectionRemoveCommand(),
			collectionNotesCommand(),
		},
	}
}

// newCollection opens the store and the optional photo bucket
func (cfg *config) newCollection(ctx context.Context) (*collection.UseCase, func(), error) {
	repo, closeRepo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return collection.New(repo, collection.WithStorage(storage)), closeRepo, nil
}

func collectionListCommand() *cli.Command {
	var (
		cfg    config
		export string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "export-photos",
			Usage:       "Write saved photos into this directory",
			Destination: &export,
		},
	}
	flags = append(flags, withFlags(globalFlags(&cfg), storageFlags(&cfg))...)

	return &cli.Command{
		Name:  "list",
		Usage: "List saved identifications, oldest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			uc, closeRepo, err := cfg.newCollection(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			items, err := uc.List(ctx, model.UserID(cfg.user))
			if err != nil {
				return goerr.Wrap(err, "failed to list collection")
			}

			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					item.InstanceID, item.CreatedAt.Format("2006-01-02 15:04"), item.Category, item.Name)
				if item.Notes != "" {
					fmt.Fprintf(w, "\t%s\n", item.Notes)
				}

				if export != "" && item.SavedImage != "" {
					path := fmt.Sprintf("%s/%s%s", strings.TrimSuffix(export, "/"), item.InstanceID, photoExtension(item.SavedImage))
					if err := writeImage(path, item.SavedImage); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func photoExtension(image model.DataURI) string {
	mime, _, err := image.Decode()
	if err != nil {
		return ""
	}
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

func parseInstanceID(c *cli.Command) (model.InstanceID, error) {
	if c.Args().Len() < 1 {
		return "", newUsageError("instance id is required")
	}
	id := model.InstanceID(c.Args().First())
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

func collectionRemoveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove one saved identification",
		ArgsUsage: "<instance-id>",
		Flags:     withFlags(globalFlags(&cfg), storageFlags(&cfg)),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			id, err := parseInstanceID(c)
			if err != nil {
				return err
			}

			uc, closeRepo, err := cfg.newCollection(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := uc.Remove(ctx, model.UserID(cfg.user), id); err != nil {
				return goerr.Wrap(err, "failed to remove item")
			}

			fmt.Fprintf(c.Root().Writer, "Removed %s\n", id)
			return nil
		},
	}
}

func collectionNotesCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "notes",
		Usage:     "Replace the notes of a saved identification",
		ArgsUsage: "<instance-id> <notes...>",
		Flags:     withFlags(globalFlags(&cfg), storageFlags(&cfg)),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			id, err := parseInstanceID(c)
			if err != nil {
				return err
			}
			notes := strings.Join(c.Args().Tail(), " ")

			uc, closeRepo, err := cfg.newCollection(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			item, err := uc.SaveNotes(ctx, model.UserID(cfg.user), id, notes)
			if err != nil {
				return goerr.Wrap(err, "failed to save notes")
			}

			fmt.Fprintf(c.Root().Writer, "Updated notes of %s (%s)\n", item.InstanceID, item.Name)
			return nil
		},
	}
}
