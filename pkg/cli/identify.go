package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/catalog"
	"github.com/snaptheplant/fieldguide/pkg/matcher"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/repository"
	"github.com/snaptheplant/fieldguide/pkg/service/generate"
	"github.com/snaptheplant/fieldguide/pkg/service/vision"
	"github.com/snaptheplant/fieldguide/pkg/usecase/collection"
	"github.com/snaptheplant/fieldguide/pkg/usecase/identify"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const maxShownCandidates = 5

func identifyCommand() *cli.Command {
	var (
		cfg        config
		category   string
		imagePath  string
		mode       string
		pick       int64
		save       bool
		notes      string
		story      bool
		illustrate string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Category of the subject (Plant, Tree, Weed, Insect, Cactus, Succulent, Bird)",
			Sources:     cli.EnvVars("FIELDGUIDE_CATEGORY"),
			Destination: &category,
		},
		&cli.StringFlag{
			Name:        "image",
			Aliases:     []string{"i"},
			Usage:       "Path of the photo to identify",
			Destination: &imagePath,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "Analysis mode: identify (name the species) or attributes (answer the quiz and match)",
			Value:       string(vision.ModeIdentify),
			Sources:     cli.EnvVars("FIELDGUIDE_MODE"),
			Destination: &mode,
		},
		&cli.IntFlag{
			Name:        "pick",
			Usage:       "1-based candidate to confirm without prompting",
			Destination: &pick,
		},
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the confirmed species to the collection",
			Destination: &save,
		},
		&cli.StringFlag{
			Name:        "notes",
			Usage:       "Notes stored with the saved item",
			Destination: &notes,
		},
		&cli.BoolFlag{
			Name:        "story",
			Usage:       "Tell a short story about the confirmed species",
			Destination: &story,
		},
		&cli.StringFlag{
			Name:        "illustrate",
			Usage:       "Write a generated illustration of the confirmed species to this path",
			Destination: &illustrate,
		},
	}
	flags = append(flags, withFlags(
		globalFlags(&cfg),
		llmFlags(&cfg),
		storageFlags(&cfg),
		quotaFlags(&cfg),
		catalogFlags(&cfg),
	)...)

	return &cli.Command{
		Name:  "identify",
		Usage: "Identify the species in a photo",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			analysisMode, err := vision.ParseMode(mode)
			if err != nil {
				return newUsageError("mode must be identify or attributes")
			}
			subject, err := model.ParseCategory(category)
			if err != nil {
				return err
			}
			image, err := readImage(imagePath)
			if err != nil {
				return err
			}

			// Initialize dependencies
			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			cat, err := cfg.loadCatalog(ctx, repo)
			if err != nil {
				return err
			}
			user, err := cfg.resolveUser(ctx, repo)
			if err != nil {
				return err
			}
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			uc, err := cfg.newIdentifyUseCase(ctx, repo, cat, gemini, analysisMode)
			if err != nil {
				return err
			}

			// Analyze
			session := uc.NewSession(user)
			sp := newSpinner("Analyzing image...")
			sp.Start()
			result, err := session.Start(ctx, subject, image)
			sp.Stop()
			if err != nil {
				return err
			}

			if !result.Quota.Bypass {
				fmt.Fprintf(w, "Identifications left today: %d/%d\n", result.Quota.Remaining, result.Quota.Limit)
			}
			if result.Empty() {
				fmt.Fprintf(w, "No matches found. Try another photo or category.\n")
				return nil
			}

			candidates := matcher.Top(result.Candidates, maxShownCandidates)
			printCandidates(w, candidates)

			// Confirm
			var index int
			switch {
			case pick != 0:
				index, err = pickIndex(pick, len(candidates))
				if err != nil {
					return err
				}
			case len(candidates) == 1:
				index = 0
			default:
				index, err = askIndex(len(candidates))
				if err != nil {
					return err
				}
			}

			chosen, err := session.Confirm(ctx, index)
			if err != nil {
				return err
			}
			fmt.Fprintln(w)
			printSpecies(w, chosen.Species)

			if story {
				fmt.Fprintf(w, "\n%s\n", uc.Story(ctx, chosen.Species))
			}
			if illustrate != "" {
				if err := writeImage(illustrate, uc.Illustrate(ctx, chosen.Species)); err != nil {
					return err
				}
				fmt.Fprintf(w, "Illustration written to %s\n", illustrate)
			}

			if save {
				item, err := session.Save(ctx, notes)
				if err != nil {
					return goerr.Wrap(err, "failed to save to collection")
				}
				fmt.Fprintf(w, "Saved to collection as %s\n", item.InstanceID)
			}

			return nil
		},
	}
}

// pickIndex converts a 1-based --pick into an index of the shown candidates
func pickIndex(pick int64, shown int) (int, error) {
	if pick < 1 || pick > int64(shown) {
		return 0, goerr.Wrap(errPickOutOfRange, "pick is out of range",
			goerr.V("pick", pick),
			goerr.V("shown", shown))
	}
	return int(pick) - 1, nil
}

// newIdentifyUseCase wires the analyzer, generators and optional cloud
// collaborators around the catalog
func (cfg *config) newIdentifyUseCase(ctx context.Context, repo repository.Repository, cat *catalog.Catalog, gemini adapter.Gemini, mode vision.Mode) (*identify.UseCase, error) {
	limiter, err := cfg.newLimiter(ctx, repo)
	if err != nil {
		return nil, err
	}
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}
	bq, err := cfg.newBigQuery(ctx)
	if err != nil {
		return nil, err
	}

	opts := []identify.Option{
		identify.WithImageGenerator(generate.NewImage(gemini)),
		identify.WithStoryGenerator(generate.NewStory(gemini)),
		identify.WithImageCache(repo),
		identify.WithCollection(collection.New(repo, collection.WithStorage(storage))),
	}
	if bq != nil {
		opts = append(opts, identify.WithObservationRecorder(bq))
	} else {
		logging.From(ctx).Debug("observation log disabled")
	}

	return identify.New(cat, vision.NewGemini(gemini, vision.WithMode(mode)), limiter, opts...), nil
}
