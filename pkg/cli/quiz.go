package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/snaptheplant/fieldguide/pkg/matcher"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/usecase/identify"
	"github.com/urfave/cli/v3"
)

func quizCommand() *cli.Command {
	var (
		cfg      config
		category string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Category to answer questions about",
			Sources:     cli.EnvVars("FIELDGUIDE_CATEGORY"),
			Destination: &category,
		},
		&cli.StringSliceFlag{
			Name:    "answer",
			Aliases: []string{"a"},
			Usage:   "Answer as key=value; prompts for every question when omitted",
		},
	}
	flags = append(flags, withFlags(globalFlags(&cfg), catalogFlags(&cfg))...)

	return &cli.Command{
		Name:  "quiz",
		Usage: "Identify a species by answering questions, without a photo",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			subject, err := model.ParseCategory(category)
			if err != nil {
				return err
			}

			answers, err := parseAnswers(c.StringSlice("answer"))
			if err != nil {
				return err
			}
			if len(answers) == 0 {
				if answers, err = askQuestions(subject); err != nil {
					return err
				}
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

			// quiz matching never runs the analyzer or the limiter
			uc := identify.New(cat, nil, nil)
			candidates, err := uc.Quiz(subject, answers)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintf(w, "No species in this category yet.\n")
				return nil
			}

			printCandidates(w, matcher.Top(candidates, maxShownCandidates))
			return nil
		},
	}
}

func parseAnswers(values []string) (model.Attributes, error) {
	answers := model.Attributes{}
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok {
			return nil, newUsageError("answer must be key=value: " + v)
		}
		answers[key] = value
	}
	return answers.Normalize(), nil
}

func askQuestions(category model.Category) (model.Attributes, error) {
	answers := model.Attributes{}
	for _, q := range model.Vocabulary(category) {
		line, err := ask(fmt.Sprintf("%s [%s] ", q.Question, strings.Join(q.Options, "/")))
		if err != nil {
			return nil, err
		}
		if line != "" {
			answers[q.Key] = line
		}
	}
	return answers.Normalize(), nil
}
