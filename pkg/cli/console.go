package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
)

var (
	errCanceled       = goerr.New("canceled by user")
	errPickOutOfRange = goerr.New("pick is out of range")
)

func newSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	return s
}

// ask reads one line. An interrupt or EOF returns errCanceled.
func ask(prompt string) (string, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return "", goerr.Wrap(err, "failed to start prompt")
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", errCanceled
		}
		return "", goerr.Wrap(err, "failed to read input")
	}
	return strings.TrimSpace(line), nil
}

// askIndex asks for a 1-based choice among n entries and returns it 0-based
func askIndex(n int) (int, error) {
	for {
		line, err := ask(fmt.Sprintf("Which one is it? [1-%d] ", n))
		if err != nil {
			return 0, err
		}
		i, err := strconv.Atoi(line)
		if err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		fmt.Fprintf(os.Stderr, "Please enter a number between 1 and %d\n", n)
	}
}

func readImage(path string) (model.DataURI, error) {
	if path == "" {
		return "", goerr.Wrap(model.ErrNoImage, "image path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read image", goerr.V("path", path))
	}
	return model.NewDataURI(data, ""), nil
}

func writeImage(path string, image model.DataURI) error {
	_, data, err := image.Decode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write image", goerr.V("path", path))
	}
	return nil
}

func printCandidates(w io.Writer, candidates []*model.ScoredCandidate) {
	for i, c := range candidates {
		marker := ""
		if c.Species.IsPoisonous {
			marker = " (poisonous)"
		}
		if c.IsNew {
			marker += " (not in catalog)"
		}
		fmt.Fprintf(w, "%2d. %-24s %-30s %3d%%%s\n", i+1, c.Species.Name, c.Species.ScientificName, c.Confidence, marker)
	}
}

func printSpecies(w io.Writer, s *model.SpeciesRecord) {
	fmt.Fprintf(w, "%s (%s)\n", s.Name, s.ScientificName)
	fmt.Fprintf(w, "  Category: %s\n", s.Category)
	if s.IsPoisonous {
		fmt.Fprintf(w, "  WARNING: poisonous. %s\n", s.ToxicityWarning)
	}
	if s.KeyInformation != "" {
		fmt.Fprintf(w, "  %s\n", s.KeyInformation)
	}
	for _, tip := range s.CareTips {
		fmt.Fprintf(w, "  %s: %s\n", tip.Title, tip.Description)
	}
	if s.FurtherReading != "" {
		fmt.Fprintf(w, "  Learn more: %s\n", s.FurtherReading)
	}
}

func printRecords(w io.Writer, records []*model.SpeciesRecord) {
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Category, r.Name, r.ScientificName)
	}
}
