package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "fieldguide",
		Usage: "Identify plants, trees, weeds, insects and birds from photos",
		Commands: []*cli.Command{
			identifyCommand(),
			quizCommand(),
			searchCommand(),
			catalogCommand(),
			collectionCommand(),
			quotaCommand(),
			userCommand(),
			statsCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    exitCode(err),
			Message: userMessage(ctx, err),
		}
	}

	return nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrQuotaExceeded):
		return 3
	case errors.Is(err, model.ErrAnalysisFailed):
		return 4
	default:
		return 1
	}
}

// usageError is a mistake in arguments, flags or settings. Its text is
// shown to the user as is.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func newUsageError(msg string) error {
	return &usageError{msg: msg}
}

func categoryNames() string {
	names := make([]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// userMessage turns domain errors into something a user can act on. Other
// errors are logged and reported generically.
func userMessage(ctx context.Context, err error) string {
	var usage *usageError
	switch {
	case errors.Is(err, model.ErrQuotaExceeded):
		return "You have reached your daily identification limit. Please come back tomorrow."
	case errors.Is(err, model.ErrAnalysisFailed):
		return "Failed to analyze the image. Please try again."
	case errors.Is(err, model.ErrNoCategory):
		return "Please select a category first."
	case errors.Is(err, model.ErrNoImage):
		return "Please provide an image."
	case errors.Is(err, model.ErrInvalidCategory):
		return "Invalid category. Choose one of: " + categoryNames() + "."
	case errors.Is(err, model.ErrInvalidDataURI):
		return "The image could not be read. Please provide a photo file."
	case errors.Is(err, model.ErrInvalidTier):
		return "Invalid subscription tier. Choose one of: free, paid, beta."
	case errors.Is(err, model.ErrInvalidInstanceID):
		return "Invalid instance id. Use an id shown by 'collection list'."
	case errors.Is(err, model.ErrItemNotFound):
		return "No such item in your collection."
	case errors.Is(err, model.ErrSpeciesNotFound):
		return "No such species in the catalog."
	case errors.Is(err, errPickOutOfRange), errors.Is(err, model.ErrCandidateNotFound):
		return "Please pick one of the listed candidates."
	case errors.Is(err, errCanceled):
		return "Canceled."
	case errors.As(err, &usage):
		return usage.msg
	default:
		logging.From(ctx).Error("command failed", "error", err)
		return "Something went wrong. Run again with --log-level debug for details."
	}
}
