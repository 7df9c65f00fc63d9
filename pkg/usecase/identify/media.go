package identify

import (
	"context"
	"errors"

	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/service/generate"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

// Illustrate returns a generated picture of species. Catalog species are
// served from the image cache when possible. Failures degrade to the
// placeholder image.
func (uc *UseCase) Illustrate(ctx context.Context, species *model.SpeciesRecord) model.DataURI {
	logger := logging.From(ctx).With("species", species.Name)
	cacheable := uc.imageCache != nil && !species.IsTransient()

	if cacheable {
		cached, err := uc.imageCache.GetCachedImage(ctx, species.ID)
		switch {
		case err == nil:
			return cached
		case errors.Is(err, model.ErrCachedImageMissing):
		default:
			logger.Warn("failed to read image cache", "error", err)
		}
	}

	result := generate.Fail[model.DataURI](errors.New("image generator is not configured"))
	if uc.images != nil {
		result = uc.images.GenerateImage(ctx, species.Name, species.Category)
	}
	if !result.OK() {
		logger.Warn("image generation failed, using placeholder", "error", result.Err)
		return result.OrElse(generate.PlaceholderImage())
	}

	if cacheable {
		if err := uc.imageCache.PutCachedImage(ctx, species.ID, result.Value); err != nil {
			logger.Warn("failed to cache generated image", "error", err)
		}
	}
	return result.Value
}

// Story returns a short children's story about species, or a canned
// sentence when generation fails.
func (uc *UseCase) Story(ctx context.Context, species *model.SpeciesRecord) string {
	result := generate.Fail[string](errors.New("story generator is not configured"))
	if uc.stories != nil {
		result = uc.stories.GenerateStory(ctx, species.Name, species.Category)
	}
	if !result.OK() {
		logging.From(ctx).Warn("story generation failed, using fallback", "error", result.Err, "species", species.Name)
	}
	return result.OrElse(generate.FallbackStory(species.Name, species.Category))
}
