package collection

import (
	"context"

	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

// Remove deletes exactly the item with id. Other items of the same species
// stay untouched.
func (uc *UseCase) Remove(ctx context.Context, userID model.UserID, id model.InstanceID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	item, err := uc.repo.GetCollectionItem(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteCollectionItem(ctx, userID, id); err != nil {
		return err
	}

	if uc.storage != nil && item.SavedImageKey != "" {
		if err := uc.storage.Delete(ctx, item.SavedImageKey); err != nil {
			logging.From(ctx).Warn("failed to delete saved photo", "error", err, "key", item.SavedImageKey)
		}
	}

	return nil
}
