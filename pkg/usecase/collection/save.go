package collection

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

// Save adds species with the user's photo to the collection. Saving the same
// species with the same photo again returns the existing item unchanged.
func (uc *UseCase) Save(ctx context.Context, userID model.UserID, species *model.SpeciesRecord, image model.DataURI) (*model.CollectionItem, error) {
	if species == nil || species.Name == "" {
		return nil, goerr.Wrap(model.ErrInvalidSpecies, "species is required")
	}
	mime, data, err := image.Decode()
	if err != nil {
		return nil, err
	}

	digest := image.Digest()
	items, err := uc.repo.ListCollectionItems(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list collection", goerr.V("user_id", userID))
	}
	for _, item := range items {
		if item.SameCapture(species.ID, species.Name, digest) {
			logging.From(ctx).Debug("species already saved with this photo",
				"instance_id", item.InstanceID,
				"species", species.Name)
			return uc.hydrate(ctx, item), nil
		}
	}

	item := model.NewCollectionItem(userID, species, image, uc.now())

	if uc.storage != nil {
		key := photoKey(userID, item.InstanceID)
		w, err := uc.storage.Put(ctx, key, mime)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open photo writer", goerr.V("key", key))
		}
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return nil, goerr.Wrap(err, "failed to write photo", goerr.V("key", key))
		}
		if err := w.Close(); err != nil {
			return nil, goerr.Wrap(err, "failed to store photo", goerr.V("key", key))
		}

		item.SavedImageKey = key
		item.SavedImage = ""
	}

	if err := uc.repo.PutCollectionItem(ctx, item); err != nil {
		if item.SavedImageKey != "" {
			if delErr := uc.storage.Delete(ctx, item.SavedImageKey); delErr != nil {
				logging.From(ctx).Warn("failed to delete orphaned photo", "error", delErr, "key", item.SavedImageKey)
			}
		}
		return nil, goerr.Wrap(err, "failed to save collection item", goerr.V("instance_id", item.InstanceID))
	}

	if item.SavedImageKey != "" {
		item.SavedImage = image
	}
	return item, nil
}
