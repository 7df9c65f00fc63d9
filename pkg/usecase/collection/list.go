package collection

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

// List returns the user's items, oldest first, with photos loaded
func (uc *UseCase) List(ctx context.Context, userID model.UserID) ([]*model.CollectionItem, error) {
	items, err := uc.repo.ListCollectionItems(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list collection", goerr.V("user_id", userID))
	}

	for i, item := range items {
		items[i] = uc.hydrate(ctx, item)
	}
	return items, nil
}

// Get returns one item with its photo loaded
func (uc *UseCase) Get(ctx context.Context, userID model.UserID, id model.InstanceID) (*model.CollectionItem, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	item, err := uc.repo.GetCollectionItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return uc.hydrate(ctx, item), nil
}

// hydrate fills SavedImage from object storage. A missing photo is logged
// and leaves the item without an image.
func (uc *UseCase) hydrate(ctx context.Context, item *model.CollectionItem) *model.CollectionItem {
	if uc.storage == nil || item.SavedImageKey == "" || item.SavedImage != "" {
		return item
	}

	r, err := uc.storage.Get(ctx, item.SavedImageKey)
	if err != nil {
		logging.From(ctx).Warn("failed to load saved photo", "error", err, "key", item.SavedImageKey)
		return item
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		logging.From(ctx).Warn("failed to read saved photo", "error", err, "key", item.SavedImageKey)
		return item
	}

	item.SavedImage = model.NewDataURI(data, "")
	return item
}
