package collection

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
)

// SaveNotes replaces the free-text notes of an item
func (uc *UseCase) SaveNotes(ctx context.Context, userID model.UserID, id model.InstanceID, notes string) (*model.CollectionItem, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	item, err := uc.repo.GetCollectionItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	item.Notes = strings.TrimSpace(notes)
	item.UpdatedAt = uc.now()

	if err := uc.repo.PutCollectionItem(ctx, item); err != nil {
		return nil, goerr.Wrap(err, "failed to save notes", goerr.V("instance_id", id))
	}
	return uc.hydrate(ctx, item), nil
}
