package repository

import (
	"context"

	"github.com/snaptheplant/fieldguide/pkg/model"
)

// SpeciesRepository persists the species catalog
type SpeciesRepository interface {
	// ListSpecies retrieves all species ordered by ID
	ListSpecies(ctx context.Context) ([]*model.SpeciesRecord, error)

	// CountSpecies returns the number of species in the catalog
	CountSpecies(ctx context.Context) (int, error)

	// PutSpecies saves species records in one batch
	PutSpecies(ctx context.Context, records ...*model.SpeciesRecord) error

	// DeleteSpecies removes a species by ID
	DeleteSpecies(ctx context.Context, id model.SpeciesID) error
}

// CollectionRepository persists saved identifications per user
type CollectionRepository interface {
	// PutCollectionItem creates or replaces an item
	PutCollectionItem(ctx context.Context, item *model.CollectionItem) error

	// GetCollectionItem retrieves an item by instance ID
	GetCollectionItem(ctx context.Context, userID model.UserID, id model.InstanceID) (*model.CollectionItem, error)

	// ListCollectionItems retrieves a user's items ordered by CreatedAt
	ListCollectionItems(ctx context.Context, userID model.UserID) ([]*model.CollectionItem, error)

	// DeleteCollectionItem removes exactly one item
	DeleteCollectionItem(ctx context.Context, userID model.UserID, id model.InstanceID) error
}

// QuotaUpdater mutates a rate limit record. Returning an error aborts the
// update and nothing is persisted.
type QuotaUpdater func(record *model.RateLimitRecord) error

// QuotaRepository persists per-user daily counters
type QuotaRepository interface {
	// GetQuota retrieves the record; a missing record is returned zeroed
	GetQuota(ctx context.Context, userID model.UserID) (*model.RateLimitRecord, error)

	// UpdateQuota applies fn to the current record and saves the result
	UpdateQuota(ctx context.Context, userID model.UserID, fn QuotaUpdater) (*model.RateLimitRecord, error)
}

// UserRepository persists user identities and subscription tiers
type UserRepository interface {
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	PutUser(ctx context.Context, user *model.User) error
}

// ImageCacheRepository stores generated illustrations per catalog species
type ImageCacheRepository interface {
	GetCachedImage(ctx context.Context, id model.SpeciesID) (model.DataURI, error)
	PutCachedImage(ctx context.Context, id model.SpeciesID, image model.DataURI) error
	DeleteCachedImage(ctx context.Context, id model.SpeciesID) error
}

// Repository aggregates every store the application needs
type Repository interface {
	SpeciesRepository
	CollectionRepository
	QuotaRepository
	UserRepository
	ImageCacheRepository
}
