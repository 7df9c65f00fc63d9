package repository

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionSpecies    = "species"
	collectionUsers      = "users"
	collectionSaved      = "collection"
	collectionQuota      = "quota"
	collectionImageCache = "imageCache"
)

// Firestore implements Repository using Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func speciesDocID(id model.SpeciesID) string {
	return strconv.Itoa(int(id))
}

func (r *Firestore) ListSpecies(ctx context.Context) ([]*model.SpeciesRecord, error) {
	iter := r.client.Collection(collectionSpecies).OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var records []*model.SpeciesRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate species")
		}

		var record model.SpeciesRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode species", goerr.V("doc", doc.Ref.ID))
		}
		records = append(records, &record)
	}

	return records, nil
}

func (r *Firestore) CountSpecies(ctx context.Context) (int, error) {
	query := r.client.Collection(collectionSpecies).NewAggregationQuery().WithCount("all")
	result, err := query.Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count species")
	}

	v, ok := result["all"].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count result type", goerr.V("result", result))
	}
	return int(v.GetIntegerValue()), nil
}

func (r *Firestore) PutSpecies(ctx context.Context, records ...*model.SpeciesRecord) error {
	if len(records) == 0 {
		return nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(records))
	for _, record := range records {
		ref := r.client.Collection(collectionSpecies).Doc(speciesDocID(record.ID))
		job, err := bw.Set(ref, record)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue species write", goerr.V("id", record.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write species", goerr.V("id", records[i].ID))
		}
	}

	return nil
}

func (r *Firestore) DeleteSpecies(ctx context.Context, id model.SpeciesID) error {
	ref := r.client.Collection(collectionSpecies).Doc(speciesDocID(id))
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(model.ErrSpeciesNotFound, "species not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get species", goerr.V("id", id))
	}

	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete species", goerr.V("id", id))
	}
	return nil
}

func (r *Firestore) savedItems(userID model.UserID) *firestore.CollectionRef {
	return r.client.Collection(collectionUsers).Doc(string(userID)).Collection(collectionSaved)
}

func (r *Firestore) PutCollectionItem(ctx context.Context, item *model.CollectionItem) error {
	if _, err := r.savedItems(item.UserID).Doc(string(item.InstanceID)).Set(ctx, item); err != nil {
		return goerr.Wrap(err, "failed to put collection item",
			goerr.V("user_id", item.UserID),
			goerr.V("instance_id", item.InstanceID))
	}
	return nil
}

func (r *Firestore) GetCollectionItem(ctx context.Context, userID model.UserID, id model.InstanceID) (*model.CollectionItem, error) {
	doc, err := r.savedItems(userID).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(model.ErrItemNotFound, "collection item not found",
				goerr.V("user_id", userID),
				goerr.V("instance_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get collection item", goerr.V("instance_id", id))
	}

	var item model.CollectionItem
	if err := doc.DataTo(&item); err != nil {
		return nil, goerr.Wrap(err, "failed to decode collection item", goerr.V("instance_id", id))
	}
	return &item, nil
}

func (r *Firestore) ListCollectionItems(ctx context.Context, userID model.UserID) ([]*model.CollectionItem, error) {
	docs, err := r.savedItems(userID).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list collection items", goerr.V("user_id", userID))
	}

	items := make([]*model.CollectionItem, 0, len(docs))
	for _, doc := range docs {
		var item model.CollectionItem
		if err := doc.DataTo(&item); err != nil {
			return nil, goerr.Wrap(err, "failed to decode collection item", goerr.V("doc", doc.Ref.ID))
		}
		items = append(items, &item)
	}
	return items, nil
}

func (r *Firestore) DeleteCollectionItem(ctx context.Context, userID model.UserID, id model.InstanceID) error {
	ref := r.savedItems(userID).Doc(string(id))
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(model.ErrItemNotFound, "collection item not found",
				goerr.V("user_id", userID),
				goerr.V("instance_id", id))
		}
		return goerr.Wrap(err, "failed to get collection item", goerr.V("instance_id", id))
	}

	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete collection item", goerr.V("instance_id", id))
	}
	return nil
}

func (r *Firestore) GetQuota(ctx context.Context, userID model.UserID) (*model.RateLimitRecord, error) {
	record := &model.RateLimitRecord{UserID: userID}

	doc, err := r.client.Collection(collectionQuota).Doc(string(userID)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return record, nil
		}
		return nil, goerr.Wrap(err, "failed to get quota", goerr.V("user_id", userID))
	}

	if err := doc.DataTo(record); err != nil {
		return nil, goerr.Wrap(err, "failed to decode quota", goerr.V("user_id", userID))
	}
	return record, nil
}

// UpdateQuota runs fn inside a transaction so concurrent devices of the same
// user do not lose increments.
func (r *Firestore) UpdateQuota(ctx context.Context, userID model.UserID, fn QuotaUpdater) (*model.RateLimitRecord, error) {
	ref := r.client.Collection(collectionQuota).Doc(string(userID))

	var updated *model.RateLimitRecord
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		record := &model.RateLimitRecord{UserID: userID}

		doc, err := tx.Get(ref)
		switch {
		case err == nil:
			if err := doc.DataTo(record); err != nil {
				return goerr.Wrap(err, "failed to decode quota")
			}
		case isNotFound(err):
		default:
			return goerr.Wrap(err, "failed to get quota")
		}

		if err := fn(record); err != nil {
			return err
		}

		updated = record
		return tx.Set(ref, record)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update quota", goerr.V("user_id", userID))
	}

	return updated, nil
}

func (r *Firestore) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	doc, err := r.client.Collection(collectionUsers).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(model.ErrUserNotFound, "user not found", goerr.V("user_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("user_id", id))
	}

	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("user_id", id))
	}
	return &user, nil
}

func (r *Firestore) PutUser(ctx context.Context, user *model.User) error {
	// the saved collection subcollection is not touched by Set
	if _, err := r.client.Collection(collectionUsers).Doc(string(user.ID)).Set(ctx, user); err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("user_id", user.ID))
	}
	return nil
}

type cachedImage struct {
	ImageDataURI model.DataURI `firestore:"imageDataUri"`
	CreatedAt    time.Time     `firestore:"createdAt"`
}

func (r *Firestore) GetCachedImage(ctx context.Context, id model.SpeciesID) (model.DataURI, error) {
	doc, err := r.client.Collection(collectionImageCache).Doc(speciesDocID(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return "", goerr.Wrap(model.ErrCachedImageMissing, "no cached image", goerr.V("species_id", id))
		}
		return "", goerr.Wrap(err, "failed to get cached image", goerr.V("species_id", id))
	}

	var cached cachedImage
	if err := doc.DataTo(&cached); err != nil {
		return "", goerr.Wrap(err, "failed to decode cached image", goerr.V("species_id", id))
	}
	return cached.ImageDataURI, nil
}

func (r *Firestore) PutCachedImage(ctx context.Context, id model.SpeciesID, image model.DataURI) error {
	ref := r.client.Collection(collectionImageCache).Doc(speciesDocID(id))
	if _, err := ref.Set(ctx, &cachedImage{ImageDataURI: image, CreatedAt: time.Now()}); err != nil {
		return goerr.Wrap(err, "failed to put cached image", goerr.V("species_id", id))
	}
	return nil
}

func (r *Firestore) DeleteCachedImage(ctx context.Context, id model.SpeciesID) error {
	if _, err := r.client.Collection(collectionImageCache).Doc(speciesDocID(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete cached image", goerr.V("species_id", id))
	}
	return nil
}
