package collection_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/repository"
	"github.com/snaptheplant/fieldguide/pkg/usecase/collection"
)

// Mock Storage
type mockStorage struct {
	data map[string][]byte
	mime map[string]string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		data: make(map[string][]byte),
		mime: make(map[string]string),
	}
}

type mockWriteCloser struct {
	*bytes.Buffer
	storage *mockStorage
	key     string
}

func (m *mockWriteCloser) Close() error {
	m.storage.data[m.key] = m.Buffer.Bytes()
	return nil
}

func (m *mockStorage) Put(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	m.mime[key] = contentType
	return &mockWriteCloser{Buffer: &bytes.Buffer{}, storage: m, key: key}, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, goerr.Wrap(adapter.ErrObjectNotFound, "data not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	if _, ok := m.data[key]; !ok {
		return goerr.Wrap(adapter.ErrObjectNotFound, "data not found", goerr.V("key", key))
	}
	delete(m.data, key)
	return nil
}

var _ adapter.Storage = (*mockStorage)(nil)

var (
	photoA = model.NewDataURI([]byte("\x89PNG\r\n\x1a\nphoto-a"), "image/png")
	photoB = model.NewDataURI([]byte("\x89PNG\r\n\x1a\nphoto-b"), "image/png")

	bee = &model.SpeciesRecord{
		ID:              9,
		Category:        model.CategoryInsect,
		Name:            "Honey Bee",
		ScientificName:  "Apis mellifera",
		IsPoisonous:     true,
		ToxicityWarning: "Stings can cause severe allergic reactions.",
	}
)

func clock() func() time.Time {
	ts := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		ts = ts.Add(time.Minute)
		return ts
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	uc := collection.New(repository.NewMemory(), collection.WithClock(clock()))

	first, err := uc.Save(ctx, "alice", bee, photoA)
	gt.NoError(t, err)
	second, err := uc.Save(ctx, "alice", bee, photoA)
	gt.NoError(t, err)
	gt.Equal(t, second.InstanceID, first.InstanceID)

	// a different photo of the same species is a new item
	third, err := uc.Save(ctx, "alice", bee, photoB)
	gt.NoError(t, err)
	gt.NotEqual(t, third.InstanceID, first.InstanceID)

	items, err := uc.List(ctx, "alice")
	gt.NoError(t, err)
	gt.A(t, items).Length(2)
	gt.Equal(t, items[0].InstanceID, first.InstanceID)
	gt.Equal(t, items[0].ToxicityWarning, bee.ToxicityWarning)
	gt.Equal(t, items[0].SavedImage, photoA)
}

func TestRemoveExactlyOne(t *testing.T) {
	ctx := context.Background()
	uc := collection.New(repository.NewMemory(), collection.WithClock(clock()))

	a, err := uc.Save(ctx, "alice", bee, photoA)
	gt.NoError(t, err)
	b, err := uc.Save(ctx, "alice", bee, photoB)
	gt.NoError(t, err)

	gt.NoError(t, uc.Remove(ctx, "alice", a.InstanceID))

	items, err := uc.List(ctx, "alice")
	gt.NoError(t, err)
	gt.A(t, items).Length(1)
	gt.Equal(t, items[0].InstanceID, b.InstanceID)
	gt.Equal(t, items[0].SpeciesID, bee.ID)

	err = uc.Remove(ctx, "alice", a.InstanceID)
	gt.True(t, errors.Is(err, model.ErrItemNotFound))

	err = uc.Remove(ctx, "alice", "not-a-uuid")
	gt.True(t, errors.Is(err, model.ErrInvalidInstanceID))
}

func TestCollectionsArePerUser(t *testing.T) {
	ctx := context.Background()
	uc := collection.New(repository.NewMemory())

	a, err := uc.Save(ctx, "alice", bee, photoA)
	gt.NoError(t, err)
	b, err := uc.Save(ctx, "bob", bee, photoA)
	gt.NoError(t, err)
	gt.NotEqual(t, a.InstanceID, b.InstanceID)

	err = uc.Remove(ctx, "bob", a.InstanceID)
	gt.True(t, errors.Is(err, model.ErrItemNotFound))
}

func TestSaveTransientSpecies(t *testing.T) {
	ctx := context.Background()
	uc := collection.New(repository.NewMemory())

	bizarro := &model.SpeciesRecord{Category: model.CategoryInsect, Name: "Bizarro Bug", ScientificName: "Bizarria bizarris"}
	other := &model.SpeciesRecord{Category: model.CategoryInsect, Name: "Mystery Moth"}

	first, err := uc.Save(ctx, "alice", bizarro, photoA)
	gt.NoError(t, err)
	again, err := uc.Save(ctx, "alice", bizarro, photoA)
	gt.NoError(t, err)
	gt.Equal(t, again.InstanceID, first.InstanceID)

	moth, err := uc.Save(ctx, "alice", other, photoA)
	gt.NoError(t, err)
	gt.NotEqual(t, moth.InstanceID, first.InstanceID)
}

func TestSaveInputErrors(t *testing.T) {
	ctx := context.Background()
	uc := collection.New(repository.NewMemory())

	_, err := uc.Save(ctx, "alice", bee, "")
	gt.True(t, errors.Is(err, model.ErrNoImage))

	_, err = uc.Save(ctx, "alice", nil, photoA)
	gt.True(t, errors.Is(err, model.ErrInvalidSpecies))
}

func TestSaveNotes(t *testing.T) {
	ctx := context.Background()
	uc := collection.New(repository.NewMemory(), collection.WithClock(clock()))

	item, err := uc.Save(ctx, "alice", bee, photoA)
	gt.NoError(t, err)

	updated, err := uc.SaveNotes(ctx, "alice", item.InstanceID, "  near the lavender  ")
	gt.NoError(t, err)
	gt.Equal(t, updated.Notes, "near the lavender")
	gt.True(t, updated.UpdatedAt.After(item.CreatedAt))
	gt.Equal(t, updated.CreatedAt, item.CreatedAt)

	got, err := uc.Get(ctx, "alice", item.InstanceID)
	gt.NoError(t, err)
	gt.Equal(t, got.Notes, "near the lavender")

	_, err = uc.SaveNotes(ctx, "alice", model.NewInstanceID(), "x")
	gt.True(t, errors.Is(err, model.ErrItemNotFound))
}

func TestPhotosInStorage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	storage := newMockStorage()
	uc := collection.New(repo, collection.WithStorage(storage))

	item, err := uc.Save(ctx, "alice", bee, photoA)
	gt.NoError(t, err)
	gt.Equal(t, item.SavedImageKey, "photos/alice/"+string(item.InstanceID))
	gt.Equal(t, item.SavedImage, photoA)
	gt.Equal(t, storage.mime[item.SavedImageKey], "image/png")

	// the stored item does not embed the photo
	stored, err := repo.GetCollectionItem(ctx, "alice", item.InstanceID)
	gt.NoError(t, err)
	gt.Equal(t, stored.SavedImage, model.DataURI(""))

	// listing loads it back
	items, err := uc.List(ctx, "alice")
	gt.NoError(t, err)
	gt.A(t, items).Length(1)
	_, data, err := items[0].SavedImage.Decode()
	gt.NoError(t, err)
	_, want, err := photoA.Decode()
	gt.NoError(t, err)
	gt.Equal(t, data, want)

	// dedupe still works without the embedded photo
	again, err := uc.Save(ctx, "alice", bee, photoA)
	gt.NoError(t, err)
	gt.Equal(t, again.InstanceID, item.InstanceID)

	gt.NoError(t, uc.Remove(ctx, "alice", item.InstanceID))
	gt.Equal(t, len(storage.data), 0)
}

// failingPut rejects every write of a collection item
type failingPut struct {
	repository.CollectionRepository
}

func (f *failingPut) PutCollectionItem(ctx context.Context, item *model.CollectionItem) error {
	return errors.New("firestore unavailable")
}

func TestSaveFailureRemovesUploadedPhoto(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	uc := collection.New(&failingPut{CollectionRepository: repository.NewMemory()}, collection.WithStorage(storage))

	_, err := uc.Save(ctx, "alice", bee, photoA)
	gt.Error(t, err)
	gt.Equal(t, len(storage.data), 0)
}
