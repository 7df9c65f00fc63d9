package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
)

// snapshot is the complete content of a Memory repository. It doubles as
// the on-disk layout of the file backend.
type snapshot struct {
	Species     []*model.SpeciesRecord                   `yaml:"species"`
	Collections map[model.UserID][]*model.CollectionItem `yaml:"collections"`
	Quotas      map[model.UserID]*model.RateLimitRecord  `yaml:"quotas"`
	Users       map[model.UserID]*model.User             `yaml:"users"`
	ImageCache  map[model.SpeciesID]model.DataURI        `yaml:"image_cache"`
}

func newSnapshot() *snapshot {
	return &snapshot{
		Collections: make(map[model.UserID][]*model.CollectionItem),
		Quotas:      make(map[model.UserID]*model.RateLimitRecord),
		Users:       make(map[model.UserID]*model.User),
		ImageCache:  make(map[model.SpeciesID]model.DataURI),
	}
}

// Memory implements Repository in process memory. Values are copied on the
// way in and out so callers never share state with the store.
type Memory struct {
	mu    sync.Mutex
	data  *snapshot
	flush func(*snapshot) error
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{data: newSnapshot()}
}

func (m *Memory) commit() error {
	if m.flush == nil {
		return nil
	}
	return m.flush(m.data)
}

func cloneItem(item *model.CollectionItem) *model.CollectionItem {
	c := *item
	if item.CareTips != nil {
		c.CareTips = append([]model.CareTip(nil), item.CareTips...)
	}
	return &c
}

func (m *Memory) ListSpecies(ctx context.Context) ([]*model.SpeciesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]*model.SpeciesRecord, 0, len(m.data.Species))
	for _, s := range m.data.Species {
		records = append(records, s.Clone())
	}
	return records, nil
}

func (m *Memory) CountSpecies(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.Species), nil
}

func (m *Memory) PutSpecies(ctx context.Context, records ...*model.SpeciesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range records {
		idx := slices.IndexFunc(m.data.Species, func(s *model.SpeciesRecord) bool { return s.ID == record.ID })
		if idx >= 0 {
			m.data.Species[idx] = record.Clone()
		} else {
			m.data.Species = append(m.data.Species, record.Clone())
		}
	}
	slices.SortStableFunc(m.data.Species, func(a, b *model.SpeciesRecord) int { return int(a.ID) - int(b.ID) })

	return m.commit()
}

func (m *Memory) DeleteSpecies(ctx context.Context, id model.SpeciesID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.data.Species, func(s *model.SpeciesRecord) bool { return s.ID == id })
	if idx < 0 {
		return goerr.Wrap(model.ErrSpeciesNotFound, "species not found", goerr.V("id", id))
	}
	m.data.Species = slices.Delete(m.data.Species, idx, idx+1)

	return m.commit()
}

func (m *Memory) PutCollectionItem(ctx context.Context, item *model.CollectionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.data.Collections[item.UserID]
	idx := slices.IndexFunc(items, func(x *model.CollectionItem) bool { return x.InstanceID == item.InstanceID })
	if idx >= 0 {
		items[idx] = cloneItem(item)
	} else {
		items = append(items, cloneItem(item))
	}
	m.data.Collections[item.UserID] = items

	return m.commit()
}

func (m *Memory) GetCollectionItem(ctx context.Context, userID model.UserID, id model.InstanceID) (*model.CollectionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.data.Collections[userID] {
		if item.InstanceID == id {
			return cloneItem(item), nil
		}
	}
	return nil, goerr.Wrap(model.ErrItemNotFound, "collection item not found",
		goerr.V("user_id", userID),
		goerr.V("instance_id", id))
}

func (m *Memory) ListCollectionItems(ctx context.Context, userID model.UserID) ([]*model.CollectionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]*model.CollectionItem, 0, len(m.data.Collections[userID]))
	for _, item := range m.data.Collections[userID] {
		items = append(items, cloneItem(item))
	}
	slices.SortStableFunc(items, func(a, b *model.CollectionItem) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return items, nil
}

func (m *Memory) DeleteCollectionItem(ctx context.Context, userID model.UserID, id model.InstanceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.data.Collections[userID]
	idx := slices.IndexFunc(items, func(x *model.CollectionItem) bool { return x.InstanceID == id })
	if idx < 0 {
		return goerr.Wrap(model.ErrItemNotFound, "collection item not found",
			goerr.V("user_id", userID),
			goerr.V("instance_id", id))
	}
	m.data.Collections[userID] = slices.Delete(items, idx, idx+1)

	return m.commit()
}

func (m *Memory) GetQuota(ctx context.Context, userID model.UserID) (*model.RateLimitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.data.Quotas[userID]; ok {
		c := *record
		return &c, nil
	}
	return &model.RateLimitRecord{UserID: userID}, nil
}

func (m *Memory) UpdateQuota(ctx context.Context, userID model.UserID, fn QuotaUpdater) (*model.RateLimitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := &model.RateLimitRecord{UserID: userID}
	if stored, ok := m.data.Quotas[userID]; ok {
		*record = *stored
	}

	if err := fn(record); err != nil {
		return nil, goerr.Wrap(err, "failed to update quota", goerr.V("user_id", userID))
	}

	saved := *record
	m.data.Quotas[userID] = &saved
	if err := m.commit(); err != nil {
		return nil, err
	}
	return record, nil
}

func (m *Memory) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.data.Users[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrUserNotFound, "user not found", goerr.V("user_id", id))
	}
	c := *user
	return &c, nil
}

func (m *Memory) PutUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *user
	m.data.Users[user.ID] = &c
	return m.commit()
}

func (m *Memory) GetCachedImage(ctx context.Context, id model.SpeciesID) (model.DataURI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	image, ok := m.data.ImageCache[id]
	if !ok {
		return "", goerr.Wrap(model.ErrCachedImageMissing, "no cached image", goerr.V("species_id", id))
	}
	return image, nil
}

func (m *Memory) PutCachedImage(ctx context.Context, id model.SpeciesID, image model.DataURI) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.ImageCache[id] = image
	return m.commit()
}

func (m *Memory) DeleteCachedImage(ctx context.Context, id model.SpeciesID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data.ImageCache, id)
	return m.commit()
}
