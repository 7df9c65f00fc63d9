package collection

import (
	"time"

	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/repository"
)

// UseCase provides operations on a user's saved identifications
type UseCase struct {
	repo    repository.CollectionRepository
	storage adapter.Storage
	now     func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithStorage keeps photos in object storage instead of inside items
func WithStorage(s adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new collection UseCase instance
func New(repo repository.CollectionRepository, opts ...Option) *UseCase {
	uc := &UseCase{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func photoKey(userID model.UserID, id model.InstanceID) string {
	return "photos/" + string(userID) + "/" + string(id)
}
