package identify

import (
	"context"
	"time"

	"github.com/snaptheplant/fieldguide/pkg/catalog"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/quota"
	"github.com/snaptheplant/fieldguide/pkg/repository"
	"github.com/snaptheplant/fieldguide/pkg/service/generate"
	"github.com/snaptheplant/fieldguide/pkg/service/vision"
)

// DefaultAnalysisTimeout bounds one vision analysis call
const DefaultAnalysisTimeout = 30 * time.Second

// Limiter gates vision analyses per user
type Limiter interface {
	Acquire(ctx context.Context, user *model.User) (*quota.Status, error)
}

// ObservationRecorder receives confirmed identifications
type ObservationRecorder interface {
	RecordObservation(ctx context.Context, obs *model.Observation) error
}

// CollectionStore saves confirmed identifications for a user
type CollectionStore interface {
	Save(ctx context.Context, userID model.UserID, species *model.SpeciesRecord, image model.DataURI) (*model.CollectionItem, error)
	SaveNotes(ctx context.Context, userID model.UserID, id model.InstanceID, notes string) (*model.CollectionItem, error)
}

// UseCase provides identification operations over one catalog snapshot
type UseCase struct {
	catalog  *catalog.Catalog
	analyzer vision.Analyzer
	limiter  Limiter

	images     generate.ImageGenerator
	stories    generate.StoryGenerator
	recorder   ObservationRecorder
	imageCache repository.ImageCacheRepository
	collection CollectionStore

	timeout time.Duration
	now     func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

func WithImageGenerator(g generate.ImageGenerator) Option {
	return func(uc *UseCase) {
		uc.images = g
	}
}

func WithStoryGenerator(g generate.StoryGenerator) Option {
	return func(uc *UseCase) {
		uc.stories = g
	}
}

func WithObservationRecorder(r ObservationRecorder) Option {
	return func(uc *UseCase) {
		uc.recorder = r
	}
}

// WithImageCache stores generated illustrations of catalog species
func WithImageCache(c repository.ImageCacheRepository) Option {
	return func(uc *UseCase) {
		uc.imageCache = c
	}
}

func WithCollection(c CollectionStore) Option {
	return func(uc *UseCase) {
		uc.collection = c
	}
}

func WithAnalysisTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.timeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new identify UseCase instance
func New(
	cat *catalog.Catalog,
	analyzer vision.Analyzer,
	limiter Limiter,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		catalog:  cat,
		analyzer: analyzer,
		limiter:  limiter,
		timeout:  DefaultAnalysisTimeout,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Catalog returns the catalog snapshot the use case matches against
func (uc *UseCase) Catalog() *catalog.Catalog {
	return uc.catalog
}
