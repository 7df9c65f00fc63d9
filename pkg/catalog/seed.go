package catalog

import (
	"context"
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/repository"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

//go:embed data/species.yaml
var defaultSpeciesYAML []byte

type seedFile struct {
	Species []*model.SpeciesRecord `yaml:"species"`
}

// Parse decodes a YAML seed document and validates every record
func Parse(data []byte) ([]*model.SpeciesRecord, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse species yaml")
	}

	seen := make(map[model.SpeciesID]struct{}, len(file.Species))
	for _, record := range file.Species {
		if err := record.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid species record", goerr.V("name", record.Name))
		}
		if _, dup := seen[record.ID]; dup {
			return nil, goerr.Wrap(model.ErrInvalidSpecies, "duplicated species id", goerr.V("id", record.ID))
		}
		seen[record.ID] = struct{}{}
		record.Attributes = record.Attributes.Normalize()
	}

	return file.Species, nil
}

// DefaultRecords returns the embedded seed catalog
func DefaultRecords() ([]*model.SpeciesRecord, error) {
	return Parse(defaultSpeciesYAML)
}

// LoadFile reads seed records from a YAML file. An empty path selects the
// embedded catalog.
func LoadFile(path string) ([]*model.SpeciesRecord, error) {
	if path == "" {
		return DefaultRecords()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read species file", goerr.V("path", path))
	}
	return Parse(data)
}

// Seed writes records only when the store holds no species yet. It reports
// whether anything was written.
func Seed(ctx context.Context, repo repository.SpeciesRepository, records []*model.SpeciesRecord) (bool, error) {
	count, err := repo.CountSpecies(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to count species")
	}
	if count > 0 {
		logging.From(ctx).Debug("species catalog already populated", "count", count)
		return false, nil
	}

	if err := repo.PutSpecies(ctx, records...); err != nil {
		return false, goerr.Wrap(err, "failed to seed species", goerr.V("count", len(records)))
	}

	logging.From(ctx).Info("seeded species catalog", "count", len(records))
	return true, nil
}
