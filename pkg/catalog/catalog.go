package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/repository"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

// Catalog is an immutable, ordered snapshot of species records. Accessors
// hand out copies so the snapshot cannot be changed through them.
type Catalog struct {
	records []*model.SpeciesRecord
}

// New builds a catalog preserving the order of records
func New(records []*model.SpeciesRecord) *Catalog {
	c := &Catalog{records: make([]*model.SpeciesRecord, 0, len(records))}
	for _, r := range records {
		if r == nil {
			continue
		}
		c.records = append(c.records, r.Clone())
	}
	return c
}

// Load reads the catalog from the store. An unavailable store yields an
// empty catalog; callers treat that as "try again later".
func Load(ctx context.Context, repo repository.SpeciesRepository) *Catalog {
	records, err := repo.ListSpecies(ctx)
	if err != nil {
		logging.From(ctx).Error("failed to load species catalog", "error", err)
		return New(nil)
	}
	return New(records)
}

// Len returns the number of records
func (c *Catalog) Len() int {
	return len(c.records)
}

// All returns every record in catalog order
func (c *Catalog) All() []*model.SpeciesRecord {
	return cloneAll(c.records)
}

// Get returns the record with the given id
func (c *Catalog) Get(id model.SpeciesID) (*model.SpeciesRecord, bool) {
	for _, r := range c.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return nil, false
}

// FindByName resolves a record by exact name or scientific name, ignoring
// case and surrounding space.
func (c *Catalog) FindByName(name string) (*model.SpeciesRecord, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}

	for _, r := range c.records {
		if strings.EqualFold(r.Name, name) || (r.ScientificName != "" && strings.EqualFold(r.ScientificName, name)) {
			return r.Clone(), true
		}
	}
	return nil, false
}

// SearchByText returns records whose name or scientific name contains query,
// or whose id equals query as an integer. A nil category searches everything.
func (c *Catalog) SearchByText(query string, category *model.Category) []*model.SpeciesRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	id, idErr := strconv.Atoi(query)

	var found []*model.SpeciesRecord
	for _, r := range c.records {
		if category != nil && r.Category != *category {
			continue
		}

		hit := strings.Contains(strings.ToLower(r.Name), query) ||
			strings.Contains(strings.ToLower(r.ScientificName), query) ||
			(idErr == nil && int(r.ID) == id)
		if hit {
			found = append(found, r.Clone())
		}
	}
	return found
}

// InCategory returns the records of one category in catalog order
func (c *Catalog) InCategory(category model.Category) []*model.SpeciesRecord {
	var found []*model.SpeciesRecord
	for _, r := range c.records {
		if r.Category == category {
			found = append(found, r.Clone())
		}
	}
	return found
}

func cloneAll(records []*model.SpeciesRecord) []*model.SpeciesRecord {
	out := make([]*model.SpeciesRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
