package identify

import (
	"github.com/snaptheplant/fieldguide/pkg/matcher"
	"github.com/snaptheplant/fieldguide/pkg/model"
)

// Browse lists a category in catalog order. No analysis, no quota.
func (uc *UseCase) Browse(category model.Category) ([]*model.ScoredCandidate, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	return matcher.Match(uc.catalog.InCategory(category), category, nil), nil
}

// Quiz ranks a category by the user's own answers. Answers to questions
// outside the category vocabulary are ignored.
func (uc *UseCase) Quiz(category model.Category, answers model.Attributes) ([]*model.ScoredCandidate, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	return matcher.Match(uc.catalog.InCategory(category), category, answers), nil
}

// Search looks up species by text or id, e.g. a scanned label value
func (uc *UseCase) Search(query string, category *model.Category) ([]*model.SpeciesRecord, error) {
	if category != nil {
		if err := category.Validate(); err != nil {
			return nil, err
		}
	}
	return uc.catalog.SearchByText(query, category), nil
}
