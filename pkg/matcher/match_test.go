package matcher_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/snaptheplant/fieldguide/pkg/catalog"
	"github.com/snaptheplant/fieldguide/pkg/matcher"
	"github.com/snaptheplant/fieldguide/pkg/model"
)

func insects() []*model.SpeciesRecord {
	return []*model.SpeciesRecord{
		{ID: 8, Category: model.CategoryInsect, Name: "Monarch Butterfly", Attributes: model.Attributes{"color": "orange", "wings": "yes", "legs": "6"}},
		{ID: 9, Category: model.CategoryInsect, Name: "Honey Bee", ScientificName: "Apis mellifera", Attributes: model.Attributes{"color": "yellow", "wings": "yes", "legs": "6"}},
		{ID: 10, Category: model.CategoryInsect, Name: "Garden Spider", Attributes: model.Attributes{"color": "yellow", "wings": "no", "legs": "8"}},
		{ID: 4, Category: model.CategoryTree, Name: "Oak Tree", Attributes: model.Attributes{"bark": "rough", "leaf_shape": "lobed", "has_fruit": "yes"}},
	}
}

func seedRecords(t *testing.T) []*model.SpeciesRecord {
	records, err := catalog.DefaultRecords()
	gt.NoError(t, err)
	return records
}

func ids(candidates []*model.ScoredCandidate) []model.SpeciesID {
	out := make([]model.SpeciesID, len(candidates))
	for i, c := range candidates {
		out[i] = c.Species.ID
	}
	return out
}

func TestCategoryPartition(t *testing.T) {
	records := seedRecords(t)
	observed := model.Attributes{"color": "green", "size": "small", "wings": "yes"}

	for _, c := range model.Categories() {
		for _, candidate := range matcher.Match(records, c, observed) {
			gt.Equal(t, candidate.Species.Category, c)
		}
	}
}

func TestDeterminism(t *testing.T) {
	records := seedRecords(t)
	observed := model.Attributes{"color": "yellow", "wings": "yes"}

	first := matcher.Match(records, model.CategoryInsect, observed)
	second := matcher.Match(records, model.CategoryInsect, observed)

	gt.Equal(t, ids(first), ids(second))
	for i := range first {
		gt.Equal(t, first[i].Confidence, second[i].Confidence)
		gt.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestEmptyAttributesIdentity(t *testing.T) {
	records := seedRecords(t)

	for _, c := range model.Categories() {
		var expected []model.SpeciesID
		for _, r := range records {
			if r.Category == c {
				expected = append(expected, r.ID)
			}
		}

		for _, observed := range []model.Attributes{nil, {}} {
			result := matcher.Match(records, c, observed)
			gt.A(t, result).Length(len(expected))
			for i, candidate := range result {
				gt.Equal(t, candidate.Species.ID, expected[i])
				gt.Equal(t, candidate.Confidence, 0)
				gt.Equal(t, candidate.Score, 0)
			}
		}
	}
}

func TestConfidenceBound(t *testing.T) {
	records := seedRecords(t)
	inputs := []model.Attributes{
		{},
		{"color": "yellow", "wings": "yes", "legs": "6"},
		// free-form keys from a vision guess are ignored
		{"color": "yellow", "wings": "yes", "legs": "6", "antennae": "yes", "stripes": "yes"},
		{"bark": "rough", "leaf_shape": "lobed", "has_fruit": "yes", "color": "brown"},
	}

	for _, observed := range inputs {
		for _, c := range model.Categories() {
			for _, candidate := range matcher.Match(records, c, observed) {
				gt.True(t, candidate.Confidence >= 0)
				gt.True(t, candidate.Confidence <= 100)
			}
		}
	}
}

func TestCaseInsensitivity(t *testing.T) {
	records := seedRecords(t)

	upper := matcher.Match(records, model.CategoryPlant, model.Attributes{"color": "RED"})
	lower := matcher.Match(records, model.CategoryPlant, model.Attributes{"color": "red"})
	padded := matcher.Match(records, model.CategoryPlant, model.Attributes{" Color ": " Red "})

	gt.Equal(t, ids(upper), ids(lower))
	gt.Equal(t, ids(padded), ids(lower))
	for i := range lower {
		gt.Equal(t, upper[i].Confidence, lower[i].Confidence)
		gt.Equal(t, padded[i].Confidence, lower[i].Confidence)
	}
	gt.True(t, lower[0].Confidence > 0)
}

func TestExactQuizMatch(t *testing.T) {
	result := matcher.Match(insects(), model.CategoryInsect, model.Attributes{"color": "yellow", "wings": "yes", "legs": "6"})

	gt.A(t, result).Length(3)
	gt.Equal(t, result[0].Species.ID, model.SpeciesID(9))
	gt.Equal(t, result[0].Confidence, 100)
	gt.Equal(t, result[0].Score, 3)
}

func TestPartialMismatchIsSoft(t *testing.T) {
	result := matcher.Match(insects(), model.CategoryInsect, model.Attributes{"color": "yellow", "wings": "yes", "legs": "8"})

	gt.A(t, result).Length(3)
	var bee *model.ScoredCandidate
	for _, c := range result {
		if c.Species.ID == 9 {
			bee = c
		}
	}
	gt.V(t, bee).NotNil()
	gt.Equal(t, bee.Confidence, 66)
	gt.True(t, bee.Confidence < 100)

	// bee ties with the spider and wins on catalog order
	gt.Equal(t, ids(result), []model.SpeciesID{9, 10, 8})
}

func TestTiesKeepCatalogOrder(t *testing.T) {
	result := matcher.Match(insects(), model.CategoryInsect, model.Attributes{"wings": "yes"})
	gt.Equal(t, ids(result), []model.SpeciesID{8, 9, 10})
	gt.Equal(t, result[0].Confidence, 33)
	gt.Equal(t, result[2].Confidence, 0)
}

func TestNoCandidates(t *testing.T) {
	result := matcher.Match(insects(), model.CategoryBird, model.Attributes{"color": "red"})
	gt.V(t, result).NotNil()
	gt.A(t, result).Length(0)
}

func TestMatchDoesNotExposeRecords(t *testing.T) {
	records := insects()
	result := matcher.Match(records, model.CategoryInsect, nil)
	result[0].Species.Name = "Changed"
	gt.Equal(t, records[0].Name, "Monarch Butterfly")
}

func TestTop(t *testing.T) {
	result := matcher.Match(insects(), model.CategoryInsect, nil)
	gt.A(t, matcher.Top(result, 2)).Length(2)
	gt.A(t, matcher.Top(result, 10)).Length(3)
	gt.A(t, matcher.Top(result, -1)).Length(0)
}
