package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Category partitions the catalog and selects the attribute vocabulary.
type Category string

const (
	CategoryPlant     Category = "Plant"
	CategoryTree      Category = "Tree"
	CategoryWeed      Category = "Weed"
	CategoryInsect    Category = "Insect"
	CategoryCactus    Category = "Cactus"
	CategorySucculent Category = "Succulent"
	CategoryBird      Category = "Bird"
)

var categories = []Category{
	CategoryPlant,
	CategoryTree,
	CategoryWeed,
	CategoryInsect,
	CategoryCactus,
	CategorySucculent,
	CategoryBird,
}

// Categories returns all categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Validate checks if the category is known
func (c Category) Validate() error {
	for _, known := range categories {
		if c == known {
			return nil
		}
	}
	return goerr.Wrap(ErrInvalidCategory, "unknown category", goerr.V("category", c))
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrNoCategory
	}
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", goerr.Wrap(ErrInvalidCategory, "unknown category", goerr.V("category", s))
}

// IsPlantLike reports whether care tips apply to the category.
func (c Category) IsPlantLike() bool {
	switch c {
	case CategoryInsect, CategoryBird:
		return false
	default:
		return true
	}
}

// AttributeQuestion is one quiz question of a category vocabulary.
type AttributeQuestion struct {
	Key      string
	Question string
	Options  []string
}

var (
	colorOptions = []string{"red", "green", "yellow", "blue", "white", "other"}
	sizeOptions  = []string{"small", "medium", "large"}
)

var vocabularies = map[Category][]*AttributeQuestion{
	CategoryPlant: {
		{Key: "color", Question: "What is the primary color of the flower/leaves?", Options: colorOptions},
		{Key: "shape", Question: "What is the leaf shape?", Options: []string{"simple", "lobed", "needle", "compound"}},
		{Key: "size", Question: "What is the approximate size?", Options: sizeOptions},
	},
	CategoryTree: {
		{Key: "bark", Question: "What does the bark look like?", Options: []string{"smooth", "rough", "peeling"}},
		{Key: "leaf_shape", Question: "What is the leaf shape?", Options: []string{"simple", "lobed", "needle"}},
		{Key: "has_fruit", Question: "Does it have fruit or flowers?", Options: []string{"yes", "no"}},
	},
	CategoryWeed: {
		{Key: "flower_color", Question: "What color are the flowers, if any?", Options: colorOptions},
		{Key: "location", Question: "Where is it growing?", Options: []string{"lawn", "garden", "pavement"}},
		{Key: "leaf_type", Question: "What do the leaves look like?", Options: []string{"broad", "grassy", "toothed"}},
	},
	CategoryInsect: {
		{Key: "color", Question: "What is the main color of the insect?", Options: colorOptions},
		{Key: "wings", Question: "Does it have wings?", Options: []string{"yes", "no"}},
		{Key: "legs", Question: "How many legs does it have?", Options: []string{"6", "8", "more"}},
	},
	CategoryCactus: {
		{Key: "shape", Question: "What is the overall shape of the cactus?", Options: []string{"columnar", "globular", "paddles"}},
		{Key: "flowers", Question: "Are there flowers visible?", Options: []string{"yes", "no"}},
		{Key: "color", Question: "What color is it?", Options: []string{"green", "blue-green", "grey-green"}},
	},
	CategorySucculent: {
		{Key: "arrangement", Question: "How are the leaves arranged?", Options: []string{"rosette", "trailing", "upright"}},
		{Key: "color", Question: "What color are the leaves?", Options: []string{"green", "blue-green", "purple", "variegated"}},
		{Key: "size", Question: "What is the approximate size?", Options: sizeOptions},
	},
	CategoryBird: {
		{Key: "color", Question: "What is the dominant plumage color?", Options: []string{"black", "brown", "red", "yellow", "blue", "white", "other"}},
		{Key: "size", Question: "How big is the bird?", Options: sizeOptions},
		{Key: "beak", Question: "What does the beak look like?", Options: []string{"short", "long", "hooked"}},
	},
}

// Vocabulary returns the quiz questions of the category. Unknown categories
// have no vocabulary.
func Vocabulary(c Category) []*AttributeQuestion {
	return vocabularies[c]
}

// AttributeKeys returns the recognized attribute keys of the category.
func (c Category) AttributeKeys() []string {
	questions := vocabularies[c]
	keys := make([]string, 0, len(questions))
	for _, q := range questions {
		keys = append(keys, q.Key)
	}
	return keys
}

// HasAttributeKey reports whether key belongs to the category vocabulary.
func (c Category) HasAttributeKey(key string) bool {
	for _, q := range vocabularies[c] {
		if q.Key == key {
			return true
		}
	}
	return false
}
