package model

import (
	"maps"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type SpeciesID int

// CareTip is a titled piece of care advice, e.g. "Watering".
type CareTip struct {
	Title       string `json:"title" yaml:"title" firestore:"title"`
	Description string `json:"description" yaml:"description" firestore:"description"`
}

// SpeciesRecord is an immutable catalog entry. A zero ID marks a transient
// record synthesized from an analysis that matched nothing in the catalog.
type SpeciesRecord struct {
	ID              SpeciesID  `json:"id" yaml:"id" firestore:"id"`
	Category        Category   `json:"category" yaml:"category" firestore:"category"`
	Name            string     `json:"name" yaml:"name" firestore:"name"`
	ScientificName  string     `json:"scientificName" yaml:"scientific_name" firestore:"scientificName"`
	Attributes      Attributes `json:"attributes,omitempty" yaml:"attributes" firestore:"attributes"`
	IsPoisonous     bool       `json:"isPoisonous" yaml:"is_poisonous" firestore:"isPoisonous"`
	ToxicityWarning string     `json:"toxicityWarning,omitempty" yaml:"toxicity_warning,omitempty" firestore:"toxicityWarning"`
	CareTips        []CareTip  `json:"careTips,omitempty" yaml:"care_tips,omitempty" firestore:"careTips"`
	Image           string     `json:"image" yaml:"image" firestore:"image"`
	FurtherReading  string     `json:"furtherReading" yaml:"further_reading" firestore:"furtherReading"`
	KeyInformation  string     `json:"keyInformation" yaml:"key_information" firestore:"keyInformation"`
}

// Validate checks a record intended for the catalog.
func (s *SpeciesRecord) Validate() error {
	if s.ID <= 0 {
		return goerr.Wrap(ErrInvalidSpecies, "species id must be positive", goerr.V("id", s.ID))
	}
	if s.Name == "" {
		return goerr.Wrap(ErrInvalidSpecies, "species name is empty", goerr.V("id", s.ID))
	}
	if err := s.Category.Validate(); err != nil {
		return goerr.Wrap(err, "invalid species category", goerr.V("id", s.ID))
	}
	for key := range s.Attributes {
		if !s.Category.HasAttributeKey(key) {
			return goerr.Wrap(ErrInvalidSpecies, "attribute key outside category vocabulary",
				goerr.V("id", s.ID),
				goerr.V("category", s.Category),
				goerr.V("key", key))
		}
	}
	if !s.IsPoisonous && s.ToxicityWarning != "" {
		return goerr.Wrap(ErrInvalidSpecies, "toxicity warning on non-poisonous species", goerr.V("id", s.ID))
	}
	return nil
}

// IsTransient reports whether the record is not part of the catalog.
func (s *SpeciesRecord) IsTransient() bool {
	return s.ID == 0
}

// Clone returns a deep copy so callers can never mutate a catalog record.
func (s *SpeciesRecord) Clone() *SpeciesRecord {
	if s == nil {
		return nil
	}
	c := *s
	c.Attributes = maps.Clone(s.Attributes)
	if s.CareTips != nil {
		c.CareTips = append([]CareTip(nil), s.CareTips...)
	}
	return &c
}

// Attributes maps an attribute key to a single observed or catalogued value.
type Attributes map[string]string

// Normalize trims keys and values, lower-cases them and drops empty entries.
func (a Attributes) Normalize() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Matches reports whether both sides define key with case-insensitively
// equal values.
func (a Attributes) Matches(key, value string) bool {
	own, ok := a[key]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(own), strings.TrimSpace(value))
}

// ScoredCandidate pairs a species with its agreement with the observed
// attributes. It lives for one matching call only.
type ScoredCandidate struct {
	Species    *SpeciesRecord `json:"species"`
	Score      int            `json:"score"`
	Confidence int            `json:"confidence"`
	IsNew      bool           `json:"isNew,omitempty"`
}
