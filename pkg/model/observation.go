package model

import (
	"time"

	"github.com/google/uuid"
)

type ObservationID string

func NewObservationID() ObservationID {
	return ObservationID(uuid.New().String())
}

// Observation is a confirmed identification exported for analytics.
type Observation struct {
	ID             ObservationID `bigquery:"id"`
	UserID         UserID        `bigquery:"user_id"`
	SpeciesID      SpeciesID     `bigquery:"species_id"`
	Name           string        `bigquery:"name"`
	ScientificName string        `bigquery:"scientific_name"`
	Category       Category      `bigquery:"category"`
	Confidence     int           `bigquery:"confidence"`
	IsNew          bool          `bigquery:"is_new"`
	ObservedAt     time.Time     `bigquery:"observed_at"`
}

// SpeciesTally is an aggregate row of the observation log.
type SpeciesTally struct {
	Name           string   `bigquery:"name"`
	ScientificName string   `bigquery:"scientific_name"`
	Category       Category `bigquery:"category"`
	Count          int64    `bigquery:"count"`
}
