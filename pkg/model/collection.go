package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type InstanceID string

// NewInstanceID generates a new unique InstanceID
func NewInstanceID() InstanceID {
	return InstanceID(uuid.New().String())
}

// Validate checks if the instance id is a UUID
func (id InstanceID) Validate() error {
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(ErrInvalidInstanceID, "instance id is not a UUID", goerr.V("id", id))
	}
	return nil
}

// CollectionItem is a user's saved identification. The same species may be
// saved several times with different photos, so items are keyed by
// InstanceID instead of SpeciesID.
type CollectionItem struct {
	InstanceID      InstanceID `firestore:"instanceId"`
	UserID          UserID     `firestore:"userId"`
	SpeciesID       SpeciesID  `firestore:"speciesId"`
	Category        Category   `firestore:"category"`
	Name            string     `firestore:"name"`
	ScientificName  string     `firestore:"scientificName"`
	IsPoisonous     bool       `firestore:"isPoisonous"`
	ToxicityWarning string     `firestore:"toxicityWarning"`
	KeyInformation  string     `firestore:"keyInformation"`
	FurtherReading  string     `firestore:"furtherReading"`
	CareTips        []CareTip  `firestore:"careTips"`

	// SavedImage is the user's own photo. It is kept out of the document
	// when SavedImageKey points at object storage.
	SavedImage    DataURI `firestore:"savedImage,omitempty"`
	SavedImageKey string  `firestore:"savedImageKey,omitempty"`
	ImageDigest   string  `firestore:"imageDigest"`

	Notes     string    `firestore:"notes"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewCollectionItem copies the display fields of a species record.
func NewCollectionItem(userID UserID, species *SpeciesRecord, image DataURI, now time.Time) *CollectionItem {
	item := &CollectionItem{
		InstanceID:      NewInstanceID(),
		UserID:          userID,
		SpeciesID:       species.ID,
		Category:        species.Category,
		Name:            species.Name,
		ScientificName:  species.ScientificName,
		IsPoisonous:     species.IsPoisonous,
		ToxicityWarning: species.ToxicityWarning,
		KeyInformation:  species.KeyInformation,
		FurtherReading:  species.FurtherReading,
		SavedImage:      image,
		ImageDigest:     image.Digest(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if species.CareTips != nil {
		item.CareTips = append([]CareTip(nil), species.CareTips...)
	}
	return item
}

// SameCapture reports whether the item already holds this species and photo.
func (x *CollectionItem) SameCapture(speciesID SpeciesID, name string, digest string) bool {
	if x.ImageDigest != digest {
		return false
	}
	if speciesID == 0 {
		// transient species have no id; fall back to the name
		return x.SpeciesID == 0 && x.Name == name
	}
	return x.SpeciesID == speciesID
}
