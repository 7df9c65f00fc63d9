package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// AnalysisKind tags which variant of Analysis is populated.
type AnalysisKind string

const (
	AnalysisAttributes AnalysisKind = "attributes"
	AnalysisDirect     AnalysisKind = "direct"
)

// Analysis is the normalized vision analysis result. Exactly one of
// Guess and Identification is set, according to Kind.
type Analysis struct {
	Kind           AnalysisKind
	Guess          *AttributeGuess
	Identification *Identification
}

// AttributeGuess is a quiz-style answer sheet produced from a photo.
type AttributeGuess struct {
	Attributes Attributes
	// IsPoisonous is nil when the analyzer gave no safety verdict.
	IsPoisonous *bool
}

// Identification is a single best species guess produced from a photo.
type Identification struct {
	Name            string
	ScientificName  string
	IsPoisonous     bool
	ToxicityWarning string
	KeyInformation  string
	CareTips        []CareTip
}

func NewAttributeGuess(attrs Attributes, isPoisonous *bool) *Analysis {
	return &Analysis{
		Kind: AnalysisAttributes,
		Guess: &AttributeGuess{
			Attributes:  attrs.Normalize(),
			IsPoisonous: isPoisonous,
		},
	}
}

func NewDirectIdentification(id *Identification) *Analysis {
	return &Analysis{
		Kind:           AnalysisDirect,
		Identification: id,
	}
}

// Validate checks the union is consistent and carries usable data.
func (a *Analysis) Validate() error {
	if a == nil {
		return goerr.Wrap(ErrMalformedAnalysis, "analysis is nil")
	}

	switch a.Kind {
	case AnalysisAttributes:
		if a.Guess == nil || a.Identification != nil {
			return goerr.Wrap(ErrMalformedAnalysis, "attribute analysis must carry only a guess")
		}
	case AnalysisDirect:
		if a.Identification == nil || a.Guess != nil {
			return goerr.Wrap(ErrMalformedAnalysis, "direct analysis must carry only an identification")
		}
		if strings.TrimSpace(a.Identification.Name) == "" {
			return goerr.Wrap(ErrMalformedAnalysis, "identification has no species name")
		}
	default:
		return goerr.Wrap(ErrMalformedAnalysis, "unknown analysis kind", goerr.V("kind", a.Kind))
	}
	return nil
}
