package model

import "github.com/m-mizutani/goerr/v2"

// Input errors are detected before any external call.
var (
	ErrNoImage         = goerr.New("no image provided")
	ErrNoCategory      = goerr.New("no category selected")
	ErrInvalidCategory = goerr.New("invalid category")
	ErrInvalidDataURI  = goerr.New("invalid data URI")
)

// ErrQuotaExceeded is returned when the daily analysis budget is used up.
var ErrQuotaExceeded = goerr.New("daily limit reached")

var (
	ErrAnalysisFailed     = goerr.New("image analysis failed")
	ErrStaleResponse      = goerr.New("analysis response superseded by a newer request")
	ErrInvalidState       = goerr.New("operation not allowed in current session state")
	ErrCandidateNotFound  = goerr.New("candidate not found")
	ErrMalformedAnalysis  = goerr.New("malformed analysis response")
	ErrGenerationFailed   = goerr.New("content generation failed")
	ErrInvalidSpecies     = goerr.New("invalid species record")
	ErrInvalidInstanceID  = goerr.New("invalid instance id")
	ErrInvalidTier        = goerr.New("invalid subscription tier")
	ErrSpeciesNotFound    = goerr.New("species not found")
	ErrItemNotFound       = goerr.New("collection item not found")
	ErrUserNotFound       = goerr.New("user not found")
	ErrCachedImageMissing = goerr.New("cached image not found")
)
