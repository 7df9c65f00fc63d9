package identify

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/matcher"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/quota"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateMatchesReady
	StateResultConfirmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateMatchesReady:
		return "matches_ready"
	case StateResultConfirmed:
		return "result_confirmed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one analysis
type Result struct {
	Generation uint64
	Category   model.Category
	Image      model.DataURI
	Analysis   *model.Analysis
	Candidates []*model.ScoredCandidate
	Quota      *quota.Status
}

// Empty reports "no matches, try again". It is not an error.
func (r *Result) Empty() bool {
	return len(r.Candidates) == 0
}

// Session drives one user's identification attempts. Every analysis request
// is tagged with a generation number; a response whose generation has been
// superseded by Reset or a newer Start is dropped. Session is safe for
// concurrent use.
type Session struct {
	uc   *UseCase
	user *model.User

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	result     *Result
	confirmed  *model.ScoredCandidate
}

// NewSession starts an idle session for user
func (uc *UseCase) NewSession(user *model.User) *Session {
	return &Session{
		uc:    uc,
		user:  user,
		state: StateIdle,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last analysis result, or nil when idle
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Confirmed returns the chosen candidate once the result is confirmed
func (s *Session) Confirmed() *model.ScoredCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed
}

func validateInput(category model.Category, image model.DataURI) error {
	if category == "" {
		return goerr.Wrap(model.ErrNoCategory, "category is required")
	}
	if err := category.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(image)) == "" {
		return goerr.Wrap(model.ErrNoImage, "image is required")
	}
	return image.Validate()
}

// Start analyzes image as a member of category and ranks the catalog. A new
// capture replaces the previous session state before anything else, so a
// capture rejected for input or quota leaves the session Idle with no
// result. Input and quota errors never reach the analyzer. An analysis
// failure returns the session to Idle.
func (s *Session) Start(ctx context.Context, category model.Category, image model.DataURI) (*Result, error) {
	s.mu.Lock()
	s.abandon()
	gen := s.generation
	s.mu.Unlock()

	if err := validateInput(category, image); err != nil {
		return nil, err
	}

	logger := logging.From(ctx).With("user_id", s.user.ID, "category", category)

	status, err := s.uc.limiter.Acquire(ctx, s.user)
	if err != nil {
		if errors.Is(err, model.ErrQuotaExceeded) {
			logger.Info("analysis rejected by daily limit")
		} else {
			logger.Error("failed to acquire quota", "error", err)
		}
		return nil, err
	}

	s.mu.Lock()
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		logger.Debug("capture superseded before analysis", "generation", gen, "current", current)
		return nil, goerr.Wrap(model.ErrStaleResponse, "capture superseded",
			goerr.V("generation", gen),
			goerr.V("current", current))
	}
	callCtx, cancel := context.WithTimeout(ctx, s.uc.timeout)
	s.cancel = cancel
	s.state = StateAnalyzing
	s.mu.Unlock()

	analysis, err := s.uc.analyzer.Analyze(callCtx, image, category)
	if err == nil {
		err = analysis.Validate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()

	if gen != s.generation {
		logger.Debug("dropped stale analysis response", "generation", gen, "current", s.generation)
		return nil, goerr.Wrap(model.ErrStaleResponse, "analysis response superseded",
			goerr.V("generation", gen),
			goerr.V("current", s.generation))
	}
	s.cancel = nil

	if err != nil {
		s.state = StateIdle
		logger.Warn("image analysis failed", "error", err)
		return nil, goerr.Wrap(errors.Join(model.ErrAnalysisFailed, err), "image analysis failed",
			goerr.V("category", category))
	}

	result := &Result{
		Generation: gen,
		Category:   category,
		Image:      image,
		Analysis:   analysis,
		Quota:      status,
	}

	switch analysis.Kind {
	case model.AnalysisAttributes:
		result.Candidates = matcher.Match(s.uc.catalog.InCategory(category), category, analysis.Guess.Attributes)
		if v := analysis.Guess.IsPoisonous; v != nil {
			applyPoisonVerdict(result.Candidates, *v)
		}
	case model.AnalysisDirect:
		result.Candidates = []*model.ScoredCandidate{s.uc.resolveIdentification(category, image, analysis.Identification)}
	}

	s.state = StateMatchesReady
	s.result = result
	logger.Debug("analysis completed", "kind", analysis.Kind, "candidates", len(result.Candidates))

	return result, nil
}

// PoisonWarning is shown when the analyzer flags the photographed specimen
// but the candidate record carries no warning of its own.
const PoisonWarning = "The photographed specimen looks poisonous. Do not touch or eat it."

// applyPoisonVerdict lets the analyzer's verdict on the photo override the
// stored flag of every candidate. Candidates are copies, so the catalog is
// not changed.
func applyPoisonVerdict(candidates []*model.ScoredCandidate, poisonous bool) {
	for _, c := range candidates {
		c.Species.IsPoisonous = poisonous
		switch {
		case !poisonous:
			c.Species.ToxicityWarning = ""
		case c.Species.ToxicityWarning == "":
			c.Species.ToxicityWarning = PoisonWarning
		}
	}
}

// resolveIdentification maps a direct identification to the catalog record
// of the same name, or to a transient record showing the user's own photo.
func (uc *UseCase) resolveIdentification(category model.Category, image model.DataURI, id *model.Identification) *model.ScoredCandidate {
	record, found := uc.catalog.FindByName(id.Name)
	if !found && id.ScientificName != "" {
		record, found = uc.catalog.FindByName(id.ScientificName)
	}

	if found {
		// the fresh safety verdict wins over the stored one
		record.IsPoisonous = id.IsPoisonous
		record.ToxicityWarning = ""
		if id.IsPoisonous {
			record.ToxicityWarning = id.ToxicityWarning
		}
		return &model.ScoredCandidate{
			Species:    record,
			Score:      len(record.Category.AttributeKeys()),
			Confidence: 100,
		}
	}

	record = &model.SpeciesRecord{
		Category:       category,
		Name:           id.Name,
		ScientificName: id.ScientificName,
		IsPoisonous:    id.IsPoisonous,
		KeyInformation: id.KeyInformation,
		Image:          string(image),
		FurtherReading: furtherReadingURL(id),
	}
	if id.IsPoisonous {
		record.ToxicityWarning = id.ToxicityWarning
	}
	if category.IsPlantLike() && len(id.CareTips) > 0 {
		record.CareTips = append([]model.CareTip(nil), id.CareTips...)
	}

	return &model.ScoredCandidate{
		Species:    record,
		Confidence: 100,
		IsNew:      true,
	}
}

func furtherReadingURL(id *model.Identification) string {
	q := id.ScientificName
	if q == "" {
		q = id.Name
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(q)
}

// Confirm picks the candidate at index of the current result
func (s *Session) Confirm(ctx context.Context, index int) (*model.ScoredCandidate, error) {
	s.mu.Lock()
	if s.state != StateMatchesReady {
		state := s.state
		s.mu.Unlock()
		return nil, goerr.Wrap(model.ErrInvalidState, "no matches to confirm", goerr.V("state", state))
	}
	if index < 0 || index >= len(s.result.Candidates) {
		n := len(s.result.Candidates)
		s.mu.Unlock()
		return nil, goerr.Wrap(model.ErrCandidateNotFound, "candidate index out of range",
			goerr.V("index", index),
			goerr.V("candidates", n))
	}

	chosen := s.result.Candidates[index]
	s.state = StateResultConfirmed
	s.confirmed = chosen
	category := s.result.Category
	s.mu.Unlock()

	if s.uc.recorder != nil {
		obs := &model.Observation{
			ID:             model.NewObservationID(),
			UserID:         s.user.ID,
			SpeciesID:      chosen.Species.ID,
			Name:           chosen.Species.Name,
			ScientificName: chosen.Species.ScientificName,
			Category:       category,
			Confidence:     chosen.Confidence,
			IsNew:          chosen.IsNew,
			ObservedAt:     s.uc.now(),
		}
		if err := s.uc.recorder.RecordObservation(ctx, obs); err != nil {
			logging.From(ctx).Warn("failed to record observation", "error", err, "species", chosen.Species.Name)
		}
	}

	return chosen, nil
}

// Save stores the confirmed species together with the analyzed photo
func (s *Session) Save(ctx context.Context, notes string) (*model.CollectionItem, error) {
	if s.uc.collection == nil {
		return nil, goerr.New("collection is not configured")
	}

	s.mu.Lock()
	if s.state != StateResultConfirmed {
		state := s.state
		s.mu.Unlock()
		return nil, goerr.Wrap(model.ErrInvalidState, "nothing confirmed to save", goerr.V("state", state))
	}
	species := s.confirmed.Species
	image := s.result.Image
	s.mu.Unlock()

	item, err := s.uc.collection.Save(ctx, s.user.ID, species, image)
	if err != nil {
		return nil, err
	}
	if notes != "" {
		return s.uc.collection.SaveNotes(ctx, s.user.ID, item.InstanceID, notes)
	}
	return item, nil
}

// Reset returns to Idle from any state and abandons any in-flight analysis
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandon()
}

// abandon clears the session and supersedes any in-flight analysis. The
// caller holds mu.
func (s *Session) abandon() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.state = StateIdle
	s.result = nil
	s.confirmed = nil
}
